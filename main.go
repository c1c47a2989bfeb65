package main

import (
	"context"
	"os"

	"github.com/shandysiswandi/otpgate/internal/app"
)

func main() {
	a := app.New()
	<-a.Start()

	ctx, cancel := context.WithTimeout(context.Background(), a.ShutdownTimeout())
	a.Stop(ctx)
	cancel()

	if a.Err() != nil {
		os.Exit(1)
	}
}
