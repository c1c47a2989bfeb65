package mail

import (
	"errors"
	"fmt"
)

// Supported values for the mail.driver setting.
const (
	DriverSMTP = "smtp"
	DriverLog  = "log"
)

// ErrUnknownDriver is returned by New for an unsupported driver name.
var ErrUnknownDriver = errors.New("unknown mail driver")

// New builds the Mail implementation named by driver.
func New(driver string, cfg SMTPConfig) (Mail, error) {
	switch driver {
	case DriverSMTP:
		return NewSMTP(cfg)
	case DriverLog, "":
		return NewLog(), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}
