package validator

import (
	"encoding/json"
	"errors"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
)

// ErrTranslatorNotFound means the English translator could not be loaded.
var ErrTranslatorNotFound = errors.New("translator not found")

// V10ValidationError maps a field's JSON name to its English message, e.g.
// {"email": "email must be a valid email address"}.
type V10ValidationError map[string]string

func (vs V10ValidationError) Error() string {
	if len(vs) == 0 {
		return "validation error"
	}
	//nolint:errcheck,errchkjson // a map[string]string always encodes
	b, _ := json.Marshal(vs)
	return string(b)
}

// Values exposes the map for the router's error body.
func (vs V10ValidationError) Values() map[string]string {
	return vs
}

// V10Validator is the go-playground/validator backed Validator.
type V10Validator struct {
	validate *validator.Validate
	trans    ut.Translator
}

// NewV10Validator returns a validator with required-struct checks enabled,
// JSON field names and English messages.
func NewV10Validator() (*V10Validator, error) {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(fieldName)

	english := en.New()
	trans, ok := ut.New(english, english).GetTranslator(english.Locale())
	if !ok {
		return nil, ErrTranslatorNotFound
	}
	if err := enTranslations.RegisterDefaultTranslations(v, trans); err != nil {
		return nil, err
	}

	return &V10Validator{validate: v, trans: trans}, nil
}

// Validate returns nil, a V10ValidationError for rule failures, or the
// underlying error when data is not a struct.
func (v *V10Validator) Validate(data any) error {
	err := v.validate.Struct(data)

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	out := make(V10ValidationError, len(fieldErrs))
	for _, fe := range fieldErrs {
		out[fe.Field()] = fe.Translate(v.trans)
	}
	return out
}
