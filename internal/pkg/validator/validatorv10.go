package validator

import (
	"encoding/json"
	"errors"
	"log/slog"
	"regexp"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	enTranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/samber/lo"
)

// ErrTranslatorNotFound is returned when the English translator cannot be built.
var ErrTranslatorNotFound = errors.New("translator not found")

// rule is a custom tag together with its English message.
type rule struct {
	tag     string
	message string
	check   validator.Func
}

// `numeric` alone lets signs, decimals and non ASCII digits through.
var rePasscode = regexp.MustCompile(`^[0-9]{6}$`)

// The stock e164 tag makes the leading plus optional.
var rePhone = regexp.MustCompile(`^\+[1-9][0-9]{1,14}$`)

var rules = []rule{
	{
		tag:     "passcode",
		message: "{0} must be exactly 6 digits",
		check: func(fl validator.FieldLevel) bool {
			s, ok := fl.Field().Interface().(string)
			return ok && rePasscode.MatchString(s)
		},
	},
	{
		tag:     "phone",
		message: "{0} must be an E.164 phone number such as +15551234567",
		check: func(fl validator.FieldLevel) bool {
			s, ok := fl.Field().Interface().(string)
			return ok && rePhone.MatchString(s)
		},
	},
}

// V10ValidationError maps snake_case field names to translated messages.
type V10ValidationError map[string]string

func (vs V10ValidationError) Error() string {
	if len(vs) == 0 {
		return "validation error"
	}
	b, _ := json.Marshal(map[string]string(vs))
	return string(b)
}

// Values returns the underlying map.
func (vs V10ValidationError) Values() map[string]string {
	return vs
}

// V10Validator is the go-playground/validator backed Validator.
type V10Validator struct {
	validate   *validator.Validate
	translator ut.Translator
}

func NewV10Validator() (*V10Validator, error) {
	validate := validator.New(validator.WithRequiredStructEnabled())

	english := en.New()
	trans, ok := ut.New(english, english).GetTranslator("en")
	if !ok {
		return nil, ErrTranslatorNotFound
	}
	if err := enTranslations.RegisterDefaultTranslations(validate, trans); err != nil {
		return nil, err
	}

	for _, r := range rules {
		if err := register(validate, trans, r); err != nil {
			return nil, err
		}
	}

	return &V10Validator{validate: validate, translator: trans}, nil
}

func register(validate *validator.Validate, trans ut.Translator, r rule) error {
	if err := validate.RegisterValidation(r.tag, r.check); err != nil {
		return err
	}

	return validate.RegisterTranslation(r.tag, trans,
		func(t ut.Translator) error {
			return t.Add(r.tag, r.message, false)
		},
		func(t ut.Translator, fe validator.FieldError) string {
			msg, err := t.T(fe.Tag(), fe.Field())
			if err != nil {
				slog.Warn("failed to translate validation error", "tag", fe.Tag(), "field", fe.Field(), "error", err)
				return fe.Error()
			}
			return msg
		},
	)
}

// Validate returns nil, a V10ValidationError, or the raw error for
// non-struct input.
func (v *V10Validator) Validate(data any) error {
	err := v.validate.Struct(data)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	out := make(V10ValidationError, len(fieldErrs))
	for _, fe := range fieldErrs {
		out[lo.SnakeCase(fe.Field())] = fe.Translate(v.translator)
	}
	return out
}
