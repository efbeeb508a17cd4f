package service

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"github.com/Skotchmaster/mini_online_store/internal/models"
)

const maxPasswordBytes = 72

var (
	validate   *validator.Validate
	translator ut.Translator

	usernameChars = regexp.MustCompile(`^[\w.@+-]+$`)
)

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})

	mustRegister(validate.RegisterValidation("notme", func(fl validator.FieldLevel) bool {
		return !models.IsReservedUsername(fl.Field().String())
	}))
	mustRegister(validate.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernameChars.MatchString(fl.Field().String())
	}))
	// bcrypt rejects passwords longer than 72 bytes, not runes.
	mustRegister(validate.RegisterValidation("bcryptlen", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= maxPasswordBytes
	}))

	english := en.New()
	var found bool
	translator, found = ut.New(english, english).GetTranslator("en")
	if !found {
		panic("translator en not found")
	}
	mustRegister(en_translations.RegisterDefaultTranslations(validate, translator))
	addCustomTranslations()
}

func mustRegister(err error) {
	if err != nil {
		panic(err)
	}
}

func addTranslation(tag, text string, withParam bool) {
	mustRegister(validate.RegisterTranslation(tag, translator, func(ut ut.Translator) error {
		return ut.Add(tag, text, true)
	}, func(ut ut.Translator, fe validator.FieldError) string {
		var t string
		if withParam {
			t, _ = ut.T(tag, fe.Param())
		} else {
			t, _ = ut.T(tag)
		}
		return t
	}))
}

func addCustomTranslations() {
	addTranslation("required", "This field is required.", false)
	addTranslation("email", "Enter a valid email address.", false)
	addTranslation("max", "Ensure this field has no more than {0} characters.", true)
	addTranslation("min", "Ensure this field has at least {0} characters.", true)
	addTranslation("bcryptlen", "Ensure this field has no more than 72 bytes.", false)
	addTranslation("notme", "This username is reserved.", false)
	addTranslation("username", "Enter a valid username. This value may contain only letters, numbers, and @/./+/-/_ characters.", false)
}

// validateStruct returns nil or a *ValidationError keyed by json field names.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make(map[string][]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = append(fields[fe.Field()], fe.Translate(translator))
	}
	return &ValidationError{Fields: fields}
}

// normalizeEmail trims and lowercases the domain part.
func normalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	i := strings.LastIndex(email, "@")
	if i < 0 {
		return email
	}
	return email[:i+1] + strings.ToLower(email[i+1:])
}
