package validator

import (
	"encoding/json"
	"errors"
	"io"

	"rbac-admin/domain"
	"rbac-admin/pkg/log"

	enLocale "github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

func (v *validatorImpl) initTranslator() {
	en := enLocale.New()
	v.uni = ut.New(en, en)

	trans, _ := v.uni.GetTranslator("en")
	v.translator = trans

	if err := en_translations.RegisterDefaultTranslations(v.validate, trans); err != nil {
		log.Default().Warn("Failed to register English translations", log.Error(err))
	}
}

func (v *validatorImpl) registerCustomTranslations() {
	translations := map[string]string{
		Guard:       "The selected {0} guard is invalid.",
		TokenStatus: "The selected {0} is invalid.",
		NotBlank:    "The {0} field is required.",
		"required":  "The {0} field is required.",
		"eqfield":   "The {0} field confirmation does not match.",
	}

	for tag, message := range translations {
		err := v.validate.RegisterTranslation(tag, v.translator,
			func(ut ut.Translator) error {
				return ut.Add(tag, message, true)
			},
			func(ut ut.Translator, fe validator.FieldError) string {
				t, _ := ut.T(tag, fe.Field())
				return t
			},
		)
		if err != nil {
			log.Default().Warn("Failed to register English translation", log.String("tag", tag), log.Error(err))
		}
	}
}

// TranslateError turns binding failures into domain errors. Validation
// failures become a field keyed validation error, malformed bodies a bad
// request.
func (v *validatorImpl) TranslateError(err error) error {
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			field := fe.Field()
			if _, ok := fields[field]; ok {
				continue
			}
			fields[field] = fe.Translate(v.translator)
		}
		return domain.NewValidationError(fields)
	}

	var de *domain.DetailedError
	if errors.As(err, &de) {
		return de
	}

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.Is(err, io.EOF):
		return domain.ErrBadRequest.WithError("The request body is empty.")
	case errors.As(err, &typeErr):
		return domain.FieldError(typeErr.Field, "The "+typeErr.Field+" field has an invalid type.")
	case errors.As(err, &syntaxErr):
		return domain.ErrBadRequest.WithError("The request body is not valid JSON.")
	default:
		return domain.ErrBadRequest.WithWrap(err)
	}
}
