package validator

import (
	"strings"

	"rbac-admin/domain"

	"github.com/go-playground/validator/v10"
)

type Registration struct {
	Tag  string
	Func validator.Func
}

func registrations(guards domain.GuardSet) []Registration {
	return []Registration{
		{
			Tag:  Guard,
			Func: IsValidGuard(guards),
		},
		{
			Tag:  TokenStatus,
			Func: IsValidTokenStatus,
		},
		{
			Tag:  NotBlank,
			Func: IsNotBlank,
		},
	}
}

// IsValidGuard accepts only guards of the configured guard set.
func IsValidGuard(guards domain.GuardSet) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return guards.Contains(fl.Field().String())
	}
}

func IsValidTokenStatus(fl validator.FieldLevel) bool {
	return domain.TokenStatus(fl.Field().String()).IsValid()
}

func IsNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}
