package validator

import (
	"fmt"
	"reflect"
	"strings"

	"rbac-admin/domain"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
)

type Validator interface {
	Engine() any
	ValidateStruct(obj any) error
	GetTranslator(locale string) (ut.Translator, error)
	TranslateError(err error) error
}

var defaultValidator Validator = New(domain.GuardSet{domain.GuardWeb, domain.GuardAPI})

func DefaultValidator() Validator {
	return defaultValidator
}

// RegisterValidatorWithGin installs a validator that knows guards as gin's
// binding validator.
func RegisterValidatorWithGin(guards domain.GuardSet) {
	defaultValidator = New(guards)
	binding.Validator = defaultValidator.(*validatorImpl)
}

// Bind binds the request body into obj and translates failures.
func Bind(c *gin.Context, obj any) error {
	if err := c.ShouldBind(obj); err != nil {
		return defaultValidator.TranslateError(err)
	}
	return nil
}

func BindQuery(c *gin.Context, obj any) error {
	if err := c.ShouldBindQuery(obj); err != nil {
		return defaultValidator.TranslateError(err)
	}
	return nil
}

// BindBulk reads bulk ids from the "ids" query parameter or, when absent,
// from a {"ids": ...} JSON body. An empty body selects nothing.
func BindBulk(c *gin.Context) (domain.BulkIDs, error) {
	if raw, ok := c.GetQuery("ids"); ok {
		return domain.ParseBulkIDs(raw)
	}
	if c.Request.ContentLength == 0 {
		return domain.BulkIDs{}, nil
	}
	var req domain.BulkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return nil, defaultValidator.TranslateError(err)
	}
	return req.IDs, nil
}

var _ Validator = (*validatorImpl)(nil)
var _ binding.StructValidator = (*validatorImpl)(nil)

func New(guards domain.GuardSet) Validator {
	v := new(validatorImpl)
	v.validate = validator.New()
	v.validate.SetTagName("binding")
	v.locale = "en"

	v.initTranslator()

	v.validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	for _, validation := range registrations(guards) {
		if err := v.validate.RegisterValidation(validation.Tag, validation.Func); err != nil {
			panic(fmt.Sprintf("register validation %s: %v", validation.Tag, err))
		}
	}

	v.registerCustomTranslations()
	return v
}

type validatorImpl struct {
	validate   *validator.Validate
	uni        *ut.UniversalTranslator
	translator ut.Translator
	locale     string
}

func (v *validatorImpl) ValidateStruct(obj any) error {
	if kindOfData(obj) == reflect.Struct {
		if err := v.validate.Struct(obj); err != nil {
			return err
		}
	}
	return nil
}

func (v *validatorImpl) Engine() any {
	return v.validate
}

func (v *validatorImpl) GetTranslator(locale string) (ut.Translator, error) {
	trans, found := v.uni.GetTranslator(locale)
	if !found {
		return nil, fmt.Errorf("translator for locale '%s' not found", locale)
	}
	return trans, nil
}

func kindOfData(data any) reflect.Kind {
	value := reflect.ValueOf(data)
	valueType := value.Kind()

	if valueType == reflect.Ptr {
		valueType = value.Elem().Kind()
	}
	return valueType
}
