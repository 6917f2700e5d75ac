package utils

import (
	"reflect"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// Validator returns the shared validator with json field names and the
// notblank rule registered.
func Validator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		if err := validate.RegisterValidation("notblank", validators.NotBlank); err != nil {
			panic(err)
		}
	})
	return validate
}

// ValidateStruct returns a field -> reason map, or nil when s is valid.
func ValidateStruct(s interface{}) map[string]string {
	err := Validator().Struct(s)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]string{"_": err.Error()}
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required", "notblank":
			fields[fe.Field()] = "is required"
		case "email":
			fields[fe.Field()] = "must be a valid email address"
		default:
			fields[fe.Field()] = "failed " + fe.Tag() + " validation"
		}
	}
	return fields
}

// ParseID parses a positive integer id. ok is false for anything else.
func ParseID(s string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
