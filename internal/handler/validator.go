package handler

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"github.com/skillswap/course-marketplace/internal/model"
	"github.com/skillswap/course-marketplace/internal/utils"
)

// Validator adapts go-playground/validator to echo.Validator.
type Validator struct {
	v *validator.Validate
}

var imageURL = regexp.MustCompile(`(?i)^(https?://.+|data:image/(jpeg|jpg|png|gif|webp|svg\+xml);base64,.+)$`)

// NewValidator registers the custom rules used by the request DTOs:
//
//	strongpassword  lowercase, uppercase and digit, at least 8 long
//	categories      comma separated tags from model.Categories
//	hasletter       at least one letter
//	imageurl        http(s) URL or base64 image data URL
//
// Decimal fields are validated as floats so gte/lte work on prices.
func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	v.RegisterCustomTypeFunc(func(f reflect.Value) interface{} {
		if d, ok := f.Interface().(decimal.Decimal); ok {
			return d.InexactFloat64()
		}
		return nil
	}, decimal.Decimal{})

	mustRegister(v, "strongpassword", func(fl validator.FieldLevel) bool {
		return utils.StrongPassword(fl.Field().String())
	})
	mustRegister(v, "categories", func(fl validator.FieldLevel) bool {
		_, ok := model.ParseCategories(fl.Field().String())
		return ok
	})
	mustRegister(v, "hasletter", func(fl validator.FieldLevel) bool {
		return strings.IndexFunc(fl.Field().String(), unicode.IsLetter) >= 0
	})
	mustRegister(v, "imageurl", func(fl validator.FieldLevel) bool {
		return imageURL.MatchString(fl.Field().String())
	})
	return &Validator{v: v}
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register %s: %v", tag, err))
	}
}

// Validate implements echo.Validator.
func (cv *Validator) Validate(i interface{}) error {
	return cv.v.Struct(i)
}

// FieldError is one entry of the "errors" array of a validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// bindAndValidate decodes the body into dst and validates it. On failure it
// has already written the 400 response and returns false.
func bindAndValidate(c echo.Context, dst interface{}) (bool, error) {
	if err := c.Bind(dst); err != nil {
		return false, badRequest(c, "Invalid request body")
	}
	if err := c.Validate(dst); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return false, badRequest(c, "Validation failed")
		}
		out := make([]FieldError, 0, len(verrs))
		for _, fe := range verrs {
			out = append(out, FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
		}
		return false, c.JSON(http.StatusBadRequest, echo.Map{
			"success": false,
			"message": "Validation failed",
			"errors":  out,
		})
	}
	return true, nil
}

func fieldMessage(fe validator.FieldError) string {
	f := fe.Field()
	switch fe.Tag() {
	case "required":
		return f + " is required"
	case "email":
		return "Please enter a valid email"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters", f, fe.Param())
		}
		return fmt.Sprintf("%s must be at least %s", f, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters", f, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", f, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be %s or greater", f, fe.Param())
	case "lte":
		return fmt.Sprintf("%s is too large", f)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", f, fe.Param())
	case "strongpassword":
		return "Password must contain at least one lowercase letter, one uppercase letter, and one number"
	case "categories":
		return "Please select a valid category"
	case "hasletter":
		return f + " must contain at least one letter"
	case "imageurl":
		return "Course image must be a valid URL or image file"
	}
	return f + " is invalid"
}
