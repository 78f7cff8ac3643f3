package interaction

import (
	"fmt"
	"math"
	"reflect"
	"strings"
	"sync"

	"article-interactions/pkg/errors"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		_ = validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
	})
	return validate
}

// ValidateKey checks that both key parts are present.
func ValidateKey(k Key) error {
	return toAppError(validatorInstance().Struct(k))
}

// MaxLimit is the largest row limit the store accepts.
const MaxLimit = math.MaxInt32

// ValidateDelta checks key presence and that every counter is a
// non-negative increment of at most MaxIncrement.
func ValidateDelta(d Delta) error {
	if err := toAppError(validatorInstance().Struct(d)); err != nil {
		return err
	}
	if d.Total() > 3*MaxIncrement {
		return errors.NewValidationError(fmt.Sprintf("delta total exceeds %d", int64(3*MaxIncrement)))
	}
	return nil
}

// ValidateLimit checks a caller supplied row limit.
func ValidateLimit(limit int) error {
	if limit <= 0 {
		return errors.NewValidationError(fmt.Sprintf("limit must be positive, got %d", limit))
	}
	if int64(limit) > MaxLimit {
		return errors.NewValidationError(fmt.Sprintf("limit must be at most %d, got %d", MaxLimit, limit))
	}
	return nil
}

func toAppError(err error) error {
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.NewValidationError(err.Error())
	}

	details := make(map[string]interface{}, len(verrs))
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		details[fe.Field()] = fe.Tag()
		fields = append(fields, fe.Field())
	}
	return errors.NewValidationError("invalid " + strings.Join(fields, ", ")).WithDetails(details)
}
