package handlers

import (
	"github.com/SscSPs/water_permits_app/internal/core/domain"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// RegisterValidators adds the permit-specific tags to gin's validator engine.
// It is safe to call more than once.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return nil
	}
	validations := map[string]validator.Func{
		"stage":               validateStage,
		"decision":            validateDecision,
		"positive_decimal":    validatePositiveDecimal,
		"nonnegative_decimal": validateNonNegativeDecimal,
	}
	for tag, fn := range validations {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return err
		}
	}
	return nil
}

func validateStage(fl validator.FieldLevel) bool {
	return domain.Stage(fl.Field().Int()).IsValid()
}

func validateDecision(fl validator.FieldLevel) bool {
	return domain.Decision(fl.Field().String()).IsValid()
}

func decimalField(fl validator.FieldLevel) (decimal.Decimal, bool) {
	d, ok := fl.Field().Interface().(decimal.Decimal)
	return d, ok
}

func validatePositiveDecimal(fl validator.FieldLevel) bool {
	d, ok := decimalField(fl)
	return ok && d.IsPositive()
}

func validateNonNegativeDecimal(fl validator.FieldLevel) bool {
	d, ok := decimalField(fl)
	return ok && !d.IsNegative()
}
