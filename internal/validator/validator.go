// Package validator registers the household domain rules with Gin's binding engine.
package validator

import (
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/webtrainer-in/ExpenseTracker/internal/models"
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		Configure(v)
	}
}

// Configure installs the decimal type adapter and the domain tags on v.
func Configure(v *validator.Validate) {
	v.RegisterCustomTypeFunc(decimalValue, decimal.Decimal{})
	_ = v.RegisterValidation("payment_method", validatePaymentMethod)
	_ = v.RegisterValidation("txn_type", validateTransactionType)
	_ = v.RegisterValidation("wallet_source", validateWalletSource)
	_ = v.RegisterValidation("reserve_source", validateReserveSource)
	_ = v.RegisterValidation("role", validateRole)
	_ = v.RegisterValidation("notblank", validateNotBlank)
}

// decimalValue lets numeric tags like gt=0 apply to decimal fields.
func decimalValue(field reflect.Value) any {
	if d, ok := field.Interface().(decimal.Decimal); ok {
		f, _ := d.Float64()
		return f
	}
	return nil
}

func validatePaymentMethod(fl validator.FieldLevel) bool {
	switch models.PaymentMethod(fl.Field().String()) {
	case models.PaymentMethodUPI, models.PaymentMethodCash, models.PaymentMethodCard:
		return true
	}
	return false
}

func validateTransactionType(fl validator.FieldLevel) bool {
	return models.TransactionType(fl.Field().String()).IsValid()
}

func validateWalletSource(fl validator.FieldLevel) bool {
	return models.IsWalletSource(fl.Field().String())
}

func validateReserveSource(fl validator.FieldLevel) bool {
	return models.IsReserveSource(fl.Field().String())
}

func validateRole(fl validator.FieldLevel) bool {
	switch models.Role(fl.Field().String()) {
	case models.RoleMember, models.RoleAdmin:
		return true
	}
	return false
}

func validateNotBlank(fl validator.FieldLevel) bool {
	return strings.TrimSpace(fl.Field().String()) != ""
}
