package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
)

func TestWrapKeepsSentinelFields(t *testing.T) {
	cause := fmt.Errorf("connection reset")
	err := Wrap(ErrInternalServer, cause)

	if err.Code != "INTERNAL_ERROR" || err.StatusCode != http.StatusInternalServerError {
		t.Fatalf("unexpected code/status: %s %d", err.Code, err.StatusCode)
	}
	if !errors.Is(err, cause) {
		t.Error("expected wrapped cause to be reachable with errors.Is")
	}
	if !errors.Is(err, ErrInternalServer) {
		t.Error("expected wrapped error to match its sentinel")
	}
}

func TestInvalidField(t *testing.T) {
	err := InvalidField("amount", "amount must be positive")

	if err.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", err.StatusCode)
	}
	if err.Details["field"] != "amount" {
		t.Errorf("expected field detail amount, got %v", err.Details["field"])
	}
	if ErrInvalidInput.Details != nil {
		t.Error("sentinel must not be mutated")
	}
}

func TestInsufficientBalance(t *testing.T) {
	err := InsufficientBalance(decimal.NewFromInt(1000), decimal.NewFromInt(100))

	if err.Code != "INSUFFICIENT_BALANCE" {
		t.Errorf("expected INSUFFICIENT_BALANCE, got %s", err.Code)
	}
	if err.Message != "Insufficient balance. Required: 1000.00, Available: 100.00" {
		t.Errorf("unexpected message: %s", err.Message)
	}
	if err.Details["required"] != "1000.00" || err.Details["available"] != "100.00" {
		t.Errorf("unexpected details: %v", err.Details)
	}
}

func TestIsComparesByCode(t *testing.T) {
	derived := WithMessage(ErrForbidden, "admins only")
	if !errors.Is(derived, ErrForbidden) {
		t.Error("expected derived error to match sentinel")
	}
	if errors.Is(derived, ErrUnauthorized) {
		t.Error("expected different codes not to match")
	}
}
