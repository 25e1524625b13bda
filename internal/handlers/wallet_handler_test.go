package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "github.com/webtrainer-in/ExpenseTracker/internal/errors"
	"github.com/webtrainer-in/ExpenseTracker/internal/ledger"
	"github.com/webtrainer-in/ExpenseTracker/internal/models"
	"github.com/webtrainer-in/ExpenseTracker/internal/pagination"
	"github.com/webtrainer-in/ExpenseTracker/internal/services"
)

func setupWalletRouter(handler *WalletHandler, role models.Role) *gin.Engine {
	r := gin.New()
	r.Use(injectActor(testUserID, role))
	r.GET("/wallet/balance", handler.GetBalance)
	r.GET("/wallet/balances", handler.GetBalances)
	r.GET("/wallet/transactions", handler.GetTransactions)
	r.POST("/wallet/deposit", handler.Deposit)
	r.POST("/wallet/withdraw", handler.Withdraw)
	return r
}

func TestWalletHandler_GetBalance(t *testing.T) {
	var gotUserID string
	svc := &mockWalletService{
		getBalanceFn: func(_ context.Context, _ services.Actor, userID string) (*ledger.Balance, error) {
			gotUserID = userID
			return &ledger.Balance{Amount: decimal.RequireFromString("-20.50"), Version: 3}, nil
		},
	}
	r := setupWalletRouter(NewWalletHandler(svc, &mockAuditService{}), models.RoleAdmin)

	rec := doRequest(r, "GET", "/wallet/balance?user_id="+testOtherID, "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if gotUserID != testOtherID {
		t.Errorf("expected user_id %s, got %s", testOtherID, gotUserID)
	}
	result := parseJSON(t, rec)
	if result["negative_balance"] != true {
		t.Error("expected negative_balance true")
	}
	balance := result["balance"].(map[string]interface{})
	if balance["current_balance"] != "-20.5" {
		t.Errorf("expected current_balance -20.5, got %v", balance["current_balance"])
	}
}

func TestWalletHandler_Deposit(t *testing.T) {
	t.Run("records and audits", func(t *testing.T) {
		audit := &mockAuditService{}
		var got services.DepositInput
		svc := &mockWalletService{
			depositFn: func(_ context.Context, _ services.Actor, in services.DepositInput) (*services.WalletResult, error) {
				got = in
				return &services.WalletResult{
					Transaction: &models.WalletTransaction{ID: testItemID, Amount: in.Amount, Description: in.Source},
					Balance:     in.Amount,
				}, nil
			},
		}
		r := setupWalletRouter(NewWalletHandler(svc, audit), models.RoleMember)

		rec := doRequest(r, "POST", "/wallet/deposit", `{"amount":"500","source":"ATM Withdrawal","date":"2024-03-10"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if got.Source != models.SourceATM || !got.Amount.Equal(decimal.NewFromInt(500)) {
			t.Errorf("unexpected input %+v", got)
		}
		if got.Date.IsZero() {
			t.Error("expected date to be parsed")
		}
		if actions := audit.actions(); len(actions) != 1 || actions[0] != services.AuditWalletDeposit {
			t.Errorf("expected wallet deposit audit entry, got %v", actions)
		}
	})

	t.Run("rejects unknown source", func(t *testing.T) {
		r := setupWalletRouter(NewWalletHandler(&mockWalletService{}, &mockAuditService{}), models.RoleMember)

		rec := doRequest(r, "POST", "/wallet/deposit", `{"amount":"5","source":"Lottery"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("forbidden source is not audited", func(t *testing.T) {
		audit := &mockAuditService{}
		svc := &mockWalletService{
			depositFn: func(context.Context, services.Actor, services.DepositInput) (*services.WalletResult, error) {
				return nil, apperrors.ErrForbidden
			},
		}
		r := setupWalletRouter(NewWalletHandler(svc, audit), models.RoleMember)

		rec := doRequest(r, "POST", "/wallet/deposit", `{"amount":"5","source":"Added from Reserve"}`)

		if rec.Code != http.StatusForbidden {
			t.Fatalf("expected 403, got %d", rec.Code)
		}
		if len(audit.actions()) != 0 {
			t.Error("failed deposit must not be audited")
		}
	})

	t.Run("insufficient reserve carries details", func(t *testing.T) {
		svc := &mockWalletService{
			depositFn: func(context.Context, services.Actor, services.DepositInput) (*services.WalletResult, error) {
				return nil, apperrors.InsufficientBalance(decimal.NewFromInt(50), decimal.NewFromInt(10))
			},
		}
		r := setupWalletRouter(NewWalletHandler(svc, &mockAuditService{}), models.RoleAdmin)

		rec := doRequest(r, "POST", "/wallet/deposit", `{"amount":"50","source":"Added from Reserve"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		result := parseJSON(t, rec)
		assertErrorCode(t, result, "INSUFFICIENT_BALANCE")
		details, ok := result["error"].(map[string]interface{})["details"].(map[string]interface{})
		if !ok {
			t.Fatalf("expected details in %v", result)
		}
		if details["required"] == nil || details["available"] == nil {
			t.Errorf("expected required and available, got %v", details)
		}
	})
}

func TestWalletHandler_Withdraw(t *testing.T) {
	t.Run("flags negative balance", func(t *testing.T) {
		svc := &mockWalletService{
			withdrawFn: func(_ context.Context, _ services.Actor, in services.WithdrawInput) (*services.WalletResult, error) {
				return &services.WalletResult{
					Transaction:     &models.WalletTransaction{ID: testItemID, Amount: in.Amount},
					Balance:         decimal.NewFromInt(-30),
					NegativeBalance: true,
				}, nil
			},
		}
		r := setupWalletRouter(NewWalletHandler(svc, &mockAuditService{}), models.RoleMember)

		rec := doRequest(r, "POST", "/wallet/withdraw", `{"amount":"130","description":"Milkman"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if parseJSON(t, rec)["negative_balance"] != true {
			t.Error("expected negative_balance true")
		}
	})

	t.Run("requires description", func(t *testing.T) {
		r := setupWalletRouter(NewWalletHandler(&mockWalletService{}, &mockAuditService{}), models.RoleMember)

		rec := doRequest(r, "POST", "/wallet/withdraw", `{"amount":"10"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestWalletHandler_GetTransactions(t *testing.T) {
	t.Run("passes type filter", func(t *testing.T) {
		var gotFilter services.TransactionFilter
		svc := &mockWalletService{
			listTransactionsFn: func(_ context.Context, _ services.Actor, _ string, filter services.TransactionFilter, page pagination.PageRequest) (*pagination.PageResponse[models.WalletTransaction], error) {
				gotFilter = filter
				page.Defaults()
				return pagination.NewPageResponse([]models.WalletTransaction{}, page, 0), nil
			},
		}
		r := setupWalletRouter(NewWalletHandler(svc, &mockAuditService{}), models.RoleMember)

		rec := doRequest(r, "GET", "/wallet/transactions?type=withdrawal", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotFilter.Type == nil || *gotFilter.Type != models.TransactionTypeWithdrawal {
			t.Errorf("expected withdrawal filter, got %v", gotFilter.Type)
		}
	})

	t.Run("rejects unknown type", func(t *testing.T) {
		r := setupWalletRouter(NewWalletHandler(&mockWalletService{}, &mockAuditService{}), models.RoleMember)

		rec := doRequest(r, "GET", "/wallet/transactions?type=refund", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_TRANSACTION_TYPE")
	})

	t.Run("rejects oversized page", func(t *testing.T) {
		r := setupWalletRouter(NewWalletHandler(&mockWalletService{}, &mockAuditService{}), models.RoleMember)

		rec := doRequest(r, "GET", "/wallet/transactions?page_size=500", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}

func TestWalletHandler_GetBalances(t *testing.T) {
	svc := &mockWalletService{
		listBalancesFn: func(_ context.Context, actor services.Actor) ([]models.WalletBalance, error) {
			if !actor.IsAdmin() {
				return nil, apperrors.ErrForbidden
			}
			return []models.WalletBalance{{UserID: testUserID}, {UserID: testOtherID}}, nil
		},
	}

	rec := doRequest(setupWalletRouter(NewWalletHandler(svc, &mockAuditService{}), models.RoleAdmin), "GET", "/wallet/balances", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if balances := parseJSON(t, rec)["balances"].([]interface{}); len(balances) != 2 {
		t.Errorf("expected 2 balances, got %d", len(balances))
	}

	rec = doRequest(setupWalletRouter(NewWalletHandler(svc, &mockAuditService{}), models.RoleMember), "GET", "/wallet/balances", "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}
