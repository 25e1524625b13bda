package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "github.com/webtrainer-in/ExpenseTracker/internal/errors"
	"github.com/webtrainer-in/ExpenseTracker/internal/models"
	"github.com/webtrainer-in/ExpenseTracker/internal/services"
)

func setupUserRouter(handler *UserHandler, role models.Role) *gin.Engine {
	r := gin.New()
	r.Use(injectActor(testUserID, role))
	r.GET("/users", handler.ListUsers)
	r.PUT("/users/:id/role", handler.UpdateRole)
	return r
}

func TestUserHandler_ListUsers(t *testing.T) {
	userSvc := &mockUserService{
		listUsersFn: func(actor services.Actor) ([]models.User, error) {
			if !actor.IsAdmin() {
				return nil, apperrors.ErrForbidden
			}
			return []models.User{{Email: "a@example.com"}, {Email: "b@example.com"}}, nil
		},
	}
	handler := NewUserHandler(userSvc, &mockAuditService{})

	rec := doRequest(setupUserRouter(handler, models.RoleAdmin), "GET", "/users", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if users := parseJSON(t, rec)["users"].([]interface{}); len(users) != 2 {
		t.Errorf("expected 2 users, got %d", len(users))
	}

	rec = doRequest(setupUserRouter(handler, models.RoleMember), "GET", "/users", "")
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
	assertErrorCode(t, parseJSON(t, rec), "FORBIDDEN")
}

func TestUserHandler_UpdateRole(t *testing.T) {
	t.Run("admin promotes member", func(t *testing.T) {
		audit := &mockAuditService{}
		var gotID string
		var gotRole models.Role
		userSvc := &mockUserService{
			updateRoleFn: func(_ services.Actor, userID string, role models.Role) (*models.User, error) {
				gotID, gotRole = userID, role
				return &models.User{Base: models.Base{ID: userID}, Role: role}, nil
			},
		}
		r := setupUserRouter(NewUserHandler(userSvc, audit), models.RoleAdmin)

		rec := doRequest(r, "PUT", "/users/"+testOtherID+"/role", `{"role":"admin"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotID != testOtherID || gotRole != models.RoleAdmin {
			t.Errorf("service got (%s, %s)", gotID, gotRole)
		}
		if actions := audit.actions(); len(actions) != 1 || actions[0] != services.AuditRoleChange {
			t.Errorf("expected one role change audit entry, got %v", actions)
		}
	})

	t.Run("rejects unknown role", func(t *testing.T) {
		r := setupUserRouter(NewUserHandler(&mockUserService{}, &mockAuditService{}), models.RoleAdmin)

		rec := doRequest(r, "PUT", "/users/"+testOtherID+"/role", `{"role":"owner"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("rejects malformed id", func(t *testing.T) {
		r := setupUserRouter(NewUserHandler(&mockUserService{}, &mockAuditService{}), models.RoleAdmin)

		rec := doRequest(r, "PUT", "/users/42/role", `{"role":"admin"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})
}
