package services

import (
	"testing"

	"github.com/webtrainer-in/ExpenseTracker/internal/models"
	"github.com/webtrainer-in/ExpenseTracker/internal/testutil"
)

func TestCreateUser(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		db, _ := setup(t)
		svc := NewUserService(db, nil)

		user, err := svc.CreateUser("alice@example.com", "password123", "Alice", "Smith")
		testutil.AssertNoError(t, err)

		if user.ID == "" {
			t.Fatal("expected user ID to be set")
		}
		if user.Role != models.RoleMember {
			t.Errorf("expected role member, got %s", user.Role)
		}
		if !user.IsActive {
			t.Error("expected user to be active")
		}
	})

	t.Run("admin_email_promoted", func(t *testing.T) {
		db, _ := setup(t)
		svc := NewUserService(db, []string{"Boss@Example.com"})

		user, err := svc.CreateUser("boss@example.com", "password123", "", "")
		testutil.AssertNoError(t, err)
		if user.Role != models.RoleAdmin {
			t.Errorf("expected role admin, got %s", user.Role)
		}
	})

	t.Run("duplicate_email", func(t *testing.T) {
		db, _ := setup(t)
		svc := NewUserService(db, nil)

		_, err := svc.CreateUser("dup@example.com", "password123", "", "")
		testutil.AssertNoError(t, err)

		_, err = svc.CreateUser("DUP@example.com", "password456", "", "")
		testutil.AssertAppError(t, err, "DUPLICATE_EMAIL")
	})

	t.Run("empty_password", func(t *testing.T) {
		db, _ := setup(t)
		svc := NewUserService(db, nil)

		_, err := svc.CreateUser("test@example.com", "", "", "")
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("email_normalized_to_lowercase", func(t *testing.T) {
		db, _ := setup(t)
		svc := NewUserService(db, nil)

		user, err := svc.CreateUser(" Alice@EXAMPLE.COM ", "password123", "", "")
		testutil.AssertNoError(t, err)
		if user.Email != "alice@example.com" {
			t.Errorf("expected lowercased email, got %s", user.Email)
		}
	})
}

func TestAttemptLogin(t *testing.T) {
	t.Run("success_stamps_login", func(t *testing.T) {
		db, _ := setup(t)
		svc := NewUserService(db, nil)
		testutil.CreateTestUserWithRole(t, db, "login@example.com", models.RoleMember)

		user, err := svc.AttemptLogin("login@example.com", "password123")
		testutil.AssertNoError(t, err)
		if user.LastLoginAt == nil {
			t.Error("expected last login to be set")
		}
	})

	t.Run("wrong_password", func(t *testing.T) {
		db, _ := setup(t)
		svc := NewUserService(db, nil)
		testutil.CreateTestUserWithRole(t, db, "fail@example.com", models.RoleMember)

		_, err := svc.AttemptLogin("fail@example.com", "wrongpassword")
		testutil.AssertAppError(t, err, "INVALID_CREDENTIALS")
	})

	t.Run("unknown_email", func(t *testing.T) {
		db, _ := setup(t)
		svc := NewUserService(db, nil)

		_, err := svc.AttemptLogin("ghost@example.com", "password123")
		testutil.AssertAppError(t, err, "INVALID_CREDENTIALS")
	})

	t.Run("admin_list_promotes_existing_member", func(t *testing.T) {
		db, _ := setup(t)
		testutil.CreateTestUserWithRole(t, db, "late@example.com", models.RoleMember)
		svc := NewUserService(db, []string{"late@example.com"})

		user, err := svc.AttemptLogin("late@example.com", "password123")
		testutil.AssertNoError(t, err)
		if !user.IsAdmin() {
			t.Fatal("expected promotion to admin")
		}

		stored, err := svc.GetUserByID(user.ID)
		testutil.AssertNoError(t, err)
		if stored.Role != models.RoleAdmin {
			t.Errorf("expected stored role admin, got %s", stored.Role)
		}
	})
}

func TestGetUserByID(t *testing.T) {
	db, _ := setup(t)
	svc := NewUserService(db, nil)
	user := testutil.CreateTestUser(t, db)

	found, err := svc.GetUserByID(user.ID)
	testutil.AssertNoError(t, err)
	if found.Email != user.Email {
		t.Errorf("expected %s, got %s", user.Email, found.Email)
	}

	_, err = svc.GetUserByID("00000000-0000-0000-0000-000000000000")
	testutil.AssertAppError(t, err, "USER_NOT_FOUND")
}

func TestListUsersAndUpdateRole(t *testing.T) {
	db, _ := setup(t)
	svc := NewUserService(db, nil)
	admin := testutil.CreateTestAdmin(t, db)
	member := testutil.CreateTestUser(t, db)

	_, err := svc.ListUsers(actorOf(member))
	testutil.AssertAppError(t, err, "FORBIDDEN")

	users, err := svc.ListUsers(actorOf(admin))
	testutil.AssertNoError(t, err)
	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}

	_, err = svc.UpdateRole(actorOf(member), admin.ID, models.RoleMember)
	testutil.AssertAppError(t, err, "FORBIDDEN")

	_, err = svc.UpdateRole(actorOf(admin), member.ID, models.Role("owner"))
	testutil.AssertAppError(t, err, "INVALID_ROLE")

	_, err = svc.UpdateRole(actorOf(admin), "00000000-0000-0000-0000-000000000000", models.RoleAdmin)
	testutil.AssertAppError(t, err, "USER_NOT_FOUND")

	promoted, err := svc.UpdateRole(actorOf(admin), member.ID, models.RoleAdmin)
	testutil.AssertNoError(t, err)
	if !promoted.IsAdmin() {
		t.Error("expected member to be promoted")
	}
}
