package service

import (
	"context"
	"errors"
	"testing"

	"agrimarket/internal/common"
	"agrimarket/internal/domain/model"
)

func TestSignupAndLogin(t *testing.T) {
	users := newFakeUserRepo()
	svc := NewAuthService(users)
	ctx := context.Background()

	resp, err := svc.Signup(ctx, SignupRequest{
		Username: "greenacres", Email: "ga@example.com", Password: "hunter22", Name: "Green Acres",
	})
	if err != nil {
		t.Fatalf("Signup failed: %v", err)
	}
	if resp.Token == "" {
		t.Error("expected a token from signup")
	}
	if resp.User.Role != model.RoleUser {
		t.Errorf("expected default role user, got %s", resp.User.Role)
	}
	if resp.User.HashedPassword != "" {
		t.Error("hashed password leaked in signup response")
	}

	// Login by email and by username
	for _, field := range []string{"ga@example.com", "greenacres"} {
		login, err := svc.Login(ctx, LoginRequest{LoginField: field, Password: "hunter22"})
		if err != nil {
			t.Fatalf("Login with %q failed: %v", field, err)
		}
		if login.User.ID != resp.User.ID {
			t.Errorf("login returned wrong user")
		}
	}

	// Wrong password
	if _, err := svc.Login(ctx, LoginRequest{LoginField: "greenacres", Password: "wrong"}); !errors.Is(err, common.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized for bad password, got %v", err)
	}
	// Unknown user gets the same generic rejection
	if _, err := svc.Login(ctx, LoginRequest{LoginField: "nobody", Password: "hunter22"}); !errors.Is(err, common.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized for unknown user, got %v", err)
	}
}

func TestSignupValidation(t *testing.T) {
	svc := NewAuthService(newFakeUserRepo())
	ctx := context.Background()

	cases := []SignupRequest{
		{Email: "ga@example.com", Password: "x"},
		{Username: "greenacres", Password: "x"},
		{Username: "greenacres", Email: "ga@example.com"},
	}
	for _, req := range cases {
		if _, err := svc.Signup(ctx, req); !errors.Is(err, common.ErrBadRequest) {
			t.Errorf("expected ErrBadRequest for %+v, got %v", req, err)
		}
	}
}

func TestSignupDuplicate(t *testing.T) {
	users := newFakeUserRepo()
	svc := NewAuthService(users)
	ctx := context.Background()

	if _, err := svc.Signup(ctx, SignupRequest{Username: "greenacres", Email: "ga@example.com", Password: "x"}); err != nil {
		t.Fatalf("first signup failed: %v", err)
	}
	if _, err := svc.Signup(ctx, SignupRequest{Username: "greenacres", Email: "other@example.com", Password: "x"}); !errors.Is(err, common.ErrConflict) {
		t.Errorf("expected ErrConflict for duplicate username, got %v", err)
	}
}
