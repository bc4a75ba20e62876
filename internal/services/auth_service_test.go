package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/Himu336/Web3-Exam-Platform/internal/events"
	"github.com/Himu336/Web3-Exam-Platform/internal/models"
	"github.com/Himu336/Web3-Exam-Platform/internal/validator"
)

func newAuthEnv(t *testing.T) (AuthService, *fakeRepository) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := newFakeRepository()
	publisher := events.NewMockEventPublisher(logger)
	activity := NewActivityService(repo, logger)
	auth := NewAuthService(repo, logger, validator.New(), publisher, activity, "test-secret", time.Hour)
	return auth, repo
}

func registerReq(username, email string, role models.UserRole) *RegisterRequest {
	return &RegisterRequest{
		Username: username,
		Email:    email,
		Password: "correct-horse-battery",
		Role:     role,
	}
}

func TestAuthService_RegisterAndVerify(t *testing.T) {
	auth, repo := newAuthEnv(t)

	resp, err := auth.Register(context.Background(), registerReq("alice", "alice@example.edu", models.RoleStudent))
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if resp.Token == "" {
		t.Fatal("expected a signed token")
	}
	if resp.User.Role != models.RoleStudent {
		t.Errorf("expected student role, got %s", resp.User.Role)
	}

	userID, role, err := auth.VerifyToken(resp.Token)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	if userID != resp.User.ID || role != models.RoleStudent {
		t.Errorf("token claims mismatch: got user %d role %s", userID, role)
	}

	// The stored password must be a hash, never the plaintext.
	stored := repo.users[resp.User.ID]
	if stored.Password == "correct-horse-battery" {
		t.Error("password stored in plaintext")
	}
}

func TestAuthService_Register_NoSelfServiceAdmins(t *testing.T) {
	auth, _ := newAuthEnv(t)

	_, err := auth.Register(context.Background(), registerReq("root", "root@example.edu", models.RoleAdmin))
	if !IsValidationError(err) {
		t.Fatalf("expected validation error for admin self-registration, got %v", err)
	}
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	auth, _ := newAuthEnv(t)

	if _, err := auth.Register(context.Background(), registerReq("alice", "alice@example.edu", models.RoleStudent)); err != nil {
		t.Fatalf("first register failed: %v", err)
	}
	_, err := auth.Register(context.Background(), registerReq("alice2", "alice@example.edu", models.RoleStudent))
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}
}

func TestAuthService_Login(t *testing.T) {
	auth, repo := newAuthEnv(t)

	reg, err := auth.Register(context.Background(), registerReq("alice", "alice@example.edu", models.RoleStudent))
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}

	if _, err := auth.Login(context.Background(), &LoginRequest{Email: "alice@example.edu", Password: "correct-horse-battery"}); err != nil {
		t.Errorf("login with right password failed: %v", err)
	}

	if _, err := auth.Login(context.Background(), &LoginRequest{Email: "alice@example.edu", Password: "wrong-password"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials for wrong password, got %v", err)
	}
	if _, err := auth.Login(context.Background(), &LoginRequest{Email: "nobody@example.edu", Password: "whatever-pass"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}

	repo.users[reg.User.ID].Status = models.UserInactive
	if _, err := auth.Login(context.Background(), &LoginRequest{Email: "alice@example.edu", Password: "correct-horse-battery"}); !errors.Is(err, ErrAccountInactive) {
		t.Errorf("expected ErrAccountInactive, got %v", err)
	}
}

func TestAuthService_VerifyToken_RejectsGarbage(t *testing.T) {
	auth, _ := newAuthEnv(t)

	if _, _, err := auth.VerifyToken("not-a-token"); err == nil {
		t.Error("expected error for malformed token")
	}

	// A token signed with a different secret must not verify.
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	repo := newFakeRepository()
	other := NewAuthService(repo, logger, validator.New(), events.NewMockEventPublisher(logger), NewActivityService(repo, logger), "other-secret", time.Hour)
	resp, err := other.Register(context.Background(), registerReq("mallory", "mallory@example.edu", models.RoleStudent))
	if err != nil {
		t.Fatalf("register failed: %v", err)
	}
	if _, _, err := auth.VerifyToken(resp.Token); err == nil {
		t.Error("expected error for token signed with wrong secret")
	}
}
