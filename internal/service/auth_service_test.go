package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/vhealth/vhealth-api/internal/config"
	"github.com/vhealth/vhealth-api/internal/domain"
	"github.com/vhealth/vhealth-api/pkg/auth"
)

func testJWTManager() *auth.JWTManager {
	return auth.NewJWTManager(config.JWTConfig{
		Secret:          "test-secret-key-for-unit-tests-only",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
		Issuer:          "vhealth-test",
	})
}

func testUser(t *testing.T, email, password string) *domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hashing test password: %v", err)
	}
	pid := uuid.New()
	return &domain.User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hash),
		Role:         domain.RolePatient,
		PatientID:    &pid,
		IsActive:     true,
	}
}

func TestLoginSuccess(t *testing.T) {
	u := testUser(t, "ravi@example.com", "correct horse battery")
	repo := newStubUserRepo(u)
	svc := NewAuthService(repo, testJWTManager(), testLogger())

	pair, err := svc.Login(context.Background(), u.Email, "correct horse battery", "10.0.0.1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("expected both tokens in pair")
	}
	if pair.TokenType != "Bearer" {
		t.Errorf("token type = %q", pair.TokenType)
	}
	if len(repo.loginAttempts) != 1 || !repo.loginAttempts[0] {
		t.Errorf("login attempts recorded = %v, want one success", repo.loginAttempts)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	u := testUser(t, "ravi@example.com", "correct horse battery")
	repo := newStubUserRepo(u)
	svc := NewAuthService(repo, testJWTManager(), testLogger())

	_, err := svc.Login(context.Background(), u.Email, "wrong", "10.0.0.1")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
	if len(repo.loginAttempts) != 1 || repo.loginAttempts[0] {
		t.Errorf("login attempts recorded = %v, want one failure", repo.loginAttempts)
	}
}

func TestLoginUnknownEmail(t *testing.T) {
	svc := NewAuthService(newStubUserRepo(), testJWTManager(), testLogger())

	_, err := svc.Login(context.Background(), "nobody@example.com", "whatever", "10.0.0.1")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
}

func TestLoginLockedAccount(t *testing.T) {
	u := testUser(t, "locked@example.com", "correct horse battery")
	until := time.Now().Add(10 * time.Minute)
	u.LockedUntil = &until
	svc := NewAuthService(newStubUserRepo(u), testJWTManager(), testLogger())

	_, err := svc.Login(context.Background(), u.Email, "correct horse battery", "10.0.0.1")
	if !errors.Is(err, ErrAccountLocked) {
		t.Fatalf("err = %v, want ErrAccountLocked", err)
	}
}

func TestLoginInactiveAccount(t *testing.T) {
	u := testUser(t, "gone@example.com", "correct horse battery")
	u.IsActive = false
	svc := NewAuthService(newStubUserRepo(u), testJWTManager(), testLogger())

	_, err := svc.Login(context.Background(), u.Email, "correct horse battery", "10.0.0.1")
	if !errors.Is(err, ErrAccountInactive) {
		t.Fatalf("err = %v, want ErrAccountInactive", err)
	}
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	u := testUser(t, "ravi@example.com", "correct horse battery")
	svc := NewAuthService(newStubUserRepo(u), testJWTManager(), testLogger())

	pair, err := svc.Login(context.Background(), u.Email, "correct horse battery", "10.0.0.1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	fresh, err := svc.RefreshToken(context.Background(), pair.RefreshToken)
	if err != nil {
		t.Fatalf("RefreshToken: %v", err)
	}
	if fresh.AccessToken == "" {
		t.Fatal("expected new access token")
	}

	// An access token must not be usable as a refresh token.
	if _, err := svc.RefreshToken(context.Background(), pair.AccessToken); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
}

func TestChangePasswordEnforcesStrength(t *testing.T) {
	u := testUser(t, "ravi@example.com", "correct horse battery")
	repo := newStubUserRepo(u)
	svc := NewAuthService(repo, testJWTManager(), testLogger())

	err := svc.ChangePassword(context.Background(), u.ID, "correct horse battery", "short")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want *ValidationError", err)
	}
	if repo.passwordSet != "" {
		t.Fatal("weak password was persisted")
	}

	if err := svc.ChangePassword(context.Background(), u.ID, "correct horse battery", "a much longer password"); err != nil {
		t.Fatalf("ChangePassword: %v", err)
	}
	if repo.passwordSet == "" {
		t.Fatal("new password hash not persisted")
	}
	if repo.passwordSet == "a much longer password" {
		t.Fatal("password stored in plaintext")
	}
}

func TestChangePasswordWrongCurrent(t *testing.T) {
	u := testUser(t, "ravi@example.com", "correct horse battery")
	svc := NewAuthService(newStubUserRepo(u), testJWTManager(), testLogger())

	err := svc.ChangePassword(context.Background(), u.ID, "not it", "a much longer password")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("err = %v, want ErrInvalidCredentials", err)
	}
}

func TestCreateAccountDuplicateEmail(t *testing.T) {
	u := testUser(t, "ravi@example.com", "correct horse battery")
	svc := NewAuthService(newStubUserRepo(u), testJWTManager(), testLogger())

	_, err := svc.CreateAccount(context.Background(), "ravi@example.com", "a sufficiently long password", domain.RolePatient)
	if !errors.Is(err, ErrEmailAlreadyExists) {
		t.Fatalf("err = %v, want ErrEmailAlreadyExists", err)
	}
}
