package auth

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mmynk/splitx/internal/models"
	"github.com/mmynk/splitx/internal/storage/sqlstore"
)

func TestJWTManager(t *testing.T) {
	user := &models.User{ID: "user-1", Email: "alice@example.com"}

	t.Run("round trip", func(t *testing.T) {
		m := NewJWTManager("secret", time.Hour)
		token, err := m.Generate(user)
		if err != nil {
			t.Fatalf("Generate failed: %v", err)
		}
		claims, err := m.Validate(token)
		if err != nil {
			t.Fatalf("Validate failed: %v", err)
		}
		if claims.UserID != "user-1" || claims.Email != "alice@example.com" || claims.Subject != "user-1" {
			t.Errorf("unexpected claims: %+v", claims)
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		token, _ := NewJWTManager("secret", time.Hour).Generate(user)
		_, err := NewJWTManager("other", time.Hour).Validate(token)
		if !errors.Is(err, ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("expired", func(t *testing.T) {
		m := NewJWTManager("secret", time.Minute)
		m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
		token, _ := m.Generate(user)

		m.now = time.Now
		if _, err := m.Validate(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken, got %v", err)
		}
	})

	t.Run("garbage", func(t *testing.T) {
		if _, err := NewJWTManager("secret", time.Hour).Validate("not.a.token"); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("expected ErrInvalidToken, got %v", err)
		}
	})
}

func TestPasswordAuthenticator(t *testing.T) {
	store, err := sqlstore.NewSQLite(filepath.Join(t.TempDir(), "auth.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	a := NewPasswordAuthenticator(store).WithCost(bcrypt.MinCost)
	ctx := context.Background()

	user, err := a.Register(ctx, " Alice@Example.com ", "Alice", "correct horse")
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if user.Email != "alice@example.com" {
		t.Errorf("Email = %q, want normalized", user.Email)
	}
	if strings.Contains(user.PasswordHash, "correct horse") {
		t.Error("password stored in clear text")
	}

	tests := []struct {
		name     string
		run      func() error
		expected error
	}{
		{
			name: "duplicate email",
			run: func() error {
				_, err := a.Register(ctx, "alice@example.com", "Other", "password123")
				return err
			},
			expected: ErrEmailExists,
		},
		{
			name: "short password",
			run: func() error {
				_, err := a.Register(ctx, "bob@example.com", "Bob", "short")
				return err
			},
			expected: ErrWeakPassword,
		},
		{
			name: "wrong password",
			run: func() error {
				_, err := a.Authenticate(ctx, "alice@example.com", "wrong password")
				return err
			},
			expected: ErrInvalidCredentials,
		},
		{
			name: "unknown email",
			run: func() error {
				_, err := a.Authenticate(ctx, "nobody@example.com", "correct horse")
				return err
			},
			expected: ErrInvalidCredentials,
		},
		{
			name: "valid login",
			run: func() error {
				_, err := a.Authenticate(ctx, "ALICE@example.com", "correct horse")
				return err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.run()
			if tt.expected == nil {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.expected) {
				t.Errorf("expected %v, got %v", tt.expected, err)
			}
		})
	}
}
