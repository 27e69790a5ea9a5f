package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

// TestTokenManagerIssueAndParse проверяет выпуск пары и разбор обоих
// токенов по назначению.
func TestTokenManagerIssueAndParse(t *testing.T) {
	manager := NewTokenManager("test-secret", "meal-assistant", 15*time.Minute, 24*time.Hour)
	userID := uuid.New()

	pair, err := manager.Issue(userID)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if pair.RefreshTokenID == uuid.Nil {
		t.Fatal("expected refresh token id to be assigned")
	}

	claims, err := manager.Parse(pair.AccessToken, KindAccess)
	if err != nil {
		t.Fatalf("Parse access: %v", err)
	}
	if claims.Subject != userID.String() {
		t.Fatalf("expected subject %s, got %s", userID, claims.Subject)
	}

	claims, err = manager.Parse(pair.RefreshToken, KindRefresh)
	if err != nil {
		t.Fatalf("Parse refresh: %v", err)
	}
	if claims.ID != pair.RefreshTokenID.String() {
		t.Fatalf("expected token id %s, got %s", pair.RefreshTokenID, claims.ID)
	}
}

// TestTokenManagerRejectsWrongKind проверяет, что refresh-токен не
// проходит как access и наоборот.
func TestTokenManagerRejectsWrongKind(t *testing.T) {
	manager := NewTokenManager("test-secret", "meal-assistant", 15*time.Minute, 24*time.Hour)

	pair, err := manager.Issue(uuid.New())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	if _, err := manager.Parse(pair.RefreshToken, KindAccess); !errors.Is(err, ErrWrongKind) {
		t.Fatalf("expected ErrWrongKind for refresh token, got %v", err)
	}
	if _, err := manager.Parse(pair.AccessToken, KindRefresh); !errors.Is(err, ErrWrongKind) {
		t.Fatalf("expected ErrWrongKind for access token, got %v", err)
	}
}

// TestTokenManagerRejectsForeignSignature проверяет отказ по чужому
// секрету и чужому издателю.
func TestTokenManagerRejectsForeignSignature(t *testing.T) {
	manager := NewTokenManager("test-secret", "meal-assistant", 15*time.Minute, 24*time.Hour)

	foreign := NewTokenManager("other-secret", "meal-assistant", 15*time.Minute, 24*time.Hour)
	pair, err := foreign.Issue(uuid.New())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := manager.Parse(pair.AccessToken, KindAccess); err == nil {
		t.Fatal("expected error for token signed with another secret")
	}

	otherIssuer := NewTokenManager("test-secret", "someone-else", 15*time.Minute, 24*time.Hour)
	pair, err = otherIssuer.Issue(uuid.New())
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := manager.Parse(pair.AccessToken, KindAccess); err == nil {
		t.Fatal("expected error for token from another issuer")
	}
}
