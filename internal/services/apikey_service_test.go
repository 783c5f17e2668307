package services

import (
	"context"
	"strings"
	"testing"

	"github.com/thirdeye/overseer/internal/models"
)

func TestNewAPIKeyService(t *testing.T) {
	service := NewAPIKeyService(nil)
	if service == nil {
		t.Fatal("expected non-nil API key service")
	}
}

func TestAPIKeyService_GenerateKey(t *testing.T) {
	service := NewAPIKeyService(nil)

	key, err := service.GenerateKey()
	if err != nil {
		t.Fatalf("failed to generate key: %v", err)
	}

	if !strings.HasPrefix(key, APIKeyPrefix) {
		t.Errorf("expected key to start with %q, got %q", APIKeyPrefix, key[:len(APIKeyPrefix)])
	}

	expectedLen := len(APIKeyPrefix) + APIKeySecretLength*2
	if len(key) != expectedLen {
		t.Errorf("expected key length %d, got %d", expectedLen, len(key))
	}

	key2, err := service.GenerateKey()
	if err != nil {
		t.Fatalf("failed to generate second key: %v", err)
	}
	if key == key2 {
		t.Error("generated keys should be unique")
	}
}

func TestAPIKeyService_HashAndVerify(t *testing.T) {
	service := NewAPIKeyService(nil)

	key, _ := service.GenerateKey()

	hash, err := service.HashKey(key)
	if err != nil {
		t.Fatalf("failed to hash key: %v", err)
	}
	if hash == "" || hash == key {
		t.Error("hash must be non-empty and differ from the plaintext key")
	}

	if !service.VerifyKey(key, hash) {
		t.Error("VerifyKey should return true for the correct key")
	}

	if service.VerifyKey(key+"x", hash) {
		t.Error("VerifyKey should return false for a wrong key")
	}
}

func TestAPIKeyModel_HasScope(t *testing.T) {
	tests := []struct {
		name     string
		scopes   []string
		check    string
		expected bool
	}{
		{"exact match", []string{"branch:*", "tool:lint"}, "branch:*", true},
		{"wildcard branch", []string{"branch:*"}, "branch:main", true},
		{"specific tenant", []string{"tenant:acme"}, "tenant:acme", true},
		{"wrong tenant", []string{"tenant:acme"}, "tenant:other", false},
		{"full access", []string{"*"}, "branch:main", true},
		{"no match", []string{"tool:lint"}, "branch:*", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := &models.APIKey{Limits: models.APIKeyLimits{Scopes: tt.scopes}}
			if got := key.HasScope(tt.check); got != tt.expected {
				t.Errorf("HasScope(%s) = %v, expected %v", tt.check, got, tt.expected)
			}
		})
	}
}

func TestAPIKeyModel_IsValid(t *testing.T) {
	key := &models.APIKey{}

	if !key.IsValid() {
		t.Error("a fresh key should be valid")
	}
	if key.IsRevoked() {
		t.Error("a fresh key should not be revoked")
	}
	if key.IsExpired() {
		t.Error("a fresh key should not be expired")
	}
}

func TestAPIKeyListItem_Conversion(t *testing.T) {
	key := &models.APIKey{
		ID:        "01ARZ3NDEKTSV4RRFFQ69G5FAV",
		KeyPrefix: "te_abc12",
		Name:      "CI key",
		Role:      models.RoleConsumer,
		TenantID:  "tenant_a",
		Limits:    models.APIKeyLimits{Scopes: []string{"branch:*"}},
	}

	item := key.ToListItem()

	if item.KeyPrefix != key.KeyPrefix {
		t.Errorf("KeyPrefix mismatch: got %s, want %s", item.KeyPrefix, key.KeyPrefix)
	}
	if item.Name != key.Name {
		t.Errorf("Name mismatch: got %s, want %s", item.Name, key.Name)
	}
	if item.TenantID != key.TenantID {
		t.Errorf("TenantID mismatch: got %s, want %s", item.TenantID, key.TenantID)
	}
	if len(item.Limits.Scopes) != len(key.Limits.Scopes) {
		t.Errorf("Scopes length mismatch: got %d, want %d", len(item.Limits.Scopes), len(key.Limits.Scopes))
	}
}

func TestIsValidScope(t *testing.T) {
	tests := []struct {
		scope    string
		expected bool
	}{
		{"branch:*", true},
		{"tool:lint", true},
		{"tenant:acme", true},
		{"*", true},
		{"invalid", false},
		{"write:*", false},
	}

	for _, tt := range tests {
		t.Run(tt.scope, func(t *testing.T) {
			if got := models.IsValidScope(tt.scope); got != tt.expected {
				t.Errorf("IsValidScope(%s) = %v, expected %v", tt.scope, got, tt.expected)
			}
		})
	}
}

func TestAPIKeyService_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	_ = context.Background()
	service := NewAPIKeyService(nil)
	if service == nil {
		t.Fatal("expected non-nil service")
	}
}
