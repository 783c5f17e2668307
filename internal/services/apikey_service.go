package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/thirdeye/overseer/internal/database"
	"github.com/thirdeye/overseer/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"
)

const (
	// APIKeyPrefix prefixes every minted key.
	APIKeyPrefix = "te_"
	// APIKeySecretLength is the length, in bytes, of the random secret.
	APIKeySecretLength = 32
	// APIKeyPrefixLength is how many characters of the key (including the
	// "te_" prefix) are stored unhashed for O(1) lookup.
	APIKeyPrefixLength = 11
)

// APIKeyService manages API key lifecycle: mint, validate, revoke, list.
// Keys, tenants and admin accounts are document-store resident.
type APIKeyService struct {
	mongoDB *database.MongoDB
}

func NewAPIKeyService(mongoDB *database.MongoDB) *APIKeyService {
	return &APIKeyService{mongoDB: mongoDB}
}

func (s *APIKeyService) collection() *mongo.Collection {
	return s.mongoDB.Collection(database.CollectionAPIKeys)
}

// GenerateKey produces a new opaque secret of the form te_<64 hex chars>.
func (s *APIKeyService) GenerateKey() (string, error) {
	buf := make([]byte, APIKeySecretLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate random bytes: %w", err)
	}
	return APIKeyPrefix + hex.EncodeToString(buf), nil
}

// HashKey hashes a secret for storage. bcrypt, matching the teacher's idiom.
func (s *APIKeyService) HashKey(key string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(key), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash key: %w", err)
	}
	return string(hash), nil
}

// VerifyKey checks a secret against its stored hash.
func (s *APIKeyService) VerifyKey(key, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(key)) == nil
}

// Create mints a new API key. The plaintext secret is returned exactly once.
func (s *APIKeyService) Create(ctx context.Context, req *models.CreateAPIKeyRequest) (*models.CreateAPIKeyResponse, error) {
	role := req.Role
	if role == "" {
		role = models.RoleConsumer
	}
	if role != models.RoleAdmin && role != models.RoleConsumer {
		return nil, fmt.Errorf("invalid role: %s", role)
	}

	for _, scope := range req.Limits.Scopes {
		if !models.IsValidScope(scope) {
			return nil, fmt.Errorf("invalid scope: %s", scope)
		}
	}

	key, err := s.GenerateKey()
	if err != nil {
		return nil, err
	}

	hash, err := s.HashKey(key)
	if err != nil {
		return nil, err
	}

	var expiresAt *time.Time
	if req.ExpiresInDays > 0 {
		exp := time.Now().Add(time.Duration(req.ExpiresInDays) * 24 * time.Hour)
		expiresAt = &exp
	}

	now := time.Now()
	apiKey := &models.APIKey{
		ID:        ulid.Make().String(),
		KeyPrefix: key[:APIKeyPrefixLength],
		KeyHash:   hash,
		Role:      role,
		TenantID:  req.TenantID,
		Name:      req.Name,
		Limits:    req.Limits,
		ExpiresAt: expiresAt,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := s.collection().InsertOne(ctx, apiKey); err != nil {
		return nil, fmt.Errorf("create API key: %w", err)
	}

	slog.Info("api key created", "id", apiKey.ID, "prefix", apiKey.KeyPrefix, "role", role)

	return &models.CreateAPIKeyResponse{
		ID:        apiKey.ID,
		Key:       key,
		KeyPrefix: apiKey.KeyPrefix,
		Name:      apiKey.Name,
		Role:      role,
		ExpiresAt: expiresAt,
		CreatedAt: now,
	}, nil
}

// ValidateKey looks a secret up by its stored prefix, verifies the hash and
// checks expiry/revocation. A revoked key always denies.
func (s *APIKeyService) ValidateKey(ctx context.Context, key string) (*models.APIKey, error) {
	if len(key) < APIKeyPrefixLength {
		return nil, fmt.Errorf("invalid API key format")
	}

	prefix := key[:APIKeyPrefixLength]

	cursor, err := s.collection().Find(ctx, bson.M{
		"keyPrefix": prefix,
		"revokedAt": bson.M{"$exists": false},
	})
	if err != nil {
		return nil, fmt.Errorf("lookup API key: %w", err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var apiKey models.APIKey
		if err := cursor.Decode(&apiKey); err != nil {
			continue
		}

		if s.VerifyKey(key, apiKey.KeyHash) {
			if apiKey.IsExpired() {
				return nil, fmt.Errorf("API key has expired")
			}

			go s.updateLastUsed(context.Background(), apiKey.ID)

			return &apiKey, nil
		}
	}

	return nil, fmt.Errorf("invalid API key")
}

func (s *APIKeyService) updateLastUsed(ctx context.Context, keyID string) {
	_, err := s.collection().UpdateByID(ctx, keyID, bson.M{
		"$set": bson.M{"lastUsedAt": time.Now()},
	})
	if err != nil {
		slog.Warn("failed to update api key last-used timestamp", "id", keyID, "error", err)
	}
}

// ListByTenant returns all API keys for a tenant, newest first.
func (s *APIKeyService) ListByTenant(ctx context.Context, tenantID string) ([]*models.APIKeyListItem, error) {
	cursor, err := s.collection().Find(ctx, bson.M{
		"tenantId": tenantID,
	}, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("list API keys: %w", err)
	}
	defer cursor.Close(ctx)

	var items []*models.APIKeyListItem
	for cursor.Next(ctx) {
		var key models.APIKey
		if err := cursor.Decode(&key); err != nil {
			continue
		}
		items = append(items, key.ToListItem())
	}

	return items, nil
}

// GetByID retrieves an API key by its opaque id.
func (s *APIKeyService) GetByID(ctx context.Context, keyID string) (*models.APIKey, error) {
	var key models.APIKey
	err := s.collection().FindOne(ctx, bson.M{"_id": keyID}).Decode(&key)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("API key not found")
		}
		return nil, fmt.Errorf("get API key: %w", err)
	}
	return &key, nil
}

// Revoke sets the revocation marker. Revocation is permanent; there is no un-revoke.
func (s *APIKeyService) Revoke(ctx context.Context, keyID string) error {
	result, err := s.collection().UpdateOne(ctx, bson.M{"_id": keyID}, bson.M{
		"$set": bson.M{
			"revokedAt": time.Now(),
			"updatedAt": time.Now(),
		},
	})
	if err != nil {
		return fmt.Errorf("revoke API key: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("API key not found")
	}

	slog.Info("api key revoked", "id", keyID)
	return nil
}

// Delete permanently removes an API key document.
func (s *APIKeyService) Delete(ctx context.Context, keyID string) error {
	result, err := s.collection().DeleteOne(ctx, bson.M{"_id": keyID})
	if err != nil {
		return fmt.Errorf("delete API key: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("API key not found")
	}

	slog.Info("api key deleted", "id", keyID)
	return nil
}

// CountByTenant counts non-revoked API keys for a tenant.
func (s *APIKeyService) CountByTenant(ctx context.Context, tenantID string) (int64, error) {
	count, err := s.collection().CountDocuments(ctx, bson.M{
		"tenantId":  tenantID,
		"revokedAt": bson.M{"$exists": false},
	})
	if err != nil {
		return 0, fmt.Errorf("count API keys: %w", err)
	}
	return count, nil
}
