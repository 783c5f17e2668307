package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/thirdeye/overseer/internal/database"
	"github.com/thirdeye/overseer/internal/models"
	"github.com/thirdeye/overseer/internal/security"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// AdminAccountService manages admin login identities: creation, password
// verification at login, and the last-login timestamp update.
type AdminAccountService struct {
	mongoDB *database.MongoDB
}

func NewAdminAccountService(mongoDB *database.MongoDB) *AdminAccountService {
	return &AdminAccountService{mongoDB: mongoDB}
}

func (s *AdminAccountService) collection() *mongo.Collection {
	return s.mongoDB.Collection(database.CollectionAdminAccounts)
}

// Create registers a new admin account. The password is validated against
// the account policy and stored only as an Argon2id hash.
func (s *AdminAccountService) Create(ctx context.Context, email, password string) (*models.AdminAccount, error) {
	if err := security.ValidatePassword(password); err != nil {
		return nil, fmt.Errorf("invalid password: %w", err)
	}

	hash, err := security.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now()
	account := &models.AdminAccount{
		ID:           ulid.Make().String(),
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if _, err := s.collection().InsertOne(ctx, account); err != nil {
		return nil, fmt.Errorf("create admin account: %w", err)
	}

	slog.Info("admin account created", "id", account.ID, "email", account.Email)
	return account, nil
}

// Authenticate looks an admin account up by email and verifies the
// password. It returns the same generic error on both a missing account and
// a wrong password, so a caller can't use response shape to enumerate
// registered emails.
func (s *AdminAccountService) Authenticate(ctx context.Context, email, password string) (*models.AdminAccount, error) {
	var account models.AdminAccount
	err := s.collection().FindOne(ctx, bson.M{"email": email}).Decode(&account)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("invalid email or password")
		}
		return nil, fmt.Errorf("lookup admin account: %w", err)
	}

	ok, err := security.VerifyPassword(account.PasswordHash, password)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("invalid email or password")
	}

	go s.updateLastLogin(context.Background(), account.ID)

	return &account, nil
}

func (s *AdminAccountService) updateLastLogin(ctx context.Context, accountID string) {
	_, err := s.collection().UpdateByID(ctx, accountID, bson.M{
		"$set": bson.M{"lastLoginAt": time.Now()},
	})
	if err != nil {
		slog.Warn("failed to update admin account last-login timestamp", "id", accountID, "error", err)
	}
}

// GetByID retrieves an admin account by its opaque id.
func (s *AdminAccountService) GetByID(ctx context.Context, id string) (*models.AdminAccount, error) {
	var account models.AdminAccount
	err := s.collection().FindOne(ctx, bson.M{"_id": id}).Decode(&account)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, fmt.Errorf("admin account not found")
		}
		return nil, fmt.Errorf("get admin account: %w", err)
	}
	return &account, nil
}

// CountAll reports how many admin accounts exist. Nothing in the service
// calls it at startup; no first admin account is minted automatically.
func (s *AdminAccountService) CountAll(ctx context.Context) (int64, error) {
	count, err := s.collection().CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("count admin accounts: %w", err)
	}
	return count, nil
}
