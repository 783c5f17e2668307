package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoDB wraps the document-store client used for API keys, tenants and
// admin accounts. Sessions and audit events live in the relational store
// instead (see database.go).
type MongoDB struct {
	client   *mongo.Client
	database *mongo.Database
	dbName   string
}

// Collection names
const (
	CollectionAPIKeys      = "api_keys"
	CollectionTenants      = "tenants"
	CollectionAdminAccounts = "admin_accounts"
)

// NewMongoDB creates a new MongoDB connection with connection pooling.
func NewMongoDB(uri string) (*MongoDB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	clientOptions := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(50).
		SetMinPoolSize(5).
		SetMaxConnIdleTime(30 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetConnectTimeout(10 * time.Second)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	dbName := extractDBName(uri)
	if dbName == "" {
		dbName = "third_eye"
	}

	db := &MongoDB{
		client:   client,
		database: client.Database(dbName),
		dbName:   dbName,
	}

	slog.Info("connected to MongoDB", "database", dbName)

	return db, nil
}

// extractDBName extracts the database name from a MongoDB URI, e.g.
// mongodb://localhost:27017/third_eye?authSource=admin -> third_eye
func extractDBName(uri string) string {
	lastSlash := -1
	questionMark := -1

	for i, c := range uri {
		if c == '/' {
			lastSlash = i
		}
		if c == '?' && questionMark == -1 {
			questionMark = i
		}
	}

	if lastSlash != -1 {
		start := lastSlash + 1
		end := len(uri)
		if questionMark != -1 && questionMark > lastSlash {
			end = questionMark
		}
		if start < end {
			if dbName := uri[start:end]; dbName != "" {
				return dbName
			}
		}
	}

	return "third_eye"
}

// Initialize creates indexes for the api_keys, tenants and admin_accounts
// collections.
func (m *MongoDB) Initialize(ctx context.Context) error {
	slog.Info("initializing MongoDB indexes")

	if err := m.createIndexes(ctx, CollectionAPIKeys, []mongo.IndexModel{
		{Keys: bson.D{{Key: "key_prefix", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "tenant_id", Value: 1}}},
		{Keys: bson.D{{Key: "revoked_at", Value: 1}}},
	}); err != nil {
		return fmt.Errorf("failed to create api_keys indexes: %w", err)
	}

	if err := m.createIndexes(ctx, CollectionTenants, []mongo.IndexModel{
		{Keys: bson.D{{Key: "tenant_id", Value: 1}}, Options: options.Index().SetUnique(true)},
	}); err != nil {
		return fmt.Errorf("failed to create tenants indexes: %w", err)
	}

	if err := m.createIndexes(ctx, CollectionAdminAccounts, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
	}); err != nil {
		return fmt.Errorf("failed to create admin_accounts indexes: %w", err)
	}

	slog.Info("MongoDB indexes initialized")
	return nil
}

// createIndexes creates indexes for a collection.
func (m *MongoDB) createIndexes(ctx context.Context, collectionName string, indexes []mongo.IndexModel) error {
	collection := m.database.Collection(collectionName)
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}

// Collection returns a collection handle.
func (m *MongoDB) Collection(name string) *mongo.Collection {
	return m.database.Collection(name)
}

// Client returns the underlying MongoDB client.
func (m *MongoDB) Client() *mongo.Client {
	return m.client
}

// Database returns the underlying MongoDB database.
func (m *MongoDB) Database() *mongo.Database {
	return m.database
}

// Close closes the MongoDB connection.
func (m *MongoDB) Close(ctx context.Context) error {
	slog.Info("closing MongoDB connection")
	return m.client.Disconnect(ctx)
}

// Ping checks if the database connection is alive.
func (m *MongoDB) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, readpref.Primary())
}

// WithTransaction executes a function within a transaction.
func (m *MongoDB) WithTransaction(ctx context.Context, fn func(sessCtx mongo.SessionContext) error) error {
	session, err := m.client.StartSession()
	if err != nil {
		return fmt.Errorf("failed to start session: %w", err)
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(sessCtx mongo.SessionContext) (interface{}, error) {
		return nil, fn(sessCtx)
	})
	return err
}
