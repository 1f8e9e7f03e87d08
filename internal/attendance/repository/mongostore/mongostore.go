// Package mongostore keeps attendance entries and the agent directory in
// MongoDB. It satisfies the same contracts as the PostgreSQL repository.
package mongostore

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/staffdesk/staffdesk-backend/pkg/config"
	"github.com/staffdesk/staffdesk-backend/pkg/errors"
	"github.com/staffdesk/staffdesk-backend/pkg/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	entriesCollection = "attendance_entries"
	agentsCollection  = "agents"
	clientsCollection = "clients"
)

// Client wraps a connected mongo client and the attendance database
type Client struct {
	client *mongo.Client
	db     *mongo.Database
	logger *logger.Logger
}

// Connect opens a client and checks the primary is reachable
func Connect(ctx context.Context, cfg *config.MongoConfig, log *logger.Logger) (*Client, error) {
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetConnectTimeout(timeout).
		SetServerSelectionTimeout(timeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	log.Info().Str("database", cfg.Database).Msg("connected to mongo")

	return &Client{
		client: client,
		db:     client.Database(cfg.Database),
		logger: log,
	}, nil
}

// Database returns the attendance database
func (c *Client) Database() *mongo.Database {
	return c.db
}

// EnsureIndexes creates the unique (agent, date) index and the lookup
// indexes. Safe to run on every start.
func (c *Client) EnsureIndexes(ctx context.Context) error {
	return EnsureIndexes(ctx, c.db)
}

// Health returns the health status of the mongo connection
func (c *Client) Health(ctx context.Context) map[string]string {
	status := map[string]string{
		"status": "up",
	}

	ctx, cancel := context.WithTimeout(ctx, 1*time.Second)
	defer cancel()

	if err := c.client.Ping(ctx, readpref.Primary()); err != nil {
		status["status"] = "down"
		status["error"] = err.Error()
	}

	return status
}

// Close disconnects the client
func (c *Client) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}

// EnsureIndexes creates the indexes the stores rely on
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection(entriesCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "agentId", Value: 1}, {Key: "date", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("agent_date"),
		},
		{
			Keys:    bson.D{{Key: "date", Value: 1}},
			Options: options.Index().SetName("date"),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create entry indexes: %w", err)
	}

	_, err = db.Collection(agentsCollection).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "clientId", Value: 1}}, Options: options.Index().SetName("client")},
		{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetName("name")},
	})
	if err != nil {
		return fmt.Errorf("failed to create agent indexes: %w", err)
	}
	return nil
}

func toDecimal128(d decimal.Decimal) (primitive.Decimal128, error) {
	v, err := primitive.ParseDecimal128(d.String())
	if err != nil {
		return primitive.Decimal128{}, errors.Validation(map[string]string{"extra_hours": "not representable"})
	}
	return v, nil
}

func fromDecimal128(v primitive.Decimal128) decimal.Decimal {
	d, err := decimal.NewFromString(v.String())
	if err != nil {
		// zero-value Decimal128 and NaN both land here
		return decimal.Zero
	}
	return d
}

// storeError converts driver errors. Only AppErrors pass through.
func storeError(err error) error {
	var appErr *errors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return errors.StoreUnavailable(err)
}
