// Package mongo implements the store interfaces on a MongoDB database.
// Documents carry their own bson row types; domain structs never gain
// storage tags.
package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	transactionsCollection = "transactions"
	usersCollection        = "users"
)

// Client wraps a connected database handle shared by the repositories.
type Client struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect dials MongoDB and ensures the indexes the app relies on.
func Connect(ctx context.Context, uri, database string) (*Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo.Connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongo.Connect: ping: %w", err)
	}

	c := &Client{client: client, db: client.Database(database)}
	if err := c.ensureIndexes(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Close releases the underlying connections.
func (c *Client) Close(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}

// Transactions returns the transaction repository.
func (c *Client) Transactions() *TransactionRepository {
	return &TransactionRepository{coll: c.db.Collection(transactionsCollection)}
}

// Users returns the user-state repository.
func (c *Client) Users() *UserRepository {
	return &UserRepository{coll: c.db.Collection(usersCollection)}
}

func (c *Client) ensureIndexes(ctx context.Context) error {
	txIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "external_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "date", Value: -1}},
		},
	}
	if _, err := c.db.Collection(transactionsCollection).Indexes().CreateMany(ctx, txIndexes); err != nil {
		return fmt.Errorf("ensureIndexes: transactions: %w", err)
	}

	userIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "item_id", Value: 1}},
		},
	}
	if _, err := c.db.Collection(usersCollection).Indexes().CreateMany(ctx, userIndexes); err != nil {
		return fmt.Errorf("ensureIndexes: users: %w", err)
	}

	return nil
}
