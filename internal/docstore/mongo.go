// internal/docstore/mongo.go
package docstore

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// ClientOptions configures the process-wide MongoDB connection.
type ClientOptions struct {
	URI                    string
	Database               string
	MaxPoolSize            uint64
	ServerSelectionTimeout time.Duration
}

// Client owns the connection pool shared by every repository.
type Client struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect opens the pool and verifies the primary is reachable, so a
// misconfigured store fails at startup rather than on the first request.
func Connect(ctx context.Context, opts ClientOptions) (*Client, error) {
	clientOpts := options.Client().
		ApplyURI(opts.URI).
		SetRetryWrites(true)
	if opts.MaxPoolSize > 0 {
		clientOpts.SetMaxPoolSize(opts.MaxPoolSize)
	}
	if opts.ServerSelectionTimeout > 0 {
		clientOpts.SetServerSelectionTimeout(opts.ServerSelectionTimeout)
	}

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, errors.Wrap(err, "connect to mongodb")
	}
	c := &Client{client: client, db: client.Database(opts.Database)}
	if err := c.Ping(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return c, nil
}

// Ping checks the primary is reachable.
func (c *Client) Ping(ctx context.Context) error {
	return errors.Wrap(c.client.Ping(ctx, readpref.Primary()), "ping mongodb")
}

// DatabaseName is the database the collections live in.
func (c *Client) DatabaseName() string {
	return c.db.Name()
}

// Disconnect closes the pool.
func (c *Client) Disconnect(ctx context.Context) error {
	return c.client.Disconnect(ctx)
}

// NewMongoCollection returns a Collection backed by the named MongoDB collection.
func NewMongoCollection[T any](c *Client, name string) Collection[T] {
	return &mongoCollection[T]{coll: c.db.Collection(name)}
}

type mongoCollection[T any] struct {
	coll *mongo.Collection
}

func (m *mongoCollection[T]) Find(ctx context.Context, filter bson.M) ([]*T, error) {
	if filter == nil {
		filter = bson.M{}
	}
	cur, err := m.coll.Find(ctx, filter)
	if err != nil {
		return nil, errors.Wrapf(err, "find in %s", m.coll.Name())
	}
	var docs []T
	if err := cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrapf(err, "decode %s", m.coll.Name())
	}
	out := make([]*T, len(docs))
	for i := range docs {
		out[i] = &docs[i]
	}
	return out, nil
}

func (m *mongoCollection[T]) FindByID(ctx context.Context, id primitive.ObjectID) (*T, error) {
	var doc T
	err := m.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNoDocument
	}
	if err != nil {
		return nil, errors.Wrapf(err, "find %s in %s", id.Hex(), m.coll.Name())
	}
	return &doc, nil
}

func (m *mongoCollection[T]) InsertOne(ctx context.Context, doc *T) (primitive.ObjectID, error) {
	res, err := m.coll.InsertOne(ctx, doc)
	if err != nil {
		return primitive.NilObjectID, errors.Wrapf(err, "insert into %s", m.coll.Name())
	}
	id, ok := res.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, nil
	}
	return id, nil
}

func (m *mongoCollection[T]) UpdateByID(ctx context.Context, id primitive.ObjectID, u Update) (UpdateResult, error) {
	if u.IsEmpty() {
		return UpdateResult{}, nil
	}
	res, err := m.coll.UpdateByID(ctx, id, u.document())
	if err != nil {
		return UpdateResult{}, errors.Wrapf(err, "update %s in %s", id.Hex(), m.coll.Name())
	}
	return UpdateResult{Matched: res.MatchedCount, Modified: res.ModifiedCount}, nil
}

func (m *mongoCollection[T]) DeleteByID(ctx context.Context, id primitive.ObjectID) (*T, error) {
	var doc T
	err := m.coll.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrapf(err, "delete %s from %s", id.Hex(), m.coll.Name())
	}
	return &doc, nil
}
