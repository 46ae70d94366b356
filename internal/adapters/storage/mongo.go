package storage

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ErrMongoNotReady is returned when every connection attempt fails.
var ErrMongoNotReady = errors.New("mongo did not become ready")

// MongoOptions tunes ConnectMongo.
type MongoOptions struct {
	URL            string
	Database       string
	ConnectTimeout time.Duration
	RetryAttempts  int
	RetryInterval  time.Duration
}

// ConnectMongo opens a client, pings it, and returns the named database.
// PRE: opts.URL and opts.Database are non-empty
// POST: Returns a database whose client answered Ping, or ErrMongoNotReady
func ConnectMongo(ctx context.Context, opts MongoOptions) (*mongo.Database, error) {
	if opts.RetryAttempts <= 0 {
		opts.RetryAttempts = 3
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 10 * time.Second
	}

	var lastErr error
	for attempt := 1; attempt <= opts.RetryAttempts; attempt++ {
		client, err := mongo.Connect(options.Client().
			ApplyURI(opts.URL).
			SetConnectTimeout(opts.ConnectTimeout).
			SetRetryWrites(true).
			SetRetryReads(true))
		if err == nil {
			pingCtx, cancel := context.WithTimeout(ctx, opts.ConnectTimeout)
			err = client.Ping(pingCtx, nil)
			cancel()
			if err == nil {
				return client.Database(opts.Database), nil
			}
			_ = client.Disconnect(context.Background())
		}
		lastErr = err
		slog.Warn("mongo_connect_retry", "attempt", attempt, "error", err)

		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrMongoNotReady, ctx.Err())
		case <-time.After(opts.RetryInterval):
		}
	}
	return nil, errors.Join(ErrMongoNotReady, lastErr)
}
