package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/ziadkadry99/chunkdoc/internal/cache"
	"github.com/ziadkadry99/chunkdoc/internal/db"
)

// Kind names a backend implementation.
type Kind string

const (
	KindMemory   Kind = "memory"
	KindSQLite   Kind = "sqlite"
	KindDynamoDB Kind = "dynamodb"
)

// Options selects and configures a backend.
type Options struct {
	Kind       Kind
	MemorySize int
	// DB is required for the sqlite backend.
	DB *db.DB
	// DynamoDB settings.
	Table    string
	Region   string
	Endpoint string
}

// New builds the backend described by opts.
func New(ctx context.Context, opts Options) (cache.Store, error) {
	switch opts.Kind {
	case KindMemory:
		return NewMemory(opts.MemorySize)
	case KindSQLite, "":
		if opts.DB == nil {
			return nil, errors.New("sqlite backend requires a database")
		}
		return NewSQLite(opts.DB), nil
	case KindDynamoDB:
		if opts.Table == "" {
			return nil, errors.New("dynamodb backend requires a table name")
		}
		var loadOpts []func(*awsconfig.LoadOptions) error
		if opts.Region != "" {
			loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
		}
		cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return nil, fmt.Errorf("loading aws config: %w", err)
		}
		client := dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
			if opts.Endpoint != "" {
				o.BaseEndpoint = aws.String(opts.Endpoint)
			}
		})
		return NewDynamo(client, opts.Table), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", opts.Kind)
	}
}

// RunJanitor purges expired entries every interval until ctx is done.
// It returns immediately if store does not delete expired rows itself.
func RunJanitor(ctx context.Context, store cache.Store, interval time.Duration, logger *slog.Logger) {
	p, ok := store.(cache.Purger)
	if !ok || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			n, err := p.PurgeExpired(ctx, now)
			if err != nil {
				logger.Warn("purging expired cache entries", "backend", store.Name(), "error", err)
				continue
			}
			if n > 0 {
				logger.Info("purged expired cache entries", "backend", store.Name(), "count", n)
			}
		}
	}
}
