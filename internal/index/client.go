package index

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/google/uuid"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/redis/go-redis/v9"
	"github.com/theakash04/termify/internal/config"
	"github.com/theakash04/termify/internal/entity"
	"go.uber.org/zap"
)

// Service is the narrow surface the rest of the application uses to talk
// to the backing similarity-search service. The service owns embedding and
// ranking; callers only manage namespaces and move records in and out.
type Service interface {
	// CreateNamespace registers an isolated namespace. Creating an
	// existing namespace succeeds.
	CreateNamespace(ctx context.Context, namespace string) error

	// CreateCollection prepares a record collection inside a namespace.
	// Creating an existing collection succeeds.
	CreateCollection(ctx context.Context, namespace, collection string) error

	// AppendRecords adds records to a collection. Records already present
	// are overwritten, not duplicated.
	AppendRecords(ctx context.Context, namespace, collection string, records []entity.ChunkRecord) error

	// CreateSearchIndex builds (or reuses) the full-text search index named
	// serviceName over the namespace's chunk records.
	CreateSearchIndex(ctx context.Context, namespace, serviceName string) error

	// Search runs a ranked similarity query against serviceName and returns
	// at most limit records. Zero matches is a nil-error empty result.
	Search(ctx context.Context, namespace, serviceName, query string, limit int) ([]entity.ChunkRecord, error)

	// DropNamespace removes the search index and every record under the
	// namespace. Dropping an absent namespace succeeds.
	DropNamespace(ctx context.Context, namespace, serviceName string) error

	// Ping verifies connectivity.
	Ping(ctx context.Context) error
}

// Client implements Service on top of Redis with the RediSearch module.
type Client struct {
	rdb       *redis.Client
	opTimeout time.Duration
	retryOpts []retry.Option
}

var _ Service = (*Client)(nil)

func NewClient(cfg config.IndexConfig) *Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	})

	return &Client{
		rdb:       rdb,
		opTimeout: cfg.OpTimeout,
		retryOpts: cfg.Retry.ToRetryOptions(),
	}
}

// Close releases the underlying connection pool.
func (c *Client) Close() error {
	return c.rdb.Close()
}

func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := c.bound(ctx)
	defer cancel()

	return c.rdb.Ping(ctx).Err()
}

func (c *Client) CreateNamespace(ctx context.Context, namespace string) error {
	ctx, cancel := c.bound(ctx)
	defer cancel()

	err := retry.Do(func() error {
		return c.rdb.Set(ctx, namespaceKey(namespace), "1", 0).Err()
	}, c.withContext(ctx)...)
	if err != nil {
		return fmt.Errorf("create namespace %s: %w", namespace, err)
	}

	ctxzap.Extract(ctx).Debug("namespace created", zap.String("namespace", namespace))
	return nil
}

func (c *Client) CreateCollection(ctx context.Context, namespace, collection string) error {
	ctx, cancel := c.bound(ctx)
	defer cancel()

	err := retry.Do(func() error {
		return c.rdb.Set(ctx, collectionKey(namespace, collection), "1", 0).Err()
	}, c.withContext(ctx)...)
	if err != nil {
		return fmt.Errorf("create collection %s/%s: %w", namespace, collection, err)
	}

	return nil
}

func (c *Client) AppendRecords(ctx context.Context, namespace, collection string, records []entity.ChunkRecord) error {
	if len(records) == 0 {
		return nil
	}

	ctx, cancel := c.bound(ctx)
	defer cancel()

	// Keys are fixed before the retry loop so a retried append overwrites
	// its own partial write instead of duplicating records.
	batch := uuid.NewString()
	keys := make([]string, len(records))
	for i := range records {
		keys[i] = chunkKey(namespace, collection, batch, i)
	}

	err := retry.Do(func() error {
		pipe := c.rdb.Pipeline()
		for i, rec := range records {
			pipe.HSet(ctx, keys[i], "name", rec.Name, "data", rec.Data)
		}
		_, err := pipe.Exec(ctx)
		return err
	}, c.withContext(ctx)...)
	if err != nil {
		return fmt.Errorf("append %d records to %s/%s: %w", len(records), namespace, collection, err)
	}

	ctxzap.Extract(ctx).Debug("records appended",
		zap.String("namespace", namespace),
		zap.String("collection", collection),
		zap.Int("count", len(records)),
	)
	return nil
}

func (c *Client) CreateSearchIndex(ctx context.Context, namespace, serviceName string) error {
	ctx, cancel := c.bound(ctx)
	defer cancel()

	err := retry.Do(func() error {
		err := c.rdb.FTCreate(ctx, serviceName,
			&redis.FTCreateOptions{
				OnHash: true,
				Prefix: []interface{}{chunkPrefix(namespace)},
			},
			&redis.FieldSchema{FieldName: "name", FieldType: redis.SearchFieldTypeTag},
			&redis.FieldSchema{FieldName: "data", FieldType: redis.SearchFieldTypeText},
		).Err()
		if isIndexExists(err) {
			return nil
		}
		return err
	}, c.withContext(ctx)...)
	if err != nil {
		return fmt.Errorf("create search index %s: %w", serviceName, err)
	}

	ctxzap.Extract(ctx).Debug("search index ready",
		zap.String("namespace", namespace),
		zap.String("index", serviceName),
	)
	return nil
}

func (c *Client) Search(ctx context.Context, namespace, serviceName, query string, limit int) ([]entity.ChunkRecord, error) {
	ctx, cancel := c.bound(ctx)
	defer cancel()

	q := searchQuery(query)
	if q == "" {
		return []entity.ChunkRecord{}, nil
	}

	var res redis.FTSearchResult
	err := retry.Do(func() error {
		var err error
		res, err = c.rdb.FTSearchWithArgs(ctx, serviceName, q, &redis.FTSearchOptions{
			LimitOffset: 0,
			Limit:       limit,
			Return: []redis.FTSearchReturn{
				{FieldName: "name"},
				{FieldName: "data"},
			},
		}).Result()
		return err
	}, c.withContext(ctx)...)
	if err != nil {
		return nil, fmt.Errorf("search %s: %w", serviceName, err)
	}

	records := make([]entity.ChunkRecord, 0, len(res.Docs))
	for _, doc := range res.Docs {
		records = append(records, entity.ChunkRecord{
			Name: doc.Fields["name"],
			Data: doc.Fields["data"],
		})
	}

	return records, nil
}

func (c *Client) DropNamespace(ctx context.Context, namespace, serviceName string) error {
	ctx, cancel := c.bound(ctx)
	defer cancel()

	err := retry.Do(func() error {
		err := c.rdb.FTDropIndexWithArgs(ctx, serviceName, &redis.FTDropIndexOptions{
			DeleteDocs: true,
		}).Err()
		if err != nil && !isUnknownIndex(err) {
			return err
		}

		// DD only removes indexed hashes; sweep markers and any records
		// written before the index existed.
		return c.deleteByPrefix(ctx, "ns:"+namespace)
	}, c.withContext(ctx)...)
	if err != nil {
		return fmt.Errorf("drop namespace %s: %w", namespace, err)
	}

	ctxzap.Extract(ctx).Debug("namespace dropped", zap.String("namespace", namespace))
	return nil
}

func (c *Client) deleteByPrefix(ctx context.Context, prefix string) error {
	iter := c.rdb.Scan(ctx, 0, prefix+"*", 200).Iterator()
	for iter.Next(ctx) {
		if err := c.rdb.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

func (c *Client) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, c.opTimeout)
}

func (c *Client) withContext(ctx context.Context) []retry.Option {
	return append([]retry.Option{retry.Context(ctx), retry.LastErrorOnly(true)}, c.retryOpts...)
}

func namespaceKey(namespace string) string {
	return "ns:" + namespace
}

func collectionKey(namespace, collection string) string {
	return fmt.Sprintf("ns:%s:coll:%s", namespace, collection)
}

func chunkPrefix(namespace string) string {
	return fmt.Sprintf("ns:%s:chunk:", namespace)
}

func chunkKey(namespace, collection, batch string, i int) string {
	return fmt.Sprintf("%s%s:%s:%d", chunkPrefix(namespace), collection, batch, i)
}

// searchQuery strips query-syntax characters so user text is matched as
// plain terms.
func searchQuery(query string) string {
	var b strings.Builder
	for _, r := range query {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func isIndexExists(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "index already exists")
}

func isUnknownIndex(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unknown index") || strings.Contains(msg, "no such index")
}
