// Package objstore is the byte-object storage used for ingested parquet files,
// the universe list and rendered prediction artifacts.
package objstore

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/wonny/twitstock/pkg/config"
	"github.com/wonny/twitstock/pkg/redis"
)

// ErrNotFound is returned by Get when the key holds no object
var ErrNotFound = errors.New("object not found")

// ErrInvalidKey is returned when a key does not stay inside the store
var ErrInvalidKey = errors.New("invalid object key")

// Store is a flat key → bytes store.
// ⭐ SSOT: 오브젝트 저장소 접근은 이 인터페이스로만 수행
type Store interface {
	// Exists is re-queried on every call; nothing is cached.
	Exists(ctx context.Context, key string) (bool, error)
	Get(ctx context.Context, key string) ([]byte, error)
	// Put stores data atomically: readers see the old object or the whole new one.
	Put(ctx context.Context, key string, data []byte) error
	// URI renders <scheme>://<bucket>/<key>
	URI(key string) string
}

// Open builds the store named by raw: s3://bucket, file://dir, mem://name or redis://prefix.
// rc is only used by redis:// and may be nil otherwise.
func Open(ctx context.Context, raw string, cfg *config.Config, rc *redis.Client) (Store, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parse storage url %q: %w", raw, err)
	}

	switch u.Scheme {
	case "s3":
		return NewS3(ctx, u.Host, cfg.Storage)
	case "file":
		return NewFile(u.Host + u.Path)
	case "mem":
		return NewMemory(u.Host), nil
	case "redis":
		if rc == nil || !rc.Enabled() {
			return nil, fmt.Errorf("storage url %q requires REDIS_ENABLED=true", raw)
		}
		return NewRedis(rc, u.Host), nil
	default:
		return nil, fmt.Errorf("unsupported storage scheme %q", u.Scheme)
	}
}

func joinURI(scheme, bucket, key string) string {
	return fmt.Sprintf("%s://%s/%s", scheme, strings.TrimSuffix(bucket, "/"), strings.TrimPrefix(key, "/"))
}
