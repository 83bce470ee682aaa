package cache

import (
	"time"

	pkgcache "SqueezeWatch/pkg/cache"
)

// BytesCache is a minimal cache API storing raw bytes with TTL.
type BytesCache interface {
	GetBytes(key string) (b []byte, ok bool, err error)
	SetBytes(key string, value []byte, ttl time.Duration) error
}

// TopKey builds the cache key for a top-candidates response.
func TopKey(date string, limit, minScore int) string {
	if date == "" {
		date = "latest"
	}
	return pkgcache.GenerateKeyWithParams("top", date, limit, minScore)
}

// WarningsKey builds the cache key for a CB warnings response.
func WarningsKey(date, minLevel string, limit int) string {
	if date == "" {
		date = "latest"
	}
	return pkgcache.GenerateKeyWithParams("cbwarn", date, minLevel, limit)
}
