package rates

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	bolt "go.etcd.io/bbolt"
)

const ratesBucket = "rates"

// Cache persists fetched conversion rates in a local bbolt file so repeated
// conversions of the same (base, quote, date) triple within the TTL skip the
// provider round trip.
type Cache struct {
	db *bolt.DB
}

type cachedRate struct {
	Rate      decimal.Decimal `json:"rate"`
	FetchedAt time.Time       `json:"fetchedAt"`
}

// NewCache opens (or creates) the cache file and its bucket.
func NewCache(dbPath string) (*Cache, error) {
	db, err := bolt.Open(dbPath, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open rate cache: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(ratesBucket))
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create rate cache bucket: %w", err)
	}
	return &Cache{db: db}, nil
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}

// Get returns the cached rate for the key if it is younger than ttl.
func (c *Cache) Get(key string, ttl time.Duration) (decimal.Decimal, bool) {
	var entry cachedRate
	found := false
	_ = c.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket([]byte(ratesBucket)).Get([]byte(key))
		if data == nil {
			return nil
		}
		if err := json.Unmarshal(data, &entry); err != nil {
			return nil
		}
		found = true
		return nil
	})
	if !found || time.Since(entry.FetchedAt) > ttl {
		return decimal.Zero, false
	}
	return entry.Rate, true
}

// Put stores a fetched rate under the key.
func (c *Cache) Put(key string, rate decimal.Decimal) error {
	data, err := json.Marshal(cachedRate{Rate: rate, FetchedAt: time.Now().UTC()})
	if err != nil {
		return err
	}
	return c.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(ratesBucket)).Put([]byte(key), data)
	})
}

// cacheKey builds the bucket key for one conversion pair as of a date.
func cacheKey(endpoint, from, to, date string) string {
	return strings.Join([]string{endpoint, from, to, date}, "|")
}
