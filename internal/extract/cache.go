package extract

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/xj-bear/pdf2all/internal/cache"
	"github.com/xj-bear/pdf2all/internal/domain"
	"github.com/xj-bear/pdf2all/internal/observability"
)

// OutcomeCache stores successful page outcomes keyed by file content, page
// and the parameters that influence the result.
type OutcomeCache struct {
	client  cache.Client
	ttl     time.Duration
	variant string
	logger  *observability.Logger
}

// NewOutcomeCache wraps client. variant must change whenever a setting that
// affects OCR output changes (geometry, languages, level).
func NewOutcomeCache(client cache.Client, ttl time.Duration, variant string, logger *observability.Logger) *OutcomeCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	if logger == nil {
		logger = observability.Nop()
	}
	return &OutcomeCache{client: client, ttl: ttl, variant: variant, logger: logger}
}

// Key returns the cache key for one page of a file.
func (c *OutcomeCache) Key(digest string, page int) string {
	return cache.CacheKey("ocr", digest, strconv.Itoa(page), c.variant)
}

// Get returns a cached outcome.
func (c *OutcomeCache) Get(ctx context.Context, digest string, page int) (domain.PageOutcome, bool) {
	data, err := c.client.Get(ctx, c.Key(digest, page))
	if err != nil {
		if !errors.Is(err, cache.ErrCacheMiss) {
			c.logger.Warn().Err(err).Int("page", page+1).Msg("OCR cache read failed")
		}
		return domain.PageOutcome{}, false
	}

	var outcome domain.PageOutcome
	if err := json.Unmarshal(data, &outcome); err != nil {
		c.logger.Warn().Err(err).Int("page", page+1).Msg("Discarding malformed OCR cache entry")
		return domain.PageOutcome{}, false
	}
	return outcome, true
}

// Put stores outcome unless it is a failure.
func (c *OutcomeCache) Put(ctx context.Context, digest string, outcome domain.PageOutcome) {
	if outcome.Failed() {
		return
	}
	data, err := json.Marshal(outcome)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, c.Key(digest, outcome.Page), data, c.ttl); err != nil {
		c.logger.Warn().Err(err).Int("page", outcome.Page+1).Msg("OCR cache write failed")
	}
}

// FileDigest returns the hex sha256 of a file's contents.
func FileDigest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open for digest: %w", err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash file: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
