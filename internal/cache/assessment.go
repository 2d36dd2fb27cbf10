package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/nutriscan/nutriscan/internal/store"
)

const keyPrefix = "nutriscan:subject:"

// LatestKey is the cache key of a subject's latest assessment.
func LatestKey(subjectID string) string {
	return keyPrefix + subjectID + ":latest"
}

// AssessmentCache caches the latest assessment per subject as JSON.
type AssessmentCache struct {
	kv     KVStore
	ttl    time.Duration
	logger *zap.Logger
}

// NewAssessmentCache creates a cache over kv. A nil logger is replaced by a no-op logger.
func NewAssessmentCache(kv KVStore, ttl time.Duration, logger *zap.Logger) *AssessmentCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AssessmentCache{kv: kv, ttl: ttl, logger: logger}
}

// Latest returns the cached latest assessment, or ErrCacheMiss.
func (c *AssessmentCache) Latest(ctx context.Context, subjectID string) (*store.AssessmentRecord, error) {
	key := LatestKey(subjectID)
	val, err := c.kv.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			return nil, fmt.Errorf("get %s: %w", key, err)
		}
		return nil, err
	}

	var rec store.AssessmentRecord
	if err := json.Unmarshal([]byte(val), &rec); err != nil {
		c.logger.Warn("dropping undecodable cache entry",
			zap.String("key", key),
			zap.Error(err),
		)
		_ = c.kv.Delete(ctx, key)
		return nil, ErrCacheMiss
	}
	return &rec, nil
}

// SetLatest stores rec as its subject's latest assessment.
func (c *AssessmentCache) SetLatest(ctx context.Context, rec *store.AssessmentRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal assessment: %w", err)
	}
	key := LatestKey(rec.SubjectID)
	if err := c.kv.Set(ctx, key, string(data), c.ttl); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}

	c.logger.Debug("updated latest assessment cache",
		zap.String("subject_id", rec.SubjectID),
		zap.String("key", key),
	)
	return nil
}

// Invalidate drops a subject's cached assessment.
func (c *AssessmentCache) Invalidate(ctx context.Context, subjectID string) error {
	return c.kv.Delete(ctx, LatestKey(subjectID))
}
