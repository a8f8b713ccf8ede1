package repositories

import (
	"context"
	"fmt"

	"assurance-claims/internal/adapters/persistence/models"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormClaimSequencer allocates claim sequence values from the claim_sequences table.
// Each call locks the year row, so concurrent creators never see the same value.
type GormClaimSequencer struct {
	db *gorm.DB
}

// NewClaimSequencer creates a new table-backed claim sequencer
func NewClaimSequencer(db *gorm.DB) *GormClaimSequencer {
	return &GormClaimSequencer{db: db}
}

// Next returns the next sequence value for year, starting at 1
func (s *GormClaimSequencer) Next(ctx context.Context, year int) (int64, error) {
	var next int64

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).
			Create(&models.ClaimSequence{Year: year}).Error; err != nil {
			return err
		}

		var seq models.ClaimSequence
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("year = ?", year).
			First(&seq).Error; err != nil {
			return err
		}

		next = seq.Value + 1
		return tx.Model(&models.ClaimSequence{}).
			Where("year = ?", year).
			Update("value", next).Error
	})
	if err != nil {
		return 0, fmt.Errorf("allocate claim sequence for %d: %w", year, err)
	}

	return next, nil
}

const claimSequenceKeyPrefix = "claims:seq:"

// SequenceFloor reports the highest sequence value already used for a year
type SequenceFloor func(ctx context.Context, year int) (int64, error)

// RedisClaimSequencer allocates claim sequence values with INCR, shared by every instance.
// A missing year key is first seeded from floor, so numbering resumes above stored claims
// after a flush or when Redis replaces the table counter.
type RedisClaimSequencer struct {
	client redis.Cmdable
	floor  SequenceFloor
}

// NewRedisClaimSequencer creates a Redis-backed claim sequencer. floor may be nil.
func NewRedisClaimSequencer(client redis.Cmdable, floor SequenceFloor) *RedisClaimSequencer {
	return &RedisClaimSequencer{client: client, floor: floor}
}

// Next returns the next sequence value for year, starting above the floor
func (s *RedisClaimSequencer) Next(ctx context.Context, year int) (int64, error) {
	key := fmt.Sprintf("%s%d", claimSequenceKeyPrefix, year)
	if err := s.seed(ctx, key, year); err != nil {
		return 0, fmt.Errorf("seed claim sequence for %d: %w", year, err)
	}

	next, err := s.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, fmt.Errorf("allocate claim sequence for %d: %w", year, err)
	}
	return next, nil
}

// seed sets a missing key to the floor. SETNX keeps concurrent seeders from lowering a live counter.
func (s *RedisClaimSequencer) seed(ctx context.Context, key string, year int) error {
	if s.floor == nil {
		return nil
	}
	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil || exists > 0 {
		return err
	}

	floor, err := s.floor(ctx, year)
	if err != nil {
		return err
	}
	return s.client.SetNX(ctx, key, floor, 0).Err()
}
