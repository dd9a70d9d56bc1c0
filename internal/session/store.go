// Package session resolves the caller's access tier and free-run
// budget. Postgres is authoritative; Redis caches the tier/expiry pair
// and holds short-lived login codes.
package session

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/yourusername/clarity-api/internal/model"
	"github.com/yourusername/clarity-api/internal/repository"
)

const passCachePrefix = "pass:"

type Store struct {
	users  *repository.UserRepo
	passes *repository.PassRepo
	runs   *repository.RunRepo
	rdb    *redis.Client

	// FreeRunLimit is how many feedback runs a free subject gets.
	FreeRunLimit int
}

func NewStore(users *repository.UserRepo, passes *repository.PassRepo, runs *repository.RunRepo, rdb *redis.Client, freeRunLimit int) *Store {
	return &Store{
		users:        users,
		passes:       passes,
		runs:         runs,
		rdb:          rdb,
		FreeRunLimit: freeRunLimit,
	}
}

// ActivePass returns the user's active pass, consulting the Redis cache
// first. Cached entries carry their own expiry and are actively purged
// on read when stale, so an expired pass is never served from cache.
func (s *Store) ActivePass(ctx context.Context, userID uuid.UUID) (*model.ActivePass, error) {
	key := passCachePrefix + userID.String()

	if cached, err := s.rdb.Get(ctx, key).Result(); err == nil {
		if ap, ok := decodePassCache(cached); ok {
			if time.Now().Before(ap.ExpiresAt) {
				return ap, nil
			}
			// Stale entry: purge before falling through to the database.
			if delErr := s.rdb.Del(ctx, key).Err(); delErr != nil {
				log.Warn().Err(delErr).Msg("Failed to purge stale pass cache entry")
			}
		}
	} else if err != redis.Nil {
		// Cache trouble is never fatal; the database stays authoritative.
		log.Warn().Err(err).Msg("Pass cache read failed")
	}

	pass, err := s.passes.FindActiveByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if pass == nil {
		return nil, nil
	}

	ap := &model.ActivePass{Tier: pass.Tier, ExpiresAt: pass.ExpiresAt}
	ttl := time.Until(ap.ExpiresAt)
	if ttl > 0 {
		if err := s.rdb.Set(ctx, key, encodePassCache(ap), ttl).Err(); err != nil {
			log.Warn().Err(err).Msg("Pass cache write failed")
		}
	}
	return ap, nil
}

// InvalidatePass drops the cached tier/expiry pair, e.g. after a new
// pass purchase lands via webhook.
func (s *Store) InvalidatePass(ctx context.Context, userID uuid.UUID) {
	if err := s.rdb.Del(ctx, passCachePrefix+userID.String()).Err(); err != nil {
		log.Warn().Err(err).Msg("Failed to invalidate pass cache")
	}
}

// Snapshot is the /api/me view: the user (nil for guests) and any
// active pass.
func (s *Store) Snapshot(ctx context.Context, userID *uuid.UUID) (*model.User, *model.ActivePass, error) {
	if userID == nil {
		return nil, nil, nil
	}
	user, err := s.users.FindByID(ctx, *userID)
	if err != nil {
		return nil, nil, err
	}
	if user == nil {
		return nil, nil, nil
	}
	ap, err := s.ActivePass(ctx, user.ID)
	if err != nil {
		return nil, nil, err
	}
	return user, ap, nil
}

// Meter consumes one free run for the subject. Returns the zero-based
// index of this run, how many remain after it, and whether the run is
// allowed at all.
func (s *Store) Meter(ctx context.Context, subject string) (runIndex, remaining int, allowed bool, err error) {
	counter, err := s.runs.Get(ctx, subject)
	if err != nil {
		return 0, 0, false, err
	}
	used := 0
	if counter != nil {
		used = counter.RunCount
	}
	if used >= s.FreeRunLimit {
		return used, 0, false, nil
	}

	count, err := s.runs.Increment(ctx, subject)
	if err != nil {
		return 0, 0, false, err
	}
	remaining = s.FreeRunLimit - count
	if remaining < 0 {
		remaining = 0
	}
	return count - 1, remaining, true, nil
}

// GuestSubject builds the metering key for an unauthenticated caller.
func GuestSubject(ip string) string {
	return "ip:" + ip
}

func encodePassCache(ap *model.ActivePass) string {
	return ap.Tier + "|" + strconv.FormatInt(ap.ExpiresAt.Unix(), 10)
}

func decodePassCache(raw string) (*model.ActivePass, bool) {
	parts := strings.SplitN(raw, "|", 2)
	if len(parts) != 2 {
		return nil, false
	}
	unix, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil {
		return nil, false
	}
	return &model.ActivePass{Tier: parts[0], ExpiresAt: time.Unix(unix, 0)}, true
}

// ── Login codes ──────────────────────────────────────

const (
	codePrefix = "logincode:"
	codeTTL    = 10 * time.Minute
)

// StoreLoginCode saves a one-time login code for an email with a 10
// minute window. A new request overwrites the previous code.
func (s *Store) StoreLoginCode(ctx context.Context, email, code string) error {
	if err := s.rdb.Set(ctx, codePrefix+strings.ToLower(email), code, codeTTL).Err(); err != nil {
		return fmt.Errorf("storing login code: %w", err)
	}
	return nil
}

// ConsumeLoginCode checks a submitted code and deletes it on success.
// A wrong code leaves the stored one in place for another attempt.
func (s *Store) ConsumeLoginCode(ctx context.Context, email, code string) (bool, error) {
	key := codePrefix + strings.ToLower(email)
	stored, err := s.rdb.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("reading login code: %w", err)
	}
	if stored != strings.TrimSpace(code) {
		return false, nil
	}
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		log.Warn().Err(err).Msg("Failed to delete consumed login code")
	}
	return true, nil
}
