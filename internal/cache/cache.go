package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spigell/unimatch/internal/catalog"
	"github.com/spigell/unimatch/internal/scoring"
)

const (
	keyPrefix  = "unimatch:scores"
	defaultTTL = 30 * time.Minute
)

// Config describes the redis connection used for memoized scores.
type Config struct {
	Enabled  bool          `mapstructure:"enabled"`
	Address  string        `mapstructure:"address"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// Scores memoizes scoring results in redis. Failures never surface to callers:
// a broken cache only means results are computed again.
type Scores struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// Dial creates a redis client from the config.
func Dial(cfg Config, logger *zap.Logger) *Scores {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
	return New(client, cfg.TTL, logger)
}

func New(client *redis.Client, ttl time.Duration, logger *zap.Logger) *Scores {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scores{client: client, ttl: ttl, logger: logger}
}

func (s *Scores) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (s *Scores) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// Get returns cached results for key. Program pointers are not stored; callers
// relink them by ProgramID.
func (s *Scores) Get(ctx context.Context, key string) ([]scoring.Result, bool) {
	val, err := s.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		s.logger.Debug("score cache miss", zap.String("key", key))
		return nil, false
	}
	if err != nil {
		s.logger.Warn("score cache read failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}

	var results []scoring.Result
	if err := json.Unmarshal([]byte(val), &results); err != nil {
		s.logger.Warn("score cache entry is corrupted", zap.String("key", key), zap.Error(err))
		return nil, false
	}

	s.logger.Debug("score cache hit", zap.String("key", key), zap.Int("results", len(results)))
	return results, true
}

func (s *Scores) Put(ctx context.Context, key string, results []scoring.Result) {
	stored := make([]scoring.Result, len(results))
	for i, r := range results {
		r.Program = nil
		stored[i] = r
	}

	data, err := json.Marshal(stored)
	if err != nil {
		s.logger.Warn("encode scores for cache", zap.Error(err))
		return
	}

	if err := s.client.Set(ctx, key, data, s.ttl).Err(); err != nil {
		s.logger.Warn("score cache write failed", zap.String("key", key), zap.Error(err))
	}
}

type profileInput struct {
	Version   int                      `json:"version"`
	Profile   *catalog.StudentProfile  `json:"profile"`
	Documents []catalog.DocumentRecord `json:"documents"`
}

// Key builds "unimatch:scores:<profileHash>:<programSetHash>". The profile hash
// covers the keyword tables version, so changed tables never reuse old entries.
func Key(profile *catalog.StudentProfile, documents []catalog.DocumentRecord, programs []*catalog.Program) (string, error) {
	var normalized *catalog.StudentProfile
	if profile != nil {
		p := *profile
		p.StudentID = ""
		normalized = &p
	}

	profileHash, err := hash(profileInput{Version: scoring.TablesVersion, Profile: normalized, Documents: documents})
	if err != nil {
		return "", fmt.Errorf("hash profile: %w", err)
	}

	stripped := make([]catalog.Program, 0, len(programs))
	for _, program := range programs {
		if program == nil {
			continue
		}
		p := *program
		p.AI = nil
		stripped = append(stripped, p)
	}

	programsHash, err := hash(stripped)
	if err != nil {
		return "", fmt.Errorf("hash programs: %w", err)
	}

	return fmt.Sprintf("%s:%s:%s", keyPrefix, profileHash, programsHash), nil
}

func hash(v any) (string, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
