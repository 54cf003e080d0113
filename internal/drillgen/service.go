package drillgen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/abhisek/kotoba/internal/content"
)

// ErrUnavailable is returned when no generator is configured.
var ErrUnavailable = errors.New("drill generation unavailable")

// IDPrefix starts every generated drill id.
const IDPrefix = "ai_"

// Service is the generation boundary used by the planner: a Generator
// behind an availability check and a bounded timeout, with results kept in
// a Cache.
type Service struct {
	gen    Generator
	cache  *Cache
	config Config
	log    *slog.Logger
}

// NewService creates a Service. A nil gen makes the service unavailable;
// a nil cache gets a fresh one with cfg.CacheTTL.
func NewService(gen Generator, cache *Cache, cfg Config, log *slog.Logger) *Service {
	if cache == nil {
		cache = NewCache(cfg.CacheTTL)
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Service{gen: gen, cache: cache, config: cfg, log: log}
}

// IsAvailable reports whether GenerateDrills can be attempted.
func (s *Service) IsAvailable() bool {
	return s != nil && s.gen != nil
}

// Cache returns the cache generated drills are stored in.
func (s *Service) Cache() *Cache {
	return s.cache
}

// GenerateDrills generates, ids and caches drills for req.
func (s *Service) GenerateDrills(ctx context.Context, req Request) ([]content.Drill, error) {
	if !s.IsAvailable() {
		return nil, ErrUnavailable
	}
	if req.Count <= 0 {
		return nil, nil
	}
	if s.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.Timeout)
		defer cancel()
	}

	drills, err := s.gen.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("generate drills for grammar %d: %w", req.Grammar.ID, err)
	}
	for i := range drills {
		drills[i].ID = NewID(req.Grammar.ID)
		drills[i].GrammarID = req.Grammar.ID
		s.cache.Set(drills[i])
	}
	s.log.Debug("generated drills", "grammar", req.Grammar.ID, "count", len(drills), "difficulty", req.Difficulty)
	return drills, nil
}

// NewID returns a fresh generated-drill id for grammarID.
func NewID(grammarID int) string {
	u := uuid.New()
	return fmt.Sprintf("%sg%d_%x", IDPrefix, grammarID, u[:4])
}
