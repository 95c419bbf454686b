package match

import (
	"context"
	"fmt"
	"sync"

	"github.com/campusmatch/matchmaker/internal/ai"
	"github.com/campusmatch/matchmaker/internal/profile"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	defaultConcurrency = 4
)

// EngineConfig bounds how aggressively the engine fans out scoring calls.
// RateLimit is in scoring calls per second; zero means unlimited.
type EngineConfig struct {
	Concurrency int     `mapstructure:"concurrency"`
	RateLimit   float64 `mapstructure:"rate_limit"`
}

func DefaultEngineConfig() EngineConfig {
	return EngineConfig{Concurrency: defaultConcurrency}
}

// Engine drives pair admissibility and scoring over a roster. Scoring runs
// in parallel; admissibility is cheap and runs inline first so the scorer
// only ever sees viable pairs.
type Engine struct {
	filter  *Filter
	scorer  ai.Scorer
	config  EngineConfig
	limiter *rate.Limiter
	logger  *zap.Logger
}

func NewEngine(filter *Filter, scorer ai.Scorer, config EngineConfig, logger *zap.Logger) *Engine {
	if config.Concurrency <= 0 {
		config.Concurrency = defaultConcurrency
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var limiter *rate.Limiter
	if config.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.RateLimit), 1)
	}

	return &Engine{
		filter:  filter,
		scorer:  scorer,
		config:  config,
		limiter: limiter,
		logger:  logger,
	}
}

// Run scores every admissible pair in the roster and returns the resulting
// edge set, sorted by profile IDs. Degraded assessments are counted in
// Warnings rather than failing the run; only context cancellation aborts.
func (e *Engine) Run(ctx context.Context, roster *profile.Roster) (*EdgeSet, error) {
	pairs := e.admissiblePairs(roster)

	total := roster.Len() * (roster.Len() - 1) / 2
	e.logger.Info("pair filtering finished",
		zap.Int("initial", total),
		zap.Int("dropped", total-len(pairs)),
		zap.Int("left", len(pairs)),
	)

	set := &EdgeSet{}

	var mu sync.Mutex
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(e.config.Concurrency)

	for _, pair := range pairs {
		a, b := pair[0], pair[1]
		group.Go(func() error {
			if e.limiter != nil {
				if err := e.limiter.Wait(groupCtx); err != nil {
					return err
				}
			}

			assessment, err := e.scorer.Score(groupCtx, a, b)
			if err != nil {
				return fmt.Errorf("scoring pair %d/%d: %w", a.ID, b.ID, err)
			}

			mu.Lock()
			defer mu.Unlock()
			if assessment.Degraded {
				set.Warnings++
			}
			set.Items = append(set.Items, &Edge{
				A:          min(a.ID, b.ID),
				B:          max(a.ID, b.ID),
				Score:      assessment.Score,
				Assessment: assessment,
			})
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	set.Sort()

	e.logger.Info("pair scoring finished",
		zap.String("scorer", e.scorer.Name()),
		zap.Int("scored", set.Len()),
		zap.Int("warnings", set.Warnings),
	)

	return set, nil
}

func (e *Engine) admissiblePairs(roster *profile.Roster) [][2]*profile.Profile {
	var pairs [][2]*profile.Profile
	for i := 0; i < roster.Len(); i++ {
		for j := i + 1; j < roster.Len(); j++ {
			a, b := roster.Items[i], roster.Items[j]
			if e.filter.Admissible(a, b) {
				pairs = append(pairs, [2]*profile.Profile{a, b})
			} else {
				e.logger.Debug("pair dropped by filter",
					zap.Int("profile_a", a.ID),
					zap.Int("profile_b", b.ID),
				)
			}
		}
	}
	return pairs
}
