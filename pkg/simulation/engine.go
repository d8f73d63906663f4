package simulation

import (
	"context"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/dd0wney/cluso-continuity/pkg/logging"
	"github.com/dd0wney/cluso-continuity/pkg/metrics"
)

// cancelCheckInterval is how many iterations run between context checks.
const cancelCheckInterval = 1024

// Config bounds the engine.
type Config struct {
	DefaultIterations int `yaml:"default_iterations"`
	MaxIterations     int `yaml:"max_iterations"`
	// Workers is used when Params.Workers is zero.
	Workers int `yaml:"workers"`
}

// DefaultConfig returns sequential execution with the standard limits.
func DefaultConfig() Config {
	return Config{
		DefaultIterations: DefaultIterations,
		MaxIterations:     DefaultMaxIterations,
		Workers:           1,
	}
}

// Result is the outcome of one run. Samples are sorted ascending.
type Result struct {
	ID           string      `json:"id"`
	RunID        string      `json:"runId"`
	Iterations   int         `json:"iterations"`
	Seed         uint64      `json:"seed"`
	Statistics   Statistics  `json:"statistics"`
	Percentiles  Percentiles `json:"percentiles"`
	Distribution []Bin       `json:"distribution"`
	Samples      []float64   `json:"samples,omitempty"`
}

// Engine runs simulations. It keeps no state between runs and is safe for
// concurrent use.
type Engine struct {
	cfg     Config
	logger  logging.Logger
	metrics *metrics.Registry
}

// NewEngine creates an engine. A nil logger uses the default logger and a nil
// registry disables metrics.
func NewEngine(cfg Config, logger logging.Logger, reg *metrics.Registry) *Engine {
	if cfg.DefaultIterations <= 0 {
		cfg.DefaultIterations = DefaultIterations
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultMaxIterations
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &Engine{
		cfg:     cfg,
		logger:  logging.OrDefault(logger).With(logging.Component("simulation")),
		metrics: reg,
	}
}

// RunMonteCarloSimulation draws iterations samples of impact × probability for
// the entity id and aggregates them. iterations == 0 uses the configured
// default.
func (e *Engine) RunMonteCarloSimulation(ctx context.Context, id string, iterations int, p Params) (*Result, error) {
	start := time.Now()
	res, err := e.run(ctx, id, iterations, p)
	if err != nil {
		e.record(metrics.StatusError, iterations, time.Since(start))
		e.logger.Warn("simulation failed",
			logging.String("id", id),
			logging.Int("iterations", iterations),
			logging.Error(err))
		return nil, err
	}
	e.record(metrics.StatusOK, res.Iterations, time.Since(start))

	e.logger.Debug("simulation complete",
		logging.String("id", id),
		logging.String("run_id", res.RunID),
		logging.Int("iterations", res.Iterations),
		logging.Latency(time.Since(start)))
	return res, nil
}

func (e *Engine) run(ctx context.Context, id string, iterations int, p Params) (*Result, error) {
	if iterations == 0 {
		iterations = e.cfg.DefaultIterations
	}
	if iterations < 1 || iterations > e.cfg.MaxIterations {
		return nil, invalid("iterations must be in [1, %d], got %d", e.cfg.MaxIterations, iterations)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}

	var seed uint64
	if p.Seed != nil {
		seed = *p.Seed
	} else {
		seed = rand.Uint64()
	}

	workers := p.Workers
	if workers == 0 {
		workers = e.cfg.Workers
	}
	workers = min(workers, iterations)

	samples := make([]float64, iterations)
	var err error
	if workers <= 1 {
		err = fill(ctx, newSampler(p, seed, 0), samples)
	} else {
		err = fillParallel(ctx, p, seed, workers, samples)
	}
	if err != nil {
		return nil, err
	}

	slices.Sort(samples)
	return &Result{
		ID:           id,
		RunID:        uuid.NewString(),
		Iterations:   iterations,
		Seed:         seed,
		Statistics:   summarize(samples),
		Percentiles:  percentiles(samples),
		Distribution: histogram(samples, HistogramBins),
		Samples:      samples,
	}, nil
}

// fill writes one sample per slot, checking ctx periodically.
func fill(ctx context.Context, s *sampler, out []float64) error {
	for i := range out {
		if i%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		out[i] = s.next()
	}
	return nil
}

// fillParallel splits out into contiguous chunks, one per worker, each with
// its own RNG stream derived from seed.
func fillParallel(ctx context.Context, p Params, seed uint64, workers int, out []float64) error {
	g, gctx := errgroup.WithContext(ctx)

	chunk := (len(out) + workers - 1) / workers
	for w := 0; w < workers; w++ {
		lo := w * chunk
		if lo >= len(out) {
			break
		}
		hi := min(lo+chunk, len(out))
		s := newSampler(p, seed, uint64(w))
		g.Go(func() error {
			return fill(gctx, s, out[lo:hi])
		})
	}
	return g.Wait()
}

func (e *Engine) record(status string, iterations int, d time.Duration) {
	if e.metrics == nil {
		return
	}
	e.metrics.RecordSimulation(status, iterations, d)
}
