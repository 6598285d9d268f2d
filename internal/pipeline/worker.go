package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dgallion1/msgsplit/internal/cache"
	"github.com/dgallion1/msgsplit/internal/splitter"
)

// PhaseError wraps a failure with the pipeline phase it happened in.
type PhaseError struct {
	Phase string
	Err   error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("%s: %v", e.Phase, e.Err)
}

func (e *PhaseError) Unwrap() error {
	return e.Err
}

// Worker runs splits through the result cache and records their stats.
type Worker struct {
	cache    cache.Cache
	cacheTTL time.Duration
	stats    *SplitStats
	log      *slog.Logger
}

func NewWorker(c cache.Cache, cacheTTL time.Duration, stats *SplitStats, log *slog.Logger) *Worker {
	if c == nil {
		c = cache.Nop{}
	}
	return &Worker{
		cache:    c,
		cacheTTL: cacheTTL,
		stats:    stats,
		log:      log,
	}
}

// Split splits data synchronously. The boolean reports a cache hit.
func (w *Worker) Split(ctx context.Context, data []byte, filename string, opts Options) (*splitter.Result, bool, error) {
	return w.run(ctx, nil, w.log.With("filename", filename), data, filename, opts)
}

// Process runs the split for a queued job and records the outcome on it.
func (w *Worker) Process(ctx context.Context, job *Job) {
	log := w.log.With("job_id", job.ID, "filename", job.Filename)

	res, cached, err := w.run(ctx, job, log, job.FileData(), job.Filename, job.Options())
	if err != nil {
		phase := "splitting"
		var pe *PhaseError
		if errors.As(err, &pe) {
			phase = pe.Phase
		}
		log.Error("split failed", "phase", phase, "error", err)
		job.Fail(phase, err)
		return
	}
	job.Complete(res, cached)
	log.Info("split complete",
		"fragments", len(res.Fragments),
		"oversize_units", len(res.Oversize),
		"cached", cached,
	)
}

func (w *Worker) run(ctx context.Context, job *Job, log *slog.Logger, data []byte, filename string, opts Options) (*splitter.Result, bool, error) {
	if opts.MaxLen < 1 {
		w.stats.RecordFailure()
		return nil, false, &PhaseError{Phase: "validating", Err: &splitter.InvalidConfigurationError{
			Field: "max_len", Value: opts.MaxLen, Reason: "must be a positive integer",
		}}
	}

	key := CacheKey(data, filename, opts)
	if res, ok := w.lookup(ctx, log, key); ok {
		w.stats.RecordCacheHit()
		return res, true, nil
	}

	start := time.Now()
	setStatus(job, StatusParsing, "parsing")
	tree, err := ParseDocument(data, filename, opts)
	if err != nil {
		w.stats.RecordFailure()
		return nil, false, &PhaseError{Phase: "parsing", Err: err}
	}

	setStatus(job, StatusSplitting, "splitting")
	res, err := splitter.Split(tree, opts.splitConfig())
	if err != nil {
		w.stats.RecordFailure()
		return nil, false, &PhaseError{Phase: "splitting", Err: err}
	}
	w.stats.RecordSplit(time.Since(start).Milliseconds(), len(res.Fragments), len(res.Oversize))

	for _, u := range res.Oversize {
		log.Warn("oversize unit",
			"fragment", u.Fragment,
			"kind", u.Kind,
			"tag", u.Tag,
			"size", u.Size,
			"overhead", u.Overhead,
			"budget", u.Budget,
		)
	}

	w.store(ctx, log, key, res)
	return res, false, nil
}

// lookup returns a cached result. Cache failures are logged and treated as misses.
func (w *Worker) lookup(ctx context.Context, log *slog.Logger, key string) (*splitter.Result, bool) {
	raw, ok, err := w.cache.Get(ctx, key)
	if err != nil {
		log.Warn("cache get failed, proceeding", "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	var res splitter.Result
	if err := json.Unmarshal(raw, &res); err != nil {
		log.Warn("cache entry unreadable, proceeding", "error", err)
		return nil, false
	}
	return &res, true
}

func (w *Worker) store(ctx context.Context, log *slog.Logger, key string, res *splitter.Result) {
	raw, err := json.Marshal(res)
	if err != nil {
		log.Warn("cache encode failed", "error", err)
		return
	}
	if err := w.cache.Set(ctx, key, raw, w.cacheTTL); err != nil {
		log.Warn("cache set failed", "error", err)
	}
}

func setStatus(job *Job, status JobStatus, phase string) {
	if job != nil {
		job.SetStatus(status, phase)
	}
}
