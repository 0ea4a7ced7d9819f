package limiter

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Sweeper is state that can forget stale keys.
type Sweeper interface {
	Sweep() int
}

// Janitor periodically sweeps registered limiters so idle keys do not
// accumulate for the life of the process.
type Janitor struct {
	interval time.Duration
	logger   *zap.Logger
	names    []string
	targets  []Sweeper
}

// NewJanitor builds a janitor that runs every interval.
func NewJanitor(interval time.Duration, logger *zap.Logger) *Janitor {
	if interval <= 0 {
		interval = time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Janitor{interval: interval, logger: logger}
}

// Register adds a sweep target.
func (j *Janitor) Register(name string, s Sweeper) *Janitor {
	if s != nil {
		j.names = append(j.names, name)
		j.targets = append(j.targets, s)
	}
	return j
}

// SweepOnce sweeps every target and returns the number of keys removed per target.
func (j *Janitor) SweepOnce() map[string]int {
	removed := make(map[string]int, len(j.targets))
	for i, target := range j.targets {
		removed[j.names[i]] = target.Sweep()
	}
	return removed
}

// Run sweeps on every tick until ctx is cancelled.
func (j *Janitor) Run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			for name, n := range j.SweepOnce() {
				if n > 0 {
					j.logger.Debug("swept idle limiter keys", zap.String("limiter", name), zap.Int("removed", n))
				}
			}
		case <-ctx.Done():
			return
		}
	}
}
