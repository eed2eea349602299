package coordinator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/absmach/fedge/pkg/aggregation"
	"github.com/absmach/fedge/pkg/cron"
	"github.com/absmach/fedge/pkg/model"
)

// TriggerPolicy selects what fires an aggregation round.
type TriggerPolicy string

const (
	// PolicyCount fires a round synchronously when the pending buffer
	// reaches the configured threshold.
	PolicyCount TriggerPolicy = "count"
	// PolicyInterval fires a round on a periodic wake-up, skipping the
	// round entirely when nothing is pending.
	PolicyInterval TriggerPolicy = "interval"
)

type TriggerConfig struct {
	Policy    TriggerPolicy        `json:"policy"`
	Threshold int                  `json:"threshold,omitempty"`
	Interval  time.Duration        `json:"interval,omitempty"`
	Cron      string               `json:"cron,omitempty"`
	Strategy  aggregation.Strategy `json:"strategy"`
}

func (c TriggerConfig) Validate() error {
	switch c.Policy {
	case PolicyCount:
		if c.Threshold <= 0 {
			return fmt.Errorf("%w: count policy requires a positive threshold", ErrInvalidTriggerConfig)
		}
	case PolicyInterval:
		if c.Cron != "" {
			if err := cron.Validate(c.Cron); err != nil {
				return fmt.Errorf("%w: %s", ErrInvalidTriggerConfig, err)
			}
		} else if c.Interval <= 0 {
			return fmt.Errorf("%w: interval policy requires a positive interval or a cron expression", ErrInvalidTriggerConfig)
		}
	default:
		return fmt.Errorf("%w: unknown policy %q", ErrInvalidTriggerConfig, c.Policy)
	}

	return nil
}

// State reports where the coordinator is in its collect/trigger cycle.
type State uint8

const (
	Collecting State = iota
	Triggered
)

func (s State) String() string {
	switch s {
	case Collecting:
		return "collecting"
	case Triggered:
		return "triggered"
	default:
		return "unknown"
	}
}

// RoundHook runs after a round commits, outside the pending-buffer lock.
// Persistence and weight broadcast hang off these; their failures must
// not affect the committed round.
type RoundHook func(ctx context.Context, round Round)

// Coordinator collects incoming device updates into a pending buffer and
// fires aggregation rounds against the global model. The whole
// submit-check-trigger-drain sequence runs under one mutex, so two
// updates arriving together cannot both fire a round and no update is
// dropped or counted twice. Aggregation runs outside the lock on the
// drained batch.
type Coordinator struct {
	mu        sync.Mutex
	pending   []aggregation.Update
	cfg       TriggerConfig
	state     State
	lastRound time.Time
	reconfig  chan struct{}

	global *GlobalModel
	logger *slog.Logger
	hooks  []RoundHook
}

func New(global *GlobalModel, cfg TriggerConfig, logger *slog.Logger, hooks ...RoundHook) (*Coordinator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &Coordinator{
		cfg:      cfg,
		reconfig: make(chan struct{}, 1),
		global:   global,
		logger:   logger,
		hooks:    hooks,
	}, nil
}

// Submit validates and buffers one device update. In count mode, the
// submission that reaches the threshold drains the buffer and runs the
// round synchronously before returning it.
func (c *Coordinator) Submit(ctx context.Context, update aggregation.Update) (int, *Round, error) {
	if err := c.validateUpdate(update); err != nil {
		return 0, nil, err
	}

	c.mu.Lock()
	c.pending = append(c.pending, update)
	pending := len(c.pending)

	if c.cfg.Policy != PolicyCount || pending < c.cfg.Threshold {
		c.mu.Unlock()

		return pending, nil, nil
	}

	batch := c.drainLocked()
	strategy := c.cfg.Strategy
	c.mu.Unlock()

	round, err := c.fire(ctx, batch, strategy)
	if err != nil {
		return len(batch), nil, err
	}

	return 0, &round, nil
}

// TriggerNow drains the pending buffer and runs a round immediately,
// regardless of policy. With nothing pending it returns
// ErrNoPendingUpdates and has no side effects.
func (c *Coordinator) TriggerNow(ctx context.Context, strategy aggregation.Strategy) (Round, error) {
	c.mu.Lock()
	if len(c.pending) == 0 {
		c.mu.Unlock()

		return Round{}, ErrNoPendingUpdates
	}
	batch := c.drainLocked()
	c.mu.Unlock()

	return c.fire(ctx, batch, strategy)
}

// Start drives interval-policy wake-ups until ctx is canceled. Under the
// count policy there is nothing to schedule, so it only waits for
// cancellation.
func (c *Coordinator) Start(ctx context.Context) error {
	for {
		wait := c.wakeAfter()
		if wait <= 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-c.reconfig:
				continue
			}
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()

			return ctx.Err()
		case <-c.reconfig:
			timer.Stop()

			continue
		case <-timer.C:
			c.mu.Lock()
			strategy := c.cfg.Strategy
			c.mu.Unlock()

			switch _, err := c.TriggerNow(ctx, strategy); err {
			case nil:
			case ErrNoPendingUpdates:
				c.logger.Info("no pending updates, skipping aggregation")
			default:
				c.logger.Error("scheduled aggregation failed", slog.String("error", err.Error()))
			}
		}
	}
}

// Configure replaces the trigger policy at runtime and wakes the
// scheduling loop so the new timing takes effect immediately.
func (c *Coordinator) Configure(cfg TriggerConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	c.mu.Lock()
	c.cfg = cfg
	c.mu.Unlock()

	select {
	case c.reconfig <- struct{}{}:
	default:
	}

	return nil
}

func (c *Coordinator) Config() TriggerConfig {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.cfg
}

func (c *Coordinator) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.pending)
}

// PendingUpdates returns a snapshot of the pending buffer, used for
// consensus scoring without disturbing the round lifecycle.
func (c *Coordinator) PendingUpdates() []aggregation.Update {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]aggregation.Update, len(c.pending))
	copy(out, c.pending)

	return out
}

func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.state
}

func (c *Coordinator) LastRound() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.lastRound
}

func (c *Coordinator) validateUpdate(update aggregation.Update) error {
	if update.DeviceID == "" {
		return fmt.Errorf("%w: empty device id", ErrMalformedUpdate)
	}
	if update.SampleCount <= 0 {
		return fmt.Errorf("%w: sample count must be positive, got %d", ErrMalformedUpdate, update.SampleCount)
	}
	if err := update.Weights.Validate(); err != nil {
		return fmt.Errorf("%w: %s", ErrMalformedUpdate, err)
	}
	if arch := c.global.Architecture(); !update.Weights.Architecture.Equal(arch) {
		return fmt.Errorf("%w: update has architecture %v, global model has %v",
			model.ErrArchitectureMismatch, update.Weights.Architecture, arch)
	}

	return nil
}

func (c *Coordinator) drainLocked() []aggregation.Update {
	batch := c.pending
	c.pending = nil
	c.state = Triggered

	return batch
}

// fire runs one round on an already-drained batch. A failed round puts
// the batch back at the head of the pending buffer so accepted updates
// are never silently lost.
func (c *Coordinator) fire(ctx context.Context, batch []aggregation.Update, strategy aggregation.Strategy) (Round, error) {
	round, err := c.global.ApplyRound(batch, strategy)

	c.mu.Lock()
	c.state = Collecting
	if err != nil {
		c.pending = append(batch, c.pending...)
		c.mu.Unlock()

		return Round{}, err
	}
	c.lastRound = round.Timestamp
	c.mu.Unlock()

	c.logger.Info("aggregation round completed",
		slog.Int("round_index", round.Index),
		slog.String("strategy", round.Strategy.String()),
		slog.Int("num_devices", len(round.DeviceIDs)),
		slog.Int("total_samples", round.TotalSamples))

	for _, hook := range c.hooks {
		hook(ctx, round)
	}

	return round, nil
}

func (c *Coordinator) wakeAfter() time.Duration {
	c.mu.Lock()
	cfg := c.cfg
	c.mu.Unlock()

	if cfg.Policy != PolicyInterval {
		return 0
	}
	if cfg.Cron != "" {
		schedule, err := cron.Parse(cfg.Cron)
		if err != nil {
			return cfg.Interval
		}

		return schedule.Until(time.Now())
	}

	return cfg.Interval
}
