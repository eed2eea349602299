package device

import (
	"context"
	"hash/fnv"
	"log/slog"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/absmach/fedge/pkg/aggregation"
	"github.com/absmach/fedge/pkg/model"
)

const defaultShards = 4

// UpdateSink receives weight updates emitted by device sessions.
type UpdateSink func(ctx context.Context, update aggregation.Update)

// Fleet owns the map from device id to Session, creating sessions lazily
// on first sight of a device. Readings are partitioned across shard
// workers by a hash of the device id, so each session is only ever driven
// by one worker.
type Fleet struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	cfg    Config
	shards []chan Reading
	sink   UpdateSink
	logger *slog.Logger
}

func NewFleet(cfg Config, shards int, sink UpdateSink, logger *slog.Logger) *Fleet {
	if shards <= 0 {
		shards = defaultShards
	}

	f := &Fleet{
		sessions: make(map[string]*Session),
		cfg:      cfg.withDefaults(),
		shards:   make([]chan Reading, shards),
		sink:     sink,
		logger:   logger,
	}
	for i := range f.shards {
		f.shards[i] = make(chan Reading, 64)
	}

	return f
}

// Start runs one worker per shard until ctx is canceled.
func (f *Fleet) Start(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	for i := range f.shards {
		shard := f.shards[i]
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case r := <-shard:
					if _, err := f.Process(ctx, r); err != nil {
						f.logger.Warn("failed to process reading",
							slog.String("device_id", r.DeviceID),
							slog.String("error", err.Error()))
					}
				}
			}
		})
	}

	return g.Wait()
}

// Dispatch queues a reading onto the shard worker owning its device.
func (f *Fleet) Dispatch(ctx context.Context, r Reading) error {
	if err := r.Validate(); err != nil {
		return err
	}

	h := fnv.New32a()
	_, _ = h.Write([]byte(r.DeviceID))
	shard := f.shards[h.Sum32()%uint32(len(f.shards))]

	select {
	case <-ctx.Done():
		return ctx.Err()
	case shard <- r:
		return nil
	}
}

// Process trains the device's session on one reading synchronously and
// forwards any emitted update to the sink.
func (f *Fleet) Process(ctx context.Context, r Reading) (Result, error) {
	if err := r.Validate(); err != nil {
		return Result{}, err
	}

	session, err := f.session(r.DeviceID)
	if err != nil {
		return Result{}, err
	}

	res, err := session.Process(r)
	if err != nil {
		return Result{}, err
	}

	if res.Update != nil && f.sink != nil {
		f.sink(ctx, *res.Update)
	}

	return res, nil
}

// Predict returns the named device's prediction for the given features.
func (f *Fleet) Predict(deviceID string, sensors Sensors) ([]float64, error) {
	f.mu.RLock()
	session, ok := f.sessions[deviceID]
	f.mu.RUnlock()
	if !ok {
		return nil, ErrUnknownDevice
	}

	return session.PredictCurrent(sensors)
}

// PushGlobal distributes new global weights to every session. Sessions
// whose architecture disagrees are skipped and logged rather than
// failing the push for the rest of the fleet.
func (f *Fleet) PushGlobal(ws model.WeightSet) {
	f.mu.RLock()
	sessions := make([]*Session, 0, len(f.sessions))
	for _, s := range f.sessions {
		sessions = append(sessions, s)
	}
	f.mu.RUnlock()

	for _, s := range sessions {
		if err := s.ImportGlobal(ws); err != nil {
			f.logger.Warn("failed to push global weights",
				slog.String("device_id", s.DeviceID()),
				slog.String("error", err.Error()))
		}
	}
}

// Stats summarizes the managed sessions.
type Stats struct {
	TotalDevices   int            `json:"total_devices"`
	TrainingCounts map[string]int `json:"training_counts"`
	BufferSizes    map[string]int `json:"buffer_sizes"`
}

func (f *Fleet) Stats() Stats {
	f.mu.RLock()
	defer f.mu.RUnlock()

	stats := Stats{
		TotalDevices:   len(f.sessions),
		TrainingCounts: make(map[string]int, len(f.sessions)),
		BufferSizes:    make(map[string]int, len(f.sessions)),
	}
	for id, s := range f.sessions {
		stats.TrainingCounts[id] = s.TrainingCount()
		stats.BufferSizes[id] = s.BufferLen()
	}

	return stats
}

func (f *Fleet) session(deviceID string) (*Session, error) {
	f.mu.RLock()
	session, ok := f.sessions[deviceID]
	f.mu.RUnlock()
	if ok {
		return session, nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if session, ok = f.sessions[deviceID]; ok {
		return session, nil
	}

	session, err := NewSession(deviceID, f.cfg)
	if err != nil {
		return nil, err
	}
	f.sessions[deviceID] = session

	return session, nil
}
