package device

import (
	"sync"
	"time"

	"github.com/absmach/fedge/pkg/aggregation"
	"github.com/absmach/fedge/pkg/model"
)

const (
	DefaultBufferCapacity = 1000
	DefaultUpdateInterval = 100
)

// Config holds the per-device training parameters shared by all sessions
// in a fleet.
type Config struct {
	Architecture     model.Architecture
	LearningRate     float64
	BufferCapacity   int
	UpdateInterval   int
	AnomalyThreshold float64
}

func (c Config) withDefaults() Config {
	if c.BufferCapacity <= 0 {
		c.BufferCapacity = DefaultBufferCapacity
	}
	if c.UpdateInterval <= 0 {
		c.UpdateInterval = DefaultUpdateInterval
	}
	if c.AnomalyThreshold <= 0 {
		c.AnomalyThreshold = defaultAnomalyThreshold
	}

	return c
}

// Result reports the outcome of processing one reading. Update is non-nil
// when the session decided to emit its weights for aggregation.
type Result struct {
	DeviceID      string              `json:"device_id"`
	Timestamp     time.Time           `json:"timestamp"`
	Trained       bool                `json:"trained"`
	Loss          float64             `json:"loss"`
	TrainingCount int                 `json:"training_count"`
	Prediction    []float64           `json:"prediction,omitempty"`
	Anomaly       *AnomalyScore       `json:"anomaly,omitempty"`
	Update        *aggregation.Update `json:"-"`
}

// Session owns one device's local model, its sliding window of recent
// readings, and its training counters. Readings for a device always
// arrive on the same fleet shard, so the mutex is effectively
// uncontended; it exists for the global-weight push and stats paths that
// cross shard boundaries.
type Session struct {
	mu sync.Mutex

	deviceID         string
	network          *model.Network
	buffer           []Reading
	capacity         int
	updateInterval   int
	anomalyThreshold float64
	trainingCount    int
}

func NewSession(deviceID string, cfg Config) (*Session, error) {
	cfg = cfg.withDefaults()

	network, err := model.NewNetwork(cfg.Architecture, cfg.LearningRate)
	if err != nil {
		return nil, err
	}

	return &Session{
		deviceID:         deviceID,
		network:          network,
		buffer:           make([]Reading, 0, cfg.BufferCapacity),
		capacity:         cfg.BufferCapacity,
		updateInterval:   cfg.UpdateInterval,
		anomalyThreshold: cfg.AnomalyThreshold,
	}, nil
}

// Process appends the reading to the sliding window and, once two
// readings are buffered, trains the model on one supervised pair: the
// previous reading's features as input and the current reading's features
// as target. Every UpdateInterval-th training step emits a weight
// snapshot. A malformed reading fails before any state is touched.
func (s *Session) Process(r Reading) (Result, error) {
	if err := r.Sensors.Validate(); err != nil {
		return Result{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.buffer) >= s.capacity {
		s.buffer = s.buffer[1:]
	}
	s.buffer = append(s.buffer, r)

	res := Result{
		DeviceID:      s.deviceID,
		Timestamp:     r.Timestamp,
		TrainingCount: s.trainingCount,
	}
	if len(s.buffer) < 2 {
		return res, nil
	}

	previous := s.buffer[len(s.buffer)-2]
	x := previous.Sensors.Vector()
	y := r.Sensors.Vector()

	loss, err := s.network.TrainStep(x, y)
	if err != nil {
		return Result{}, err
	}
	s.trainingCount++

	prediction, err := s.network.Predict(x)
	if err != nil {
		return Result{}, err
	}
	anomaly := scoreAnomaly(y, prediction, s.anomalyThreshold)

	res.Trained = true
	res.Loss = loss
	res.TrainingCount = s.trainingCount
	res.Prediction = prediction
	res.Anomaly = &anomaly

	if s.trainingCount%s.updateInterval == 0 {
		res.Update = &aggregation.Update{
			DeviceID:    s.deviceID,
			Weights:     s.network.ExportWeights(),
			SampleCount: s.trainingCount,
			Timestamp:   r.Timestamp,
		}
	}

	return res, nil
}

// PredictCurrent returns the model's prediction for the given features,
// used for anomaly scoring by external collaborators.
func (s *Session) PredictCurrent(sensors Sensors) ([]float64, error) {
	if err := sensors.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.network.Predict(sensors.Vector())
}

// ImportGlobal replaces the session's weights with the aggregated global
// weight set.
func (s *Session) ImportGlobal(ws model.WeightSet) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.network.ImportWeights(ws)
}

func (s *Session) DeviceID() string {
	return s.deviceID
}

func (s *Session) TrainingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.trainingCount
}

func (s *Session) BufferLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.buffer)
}

// OldestReading returns the oldest buffered reading, if any.
func (s *Session) OldestReading() (Reading, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.buffer) == 0 {
		return Reading{}, false
	}

	return s.buffer[0], true
}
