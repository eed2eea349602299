package coordinator

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/fxamacker/cbor/v2"

	"github.com/absmach/fedge/device"
	"github.com/absmach/fedge/pkg/aggregation"
	"github.com/absmach/fedge/pkg/model"
	"github.com/absmach/fedge/pkg/mqtt"
	"github.com/absmach/fedge/pkg/storage"
)

const (
	roundKeyPrefix   = "rounds/"
	latestWeightsKey = "weights/latest"
)

// SubmitResult is returned to the hosting service after accepting a
// device update. Round is non-nil when the submission fired a round.
type SubmitResult struct {
	Accepted     bool   `json:"accepted"`
	PendingCount int    `json:"pending_count"`
	Round        *Round `json:"round,omitempty"`
}

// Status is a point-in-time view of the engine.
type Status struct {
	State               string         `json:"state"`
	PendingCount        int            `json:"pending_count"`
	TotalRounds         int            `json:"total_rounds"`
	DeviceContributions map[string]int `json:"device_contributions"`
	LastRound           time.Time      `json:"last_round,omitempty"`
	Trigger             TriggerConfig  `json:"trigger"`
	Fleet               device.Stats   `json:"fleet"`
}

// ConsensusReport scores how much the currently pending updates agree.
type ConsensusReport struct {
	PendingCount int     `json:"pending_count"`
	Score        float64 `json:"consensus_score"`
}

type Service interface {
	// ProcessReading trains the owning device's local model on one
	// sensor reading, possibly emitting an update into the pending
	// buffer.
	ProcessReading(ctx context.Context, reading device.Reading) (device.Result, error)

	// PredictDevice returns the named device's prediction for the given
	// sensor features.
	PredictDevice(ctx context.Context, deviceID string, sensors device.Sensors) ([]float64, error)

	// SubmitUpdate accepts one local update from a device.
	SubmitUpdate(ctx context.Context, update aggregation.Update) (SubmitResult, error)

	// SubmitUpdateCBOR accepts a CBOR-encoded local update, the compact
	// wire format constrained devices publish.
	SubmitUpdateCBOR(ctx context.Context, data []byte) (SubmitResult, error)

	// TriggerRound forces an aggregation round over the pending buffer.
	// An empty strategy uses the configured default.
	TriggerRound(ctx context.Context, strategy string) (Round, error)

	GetWeights(ctx context.Context) (model.WeightSet, error)
	GetModelSummary(ctx context.Context) (model.Summary, error)
	GetHistory(ctx context.Context, offset, limit uint64) (RoundPage, error)
	GetRound(ctx context.Context, index int) (Round, error)
	GetStatus(ctx context.Context) (Status, error)
	GetConsensus(ctx context.Context) (ConsensusReport, error)

	// Configure replaces the round trigger policy at runtime.
	Configure(ctx context.Context, cfg TriggerConfig) error

	// Subscribe attaches the MQTT ingestion handlers.
	Subscribe(ctx context.Context) error

	// Start runs the fleet workers and the interval trigger loop until
	// ctx is canceled.
	Start(ctx context.Context) error

	Shutdown(ctx context.Context) error
}

type service struct {
	fleet       *device.Fleet
	coordinator *Coordinator
	global      *GlobalModel
	store       storage.Storage
	pubsub      mqtt.PubSub
	baseTopic   string
	logger      *slog.Logger
}

type Config struct {
	Architecture model.Architecture
	LearningRate float64
	Device       device.Config
	Shards       int
	Trigger      TriggerConfig
	BaseTopic    string
}

func NewService(cfg Config, store storage.Storage, pubsub mqtt.PubSub, logger *slog.Logger) (Service, error) {
	global, err := NewGlobalModel(cfg.Architecture, cfg.LearningRate)
	if err != nil {
		return nil, err
	}

	svc := &service{
		global:    global,
		store:     store,
		pubsub:    pubsub,
		baseTopic: cfg.BaseTopic,
		logger:    logger,
	}

	coord, err := New(global, cfg.Trigger, logger, svc.persistRound, svc.broadcastRound)
	if err != nil {
		return nil, err
	}
	svc.coordinator = coord

	deviceCfg := cfg.Device
	if deviceCfg.Architecture == nil {
		deviceCfg.Architecture = cfg.Architecture
	}
	if deviceCfg.LearningRate == 0 {
		deviceCfg.LearningRate = cfg.LearningRate
	}
	svc.fleet = device.NewFleet(deviceCfg, cfg.Shards, svc.sinkUpdate, logger)

	return svc, nil
}

func (svc *service) ProcessReading(ctx context.Context, reading device.Reading) (device.Result, error) {
	return svc.fleet.Process(ctx, reading)
}

func (svc *service) PredictDevice(_ context.Context, deviceID string, sensors device.Sensors) ([]float64, error) {
	return svc.fleet.Predict(deviceID, sensors)
}

func (svc *service) SubmitUpdate(ctx context.Context, update aggregation.Update) (SubmitResult, error) {
	pending, round, err := svc.coordinator.Submit(ctx, update)
	if err != nil {
		return SubmitResult{PendingCount: pending}, err
	}

	return SubmitResult{
		Accepted:     true,
		PendingCount: pending,
		Round:        round,
	}, nil
}

func (svc *service) SubmitUpdateCBOR(ctx context.Context, data []byte) (SubmitResult, error) {
	var update aggregation.Update
	if err := cbor.Unmarshal(data, &update); err != nil {
		return SubmitResult{}, fmt.Errorf("%w: %s", ErrMalformedUpdate, err)
	}

	return svc.SubmitUpdate(ctx, update)
}

func (svc *service) TriggerRound(ctx context.Context, strategy string) (Round, error) {
	parsed := svc.coordinator.Config().Strategy
	if strategy != "" {
		var err error
		parsed, err = aggregation.ParseStrategy(strategy)
		if err != nil {
			return Round{}, err
		}
	}

	return svc.coordinator.TriggerNow(ctx, parsed)
}

func (svc *service) GetWeights(_ context.Context) (model.WeightSet, error) {
	return svc.global.Weights(), nil
}

func (svc *service) GetModelSummary(_ context.Context) (model.Summary, error) {
	return svc.global.Weights().Summary(), nil
}

func (svc *service) GetHistory(_ context.Context, offset, limit uint64) (RoundPage, error) {
	return svc.global.History(offset, limit), nil
}

func (svc *service) GetRound(_ context.Context, index int) (Round, error) {
	return svc.global.Round(index)
}

func (svc *service) GetStatus(_ context.Context) (Status, error) {
	return Status{
		State:               svc.coordinator.State().String(),
		PendingCount:        svc.coordinator.Pending(),
		TotalRounds:         svc.global.TotalRounds(),
		DeviceContributions: svc.global.Contributions(),
		LastRound:           svc.coordinator.LastRound(),
		Trigger:             svc.coordinator.Config(),
		Fleet:               svc.fleet.Stats(),
	}, nil
}

func (svc *service) GetConsensus(_ context.Context) (ConsensusReport, error) {
	pending := svc.coordinator.PendingUpdates()

	return ConsensusReport{
		PendingCount: len(pending),
		Score:        aggregation.ConsensusScore(pending),
	}, nil
}

func (svc *service) Configure(_ context.Context, cfg TriggerConfig) error {
	return svc.coordinator.Configure(cfg)
}

func (svc *service) Start(ctx context.Context) error {
	go func() {
		if err := svc.fleet.Start(ctx); err != nil && ctx.Err() == nil {
			svc.logger.Error("fleet workers stopped", slog.String("error", err.Error()))
		}
	}()

	return svc.coordinator.Start(ctx)
}

func (svc *service) Shutdown(ctx context.Context) error {
	if svc.pubsub != nil {
		if err := svc.pubsub.Disconnect(ctx); err != nil {
			return err
		}
	}
	if svc.store != nil {
		return svc.store.Close()
	}

	return nil
}

// sinkUpdate feeds fleet-emitted updates into the pending buffer.
func (svc *service) sinkUpdate(ctx context.Context, update aggregation.Update) {
	if _, _, err := svc.coordinator.Submit(ctx, update); err != nil {
		svc.logger.Warn("failed to submit fleet update",
			slog.String("device_id", update.DeviceID),
			slog.String("error", err.Error()))
	}
}

// persistRound hands the committed round to the storage hook. Failures
// are logged and dropped: the in-memory state is already committed and
// must not be corrupted by collaborator I/O.
func (svc *service) persistRound(ctx context.Context, round Round) {
	if svc.store == nil {
		return
	}

	key := roundKeyPrefix + strconv.Itoa(round.Index)
	if err := svc.store.Put(ctx, key, round); err != nil {
		svc.logger.Warn("failed to persist aggregation round",
			slog.Int("round_index", round.Index),
			slog.String("error", err.Error()))
	}
	if err := svc.store.Put(ctx, latestWeightsKey, round.Weights); err != nil {
		svc.logger.Warn("failed to persist global weights",
			slog.String("error", err.Error()))
	}
}

// broadcastRound pushes the new global weights to the local fleet and
// publishes them for remote devices, outside the aggregation critical
// section.
func (svc *service) broadcastRound(ctx context.Context, round Round) {
	svc.fleet.PushGlobal(round.Weights)

	if svc.pubsub == nil {
		return
	}

	topic := svc.baseTopic + "/global/weights"
	msg := map[string]any{
		"round_index": round.Index,
		"weights":     round.Weights,
	}
	if err := svc.pubsub.Publish(ctx, topic, msg); err != nil {
		svc.logger.Warn("failed to broadcast global weights",
			slog.Int("round_index", round.Index),
			slog.String("error", err.Error()))
	}
}
