package coordinator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/absmach/fedge/device"
	"github.com/absmach/fedge/pkg/aggregation"
	"github.com/absmach/fedge/pkg/model"
	"github.com/absmach/fedge/pkg/mqtt"
	"github.com/absmach/fedge/pkg/storage"
)

type fakePubSub struct {
	mu        sync.Mutex
	published map[string][]any
	handlers  map[string]mqtt.Handler
}

func newFakePubSub() *fakePubSub {
	return &fakePubSub{
		published: make(map[string][]any),
		handlers:  make(map[string]mqtt.Handler),
	}
}

func (f *fakePubSub) Publish(_ context.Context, topic string, msg any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published[topic] = append(f.published[topic], msg)

	return nil
}

func (f *fakePubSub) Subscribe(_ context.Context, topic string, handler mqtt.Handler) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handlers[topic] = handler

	return nil
}

func (f *fakePubSub) Unsubscribe(_ context.Context, topic string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.handlers, topic)

	return nil
}

func (f *fakePubSub) Disconnect(_ context.Context) error {
	return nil
}

func (f *fakePubSub) publishedOn(topic string) []any {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.published[topic]
}

func newTestService(t *testing.T, trigger TriggerConfig) (Service, storage.Storage, *fakePubSub) {
	t.Helper()

	store := storage.NewInMemoryStorage()
	pubsub := newFakePubSub()
	svc, err := NewService(Config{
		Architecture: testArch,
		LearningRate: 0.01,
		Trigger:      trigger,
		BaseTopic:    "fl",
	}, store, pubsub, testLogger())
	require.NoError(t, err)

	return svc, store, pubsub
}

func testReading(deviceID string, base float64) device.Reading {
	return device.Reading{
		DeviceID: deviceID,
		Sensors: device.Sensors{
			"temperature": base,
			"humidity":    base + 1,
			"light":       base + 2,
			"voltage":     base + 3,
		},
		Timestamp: time.Now(),
	}
}

func TestServiceSubmitFiresRound(t *testing.T) {
	svc, store, pubsub := newTestService(t, TriggerConfig{
		Policy:    PolicyCount,
		Threshold: 2,
		Strategy:  aggregation.FedAvg,
	})

	ctx := context.Background()
	res, err := svc.SubmitUpdate(ctx, constantUpdate(t, "a", 1, 10))
	require.NoError(t, err)
	assert.True(t, res.Accepted)
	assert.Equal(t, 1, res.PendingCount)
	assert.Nil(t, res.Round)

	res, err = svc.SubmitUpdate(ctx, constantUpdate(t, "b", 3, 10))
	require.NoError(t, err)
	require.NotNil(t, res.Round)
	assert.Zero(t, res.PendingCount)
	assert.Equal(t, []string{"a", "b"}, res.Round.DeviceIDs)

	var stored Round
	require.NoError(t, store.Get(ctx, "rounds/0", &stored))
	assert.Equal(t, 0, stored.Index)
	assert.Equal(t, []string{"a", "b"}, stored.DeviceIDs)

	var latest model.WeightSet
	require.NoError(t, store.Get(ctx, "weights/latest", &latest))
	assert.InDelta(t, 2.0, latest.Weights[0][0][0], 1e-9)

	require.Len(t, pubsub.publishedOn("fl/global/weights"), 1, "new global weights must be broadcast")
}

func TestServiceSubmitUpdateCBOR(t *testing.T) {
	svc, _, _ := newTestService(t, TriggerConfig{Policy: PolicyCount, Threshold: 10})

	data, err := cbor.Marshal(constantUpdate(t, "edge-1", 1, 5))
	require.NoError(t, err)

	res, err := svc.SubmitUpdateCBOR(context.Background(), data)
	require.NoError(t, err)
	assert.True(t, res.Accepted)
	assert.Equal(t, 1, res.PendingCount)

	_, err = svc.SubmitUpdateCBOR(context.Background(), []byte("not cbor"))
	assert.ErrorIs(t, err, ErrMalformedUpdate)
}

func TestServiceTriggerRound(t *testing.T) {
	svc, _, _ := newTestService(t, TriggerConfig{
		Policy:    PolicyCount,
		Threshold: 100,
		Strategy:  aggregation.FedAvg,
	})

	ctx := context.Background()
	_, err := svc.TriggerRound(ctx, "")
	assert.ErrorIs(t, err, ErrNoPendingUpdates)

	_, err = svc.SubmitUpdate(ctx, constantUpdate(t, "a", 1, 10))
	require.NoError(t, err)

	_, err = svc.TriggerRound(ctx, "bogus")
	assert.ErrorIs(t, err, aggregation.ErrUnknownStrategy)

	status, err := svc.GetStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, status.PendingCount, "unknown strategy must not consume pending updates")

	round, err := svc.TriggerRound(ctx, "median")
	require.NoError(t, err)
	assert.Equal(t, aggregation.Median, round.Strategy)
	assert.Equal(t, 0, round.Index)
}

func TestServiceProcessReadingAndPredict(t *testing.T) {
	svc, _, _ := newTestService(t, TriggerConfig{Policy: PolicyCount, Threshold: 100})

	ctx := context.Background()
	res, err := svc.ProcessReading(ctx, testReading("sensor-1", 20))
	require.NoError(t, err)
	assert.False(t, res.Trained, "a single reading cannot form a training pair")

	res, err = svc.ProcessReading(ctx, testReading("sensor-1", 21))
	require.NoError(t, err)
	assert.True(t, res.Trained)
	assert.Equal(t, 1, res.TrainingCount)
	assert.Len(t, res.Prediction, testArch.OutputSize())

	pred, err := svc.PredictDevice(ctx, "sensor-1", testReading("sensor-1", 22).Sensors)
	require.NoError(t, err)
	assert.Len(t, pred, testArch.OutputSize())

	_, err = svc.PredictDevice(ctx, "ghost", testReading("ghost", 22).Sensors)
	assert.ErrorIs(t, err, device.ErrUnknownDevice)

	status, err := svc.GetStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, status.Fleet.TotalDevices)
	assert.Equal(t, 1, status.Fleet.TrainingCounts["sensor-1"])
}

func TestServiceConsensus(t *testing.T) {
	svc, _, _ := newTestService(t, TriggerConfig{Policy: PolicyCount, Threshold: 100})

	ctx := context.Background()
	report, err := svc.GetConsensus(ctx)
	require.NoError(t, err)
	assert.Zero(t, report.PendingCount)
	assert.InDelta(t, 1.0, report.Score, 1e-9, "an empty buffer is trivially in agreement")

	_, err = svc.SubmitUpdate(ctx, constantUpdate(t, "a", 2, 10))
	require.NoError(t, err)
	_, err = svc.SubmitUpdate(ctx, constantUpdate(t, "b", 2, 10))
	require.NoError(t, err)

	report, err = svc.GetConsensus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.PendingCount)
	assert.InDelta(t, 1.0, report.Score, 1e-9, "identical updates score full agreement")
}

func TestServiceConfigure(t *testing.T) {
	svc, _, _ := newTestService(t, TriggerConfig{Policy: PolicyCount, Threshold: 5})

	err := svc.Configure(context.Background(), TriggerConfig{Policy: "weekly"})
	assert.ErrorIs(t, err, ErrInvalidTriggerConfig)

	err = svc.Configure(context.Background(), TriggerConfig{
		Policy:   PolicyInterval,
		Interval: time.Minute,
		Strategy: aggregation.Weighted,
	})
	require.NoError(t, err)

	status, err := svc.GetStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, PolicyInterval, status.Trigger.Policy)
}

func TestServiceMQTTHandlers(t *testing.T) {
	svc, _, pubsub := newTestService(t, TriggerConfig{Policy: PolicyCount, Threshold: 100})

	ctx := context.Background()
	require.NoError(t, svc.Subscribe(ctx))
	handler, ok := pubsub.handlers["fl/#"]
	require.True(t, ok)

	err := handler("fl/updates", map[string]any{
		"device_id":    "edge-9",
		"sample_count": 4,
		"weights":      weightsAsJSON(t, constantUpdate(t, "edge-9", 1, 4).Weights),
	})
	require.NoError(t, err)

	status, err := svc.GetStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, status.PendingCount)

	err = handler("fl/readings", map[string]any{
		"device_id":   "sensor-7",
		"temperature": 20.5,
		"humidity":    41.0,
		"light":       300.0,
		"voltage":     3.3,
	})
	require.NoError(t, err)

	err = handler("fl/readings", map[string]any{"device_id": "sensor-7"})
	assert.ErrorIs(t, err, device.ErrMalformedReading)

	err = handler("fl/somewhere/else", map[string]any{"ignored": true})
	assert.NoError(t, err, "unrelated topics are ignored")
}

func weightsAsJSON(t *testing.T, ws model.WeightSet) map[string]any {
	t.Helper()

	weights := make([]any, len(ws.Weights))
	for l := range ws.Weights {
		rows := make([]any, len(ws.Weights[l]))
		for i := range ws.Weights[l] {
			cols := make([]any, len(ws.Weights[l][i]))
			for j := range ws.Weights[l][i] {
				cols[j] = ws.Weights[l][i][j]
			}
			rows[i] = cols
		}
		weights[l] = rows
	}
	biases := make([]any, len(ws.Biases))
	for l := range ws.Biases {
		row := make([]any, len(ws.Biases[l]))
		for i := range ws.Biases[l] {
			row[i] = ws.Biases[l][i]
		}
		biases[l] = row
	}

	arch := make([]any, len(ws.Architecture))
	for i, w := range ws.Architecture {
		arch[i] = w
	}

	return map[string]any{
		"architecture": arch,
		"weights":      weights,
		"biases":       biases,
	}
}
