package device

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/absmach/fedge/pkg/aggregation"
	"github.com/absmach/fedge/pkg/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestFleetLazySessionCreation(t *testing.T) {
	f := NewFleet(testConfig(), 2, nil, testLogger())

	_, err := f.Process(context.Background(), reading("mote-1", 20))
	require.NoError(t, err)
	_, err = f.Process(context.Background(), reading("mote-2", 21))
	require.NoError(t, err)
	_, err = f.Process(context.Background(), reading("mote-1", 22))
	require.NoError(t, err)

	stats := f.Stats()
	assert.Equal(t, 2, stats.TotalDevices)
	assert.Equal(t, 1, stats.TrainingCounts["mote-1"])
	assert.Equal(t, 0, stats.TrainingCounts["mote-2"])
	assert.Equal(t, 2, stats.BufferSizes["mote-1"])
}

func TestFleetSinkReceivesUpdates(t *testing.T) {
	cfg := testConfig()
	cfg.UpdateInterval = 2

	var mu sync.Mutex
	var updates []aggregation.Update
	sink := func(_ context.Context, u aggregation.Update) {
		mu.Lock()
		defer mu.Unlock()
		updates = append(updates, u)
	}

	f := NewFleet(cfg, 2, sink, testLogger())
	for i := 0; i < 5; i++ {
		_, err := f.Process(context.Background(), reading("mote-1", float64(i)))
		require.NoError(t, err)
	}

	mu.Lock()
	defer mu.Unlock()
	// 4 training steps with interval 2 emit at steps 2 and 4.
	require.Len(t, updates, 2)
	assert.Equal(t, "mote-1", updates[0].DeviceID)
	assert.Equal(t, 2, updates[0].SampleCount)
	assert.Equal(t, 4, updates[1].SampleCount)
}

func TestFleetPredictUnknownDevice(t *testing.T) {
	f := NewFleet(testConfig(), 2, nil, testLogger())

	_, err := f.Predict("ghost", reading("ghost", 20).Sensors)
	assert.ErrorIs(t, err, ErrUnknownDevice)
}

func TestFleetPushGlobal(t *testing.T) {
	f := NewFleet(testConfig(), 2, nil, testLogger())
	_, err := f.Process(context.Background(), reading("mote-1", 20))
	require.NoError(t, err)
	_, err = f.Process(context.Background(), reading("mote-2", 21))
	require.NoError(t, err)

	n, err := model.NewNetwork(model.Architecture{4, 16, 8, 4}, 0.01)
	require.NoError(t, err)
	global := n.ExportWeights()
	f.PushGlobal(global)

	x := reading("mote-1", 20).Sensors
	p1, err := f.Predict("mote-1", x)
	require.NoError(t, err)
	p2, err := f.Predict("mote-2", x)
	require.NoError(t, err)

	// Both sessions now share the pushed weights, so they agree.
	require.Len(t, p2, len(p1))
	for i := range p1 {
		assert.InDelta(t, p1[i], p2[i], 1e-12)
	}
}

func TestFleetDispatchValidates(t *testing.T) {
	f := NewFleet(testConfig(), 2, nil, testLogger())

	err := f.Dispatch(context.Background(), Reading{DeviceID: "", Sensors: reading("x", 1).Sensors})
	assert.ErrorIs(t, err, ErrMalformedReading)
}
