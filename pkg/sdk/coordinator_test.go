package sdk_test

import (
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/absmach/fedge/coordinator"
	"github.com/absmach/fedge/coordinator/api"
	"github.com/absmach/fedge/pkg/aggregation"
	"github.com/absmach/fedge/pkg/model"
	"github.com/absmach/fedge/pkg/sdk"
	"github.com/absmach/fedge/pkg/storage"
)

var testArch = model.Architecture{4, 16, 8, 4}

func startTestServer(t *testing.T, threshold int) sdk.SDK {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc, err := coordinator.NewService(coordinator.Config{
		Architecture: testArch,
		LearningRate: 0.01,
		Trigger: coordinator.TriggerConfig{
			Policy:    coordinator.PolicyCount,
			Threshold: threshold,
			Strategy:  aggregation.FedAvg,
		},
	}, storage.NewInMemoryStorage(), nil, logger)
	require.NoError(t, err)

	srv := httptest.NewServer(api.MakeHandler(svc, logger, "test-instance"))
	t.Cleanup(srv.Close)

	return sdk.NewSDK(sdk.Config{CoordinatorURL: srv.URL})
}

func sdkUpdate(deviceID string, value float64, samples int) sdk.Update {
	arch := []int{4, 16, 8, 4}
	weights := make([][][]float64, len(arch)-1)
	biases := make([][]float64, len(arch)-1)
	for l := 0; l < len(arch)-1; l++ {
		weights[l] = make([][]float64, arch[l])
		for i := range weights[l] {
			weights[l][i] = make([]float64, arch[l+1])
			for j := range weights[l][i] {
				weights[l][i][j] = value
			}
		}
		biases[l] = make([]float64, arch[l+1])
		for i := range biases[l] {
			biases[l][i] = value
		}
	}

	return sdk.Update{
		DeviceID:    deviceID,
		SampleCount: samples,
		Timestamp:   time.Now(),
		Weights: sdk.WeightSet{
			Architecture: arch,
			Weights:      weights,
			Biases:       biases,
		},
	}
}

func TestSDKSubmitAndRounds(t *testing.T) {
	client := startTestServer(t, 2)

	res, err := client.SubmitUpdate(sdkUpdate("a", 1, 10))
	require.NoError(t, err)
	assert.True(t, res.Accepted)
	assert.Equal(t, 1, res.PendingCount)
	assert.Nil(t, res.Round)

	res, err = client.SubmitUpdate(sdkUpdate("b", 3, 10))
	require.NoError(t, err)
	require.NotNil(t, res.Round)
	assert.Equal(t, 0, res.Round.Index)
	assert.ElementsMatch(t, []string{"a", "b"}, res.Round.DeviceIDs)

	page, err := client.ListRounds(0, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), page.Total)
	require.Len(t, page.Rounds, 1)

	round, err := client.GetRound(0)
	require.NoError(t, err)
	assert.Equal(t, 20, round.TotalSamples)

	_, err = client.GetRound(7)
	assert.Error(t, err)

	ws, err := client.GetWeights()
	require.NoError(t, err)
	require.NotEmpty(t, ws.Weights)
	assert.InDelta(t, 2.0, ws.Weights[0][0][0], 1e-9)
}

func TestSDKTriggerAndStatus(t *testing.T) {
	client := startTestServer(t, 100)

	_, err := client.TriggerRound("")
	assert.Error(t, err, "nothing pending to aggregate")

	_, err = client.SubmitUpdate(sdkUpdate("a", 1, 5))
	require.NoError(t, err)

	round, err := client.TriggerRound("median")
	require.NoError(t, err)
	assert.Equal(t, "median", round.Strategy)

	status, err := client.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, 1, status.TotalRounds)
	assert.Equal(t, "collecting", status.State)
	assert.Equal(t, 1, status.DeviceContributions["a"])
}

func TestSDKReadingsAndPredict(t *testing.T) {
	client := startTestServer(t, 100)

	sensors := map[string]float64{
		"temperature": 21.5,
		"humidity":    40,
		"light":       250,
		"voltage":     3.3,
	}

	res, err := client.SendReading(sdk.Reading{DeviceID: "sensor-1", Sensors: sensors})
	require.NoError(t, err)
	assert.False(t, res.Trained)

	sensors["temperature"] = 22.0
	res, err = client.SendReading(sdk.Reading{DeviceID: "sensor-1", Sensors: sensors})
	require.NoError(t, err)
	assert.True(t, res.Trained)
	assert.Len(t, res.Prediction, 4)

	pred, err := client.Predict("sensor-1", sensors)
	require.NoError(t, err)
	assert.Equal(t, "sensor-1", pred.DeviceID)
	assert.Len(t, pred.Prediction, 4)

	_, err = client.Predict("ghost", sensors)
	assert.Error(t, err)
}

func TestSDKConsensusAndConfigure(t *testing.T) {
	client := startTestServer(t, 100)

	_, err := client.SubmitUpdate(sdkUpdate("a", 2, 10))
	require.NoError(t, err)
	_, err = client.SubmitUpdate(sdkUpdate("b", 2, 10))
	require.NoError(t, err)

	consensus, err := client.GetConsensus()
	require.NoError(t, err)
	assert.Equal(t, 2, consensus.PendingCount)
	assert.InDelta(t, 1.0, consensus.Score, 1e-9)

	applied, err := client.Configure(sdk.TriggerConfig{
		Policy:   "interval",
		Interval: time.Minute,
		Strategy: "weighted",
	})
	require.NoError(t, err)
	assert.Equal(t, "interval", applied.Policy)

	_, err = client.Configure(sdk.TriggerConfig{Policy: "sometimes"})
	assert.Error(t, err)
}
