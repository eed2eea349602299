package aggregation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/absmach/fedge/pkg/model"
)

func constantUpdate(t *testing.T, deviceID string, arch model.Architecture, fill float64, samples int) Update {
	t.Helper()

	ws, err := model.NewZeroWeightSet(arch)
	require.NoError(t, err)
	for l := range ws.Weights {
		for i := range ws.Weights[l] {
			for j := range ws.Weights[l][i] {
				ws.Weights[l][i][j] = fill
			}
		}
		for j := range ws.Biases[l] {
			ws.Biases[l][j] = fill
		}
	}

	return Update{
		DeviceID:    deviceID,
		Weights:     ws,
		SampleCount: samples,
		Timestamp:   time.Now(),
	}
}

func TestParseStrategy(t *testing.T) {
	cases := []struct {
		name     string
		input    string
		expected Strategy
		err      error
	}{
		{name: "fedavg", input: "fedavg", expected: FedAvg},
		{name: "default empty", input: "", expected: FedAvg},
		{name: "equal", input: "equal", expected: Equal},
		{name: "weighted", input: "weighted", expected: Weighted},
		{name: "median", input: "median", expected: Median},
		{name: "unknown", input: "krum", err: ErrUnknownStrategy},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, err := ParseStrategy(tc.input)
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)

				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, s)
		})
	}
}

func TestAggregateEmpty(t *testing.T) {
	_, _, err := Aggregate(nil, FedAvg)
	assert.ErrorIs(t, err, ErrEmptyUpdateSet)
}

func TestAggregateIncompatible(t *testing.T) {
	updates := []Update{
		constantUpdate(t, "dev-1", model.Architecture{4, 8, 4}, 1, 10),
		constantUpdate(t, "dev-2", model.Architecture{4, 16, 4}, 1, 10),
	}

	_, _, err := Aggregate(updates, FedAvg)
	assert.ErrorIs(t, err, ErrIncompatibleArchitectures)
}

func TestFedAvgWeighting(t *testing.T) {
	arch := model.Architecture{4, 16, 8, 4}
	updates := []Update{
		constantUpdate(t, "dev-1", arch, 1, 10),
		constantUpdate(t, "dev-2", arch, 2, 20),
		constantUpdate(t, "dev-3", arch, 3, 30),
	}

	ws, meta, err := Aggregate(updates, FedAvg)
	require.NoError(t, err)

	// (10*1 + 20*2 + 30*3) / 60
	expected := (10.0*1 + 20.0*2 + 30.0*3) / 60.0
	for _, v := range ws.Flatten() {
		assert.InDelta(t, expected, v, 1e-12)
	}

	assert.Equal(t, FedAvg, meta.Strategy)
	assert.Equal(t, 3, meta.NumUpdates)
	assert.Equal(t, 60, meta.TotalSamples)
	assert.Equal(t, []string{"dev-1", "dev-2", "dev-3"}, meta.DeviceIDs)
}

func TestEqualMatchesFedAvgForEqualCounts(t *testing.T) {
	arch := model.Architecture{4, 8, 4}
	updates := []Update{
		constantUpdate(t, "dev-1", arch, 0.1, 25),
		constantUpdate(t, "dev-2", arch, 0.5, 25),
		constantUpdate(t, "dev-3", arch, 0.9, 25),
	}

	fedavg, _, err := Aggregate(updates, FedAvg)
	require.NoError(t, err)
	equal, _, err := Aggregate(updates, Equal)
	require.NoError(t, err)

	fa, eq := fedavg.Flatten(), equal.Flatten()
	require.Len(t, eq, len(fa))
	for i := range fa {
		assert.InDelta(t, fa[i], eq[i], 1e-12)
	}
}

func TestWeightedNormalization(t *testing.T) {
	arch := model.Architecture{2, 2}
	u1 := constantUpdate(t, "dev-1", arch, 0, 1)
	u1.Metadata = map[string]any{"weight": 3.0}
	u2 := constantUpdate(t, "dev-2", arch, 1, 1)
	u2.Metadata = map[string]any{"weight": 1.0}

	ws, _, err := Aggregate([]Update{u1, u2}, Weighted)
	require.NoError(t, err)

	// 0*(3/4) + 1*(1/4)
	for _, v := range ws.Flatten() {
		assert.InDelta(t, 0.25, v, 1e-12)
	}
}

func TestMedianRobustToOutlier(t *testing.T) {
	arch := model.Architecture{4, 8, 4}
	updates := []Update{
		constantUpdate(t, "dev-1", arch, 0.4, 10),
		constantUpdate(t, "dev-2", arch, 0.6, 10),
		constantUpdate(t, "outlier", arch, 1e9, 10),
	}

	ws, _, err := Aggregate(updates, Median)
	require.NoError(t, err)

	for _, v := range ws.Flatten() {
		assert.GreaterOrEqual(t, v, 0.4)
		assert.LessOrEqual(t, v, 0.6)
	}
}

func TestMedianEvenCount(t *testing.T) {
	arch := model.Architecture{2, 2}
	updates := []Update{
		constantUpdate(t, "dev-1", arch, 0.0, 1),
		constantUpdate(t, "dev-2", arch, 1.0, 1),
	}

	ws, _, err := Aggregate(updates, Median)
	require.NoError(t, err)
	for _, v := range ws.Flatten() {
		assert.InDelta(t, 0.5, v, 1e-12)
	}
}

func TestConsensusIdentity(t *testing.T) {
	arch := model.Architecture{4, 8, 4}
	u := constantUpdate(t, "dev-1", arch, 0.7, 10)
	updates := []Update{u, u, u, u}

	assert.InDelta(t, 1.0, ConsensusScore(updates), 1e-9)
}

func TestConsensusSingleUpdate(t *testing.T) {
	arch := model.Architecture{2, 2}
	assert.Equal(t, 1.0, ConsensusScore([]Update{constantUpdate(t, "dev-1", arch, 0.5, 1)}))
	assert.Equal(t, 1.0, ConsensusScore(nil))
}

func TestConsensusZeroNorm(t *testing.T) {
	arch := model.Architecture{2, 2}
	updates := []Update{
		constantUpdate(t, "dev-1", arch, 0, 1),
		constantUpdate(t, "dev-2", arch, 1, 1),
	}

	assert.Equal(t, 0.0, ConsensusScore(updates))
}

func TestStrategyTextRoundTrip(t *testing.T) {
	for _, s := range []Strategy{FedAvg, Equal, Weighted, Median} {
		text, err := s.MarshalText()
		require.NoError(t, err)

		var decoded Strategy
		require.NoError(t, decoded.UnmarshalText(text))
		assert.Equal(t, s, decoded)
	}

	var s Strategy
	assert.ErrorIs(t, s.UnmarshalText([]byte("bogus")), ErrUnknownStrategy)
}
