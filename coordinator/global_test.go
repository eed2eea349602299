package coordinator

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/absmach/fedge/pkg/aggregation"
	"github.com/absmach/fedge/pkg/model"
)

func TestApplyRoundHistoryAndContributions(t *testing.T) {
	global, err := NewGlobalModel(testArch, 0.01)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		updates := []aggregation.Update{
			constantUpdate(t, "a", float64(i), 10),
			constantUpdate(t, "b", float64(i), 20),
		}
		if i == 2 {
			updates = append(updates, constantUpdate(t, "c", 5, 30))
		}

		round, err := global.ApplyRound(updates, aggregation.FedAvg)
		require.NoError(t, err)
		assert.Equal(t, i, round.Index, "round indices are assigned in commit order")
	}

	assert.Equal(t, 3, global.TotalRounds())
	assert.Equal(t, map[string]int{"a": 3, "b": 3, "c": 1}, global.Contributions())

	for i := 0; i < 3; i++ {
		round, err := global.Round(i)
		require.NoError(t, err)
		assert.Equal(t, i, round.Index)
	}
}

func TestApplyRoundRejectsMismatchedArchitecture(t *testing.T) {
	global, err := NewGlobalModel(testArch, 0.01)
	require.NoError(t, err)

	ws, err := model.NewZeroWeightSet(model.Architecture{4, 8, 4})
	require.NoError(t, err)

	_, err = global.ApplyRound([]aggregation.Update{{DeviceID: "a", SampleCount: 1, Weights: ws}}, aggregation.FedAvg)
	assert.ErrorIs(t, err, model.ErrArchitectureMismatch)
	assert.Zero(t, global.TotalRounds())
	assert.Empty(t, global.Contributions())
}

func TestApplyRoundEmpty(t *testing.T) {
	global, err := NewGlobalModel(testArch, 0.01)
	require.NoError(t, err)

	_, err = global.ApplyRound(nil, aggregation.FedAvg)
	assert.ErrorIs(t, err, aggregation.ErrEmptyUpdateSet)
}

func TestHistoryPaging(t *testing.T) {
	global, err := NewGlobalModel(testArch, 0.01)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		_, err := global.ApplyRound([]aggregation.Update{
			constantUpdate(t, fmt.Sprintf("device-%d", i), 1, 1),
		}, aggregation.Equal)
		require.NoError(t, err)
	}

	cases := []struct {
		desc    string
		offset  uint64
		limit   uint64
		indices []int
	}{
		{
			desc:    "first page",
			offset:  0,
			limit:   2,
			indices: []int{0, 1},
		},
		{
			desc:    "middle page",
			offset:  2,
			limit:   2,
			indices: []int{2, 3},
		},
		{
			desc:    "page past the end",
			offset:  4,
			limit:   10,
			indices: []int{4},
		},
		{
			desc:   "offset beyond history",
			offset: 10,
			limit:  2,
		},
	}

	for _, tc := range cases {
		t.Run(tc.desc, func(t *testing.T) {
			page := global.History(tc.offset, tc.limit)
			assert.Equal(t, uint64(5), page.Total)
			require.Len(t, page.Rounds, len(tc.indices))
			for i, idx := range tc.indices {
				assert.Equal(t, idx, page.Rounds[i].Index)
			}
		})
	}
}

func TestRoundNotFound(t *testing.T) {
	global, err := NewGlobalModel(testArch, 0.01)
	require.NoError(t, err)

	_, err = global.Round(0)
	assert.ErrorIs(t, err, ErrRoundNotFound)
	_, err = global.Round(-1)
	assert.ErrorIs(t, err, ErrRoundNotFound)
}

func TestGlobalWeightsSnapshotIsolation(t *testing.T) {
	global, err := NewGlobalModel(testArch, 0.01)
	require.NoError(t, err)

	snapshot := global.Weights()
	snapshot.Weights[0][0][0] = 12345

	assert.NotEqual(t, 12345.0, global.Weights().Weights[0][0][0],
		"mutating a returned snapshot must not touch the global weights")
}
