package device

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/absmach/fedge/pkg/model"
)

func testConfig() Config {
	return Config{
		Architecture:   model.Architecture{4, 16, 8, 4},
		LearningRate:   0.01,
		BufferCapacity: 10,
		UpdateInterval: 3,
	}
}

func reading(deviceID string, temp float64) Reading {
	return Reading{
		DeviceID: deviceID,
		Sensors: Sensors{
			"temperature": temp,
			"humidity":    45.0,
			"light":       500.0,
			"voltage":     2.5,
		},
		Timestamp: time.Now(),
	}
}

func TestSessionFirstReadingDoesNotTrain(t *testing.T) {
	s, err := NewSession("mote-1", testConfig())
	require.NoError(t, err)

	res, err := s.Process(reading("mote-1", 20))
	require.NoError(t, err)
	assert.False(t, res.Trained)
	assert.Zero(t, res.TrainingCount)
	assert.Equal(t, 1, s.BufferLen())
}

func TestSessionTrainsOnConsecutiveReadings(t *testing.T) {
	s, err := NewSession("mote-1", testConfig())
	require.NoError(t, err)

	_, err = s.Process(reading("mote-1", 20))
	require.NoError(t, err)

	res, err := s.Process(reading("mote-1", 21))
	require.NoError(t, err)
	assert.True(t, res.Trained)
	assert.Equal(t, 1, res.TrainingCount)
	assert.Len(t, res.Prediction, 4)
	require.NotNil(t, res.Anomaly)
	assert.GreaterOrEqual(t, res.Anomaly.MSE, 0.0)
}

func TestSessionMalformedReading(t *testing.T) {
	s, err := NewSession("mote-1", testConfig())
	require.NoError(t, err)

	bad := Reading{
		DeviceID: "mote-1",
		Sensors: Sensors{
			"temperature": 20.0,
			"humidity":    45.0,
			"light":       500.0,
			// voltage missing
		},
		Timestamp: time.Now(),
	}

	_, err = s.Process(bad)
	assert.ErrorIs(t, err, ErrMalformedReading)
	assert.Zero(t, s.BufferLen(), "malformed reading must not mutate state")
	assert.Zero(t, s.TrainingCount())
}

func TestSessionBufferBound(t *testing.T) {
	cfg := testConfig()
	cfg.BufferCapacity = 5
	s, err := NewSession("mote-1", cfg)
	require.NoError(t, err)

	for i := 0; i < cfg.BufferCapacity+1; i++ {
		_, err := s.Process(reading("mote-1", float64(i)))
		require.NoError(t, err)
	}

	assert.Equal(t, cfg.BufferCapacity, s.BufferLen())
	oldest, ok := s.OldestReading()
	require.True(t, ok)
	assert.Equal(t, 1.0, oldest.Sensors["temperature"], "oldest reading must be evicted first")
}

func TestSessionEmitsEveryInterval(t *testing.T) {
	cfg := testConfig()
	cfg.UpdateInterval = 3
	s, err := NewSession("mote-1", cfg)
	require.NoError(t, err)

	var emitted int
	for i := 0; i < 10; i++ {
		res, err := s.Process(reading("mote-1", float64(i)))
		require.NoError(t, err)
		if res.Update != nil {
			emitted++
			assert.Equal(t, "mote-1", res.Update.DeviceID)
			assert.Equal(t, res.TrainingCount, res.Update.SampleCount)
			assert.NoError(t, res.Update.Weights.Validate())
		}
	}

	// 9 training steps with interval 3 emit at steps 3, 6 and 9.
	assert.Equal(t, 3, emitted)
}

func TestSessionEmittedUpdateIsSnapshot(t *testing.T) {
	cfg := testConfig()
	cfg.UpdateInterval = 1
	s, err := NewSession("mote-1", cfg)
	require.NoError(t, err)

	_, err = s.Process(reading("mote-1", 20))
	require.NoError(t, err)
	res, err := s.Process(reading("mote-1", 21))
	require.NoError(t, err)
	require.NotNil(t, res.Update)

	before := res.Update.Weights.Flatten()
	_, err = s.Process(reading("mote-1", 22))
	require.NoError(t, err)

	assert.Equal(t, before, res.Update.Weights.Flatten())
}

func TestSessionPredictCurrent(t *testing.T) {
	s, err := NewSession("mote-1", testConfig())
	require.NoError(t, err)

	out, err := s.PredictCurrent(reading("mote-1", 20).Sensors)
	require.NoError(t, err)
	assert.Len(t, out, 4)

	_, err = s.PredictCurrent(Sensors{"temperature": 20})
	assert.ErrorIs(t, err, ErrMalformedReading)
}

func TestSessionImportGlobal(t *testing.T) {
	s, err := NewSession("mote-1", testConfig())
	require.NoError(t, err)

	n, err := model.NewNetwork(model.Architecture{4, 16, 8, 4}, 0.01)
	require.NoError(t, err)
	require.NoError(t, s.ImportGlobal(n.ExportWeights()))

	other, err := model.NewNetwork(model.Architecture{4, 8, 4}, 0.01)
	require.NoError(t, err)
	assert.ErrorIs(t, s.ImportGlobal(other.ExportWeights()), model.ErrArchitectureMismatch)
}

func TestParseSensors(t *testing.T) {
	cases := []struct {
		name string
		raw  map[string]any
		err  error
	}{
		{
			name: "complete",
			raw:  map[string]any{"temperature": 20.0, "humidity": 45.0, "light": 500.0, "voltage": 2.5},
		},
		{
			name: "integer values",
			raw:  map[string]any{"temperature": 20, "humidity": 45, "light": 500, "voltage": 2},
		},
		{
			name: "missing field",
			raw:  map[string]any{"temperature": 20.0, "humidity": 45.0, "light": 500.0},
			err:  ErrMalformedReading,
		},
		{
			name: "non-numeric field",
			raw:  map[string]any{"temperature": "hot", "humidity": 45.0, "light": 500.0, "voltage": 2.5},
			err:  ErrMalformedReading,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s, err := ParseSensors(tc.raw)
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)

				return
			}
			require.NoError(t, err)
			assert.Len(t, s.Vector(), 4)
		})
	}
}
