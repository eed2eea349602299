package aggregation

import (
	"fmt"
	"sort"
	"time"

	"github.com/absmach/fedge/pkg/model"
)

// Update is one device's contribution to an aggregation round. It is
// produced by a device session and consumed exactly once by one round.
type Update struct {
	DeviceID    string          `json:"device_id"      cbor:"device_id"`
	Weights     model.WeightSet `json:"weights"        cbor:"weights"`
	SampleCount int             `json:"sample_count"   cbor:"sample_count"`
	Timestamp   time.Time       `json:"timestamp"      cbor:"timestamp"`
	Metadata    map[string]any  `json:"metadata,omitempty" cbor:"metadata,omitempty"`
}

// MetadataWeight returns the explicit scalar weight carried in the update
// metadata, used by the Weighted strategy. Updates without one default to 1.
func (u Update) MetadataWeight() float64 {
	if u.Metadata == nil {
		return 1
	}
	if w, ok := u.Metadata["weight"].(float64); ok {
		return w
	}

	return 1
}

// Metadata describes one completed aggregation.
type Metadata struct {
	Strategy     Strategy  `json:"strategy"`
	NumUpdates   int       `json:"num_updates"`
	DeviceIDs    []string  `json:"device_ids"`
	TotalSamples int       `json:"total_samples"`
	Timestamp    time.Time `json:"timestamp"`
}

// Aggregate combines a non-empty batch of architecture-compatible updates
// using the given strategy. The returned metadata lists devices in
// submission order.
func Aggregate(updates []Update, strategy Strategy) (model.WeightSet, Metadata, error) {
	if len(updates) == 0 {
		return model.WeightSet{}, Metadata{}, ErrEmptyUpdateSet
	}
	if err := validateCompatible(updates); err != nil {
		return model.WeightSet{}, Metadata{}, err
	}

	var (
		ws  model.WeightSet
		err error
	)
	switch strategy {
	case FedAvg:
		ws, err = weightedSum(updates, sampleWeights(updates))
	case Equal:
		ws, err = weightedSum(updates, equalWeights(len(updates)))
	case Weighted:
		ws, err = weightedSum(updates, metadataWeights(updates))
	case Median:
		ws, err = median(updates)
	default:
		return model.WeightSet{}, Metadata{}, fmt.Errorf("%w: %d", ErrUnknownStrategy, strategy)
	}
	if err != nil {
		return model.WeightSet{}, Metadata{}, err
	}

	meta := Metadata{
		Strategy:   strategy,
		NumUpdates: len(updates),
		DeviceIDs:  make([]string, 0, len(updates)),
		Timestamp:  time.Now(),
	}
	for _, u := range updates {
		meta.DeviceIDs = append(meta.DeviceIDs, u.DeviceID)
		meta.TotalSamples += u.SampleCount
	}

	return ws, meta, nil
}

func validateCompatible(updates []Update) error {
	base := updates[0].Weights
	if err := base.Validate(); err != nil {
		return fmt.Errorf("%w: %s", ErrIncompatibleArchitectures, err)
	}
	for _, u := range updates[1:] {
		if !u.Weights.CompatibleWith(base) {
			return fmt.Errorf("%w: %s has architecture %v, expected %v",
				ErrIncompatibleArchitectures, u.DeviceID, u.Weights.Architecture, base.Architecture)
		}
		if err := u.Weights.Validate(); err != nil {
			return fmt.Errorf("%w: %s", ErrIncompatibleArchitectures, err)
		}
	}

	return nil
}

func sampleWeights(updates []Update) []float64 {
	weights := make([]float64, len(updates))
	var total float64
	for i, u := range updates {
		count := u.SampleCount
		if count < 1 {
			count = 1
		}
		weights[i] = float64(count)
		total += weights[i]
	}
	for i := range weights {
		weights[i] /= total
	}

	return weights
}

func equalWeights(n int) []float64 {
	weights := make([]float64, n)
	for i := range weights {
		weights[i] = 1 / float64(n)
	}

	return weights
}

func metadataWeights(updates []Update) []float64 {
	weights := make([]float64, len(updates))
	var total float64
	for i, u := range updates {
		weights[i] = u.MetadataWeight()
		total += weights[i]
	}
	if total == 0 {
		return equalWeights(len(updates))
	}
	for i := range weights {
		weights[i] /= total
	}

	return weights
}

// weightedSum computes the element-wise weighted sum of all weight
// matrices and bias vectors. Weights are expected to sum to 1.
func weightedSum(updates []Update, weights []float64) (model.WeightSet, error) {
	out, err := model.NewZeroWeightSet(updates[0].Weights.Architecture)
	if err != nil {
		return model.WeightSet{}, err
	}

	for k, u := range updates {
		w := weights[k]
		for l := range out.Weights {
			for i := range out.Weights[l] {
				for j := range out.Weights[l][i] {
					out.Weights[l][i][j] += u.Weights.Weights[l][i][j] * w
				}
			}
			for j := range out.Biases[l] {
				out.Biases[l][j] += u.Weights.Biases[l][j] * w
			}
		}
	}

	return out, nil
}

// median computes the coordinate-wise median across all updates for every
// weight and bias.
func median(updates []Update) (model.WeightSet, error) {
	out, err := model.NewZeroWeightSet(updates[0].Weights.Architecture)
	if err != nil {
		return model.WeightSet{}, err
	}

	column := make([]float64, len(updates))
	for l := range out.Weights {
		for i := range out.Weights[l] {
			for j := range out.Weights[l][i] {
				for k, u := range updates {
					column[k] = u.Weights.Weights[l][i][j]
				}
				out.Weights[l][i][j] = medianOf(column)
			}
		}
		for j := range out.Biases[l] {
			for k, u := range updates {
				column[k] = u.Weights.Biases[l][j]
			}
			out.Biases[l][j] = medianOf(column)
		}
	}

	return out, nil
}

func medianOf(values []float64) float64 {
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}

	return (sorted[mid-1] + sorted[mid]) / 2
}
