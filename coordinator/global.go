package coordinator

import (
	"fmt"
	"sync"
	"time"

	"github.com/absmach/fedge/pkg/aggregation"
	"github.com/absmach/fedge/pkg/model"
)

// Round is one completed aggregation: the strategy used, the devices
// that participated in submission order, and the resulting weights.
// Rounds are appended to the global history and never mutated.
type Round struct {
	Index        int                  `json:"round_index"`
	Strategy     aggregation.Strategy `json:"strategy"`
	Timestamp    time.Time            `json:"timestamp"`
	DeviceIDs    []string             `json:"device_ids"`
	TotalSamples int                  `json:"total_samples"`
	Weights      model.WeightSet      `json:"weights"`
}

type RoundPage struct {
	Offset uint64  `json:"offset"`
	Limit  uint64  `json:"limit"`
	Total  uint64  `json:"total"`
	Rounds []Round `json:"rounds"`
}

// GlobalModel holds the canonical aggregated weights, the append-only
// round history, and per-device contribution counters. ApplyRound is the
// sole mutator; one RWMutex covers all three so readers never observe a
// half-committed round.
type GlobalModel struct {
	mu sync.RWMutex

	weights       model.WeightSet
	history       []Round
	contributions map[string]int
}

// NewGlobalModel initializes the global weights the same way a fresh
// device model is initialized, so devices can bootstrap from it before
// the first round completes.
func NewGlobalModel(arch model.Architecture, learningRate float64) (*GlobalModel, error) {
	network, err := model.NewNetwork(arch, learningRate)
	if err != nil {
		return nil, err
	}

	return &GlobalModel{
		weights:       network.ExportWeights(),
		contributions: make(map[string]int),
	}, nil
}

// ApplyRound aggregates the batch and commits the result: the current
// weights are replaced, a Round with index == len(history) is appended,
// and every participating device's contribution counter is incremented,
// all under one write lock. Aggregation itself is pure and runs before
// the lock is taken; on any error nothing is committed.
func (g *GlobalModel) ApplyRound(updates []aggregation.Update, strategy aggregation.Strategy) (Round, error) {
	if len(updates) == 0 {
		return Round{}, aggregation.ErrEmptyUpdateSet
	}

	arch := g.Architecture()
	for _, u := range updates {
		if !u.Weights.Architecture.Equal(arch) {
			return Round{}, fmt.Errorf("%w: update from %s has architecture %v, global model has %v",
				model.ErrArchitectureMismatch, u.DeviceID, u.Weights.Architecture, arch)
		}
	}

	ws, meta, err := aggregation.Aggregate(updates, strategy)
	if err != nil {
		return Round{}, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	round := Round{
		Index:        len(g.history),
		Strategy:     strategy,
		Timestamp:    meta.Timestamp,
		DeviceIDs:    meta.DeviceIDs,
		TotalSamples: meta.TotalSamples,
		Weights:      ws,
	}
	g.weights = ws
	g.history = append(g.history, round)
	for _, id := range meta.DeviceIDs {
		g.contributions[id]++
	}

	return round, nil
}

// Weights returns a copy of the current global weight set.
func (g *GlobalModel) Weights() model.WeightSet {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.weights.Clone()
}

func (g *GlobalModel) Architecture() model.Architecture {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return g.weights.Architecture.Clone()
}

func (g *GlobalModel) History(offset, limit uint64) RoundPage {
	g.mu.RLock()
	defer g.mu.RUnlock()

	total := uint64(len(g.history))
	page := RoundPage{
		Offset: offset,
		Limit:  limit,
		Total:  total,
	}
	if offset >= total {
		return page
	}
	end := offset + limit
	if end > total {
		end = total
	}
	page.Rounds = make([]Round, end-offset)
	copy(page.Rounds, g.history[offset:end])

	return page
}

func (g *GlobalModel) Round(index int) (Round, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if index < 0 || index >= len(g.history) {
		return Round{}, fmt.Errorf("%w: index %d", ErrRoundNotFound, index)
	}

	return g.history[index], nil
}

func (g *GlobalModel) TotalRounds() int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return len(g.history)
}

// Contributions returns a copy of the per-device participation counters.
func (g *GlobalModel) Contributions() map[string]int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make(map[string]int, len(g.contributions))
	for id, count := range g.contributions {
		out[id] = count
	}

	return out
}
