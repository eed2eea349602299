package model

import "fmt"

// WeightSet holds the full parameter set of a network: one in×out weight
// matrix and one bias vector per layer, plus the architecture they belong
// to. Aggregation results are treated as immutable; a Network owns a
// single mutable WeightSet that it trains in place.
type WeightSet struct {
	Architecture Architecture  `json:"architecture" cbor:"architecture"`
	Weights      [][][]float64 `json:"weights"      cbor:"weights"`
	Biases       [][]float64   `json:"biases"       cbor:"biases"`
}

// NewZeroWeightSet allocates an all-zero weight set shaped for arch.
func NewZeroWeightSet(arch Architecture) (WeightSet, error) {
	if err := arch.Validate(); err != nil {
		return WeightSet{}, err
	}

	ws := WeightSet{
		Architecture: arch.Clone(),
		Weights:      make([][][]float64, arch.Layers()),
		Biases:       make([][]float64, arch.Layers()),
	}
	for l := 0; l < arch.Layers(); l++ {
		ws.Weights[l] = make([][]float64, arch[l])
		for i := range ws.Weights[l] {
			ws.Weights[l][i] = make([]float64, arch[l+1])
		}
		ws.Biases[l] = make([]float64, arch[l+1])
	}

	return ws, nil
}

// Validate checks that every matrix and vector matches the shape implied
// by the architecture.
func (ws WeightSet) Validate() error {
	if err := ws.Architecture.Validate(); err != nil {
		return err
	}
	if len(ws.Weights) != ws.Architecture.Layers() || len(ws.Biases) != ws.Architecture.Layers() {
		return fmt.Errorf("%w: expected %d layers, got %d weight and %d bias layers",
			ErrArchitectureMismatch, ws.Architecture.Layers(), len(ws.Weights), len(ws.Biases))
	}
	for l := 0; l < ws.Architecture.Layers(); l++ {
		in, out := ws.Architecture[l], ws.Architecture[l+1]
		if len(ws.Weights[l]) != in {
			return fmt.Errorf("%w: layer %d expects %d rows, got %d", ErrArchitectureMismatch, l, in, len(ws.Weights[l]))
		}
		for _, row := range ws.Weights[l] {
			if len(row) != out {
				return fmt.Errorf("%w: layer %d expects %d columns, got %d", ErrArchitectureMismatch, l, out, len(row))
			}
		}
		if len(ws.Biases[l]) != out {
			return fmt.Errorf("%w: layer %d expects %d biases, got %d", ErrArchitectureMismatch, l, out, len(ws.Biases[l]))
		}
	}

	return nil
}

func (ws WeightSet) CompatibleWith(other WeightSet) bool {
	return ws.Architecture.Equal(other.Architecture)
}

func (ws WeightSet) Clone() WeightSet {
	c := WeightSet{
		Architecture: ws.Architecture.Clone(),
		Weights:      make([][][]float64, len(ws.Weights)),
		Biases:       make([][]float64, len(ws.Biases)),
	}
	for l := range ws.Weights {
		c.Weights[l] = make([][]float64, len(ws.Weights[l]))
		for i := range ws.Weights[l] {
			c.Weights[l][i] = make([]float64, len(ws.Weights[l][i]))
			copy(c.Weights[l][i], ws.Weights[l][i])
		}
	}
	for l := range ws.Biases {
		c.Biases[l] = make([]float64, len(ws.Biases[l]))
		copy(c.Biases[l], ws.Biases[l])
	}

	return c
}

// Flatten concatenates all weights followed by all biases into a single
// vector, layer by layer in row-major order.
func (ws WeightSet) Flatten() []float64 {
	flat := make([]float64, 0, ws.NumParameters())
	for _, layer := range ws.Weights {
		for _, row := range layer {
			flat = append(flat, row...)
		}
	}
	for _, bias := range ws.Biases {
		flat = append(flat, bias...)
	}

	return flat
}

func (ws WeightSet) NumParameters() int {
	total := 0
	for _, layer := range ws.Weights {
		for _, row := range layer {
			total += len(row)
		}
	}
	for _, bias := range ws.Biases {
		total += len(bias)
	}

	return total
}

type LayerSummary struct {
	Layer      int `json:"layer"`
	InputSize  int `json:"input_size"`
	OutputSize int `json:"output_size"`
	Parameters int `json:"parameters"`
}

type Summary struct {
	Architecture    Architecture   `json:"architecture"`
	TotalParameters int            `json:"total_parameters"`
	Layers          []LayerSummary `json:"layers"`
}

func (ws WeightSet) Summary() Summary {
	s := Summary{
		Architecture: ws.Architecture.Clone(),
		Layers:       make([]LayerSummary, 0, ws.Architecture.Layers()),
	}
	for l := 0; l < ws.Architecture.Layers(); l++ {
		in, out := ws.Architecture[l], ws.Architecture[l+1]
		params := in*out + out
		s.TotalParameters += params
		s.Layers = append(s.Layers, LayerSummary{
			Layer:      l,
			InputSize:  in,
			OutputSize: out,
			Parameters: params,
		})
	}

	return s
}
