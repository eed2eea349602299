package model

import (
	"fmt"
	"math"
	"math/rand"
)

// sigmoid inputs are clipped to this range before exponentiation to
// avoid overflow on extreme pre-activations.
const sigmoidClip = 500

// Network is a feedforward network with ReLU hidden layers and a sigmoid
// output layer, trained by plain SGD on mean-squared error. It owns a
// single mutable WeightSet and is not safe for concurrent use.
type Network struct {
	arch         Architecture
	learningRate float64
	weights      WeightSet
	losses       []float64
}

// NewNetwork creates a network with Xavier-uniform initialized weights,
// bounded by ±sqrt(6/(in+out)) per layer, and zero biases.
func NewNetwork(arch Architecture, learningRate float64) (*Network, error) {
	ws, err := NewZeroWeightSet(arch)
	if err != nil {
		return nil, err
	}

	for l := 0; l < arch.Layers(); l++ {
		limit := math.Sqrt(6 / float64(arch[l]+arch[l+1]))
		for i := range ws.Weights[l] {
			for j := range ws.Weights[l][i] {
				ws.Weights[l][i][j] = (rand.Float64()*2 - 1) * limit
			}
		}
	}

	return &Network{
		arch:         ws.Architecture,
		learningRate: learningRate,
		weights:      ws,
	}, nil
}

func (n *Network) Architecture() Architecture {
	return n.arch.Clone()
}

func (n *Network) LearningRate() float64 {
	return n.learningRate
}

// Forward runs a single input vector through the network and returns all
// layer activations (input included) and pre-activations, as needed by
// Backward.
func (n *Network) Forward(x []float64) (activations, preacts [][]float64, err error) {
	if len(x) != n.arch.InputSize() {
		return nil, nil, fmt.Errorf("%w: input has %d features, network expects %d",
			ErrArchitectureMismatch, len(x), n.arch.InputSize())
	}

	activations = make([][]float64, 0, n.arch.Layers()+1)
	preacts = make([][]float64, 0, n.arch.Layers())
	activations = append(activations, x)

	a := x
	for l := 0; l < n.arch.Layers(); l++ {
		z := make([]float64, n.arch[l+1])
		for j := range z {
			sum := n.weights.Biases[l][j]
			for i, v := range a {
				sum += v * n.weights.Weights[l][i][j]
			}
			z[j] = sum
		}
		preacts = append(preacts, z)

		next := make([]float64, len(z))
		if l < n.arch.Layers()-1 {
			for j, v := range z {
				next[j] = relu(v)
			}
		} else {
			for j, v := range z {
				next[j] = sigmoid(v)
			}
		}
		activations = append(activations, next)
		a = next
	}

	return activations, preacts, nil
}

// Backward computes per-layer weight and bias gradients by
// backpropagation. The output-layer error is the raw difference between
// the final activation and the target; hidden-layer errors are propagated
// through the ReLU derivative.
func (n *Network) Backward(y []float64, activations, preacts [][]float64) (wGrads [][][]float64, bGrads [][]float64) {
	layers := n.arch.Layers()
	wGrads = make([][][]float64, layers)
	bGrads = make([][]float64, layers)

	output := activations[len(activations)-1]
	delta := make([]float64, len(output))
	for j := range delta {
		delta[j] = output[j] - y[j]
	}

	for l := layers - 1; l >= 0; l-- {
		prev := activations[l]
		wGrads[l] = make([][]float64, len(prev))
		for i := range prev {
			wGrads[l][i] = make([]float64, len(delta))
			for j := range delta {
				wGrads[l][i][j] = prev[i] * delta[j]
			}
		}
		bGrads[l] = make([]float64, len(delta))
		copy(bGrads[l], delta)

		if l > 0 {
			prevDelta := make([]float64, len(prev))
			for i := range prev {
				var sum float64
				for j := range delta {
					sum += delta[j] * n.weights.Weights[l][i][j]
				}
				if preacts[l-1][i] > 0 {
					prevDelta[i] = sum
				}
			}
			delta = prevDelta
		}
	}

	return wGrads, bGrads
}

// TrainStep runs one forward/backward pass on a single supervised pair
// and applies an SGD update to the owned weights. It returns the MSE loss
// and records it in the training history.
func (n *Network) TrainStep(x, y []float64) (float64, error) {
	if len(y) != n.arch.OutputSize() {
		return 0, fmt.Errorf("%w: target has %d features, network outputs %d",
			ErrArchitectureMismatch, len(y), n.arch.OutputSize())
	}

	activations, preacts, err := n.Forward(x)
	if err != nil {
		return 0, err
	}

	output := activations[len(activations)-1]
	var loss float64
	for j := range output {
		diff := output[j] - y[j]
		loss += diff * diff
	}
	loss /= float64(len(output))

	wGrads, bGrads := n.Backward(y, activations, preacts)
	for l := range wGrads {
		for i := range wGrads[l] {
			for j := range wGrads[l][i] {
				n.weights.Weights[l][i][j] -= n.learningRate * wGrads[l][i][j]
			}
		}
		for j := range bGrads[l] {
			n.weights.Biases[l][j] -= n.learningRate * bGrads[l][j]
		}
	}

	n.losses = append(n.losses, loss)

	return loss, nil
}

// Predict runs a forward pass and returns the output activation.
func (n *Network) Predict(x []float64) ([]float64, error) {
	activations, _, err := n.Forward(x)
	if err != nil {
		return nil, err
	}

	return activations[len(activations)-1], nil
}

// ExportWeights returns a deep copy of the owned weights, so later
// training cannot mutate an emitted snapshot.
func (n *Network) ExportWeights() WeightSet {
	return n.weights.Clone()
}

// ImportWeights replaces the owned weights with a copy of ws.
func (n *Network) ImportWeights(ws WeightSet) error {
	if !ws.Architecture.Equal(n.arch) {
		return fmt.Errorf("%w: network has architecture %v, weights have %v",
			ErrArchitectureMismatch, n.arch, ws.Architecture)
	}
	if err := ws.Validate(); err != nil {
		return err
	}

	n.weights = ws.Clone()

	return nil
}

// Losses returns a copy of the recorded per-step training losses.
func (n *Network) Losses() []float64 {
	out := make([]float64, len(n.losses))
	copy(out, n.losses)

	return out
}

func relu(z float64) float64 {
	if z > 0 {
		return z
	}

	return 0
}

func sigmoid(z float64) float64 {
	if z > sigmoidClip {
		z = sigmoidClip
	}
	if z < -sigmoidClip {
		z = -sigmoidClip
	}

	return 1 / (1 + math.Exp(-z))
}
