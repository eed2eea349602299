package model

import "fmt"

// Architecture is the ordered list of layer widths of a feedforward
// network, input layer first. It is fixed at model creation; two models
// are compatible only if their architectures are element-wise equal.
type Architecture []int

func (a Architecture) Validate() error {
	if len(a) < 2 {
		return fmt.Errorf("%w: expected at least 2 layers, got %d", ErrInvalidArchitecture, len(a))
	}
	for i, width := range a {
		if width <= 0 {
			return fmt.Errorf("%w: layer %d has width %d", ErrInvalidArchitecture, i, width)
		}
	}

	return nil
}

func (a Architecture) Equal(other Architecture) bool {
	if len(a) != len(other) {
		return false
	}
	for i := range a {
		if a[i] != other[i] {
			return false
		}
	}

	return true
}

// Layers returns the number of weight layers (connections), one fewer
// than the number of widths.
func (a Architecture) Layers() int {
	return len(a) - 1
}

func (a Architecture) InputSize() int {
	return a[0]
}

func (a Architecture) OutputSize() int {
	return a[len(a)-1]
}

func (a Architecture) Clone() Architecture {
	c := make(Architecture, len(a))
	copy(c, a)

	return c
}
