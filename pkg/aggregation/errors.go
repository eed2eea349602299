package aggregation

import "errors"

var (
	ErrEmptyUpdateSet            = errors.New("no updates provided for aggregation")
	ErrUnknownStrategy           = errors.New("unknown aggregation strategy")
	ErrIncompatibleArchitectures = errors.New("updates have incompatible architectures")
)
