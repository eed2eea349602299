package aggregation

import "fmt"

// Strategy selects how a batch of local updates is combined. The set of
// strategies is closed; unrecognized names are rejected when parsed, not
// at aggregation time.
type Strategy uint8

const (
	// FedAvg weights each update by its sample count, so more-trained
	// devices contribute more. This is the default.
	FedAvg Strategy = iota
	// Equal averages all updates with weight 1/n regardless of sample count.
	Equal
	// Weighted uses an explicit per-update scalar weight from the update
	// metadata, re-normalized to sum to 1.
	Weighted
	// Median takes the coordinate-wise median across updates, robust to a
	// minority of outliers at the cost of sample-size weighting.
	Median
)

func (s Strategy) String() string {
	switch s {
	case FedAvg:
		return "fedavg"
	case Equal:
		return "equal"
	case Weighted:
		return "weighted"
	case Median:
		return "median"
	default:
		return "unknown"
	}
}

func ParseStrategy(name string) (Strategy, error) {
	switch name {
	case "fedavg", "":
		return FedAvg, nil
	case "equal":
		return Equal, nil
	case "weighted":
		return Weighted, nil
	case "median":
		return Median, nil
	default:
		return FedAvg, fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
}

func (s Strategy) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Strategy) UnmarshalText(text []byte) error {
	parsed, err := ParseStrategy(string(text))
	if err != nil {
		return err
	}
	*s = parsed

	return nil
}
