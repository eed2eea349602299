package device

import (
	"fmt"
	"time"
)

// Sensors maps sensor fields to their measured values. All four fields
// are required for a reading to be trainable.
type Sensors map[string]float64

var sensorFields = []string{"temperature", "humidity", "light", "voltage"}

// Validate checks that every required sensor field is present.
func (s Sensors) Validate() error {
	for _, field := range sensorFields {
		if _, ok := s[field]; !ok {
			return fmt.Errorf("%w: missing sensor field %q", ErrMalformedReading, field)
		}
	}

	return nil
}

// Vector returns the feature vector in canonical field order.
func (s Sensors) Vector() []float64 {
	vec := make([]float64, 0, len(sensorFields))
	for _, field := range sensorFields {
		vec = append(vec, s[field])
	}

	return vec
}

// ParseSensors converts a decoded JSON object into Sensors, rejecting
// missing or non-numeric fields.
func ParseSensors(raw map[string]any) (Sensors, error) {
	s := make(Sensors, len(sensorFields))
	for _, field := range sensorFields {
		v, ok := raw[field]
		if !ok {
			return nil, fmt.Errorf("%w: missing sensor field %q", ErrMalformedReading, field)
		}
		switch n := v.(type) {
		case float64:
			s[field] = n
		case int:
			s[field] = float64(n)
		case int64:
			s[field] = float64(n)
		default:
			return nil, fmt.Errorf("%w: sensor field %q is not numeric", ErrMalformedReading, field)
		}
	}

	return s, nil
}

// Reading is one record of a device's sensor stream, already keyed by
// device id by the upstream transport.
type Reading struct {
	DeviceID  string    `json:"device_id"`
	Sensors   Sensors   `json:"sensors"`
	Timestamp time.Time `json:"timestamp"`
}

func (r Reading) Validate() error {
	if r.DeviceID == "" {
		return fmt.Errorf("%w: empty device id", ErrMalformedReading)
	}

	return r.Sensors.Validate()
}
