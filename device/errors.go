package device

import "errors"

var (
	ErrMalformedReading = errors.New("malformed sensor reading")
	ErrUnknownDevice    = errors.New("unknown device")
)
