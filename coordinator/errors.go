package coordinator

import "errors"

var (
	ErrMalformedUpdate      = errors.New("malformed local update")
	ErrNoPendingUpdates     = errors.New("no pending updates")
	ErrRoundNotFound        = errors.New("aggregation round not found")
	ErrInvalidTriggerConfig = errors.New("invalid trigger configuration")
)
