package coordinator

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/absmach/fedge/device"
	"github.com/absmach/fedge/pkg/aggregation"
)

// Subscribe attaches the ingestion handlers for device traffic:
// sensor readings feed the local fleet and weight updates feed the
// pending buffer.
func (svc *service) Subscribe(ctx context.Context) error {
	if svc.pubsub == nil {
		return nil
	}

	topic := svc.baseTopic + "/#"
	if err := svc.pubsub.Subscribe(ctx, topic, svc.handle(ctx)); err != nil {
		return err
	}

	return nil
}

func (svc *service) handle(ctx context.Context) func(topic string, msg map[string]any) error {
	return func(topic string, msg map[string]any) error {
		switch topic {
		case svc.baseTopic + "/readings":
			return svc.handleReading(ctx, msg)
		case svc.baseTopic + "/updates":
			return svc.handleUpdate(ctx, msg)
		}

		return nil
	}
}

func (svc *service) handleReading(ctx context.Context, msg map[string]any) error {
	deviceID, ok := msg["device_id"].(string)
	if !ok || deviceID == "" {
		return fmt.Errorf("%w: missing device_id", device.ErrMalformedReading)
	}

	raw, ok := msg["sensors"].(map[string]any)
	if !ok {
		// Flat payloads carry the sensor fields at the top level.
		raw = msg
	}
	sensors, err := device.ParseSensors(raw)
	if err != nil {
		return err
	}

	reading := device.Reading{
		DeviceID:  deviceID,
		Sensors:   sensors,
		Timestamp: parseTimestamp(msg["timestamp"]),
	}

	if err := svc.fleet.Dispatch(ctx, reading); err != nil {
		svc.logger.Warn("failed to dispatch reading",
			slog.String("device_id", deviceID),
			slog.String("error", err.Error()))

		return err
	}

	return nil
}

func (svc *service) handleUpdate(ctx context.Context, msg map[string]any) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrMalformedUpdate, err)
	}
	var update aggregation.Update
	if err := json.Unmarshal(data, &update); err != nil {
		return fmt.Errorf("%w: %s", ErrMalformedUpdate, err)
	}

	if _, _, err := svc.coordinator.Submit(ctx, update); err != nil {
		return err
	}

	return nil
}

func parseTimestamp(v any) time.Time {
	switch t := v.(type) {
	case string:
		if ts, err := time.Parse(time.RFC3339, t); err == nil {
			return ts
		}
	case float64:
		return time.Unix(int64(t), 0)
	}

	return time.Now()
}
