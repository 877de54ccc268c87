package nataband

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/natabridge/natabridge/internal/domain/mother"
)

// Device message results reported to metrics.
const (
	ResultRecorded      = "recorded"
	ResultRejected      = "rejected"
	ResultUnknownDevice = "unknown_device"
)

// DeviceResolver finds the mother a wearable is assigned to.
type DeviceResolver interface {
	ResolveDevice(ctx context.Context, deviceID string) (*mother.Mother, error)
}

type DeviceMetrics interface {
	ObserveDeviceMessage(result string)
}

// Ingestor feeds wearable messages from the broker into Service.Record.
// Its Handle method is an mqtt.MessageHandler.
type Ingestor struct {
	svc      *Service
	resolver DeviceResolver
	logger   zerolog.Logger
	metrics  DeviceMetrics
}

func NewIngestor(svc *Service, resolver DeviceResolver, logger zerolog.Logger) *Ingestor {
	return &Ingestor{svc: svc, resolver: resolver, logger: logger.With().Str("component", "nataband_ingest").Logger()}
}

func (i *Ingestor) SetMetrics(m DeviceMetrics) {
	i.metrics = m
}

// DeviceFromTopic extracts the device id from "nataband/<device>/vitals".
func DeviceFromTopic(topic string) string {
	parts := strings.Split(topic, "/")
	if len(parts) < 3 {
		return ""
	}
	return parts[len(parts)-2]
}

// Handle records one device payload. The device id comes from the payload
// or, failing that, the topic; the mother comes from the payload or the
// device assignment.
func (i *Ingestor) Handle(ctx context.Context, topic string, payload []byte) error {
	result := ResultRejected
	defer func() {
		if i.metrics != nil {
			i.metrics.ObserveDeviceMessage(result)
		}
	}()

	var raw map[string]any
	if err := json.Unmarshal(payload, &raw); err != nil || raw == nil {
		return fmt.Errorf("decode device payload: not a JSON object")
	}
	in := ParseInput(raw)
	in.Source = SourceDevice
	if in.DeviceID == nil {
		if dev := DeviceFromTopic(topic); dev != "" {
			in.DeviceID = &dev
		}
	}

	if in.MotherID == uuid.Nil {
		if in.DeviceID == nil {
			return fmt.Errorf("device payload has neither mother_id nor device_id")
		}
		m, err := i.resolver.ResolveDevice(ctx, *in.DeviceID)
		if err != nil {
			result = ResultUnknownDevice
			return fmt.Errorf("resolve device %s: %w", *in.DeviceID, err)
		}
		in.MotherID = m.ID
	}

	res, err := i.svc.Record(ctx, in)
	if err != nil {
		return err
	}
	result = ResultRecorded
	ev := i.logger.Debug().Str("reading_id", res.ID.String()).Str("mother_id", in.MotherID.String()).Int("alerts", len(res.Alerts))
	if in.DeviceID != nil {
		ev = ev.Str("device_id", *in.DeviceID)
	}
	ev.Msg("device reading recorded")
	return nil
}
