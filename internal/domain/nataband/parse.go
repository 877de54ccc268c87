package nataband

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/natabridge/natabridge/internal/domain/risk"
)

// ParseInput reads a decoded vitals payload. mother_id is optional here;
// the caller decides whether it may be resolved from the device instead.
func ParseInput(raw map[string]any) Input {
	in := Input{Source: SourceManual}

	if s, ok := raw["mother_id"].(string); ok {
		if id, err := uuid.Parse(strings.TrimSpace(s)); err == nil {
			in.MotherID = id
		} else {
			in.Ignored = append(in.Ignored, risk.FieldIssue{Field: "mother_id", Reason: "not a valid id"})
		}
	}
	in.DeviceID = optionalString(raw, "device_id")
	in.ActivityLevel = optionalString(raw, "activity_level")
	if src := optionalString(raw, "source"); src != nil {
		in.Source = *src
	}
	if s := optionalString(raw, "recorded_at"); s != nil {
		if t, err := time.Parse(time.RFC3339, *s); err == nil {
			in.RecordedAt = t.UTC()
		} else {
			in.Ignored = append(in.Ignored, risk.FieldIssue{Field: "recorded_at", Reason: "must be RFC3339"})
		}
	}

	var issues []risk.FieldIssue
	in.Vitals, issues = risk.ParseVitals(raw)
	in.Ignored = append(in.Ignored, issues...)
	return in
}

func optionalString(raw map[string]any, key string) *string {
	s, ok := raw[key].(string)
	if !ok {
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
