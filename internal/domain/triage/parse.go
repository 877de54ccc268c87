package triage

import (
	"strings"

	"github.com/google/uuid"

	"github.com/natabridge/natabridge/internal/domain/risk"
	"github.com/natabridge/natabridge/internal/platform/apperr"
)

// ParseInput turns a decoded request body into typed triage input. Vitals
// may be sent at the top level or inside a "vitals" object; top-level
// values win.
func ParseInput(raw map[string]any) (Input, error) {
	var in Input

	idStr, _ := raw["mother_id"].(string)
	id, err := uuid.Parse(strings.TrimSpace(idStr))
	if err != nil || id == uuid.Nil {
		return in, apperr.Invalid("mother_id is required")
	}
	in.MotherID = id

	fields := make(map[string]any, len(raw))
	if nested, ok := raw["vitals"].(map[string]any); ok {
		for k, v := range nested {
			fields[k] = v
		}
	}
	for k, v := range raw {
		fields[k] = v
	}

	var issues []risk.FieldIssue
	in.Vitals, issues = risk.ParseVitals(fields)
	in.Ignored = append(in.Ignored, issues...)

	in.Symptoms, issues = risk.ParseSymptoms(raw["symptoms"])
	in.Ignored = append(in.Ignored, issues...)

	if notes, ok := raw["notes"].(string); ok && strings.TrimSpace(notes) != "" {
		in.Notes = &notes
	}
	return in, nil
}
