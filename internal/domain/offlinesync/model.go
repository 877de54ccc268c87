package offlinesync

import (
	"time"

	"github.com/natabridge/natabridge/internal/domain/education"
	"github.com/natabridge/natabridge/internal/domain/emergency"
	"github.com/natabridge/natabridge/internal/domain/mother"
)

// Tables accepted by push.
const (
	TableMothers    = "mothers"
	TableHomeVisits = "home_visits"
)

type PushRequest struct {
	Items []Item `json:"items"`
}

// PushResponse lists every result in input order, and again grouped by
// outcome.
type PushResponse struct {
	Results []Result `json:"results"`
	Success []Result `json:"success"`
	Failed  []Result `json:"failed"`
	Skipped []Result `json:"skipped"`
}

type PullData struct {
	Mothers           []*mother.Mother              `json:"mothers"`
	EducationModules  []*education.Module           `json:"education_modules"`
	TransportContacts []*emergency.TransportContact `json:"transport_contacts"`
}

type PullResponse struct {
	Data     PullData  `json:"data"`
	SyncTime time.Time `json:"sync_time"`
}

func newPushResponse(results []Result) *PushResponse {
	resp := &PushResponse{
		Results: results,
		Success: []Result{},
		Failed:  []Result{},
		Skipped: []Result{},
	}
	if resp.Results == nil {
		resp.Results = []Result{}
	}
	for _, r := range results {
		switch r.Outcome {
		case OutcomeSuccess:
			resp.Success = append(resp.Success, r)
		case OutcomeFailed:
			resp.Failed = append(resp.Failed, r)
		case OutcomeSkipped:
			resp.Skipped = append(resp.Skipped, r)
		}
	}
	return resp
}
