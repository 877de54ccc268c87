package nataband

import (
	"context"

	"github.com/google/uuid"

	"github.com/natabridge/natabridge/internal/domain/notification"
	"github.com/natabridge/natabridge/internal/domain/risk"
	"github.com/natabridge/natabridge/internal/platform/apperr"
)

// ThresholdChecker raises alerts for out-of-range vitals. *risk.Engine
// satisfies it.
type ThresholdChecker interface {
	CheckThresholds(v risk.Vitals) []risk.Alert
}

type Notifier interface {
	Raise(ctx context.Context, n *notification.Notification) error
}

type TxRunner interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type Metrics interface {
	ObserveVitalAlert(priority string)
}

type Service struct {
	checker  ThresholdChecker
	repo     Repository
	notifier Notifier
	tx       TxRunner
	metrics  Metrics
}

func NewService(checker ThresholdChecker, repo Repository, notifier Notifier, tx TxRunner) *Service {
	return &Service{checker: checker, repo: repo, notifier: notifier, tx: tx}
}

func (s *Service) SetMetrics(m Metrics) {
	s.metrics = m
}

// Record stores a reading and one vital_alert notification per threshold
// crossed, all in one transaction.
func (s *Service) Record(ctx context.Context, in Input) (*Result, error) {
	if in.MotherID == uuid.Nil {
		return nil, apperr.Invalid("mother_id is required")
	}
	if in.Vitals.Empty() {
		return nil, apperr.Invalid("at least one vital reading is required")
	}
	if in.Source == "" {
		in.Source = SourceManual
	}

	rd := &Reading{
		MotherID:      in.MotherID,
		DeviceID:      in.DeviceID,
		HeartRate:     in.Vitals.HeartRate.Ptr(),
		Systolic:      in.Vitals.Systolic.Ptr(),
		Diastolic:     in.Vitals.Diastolic.Ptr(),
		Temperature:   in.Vitals.Temperature.Ptr(),
		SpO2:          in.Vitals.SpO2.Ptr(),
		ActivityLevel: in.ActivityLevel,
		Source:        in.Source,
		RecordedAt:    in.RecordedAt,
	}
	alerts := s.checker.CheckThresholds(in.Vitals)

	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, rd); err != nil {
			return err
		}
		for _, a := range alerts {
			motherID := in.MotherID
			if err := s.notifier.Raise(ctx, &notification.Notification{
				Type:     notification.TypeVitalAlert,
				Title:    a.Title,
				Message:  a.Message,
				MotherID: &motherID,
				Priority: string(a.Priority),
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		for _, a := range alerts {
			s.metrics.ObserveVitalAlert(string(a.Priority))
		}
	}
	if alerts == nil {
		alerts = []risk.Alert{}
	}
	return &Result{Message: "Vitals recorded", ID: rd.ID, Alerts: alerts, Ignored: in.Ignored}, nil
}

func (s *Service) Readings(ctx context.Context, motherID uuid.UUID) ([]*Reading, error) {
	return s.repo.ListByMother(ctx, motherID, ReadingListLimit)
}
