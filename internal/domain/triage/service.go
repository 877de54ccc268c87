package triage

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/natabridge/natabridge/internal/domain/notification"
	"github.com/natabridge/natabridge/internal/domain/risk"
	"github.com/natabridge/natabridge/internal/platform/apperr"
)

// Assessor scores an observation. *risk.Engine satisfies it.
type Assessor interface {
	Assess(symptoms risk.SymptomSet, vitals risk.Vitals) risk.Assessment
}

type MotherRiskUpdater interface {
	UpdateRisk(ctx context.Context, id uuid.UUID, level string, at time.Time) error
}

type Notifier interface {
	Raise(ctx context.Context, n *notification.Notification) error
}

type Assigner interface {
	AssignFirstCHW(ctx context.Context, motherID uuid.UUID, priority string) (*uuid.UUID, error)
}

// TxRunner runs fn in one database transaction. *db.Transactor satisfies it.
type TxRunner interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type Metrics interface {
	ObserveAssessment(level string)
}

type Service struct {
	assessor Assessor
	repo     Repository
	mothers  MotherRiskUpdater
	notifier Notifier
	assigner Assigner
	tx       TxRunner
	metrics  Metrics
	now      func() time.Time
}

func NewService(assessor Assessor, repo Repository, mothers MotherRiskUpdater,
	notifier Notifier, assigner Assigner, tx TxRunner) *Service {
	return &Service{
		assessor: assessor,
		repo:     repo,
		mothers:  mothers,
		notifier: notifier,
		assigner: assigner,
		tx:       tx,
		now:      time.Now,
	}
}

// SetMetrics attaches an optional assessment counter.
func (s *Service) SetMetrics(m Metrics) {
	s.metrics = m
}

// Assess scores the observation and stores it. The triage record, the
// mother's new risk level and, for elevated levels, the alert and CHW
// assignment are written in one transaction.
func (s *Service) Assess(ctx context.Context, in Input, assessor uuid.UUID) (*Result, error) {
	if in.MotherID == uuid.Nil {
		return nil, apperr.Invalid("mother_id is required")
	}
	a := s.assessor.Assess(in.Symptoms, in.Vitals)
	now := s.now().UTC()

	rec := &Record{
		MotherID:    in.MotherID,
		Symptoms:    in.Symptoms.Tags(),
		Systolic:    in.Vitals.Systolic.Ptr(),
		Diastolic:   in.Vitals.Diastolic.Ptr(),
		HeartRate:   in.Vitals.HeartRate.Ptr(),
		Temperature: in.Vitals.Temperature.Ptr(),
		SpO2:        in.Vitals.SpO2.Ptr(),
		RiskScore:   a.Score,
		RiskLevel:   string(a.Level),
		Factors:     a.Factors,
		Notes:       in.Notes,
	}
	if assessor != uuid.Nil {
		rec.AssessedBy = &assessor
	}

	res := &Result{Message: "Triage completed", MotherID: in.MotherID, RiskScore: a, Ignored: in.Ignored}
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		if err := s.mothers.UpdateRisk(ctx, in.MotherID, string(a.Level), now); err != nil {
			return err
		}
		if err := s.repo.Create(ctx, rec); err != nil {
			return err
		}
		if !a.Level.Elevated() {
			return nil
		}
		motherID := in.MotherID
		if err := s.notifier.Raise(ctx, &notification.Notification{
			Type:     notification.TypeHighRiskAlert,
			Title:    "High Risk Alert - " + strings.ToUpper(string(a.Level)),
			Message:  "Mother requires immediate attention. Risk factors: " + strings.Join(a.Factors, ", "),
			MotherID: &motherID,
			Priority: string(a.Level.NotificationPriority()),
		}); err != nil {
			return err
		}
		chw, err := s.assigner.AssignFirstCHW(ctx, in.MotherID, string(a.Level))
		if err != nil {
			return err
		}
		res.AssignedCHW = chw
		return nil
	})
	if err != nil {
		return nil, err
	}

	res.ID = rec.ID
	if s.metrics != nil {
		s.metrics.ObserveAssessment(string(a.Level))
	}
	return res, nil
}

func (s *Service) History(ctx context.Context, motherID uuid.UUID) ([]*Record, error) {
	return s.repo.ListByMother(ctx, motherID)
}
