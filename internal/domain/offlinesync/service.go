package offlinesync

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/natabridge/natabridge/internal/domain/education"
	"github.com/natabridge/natabridge/internal/domain/emergency"
	"github.com/natabridge/natabridge/internal/domain/mother"
	"github.com/natabridge/natabridge/internal/platform/apperr"
)

type MotherStore interface {
	CreateFromSync(ctx context.Context, data map[string]any, actor uuid.UUID) (uuid.UUID, error)
	ChangedSince(ctx context.Context, since time.Time) ([]*mother.Mother, error)
}

type VisitStore interface {
	CreateVisitFromSync(ctx context.Context, data map[string]any, actor uuid.UUID) (uuid.UUID, error)
}

type ModuleLister interface {
	All(ctx context.Context) ([]*education.Module, error)
}

type TransportLister interface {
	TransportContacts(ctx context.Context) ([]*emergency.TransportContact, error)
}

// TxRunner runs fn in a transaction, or in a savepoint when ctx already
// carries one. *db.Transactor satisfies it.
type TxRunner interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type Metrics interface {
	ObserveSyncOutcome(outcome string, n int)
}

type Service struct {
	reconciler *Reconciler
	mothers    MotherStore
	visits     VisitStore
	modules    ModuleLister
	transport  TransportLister
	tx         TxRunner
	metrics    Metrics
	now        func() time.Time
}

func NewService(mothers MotherStore, visits VisitStore, modules ModuleLister,
	transport TransportLister, tx TxRunner) *Service {
	return &Service{
		reconciler: NewReconciler(TableMothers, TableHomeVisits),
		mothers:    mothers,
		visits:     visits,
		modules:    modules,
		transport:  transport,
		tx:         tx,
		now:        time.Now,
	}
}

func (s *Service) SetMetrics(m Metrics) {
	s.metrics = m
}

// Push applies a client batch in one transaction. Each item runs in its own
// savepoint, so a failed insert is rolled back alone and the rest of the
// batch still commits.
func (s *Service) Push(ctx context.Context, items []Item, actor uuid.UUID) (*PushResponse, error) {
	var results []Result
	err := s.tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		results, err = s.reconciler.Reconcile(ctx, items, func(ctx context.Context, table string, data map[string]any) (uuid.UUID, error) {
			var id uuid.UUID
			err := s.tx.InTx(ctx, func(ctx context.Context) error {
				var err error
				id, err = s.insert(ctx, table, data, actor)
				return err
			})
			return id, err
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	resp := newPushResponse(results)
	if s.metrics != nil {
		s.metrics.ObserveSyncOutcome(string(OutcomeSuccess), len(resp.Success))
		s.metrics.ObserveSyncOutcome(string(OutcomeFailed), len(resp.Failed))
		s.metrics.ObserveSyncOutcome(string(OutcomeSkipped), len(resp.Skipped))
	}
	return resp, nil
}

func (s *Service) insert(ctx context.Context, table string, data map[string]any, actor uuid.UUID) (uuid.UUID, error) {
	if data == nil {
		return uuid.Nil, apperr.Invalid("data is required")
	}
	switch table {
	case TableMothers:
		return s.mothers.CreateFromSync(ctx, data, actor)
	case TableHomeVisits:
		return s.visits.CreateVisitFromSync(ctx, data, actor)
	}
	return uuid.Nil, apperr.Invalid("unsupported table %q", table)
}

// Pull returns what an offline client needs: mothers changed since since
// (all when zero), every education module and the active transport
// contacts.
func (s *Service) Pull(ctx context.Context, since time.Time) (*PullResponse, error) {
	syncTime := s.now().UTC()
	mothers, err := s.mothers.ChangedSince(ctx, since)
	if err != nil {
		return nil, err
	}
	modules, err := s.modules.All(ctx)
	if err != nil {
		return nil, err
	}
	contacts, err := s.transport.TransportContacts(ctx)
	if err != nil {
		return nil, err
	}

	if mothers == nil {
		mothers = []*mother.Mother{}
	}
	if modules == nil {
		modules = []*education.Module{}
	}
	if contacts == nil {
		contacts = []*emergency.TransportContact{}
	}
	return &PullResponse{
		Data:     PullData{Mothers: mothers, EducationModules: modules, TransportContacts: contacts},
		SyncTime: syncTime,
	}, nil
}
