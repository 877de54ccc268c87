package dashboard

import (
	"context"
	"time"
)

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// Stats gathers the PHC overview. Any failing query fails the whole call.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	now := s.now().UTC()
	var (
		st  Stats
		err error
	)
	if st.TotalMothers, err = s.repo.CountMothers(ctx); err != nil {
		return nil, err
	}
	if st.RiskBreakdown, err = s.repo.RiskBreakdown(ctx); err != nil {
		return nil, err
	}
	if st.ActiveEmergencies, err = s.repo.ActiveEmergencies(ctx); err != nil {
		return nil, err
	}
	if st.MissedANC, err = s.repo.MissedANC(ctx, now); err != nil {
		return nil, err
	}
	if st.FollowupProgress, err = s.repo.FollowupProgress(ctx); err != nil {
		return nil, err
	}
	if st.ReferralStats, err = s.repo.ReferralStats(ctx); err != nil {
		return nil, err
	}
	since := now.Truncate(24 * time.Hour).Add(-RecentWindow)
	if st.RecentRegistrations, err = s.repo.RegistrationsSince(ctx, since); err != nil {
		return nil, err
	}

	if st.RiskBreakdown == nil {
		st.RiskBreakdown = map[string]int{}
	}
	if st.ReferralStats == nil {
		st.ReferralStats = map[string]int{}
	}
	if st.RecentRegistrations == nil {
		st.RecentRegistrations = []DayCount{}
	}
	return &st, nil
}

func (s *Service) HighRisk(ctx context.Context) ([]*HighRiskMother, error) {
	return s.repo.HighRisk(ctx)
}
