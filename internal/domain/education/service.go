package education

import (
	"context"
	"strings"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Modules returns the library for one language, english by default.
func (s *Service) Modules(ctx context.Context, language, category string) ([]*Module, error) {
	language = strings.ToLower(strings.TrimSpace(language))
	if language == "" {
		language = DefaultLanguage
	}
	return s.repo.List(ctx, language, strings.TrimSpace(category))
}

// All returns every module in every language, for offline clients.
func (s *Service) All(ctx context.Context) ([]*Module, error) {
	return s.repo.ListAll(ctx)
}
