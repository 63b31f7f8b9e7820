package ai

import (
	"context"

	"github.com/wuwuwuxn/sheetserver/internal/domain/ai"
)

type Service struct {
	client ai.Client
}

func NewService(client ai.Client) *Service {
	return &Service{client: client}
}

func (s *Service) Interpret(ctx context.Context, name, resultJSON string) (string, error) {
	if s == nil || s.client == nil {
		return "", ai.ErrNotConfigured
	}
	return s.client.Interpret(ctx, name, resultJSON)
}
