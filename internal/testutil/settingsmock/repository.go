package settingsmock

import (
	"context"

	domain "kopacash/internal/domain/settings"
)

var _ domain.Repository = (*Repo)(nil)

// Repo is an in-memory settings store keyed by setting key. An empty
// Repo resolves to domain.Defaults().
type Repo struct {
	GetFn  func(ctx context.Context, key string) (*domain.Setting, error)
	SaveFn func(ctx context.Context, s *domain.Setting) error
	ListFn func(ctx context.Context) ([]domain.Setting, error)

	Store map[string]*domain.Setting
}

func (m *Repo) Get(ctx context.Context, key string) (*domain.Setting, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, key)
	}
	if s, ok := m.Store[key]; ok {
		return s, nil
	}
	return nil, domain.ErrNotFound
}

func (m *Repo) Save(ctx context.Context, s *domain.Setting) error {
	if m.SaveFn != nil {
		return m.SaveFn(ctx, s)
	}
	if m.Store == nil {
		m.Store = map[string]*domain.Setting{}
	}
	m.Store[s.Key] = s
	return nil
}

func (m *Repo) List(ctx context.Context) ([]domain.Setting, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx)
	}
	out := make([]domain.Setting, 0, len(m.Store))
	for _, s := range m.Store {
		out = append(out, *s)
	}
	return out, nil
}
