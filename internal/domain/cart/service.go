package cart

import (
	"context"
	"sync"
)

// Service операции над корзиной поверх Store. Изменения одной сессии
// внутри процесса выполняются последовательно.
type Service struct {
	store    Store
	maxItems int
	mu       sync.Mutex
}

func NewService(store Store, maxItems int) *Service {
	if maxItems <= 0 {
		maxItems = DefaultMaxItems
	}
	return &Service{store: store, maxItems: maxItems}
}

func (s *Service) MaxItems() int { return s.maxItems }

func (s *Service) Get(ctx context.Context, sessionID string) (*Cart, error) {
	return s.store.Load(ctx, sessionID)
}

// Codes коды вещей в порядке добавления.
func (s *Service) Codes(ctx context.Context, sessionID string) ([]string, error) {
	c, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return c.Codes, nil
}

// Add возвращает корзину после добавления; ErrFull, если места нет.
func (s *Service) Add(ctx context.Context, sessionID, code string) (*Cart, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, false, err
	}
	added, err := c.Add(code, s.maxItems)
	if err != nil || !added {
		return c, false, err
	}
	if err := s.store.Save(ctx, c); err != nil {
		return nil, false, err
	}
	return c, true, nil
}

func (s *Service) Remove(ctx context.Context, sessionID, code string) (*Cart, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, err := s.store.Load(ctx, sessionID)
	if err != nil {
		return nil, false, err
	}
	if !c.Remove(code) {
		return c, false, nil
	}
	if err := s.store.Save(ctx, c); err != nil {
		return nil, false, err
	}
	return c, true, nil
}

func (s *Service) Clear(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Delete(ctx, sessionID)
}
