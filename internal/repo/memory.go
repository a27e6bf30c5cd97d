package repo

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/sir_venger/upload_lite/internal/models"
)

// MemoryStore хранит карточки только в оперативной памяти; удобно для тестов.
type MemoryStore struct {
	mu       sync.RWMutex
	products map[string]models.Product
}

// NewMemoryStore создаёт пустое in-memory хранилище.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{products: map[string]models.Product{}}
}

// Get возвращает карточку по id или models.ErrNotFound.
func (s *MemoryStore) Get(_ context.Context, id string) (models.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.products[id]
	if !ok {
		return models.Product{}, models.ErrNotFound
	}
	return p.Clone(), nil
}

// Save записывает (или обновляет) карточку целиком.
func (s *MemoryStore) Save(_ context.Context, p models.Product) error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("product id is empty")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products[p.ID] = p.Clone()
	return nil
}

func (s *MemoryStore) Close() {}
