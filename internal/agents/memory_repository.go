package agents

import (
	"context"
	"sort"
	"sync"
	"time"
)

type memoryRepository struct {
	mu       sync.RWMutex
	nextID   int64
	byID     map[int64]Agent
	byWallet map[string]int64
}

// NewMemoryRepository constructs an in-memory catalog for development mode
// and tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		nextID:   1,
		byID:     make(map[int64]Agent),
		byWallet: make(map[string]int64),
	}
}

func (r *memoryRepository) Create(_ context.Context, agent Agent) (Agent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byWallet[agent.Wallet]; exists {
		return Agent{}, ErrDuplicateWallet
	}
	now := time.Now().UTC()
	agent.ID = r.nextID
	agent.CreatedAt = now
	agent.UpdatedAt = now
	r.nextID++
	r.byID[agent.ID] = agent
	r.byWallet[agent.Wallet] = agent.ID
	return agent, nil
}

func (r *memoryRepository) GetByID(_ context.Context, id int64) (Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	agent, ok := r.byID[id]
	if !ok {
		return Agent{}, ErrNotFound
	}
	return agent, nil
}

func (r *memoryRepository) GetByWallet(_ context.Context, wallet string) (Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byWallet[wallet]
	if !ok {
		return Agent{}, ErrNotFound
	}
	return r.byID[id], nil
}

func (r *memoryRepository) List(_ context.Context, filter ListFilter) ([]Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]Agent, 0, len(r.byID))
	for _, agent := range r.byID {
		if filter.ActiveOnly && !agent.Active {
			continue
		}
		all = append(all, agent)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	if filter.Offset > 0 {
		if filter.Offset >= len(all) {
			return []Agent{}, nil
		}
		all = all[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(all) {
		all = all[:filter.Limit]
	}
	return all, nil
}

func (r *memoryRepository) Update(_ context.Context, id int64, update Update) (Agent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	agent, ok := r.byID[id]
	if !ok {
		return Agent{}, ErrNotFound
	}
	applyUpdate(&agent, update)
	agent.UpdatedAt = time.Now().UTC()
	r.byID[id] = agent
	return agent, nil
}

func (r *memoryRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	agent, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	delete(r.byID, id)
	delete(r.byWallet, agent.Wallet)
	return nil
}
