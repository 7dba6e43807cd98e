package repositories

import (
	"slices"
	"sync"

	"vinivici/internal/models"
)

// BanRepository stores the ordered ban list for the life of the process.
type BanRepository interface {
	// Toggle removes the rule if present, appends it otherwise.
	// Returns true when the rule is banned after the call.
	Toggle(rule models.BanRule) bool

	// List returns a copy of the rules in insertion order
	List() []models.BanRule

	// Contains reports whether the exact (type, value) pair is banned
	Contains(rule models.BanRule) bool

	// Clear removes every rule
	Clear()

	// Count returns the number of rules
	Count() int
}

type banRepository struct {
	mu    sync.RWMutex
	rules []models.BanRule
}

// NewBanRepository creates an empty in-memory ban list
func NewBanRepository() BanRepository {
	return &banRepository{}
}

func (r *banRepository) Toggle(rule models.BanRule) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if i := slices.Index(r.rules, rule); i >= 0 {
		r.rules = slices.Delete(r.rules, i, i+1)
		return false
	}
	r.rules = append(r.rules, rule)
	return true
}

func (r *banRepository) List() []models.BanRule {
	r.mu.RLock()
	defer r.mu.RUnlock()
	// never nil, so the list always encodes as a JSON array
	return append(make([]models.BanRule, 0, len(r.rules)), r.rules...)
}

func (r *banRepository) Contains(rule models.BanRule) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Contains(r.rules, rule)
}

func (r *banRepository) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rules = nil
}

func (r *banRepository) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.rules)
}
