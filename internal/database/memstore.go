// internal/database/memstore.go
package database

import (
	"context"
	"errors"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/oracle/internal/apperrors"
	"github.com/jason-s-yu/oracle/internal/models"
)

// MemStore keeps everything in process memory. It backs STORE=memory and the service
// tests; contents are lost on restart.
type MemStore struct {
	mu       sync.RWMutex
	users    map[uuid.UUID]models.User
	cards    []models.Card
	fortunes []models.Fortune
	readings []models.TarotReading
	now      func() time.Time
}

func NewMemStore() *MemStore {
	return &MemStore{
		users: make(map[uuid.UUID]models.User),
		now:   time.Now,
	}
}

func (m *MemStore) Ping(context.Context) error { return nil }

func (m *MemStore) CreateUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.users {
		// Matches the lower(username) unique index and the unique lowercased email column.
		if strings.EqualFold(existing.Username, u.Username) || existing.Email == u.Email {
			return apperrors.New(apperrors.ErrConflict, "Username or email is already registered")
		}
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.CreatedAt = m.now()
	u.UpdatedAt = u.CreatedAt
	m.users[u.ID] = *u
	return nil
}

func (m *MemStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *MemStore) GetUserByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return &u, nil
}

func (m *MemStore) UpdateUserProfile(_ context.Context, id uuid.UUID, p models.Profile) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u, ok := m.users[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	u.BirthDate, u.BirthTime, u.Gender = p.BirthDate, p.BirthTime, p.Gender
	u.UpdatedAt = m.now()
	m.users[id] = u
	return &u, nil
}

func (m *MemStore) FetchCards(_ context.Context, suit string) ([]models.Card, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var cards []models.Card
	for _, c := range m.cards {
		if suit == "" || c.Suit == suit {
			cards = append(cards, c)
		}
	}
	return cards, nil
}

func (m *MemStore) ReplaceCards(_ context.Context, cards []models.Card) error {
	sorted := slices.Clone(cards)
	slices.SortStableFunc(sorted, func(a, b models.Card) int {
		if d := slices.Index(models.Suits, a.Suit) - slices.Index(models.Suits, b.Suit); d != 0 {
			return d
		}
		return a.Number - b.Number
	})

	m.mu.Lock()
	defer m.mu.Unlock()
	m.cards = sorted
	return nil
}

func (m *MemStore) SaveFortune(_ context.Context, f *models.Fortune) error {
	if f.UserID == nil {
		return errors.New("fortune has no owner")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.New()
	f.ID = &id
	f.CreatedAt = m.now()
	m.fortunes = append(m.fortunes, *f)
	return nil
}

func (m *MemStore) SaveTarotReading(_ context.Context, r *models.TarotReading) error {
	if r.UserID == nil {
		return errors.New("tarot reading has no owner")
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	id := uuid.New()
	r.ID = &id
	r.CreatedAt = m.now()
	stored := *r
	stored.Cards = slices.Clone(r.Cards)
	m.readings = append(m.readings, stored)
	return nil
}

// page returns the owner's items newest first, paged, plus the owner's total.
func page[T any](items []T, owned func(T) bool, limit, offset int) ([]T, int) {
	var mine []T
	for i := len(items) - 1; i >= 0; i-- {
		if owned(items[i]) {
			mine = append(mine, items[i])
		}
	}
	total := len(mine)
	if offset >= total {
		return []T{}, total
	}
	end := min(offset+limit, total)
	return mine[offset:end], total
}

func ownedBy(owner uuid.UUID, userID *uuid.UUID) bool {
	return userID != nil && *userID == owner
}

func (m *MemStore) ListFortunes(_ context.Context, owner uuid.UUID, limit, offset int) ([]models.Fortune, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list, total := page(m.fortunes, func(f models.Fortune) bool { return ownedBy(owner, f.UserID) }, limit, offset)
	return list, total, nil
}

func (m *MemStore) ListTarotReadings(_ context.Context, owner uuid.UUID, limit, offset int) ([]models.TarotReading, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list, total := page(m.readings, func(r models.TarotReading) bool { return ownedBy(owner, r.UserID) }, limit, offset)
	for i := range list {
		list[i].Cards = slices.Clone(list[i].Cards)
	}
	return list, total, nil
}

func (m *MemStore) GetFortune(_ context.Context, owner, id uuid.UUID) (*models.Fortune, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, f := range m.fortunes {
		if *f.ID == id && ownedBy(owner, f.UserID) {
			return &f, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *MemStore) GetTarotReading(_ context.Context, owner, id uuid.UUID) (*models.TarotReading, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, r := range m.readings {
		if *r.ID == id && ownedBy(owner, r.UserID) {
			r.Cards = slices.Clone(r.Cards)
			return &r, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *MemStore) DeleteFortune(_ context.Context, owner, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, f := range m.fortunes {
		if *f.ID == id && ownedBy(owner, f.UserID) {
			m.fortunes = slices.Delete(m.fortunes, i, i+1)
			return nil
		}
	}
	return apperrors.ErrNotFound
}

func (m *MemStore) DeleteTarotReading(_ context.Context, owner, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, r := range m.readings {
		if *r.ID == id && ownedBy(owner, r.UserID) {
			m.readings = slices.Delete(m.readings, i, i+1)
			return nil
		}
	}
	return apperrors.ErrNotFound
}
