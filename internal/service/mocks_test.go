package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"medilinko/internal/model"
	"medilinko/internal/repository"
)

// Compile-time check to ensure memoryUserRepository implements UserRepository
var _ repository.UserRepository = (*memoryUserRepository)(nil)

// memoryUserRepository keeps users in insertion order and enforces qr_code_id uniqueness
type memoryUserRepository struct {
	mu     sync.Mutex
	users  []model.User
	nextID int
	clock  time.Time

	// FailWith, when set, is returned by every call
	FailWith error
	// CollisionsLeft makes the next N token writes fail with ErrDuplicateQRCodeID
	CollisionsLeft int

	AssignCalls int
}

func newMemoryRepo() *memoryUserRepository {
	return &memoryUserRepository{clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func cloneUser(u model.User) model.User {
	if u.QRCodeID != nil {
		q := *u.QRCodeID
		u.QRCodeID = &q
	}
	if u.Location != nil {
		loc := *u.Location
		loc.Coordinates = append([]float64(nil), u.Location.Coordinates...)
		u.Location = &loc
	}
	u.Demographics.Allergies = append([]string(nil), u.Demographics.Allergies...)
	if u.Demographics.EmergencyContact != nil {
		c := *u.Demographics.EmergencyContact
		u.Demographics.EmergencyContact = &c
	}
	switch d := u.Details.(type) {
	case *model.DoctorDetails:
		c := *d
		u.Details = &c
	case *model.PharmacistDetails:
		c := *d
		c.Medicines = append([]string(nil), d.Medicines...)
		u.Details = &c
	case *model.PatientDetails:
		u.Details = &model.PatientDetails{}
	}
	return u
}

func (m *memoryUserRepository) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func (m *memoryUserRepository) qrTaken(token string) bool {
	for _, u := range m.users {
		if u.QRCodeID != nil && *u.QRCodeID == token {
			return true
		}
	}
	return false
}

func (m *memoryUserRepository) index(id string) int {
	for i, u := range m.users {
		if u.ID == id {
			return i
		}
	}
	return -1
}

func (m *memoryUserRepository) Create(ctx context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return m.FailWith
	}
	if user.QRCodeID != nil {
		if m.CollisionsLeft > 0 {
			m.CollisionsLeft--
			return repository.ErrDuplicateQRCodeID
		}
		if m.qrTaken(*user.QRCodeID) {
			return repository.ErrDuplicateQRCodeID
		}
	}
	if user.ID == "" {
		m.nextID++
		user.ID = fmt.Sprintf("u-%d", m.nextID)
	}
	now := m.tick()
	user.CreatedAt, user.UpdatedAt = now, now
	m.users = append(m.users, cloneUser(*user))
	return nil
}

func (m *memoryUserRepository) FindByID(ctx context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return nil, m.FailWith
	}
	if i := m.index(id); i >= 0 {
		u := cloneUser(m.users[i])
		return &u, nil
	}
	return nil, nil
}

func (m *memoryUserRepository) FindByQRCodeID(ctx context.Context, qrCodeID string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return nil, m.FailWith
	}
	for _, u := range m.users {
		if u.QRCodeID != nil && *u.QRCodeID == qrCodeID {
			c := cloneUser(u)
			return &c, nil
		}
	}
	return nil, nil
}

func (m *memoryUserRepository) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return nil, m.FailWith
	}
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			c := cloneUser(u)
			return &c, nil
		}
	}
	return nil, nil
}

func (m *memoryUserRepository) FindAll(ctx context.Context, filters model.UserFilters) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return nil, m.FailWith
	}
	out := []model.User{}
	for _, u := range m.users {
		if filters.Role != nil && *filters.Role != "" && u.Role != *filters.Role {
			continue
		}
		out = append(out, cloneUser(u))
	}
	return out, nil
}

func (m *memoryUserRepository) FindMissingQRCodeID(ctx context.Context) ([]model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return nil, m.FailWith
	}
	out := []model.User{}
	for _, u := range m.users {
		if u.QRCodeID == nil {
			out = append(out, cloneUser(u))
		}
	}
	return out, nil
}

func (m *memoryUserRepository) Update(ctx context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return m.FailWith
	}
	i := m.index(user.ID)
	if i < 0 {
		return repository.ErrNoRecord
	}
	user.UpdatedAt = m.tick()
	stored := cloneUser(*user)
	stored.QRCodeID = m.users[i].QRCodeID
	stored.CreatedAt = m.users[i].CreatedAt
	m.users[i] = stored
	return nil
}

func (m *memoryUserRepository) AssignQRCodeID(ctx context.Context, id, qrCodeID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AssignCalls++
	if m.FailWith != nil {
		return false, m.FailWith
	}
	if m.CollisionsLeft > 0 {
		m.CollisionsLeft--
		return false, repository.ErrDuplicateQRCodeID
	}
	if m.qrTaken(qrCodeID) {
		return false, repository.ErrDuplicateQRCodeID
	}
	i := m.index(id)
	if i < 0 || m.users[i].QRCodeID != nil {
		return false, nil
	}
	m.users[i].QRCodeID = &qrCodeID
	m.users[i].UpdatedAt = m.tick()
	return true, nil
}

func (m *memoryUserRepository) Delete(ctx context.Context, id string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailWith != nil {
		return nil, m.FailWith
	}
	i := m.index(id)
	if i < 0 {
		return nil, nil
	}
	deleted := m.users[i]
	m.users = append(m.users[:i], m.users[i+1:]...)
	return &deleted, nil
}

// seed stores u as-is, bypassing token assignment
func (m *memoryUserRepository) seed(u model.User) model.User {
	if u.Details == nil {
		u.Details, _ = model.NewRoleDetails(u.Role)
	}
	if err := m.Create(context.Background(), &u); err != nil {
		panic(err)
	}
	return u
}

// sequenceTokens returns predictable, distinct tokens
type sequenceTokens struct {
	mu sync.Mutex
	n  int
}

func (s *sequenceTokens) Generate(role string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	if role == "" {
		role = "user"
	}
	return fmt.Sprintf("ML-%s-%d-test", role, s.n)
}

type stubIssuer struct {
	err error
}

func (s stubIssuer) Sign(recordID, role string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "token-" + recordID + "-" + role, nil
}

var errStore = errors.New("connection refused")

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }
