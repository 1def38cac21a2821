package services

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gophcrud/internal/common"
	"github.com/dmitrijs2005/gophcrud/internal/dbx"
	"github.com/dmitrijs2005/gophcrud/internal/logging"
	"github.com/dmitrijs2005/gophcrud/internal/server/auth"
	"github.com/dmitrijs2005/gophcrud/internal/server/mail"
	"github.com/dmitrijs2005/gophcrud/internal/server/models"
	"github.com/dmitrijs2005/gophcrud/internal/server/repositories/items"
	"github.com/dmitrijs2005/gophcrud/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophcrud/internal/server/repositories/users"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func newHasher(t *testing.T) *auth.PasswordHasher {
	t.Helper()
	return auth.NewPasswordHasher(auth.HasherOptions{Scheme: auth.SchemeBcrypt, BcryptCost: bcrypt.MinCost}, logging.Nop{})
}

func strptr(s string) *string { return &s }

// memUsers is an in-memory users.Repository.
type memUsers struct {
	mu    sync.Mutex
	rows  map[uuid.UUID]models.User
	err   error
	clock time.Time
}

func newMemUsers() *memUsers {
	return &memUsers{rows: map[uuid.UUID]models.User{}, clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (m *memUsers) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func (m *memUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, r := range m.rows {
		if r.Email == u.Email {
			return nil, common.ErrConflict
		}
	}
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	u.CreatedAt = m.tick()
	u.UpdatedAt = u.CreatedAt
	m.rows[u.ID] = *u
	cp := *u
	return &cp, nil
}

func (m *memUsers) GetUserByID(_ context.Context, id uuid.UUID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	r, ok := m.rows[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &r, nil
}

func (m *memUsers) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	for _, r := range m.rows {
		if r.Email == email {
			return &r, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (m *memUsers) sorted() []models.User {
	out := make([]models.User, 0, len(m.rows))
	for _, r := range m.rows {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (m *memUsers) List(_ context.Context, offset, limit int) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return window(m.sorted(), offset, limit), nil
}

func (m *memUsers) Count(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	return len(m.rows), nil
}

func (m *memUsers) Update(_ context.Context, u *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	r, ok := m.rows[u.ID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	for id, o := range m.rows {
		if id != u.ID && o.Email == u.Email {
			return nil, common.ErrConflict
		}
	}
	r.Email, r.FullName, r.IsActive, r.IsSuperuser = u.Email, u.FullName, u.IsActive, u.IsSuperuser
	r.UpdatedAt = m.tick()
	m.rows[u.ID] = r
	return &r, nil
}

func (m *memUsers) UpdatePassword(_ context.Context, id uuid.UUID, hashed string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	r, ok := m.rows[id]
	if !ok {
		return common.ErrorNotFound
	}
	r.HashedPassword = hashed
	m.rows[id] = r
	return nil
}

func (m *memUsers) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, ok := m.rows[id]; !ok {
		return common.ErrorNotFound
	}
	delete(m.rows, id)
	return nil
}

// memItems is an in-memory items.Repository.
type memItems struct {
	mu    sync.Mutex
	rows  map[uuid.UUID]models.Item
	err   error
	clock time.Time
}

func newMemItems() *memItems {
	return &memItems{rows: map[uuid.UUID]models.Item{}, clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (m *memItems) Create(_ context.Context, it *models.Item) (*models.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if it.ID == uuid.Nil {
		it.ID = uuid.New()
	}
	m.clock = m.clock.Add(time.Second)
	it.CreatedAt, it.UpdatedAt = m.clock, m.clock
	m.rows[it.ID] = *it
	cp := *it
	return &cp, nil
}

func (m *memItems) Get(_ context.Context, id uuid.UUID) (*models.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	r, ok := m.rows[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return &r, nil
}

func (m *memItems) filter(keep func(models.Item) bool) []models.Item {
	out := []models.Item{}
	for _, r := range m.rows {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (m *memItems) List(_ context.Context, offset, limit int) ([]models.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return window(m.filter(func(models.Item) bool { return true }), offset, limit), nil
}

func (m *memItems) ListByOwner(_ context.Context, owner uuid.UUID, offset, limit int) ([]models.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return window(m.filter(func(it models.Item) bool { return it.OwnerID == owner }), offset, limit), nil
}

func (m *memItems) Count(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	return len(m.rows), nil
}

func (m *memItems) CountByOwner(_ context.Context, owner uuid.UUID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	return len(m.filter(func(it models.Item) bool { return it.OwnerID == owner })), nil
}

func (m *memItems) Update(_ context.Context, it *models.Item) (*models.Item, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	if _, ok := m.rows[it.ID]; !ok {
		return nil, common.ErrorNotFound
	}
	m.rows[it.ID] = *it
	cp := *it
	return &cp, nil
}

func (m *memItems) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, ok := m.rows[id]; !ok {
		return common.ErrorNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *memItems) DeleteByOwner(_ context.Context, owner uuid.UUID) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return 0, m.err
	}
	var n int64
	for id, r := range m.rows {
		if r.OwnerID == owner {
			delete(m.rows, id)
			n++
		}
	}
	return n, nil
}

func window[T any](rows []T, offset, limit int) []T {
	if offset >= len(rows) {
		return []T{}
	}
	end := offset + limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[offset:end]
}

// fakeRepoManager hands out the same in-memory repos for any handle.
type fakeRepoManager struct {
	users *memUsers
	items *memItems
}

var _ repomanager.RepositoryManager = (*fakeRepoManager)(nil)

func newFakeRepoManager() *fakeRepoManager {
	return &fakeRepoManager{users: newMemUsers(), items: newMemItems()}
}

func (f *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (f *fakeRepoManager) Users(dbx.DBTX) users.Repository             { return f.users }
func (f *fakeRepoManager) Items(dbx.DBTX) items.Repository             { return f.items }

// seedUser stores a user with a real hash of password.
func (f *fakeRepoManager) seedUser(t *testing.T, h *auth.PasswordHasher, email, password string, active, super bool) *models.User {
	t.Helper()
	hashed, err := h.Hash(password)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	u, err := f.users.Create(context.Background(), &models.User{
		Email: email, HashedPassword: hashed, IsActive: active, IsSuperuser: super,
	})
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

// fakeNotifier records what would have been sent.
type fakeNotifier struct {
	mu       sync.Mutex
	resets   []string
	tokens   []string
	accounts []string
	tests    []string
	err      error
}

func (n *fakeNotifier) SendResetPassword(_ context.Context, email, token string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.resets = append(n.resets, email)
	n.tokens = append(n.tokens, token)
	return n.err
}

func (n *fakeNotifier) SendNewAccount(_ context.Context, email, _ string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.accounts = append(n.accounts, email)
	return n.err
}

func (n *fakeNotifier) SendTestEmail(_ context.Context, email string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.tests = append(n.tests, email)
	return n.err
}

func (n *fakeNotifier) ResetPasswordMessage(email, token string) (mail.Message, error) {
	return mail.Message{To: email, Subject: "recovery", HTML: "<a>" + token + "</a>"}, nil
}
