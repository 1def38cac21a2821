package httpapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/dmitrijs2005/gophcrud/internal/common"
	"github.com/dmitrijs2005/gophcrud/internal/logging"
	"github.com/dmitrijs2005/gophcrud/internal/server/mail"
	"github.com/dmitrijs2005/gophcrud/internal/server/models"
	"github.com/dmitrijs2005/gophcrud/internal/server/services"
	"github.com/google/uuid"
)

var (
	normalUser = &models.User{ID: uuid.MustParse("11111111-1111-1111-1111-111111111111"), Email: "user@example.com", IsActive: true}
	superUser  = &models.User{ID: uuid.MustParse("22222222-2222-2222-2222-222222222222"), Email: "admin@example.com", IsActive: true, IsSuperuser: true}
	idleUser   = &models.User{ID: uuid.MustParse("33333333-3333-3333-3333-333333333333"), Email: "idle@example.com"}
)

// fakeResolver accepts the tokens "user", "admin" and "idle".
type fakeResolver struct{}

func (fakeResolver) Resolve(_ context.Context, token string) (*models.User, error) {
	switch token {
	case "user":
		return normalUser, nil
	case "admin":
		return superUser, nil
	case "idle":
		return idleUser, nil
	case "gone":
		return nil, common.ErrPrincipalNotFound
	}
	return nil, errors.Join(common.ErrUnauthenticated, common.ErrTokenMalformed)
}

type fakeLogin struct {
	loginErr    error
	recovered   []string
	resetErr    error
	testEmails  []string
	lastLoginAs string
}

func (f *fakeLogin) Login(_ context.Context, email, _ string) (*models.Token, error) {
	f.lastLoginAs = email
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	return &models.Token{AccessToken: "tok", TokenType: common.TokenTypeBearer}, nil
}

func (f *fakeLogin) IssueToken(u *models.User) (*models.Token, error) {
	return &models.Token{AccessToken: "fresh-" + u.Email, TokenType: common.TokenTypeBearer}, nil
}

func (f *fakeLogin) RecoverPassword(_ context.Context, email string) error {
	f.recovered = append(f.recovered, email)
	return nil
}

func (f *fakeLogin) RecoveryEmailContent(_ context.Context, _ *models.User, email string) (*mail.Message, error) {
	return &mail.Message{To: email, Subject: "Recovery", HTML: "<p>reset</p>"}, nil
}

func (f *fakeLogin) ResetPassword(context.Context, string, string) error {
	return f.resetErr
}

func (f *fakeLogin) SendTestEmail(_ context.Context, _ *models.User, email string) error {
	f.testEmails = append(f.testEmails, email)
	return nil
}

type fakeUsers struct {
	err      error
	lastPage services.Page
	updated  models.UserUpdate
}

func (f *fakeUsers) List(_ context.Context, _ *models.User, page services.Page) (*models.UsersPage, error) {
	f.lastPage = page
	if f.err != nil {
		return nil, f.err
	}
	return &models.UsersPage{Data: []models.User{*normalUser, *superUser}, Count: 2}, nil
}

func (f *fakeUsers) Create(_ context.Context, _ *models.User, in models.UserCreate) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.User{ID: uuid.New(), Email: in.Email, IsActive: in.IsActive}, nil
}

func (f *fakeUsers) Register(_ context.Context, in models.UserRegister) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.User{ID: uuid.New(), Email: in.Email, IsActive: true}, nil
}

func (f *fakeUsers) Get(_ context.Context, actor *models.User, id uuid.UUID) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.User{ID: id, Email: "found@example.com"}, nil
}

func (f *fakeUsers) UpdateMe(_ context.Context, actor *models.User, in models.UserUpdateMe) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u := *actor
	in.Email.Apply(&u.Email)
	return &u, nil
}

func (f *fakeUsers) Update(_ context.Context, _ *models.User, id uuid.UUID, in models.UserUpdate) (*models.User, error) {
	f.updated = in
	if f.err != nil {
		return nil, f.err
	}
	return &models.User{ID: id}, nil
}

func (f *fakeUsers) ChangePassword(context.Context, *models.User, models.UpdatePassword) error {
	return f.err
}

func (f *fakeUsers) DeleteMe(context.Context, *models.User) error          { return f.err }
func (f *fakeUsers) Delete(context.Context, *models.User, uuid.UUID) error { return f.err }

type fakeItems struct {
	err   error
	owned bool
	// calls records which item methods ran, in order.
	calls []string
}

func (f *fakeItems) List(_ context.Context, actor *models.User, _ services.Page) (*models.ItemsPage, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.ItemsPage{Data: []models.Item{{ID: uuid.New(), Title: "t", OwnerID: actor.ID}}, Count: 1}, nil
}

func (f *fakeItems) ListOwn(ctx context.Context, actor *models.User, page services.Page) (*models.ItemsPage, error) {
	f.owned = true
	return f.List(ctx, actor, page)
}

func (f *fakeItems) Get(_ context.Context, actor *models.User, id uuid.UUID) (*models.Item, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Item{ID: id, Title: "t", OwnerID: actor.ID}, nil
}

func (f *fakeItems) Create(_ context.Context, actor *models.User, in models.ItemCreate) (*models.Item, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Item{ID: uuid.New(), Title: in.Title, Description: in.Description, OwnerID: actor.ID}, nil
}

func (f *fakeItems) Update(_ context.Context, actor *models.User, id uuid.UUID, in models.ItemUpdate) (*models.Item, error) {
	if f.err != nil {
		return nil, f.err
	}
	it := &models.Item{ID: id, Title: "t", OwnerID: actor.ID}
	in.Title.Apply(&it.Title)
	return it, nil
}

func (f *fakeItems) Delete(context.Context, *models.User, uuid.UUID) error {
	f.calls = append(f.calls, "Delete")
	return f.err
}

func (f *fakeItems) GetOwned(ctx context.Context, actor *models.User, id uuid.UUID) (*models.Item, error) {
	f.calls = append(f.calls, "GetOwned")
	return f.Get(ctx, actor, id)
}

func (f *fakeItems) UpdateOwned(ctx context.Context, actor *models.User, id uuid.UUID, in models.ItemUpdate) (*models.Item, error) {
	f.calls = append(f.calls, "UpdateOwned")
	return f.Update(ctx, actor, id, in)
}

func (f *fakeItems) DeleteOwned(context.Context, *models.User, uuid.UUID) error {
	f.calls = append(f.calls, "DeleteOwned")
	return f.err
}

type testAPI struct {
	handler http.Handler
	login   *fakeLogin
	users   *fakeUsers
	items   *fakeItems
	ready   error
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	a := &testAPI{login: &fakeLogin{}, users: &fakeUsers{}, items: &fakeItems{}}
	a.handler = NewRouter(RouterOptions{
		Login:          a.login,
		Users:          a.users,
		Items:          a.items,
		Resolver:       fakeResolver{},
		Ready:          func(context.Context) error { return a.ready },
		AllowedOrigins: []string{"http://localhost:5173"},
		Logger:         logging.Nop{},
	})
	return a
}

// do sends a request with an optional bearer token and JSON body.
func (a *testAPI) do(method, path, token, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) postForm(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}
