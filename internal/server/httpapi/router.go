// Package httpapi exposes the REST API under /api/v1 on a chi router.
package httpapi

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/gophcrud/internal/logging"
	"github.com/dmitrijs2005/gophcrud/internal/server/mail"
	"github.com/dmitrijs2005/gophcrud/internal/server/models"
	"github.com/dmitrijs2005/gophcrud/internal/server/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
)

// APIPrefix is where the versioned API is mounted.
const APIPrefix = "/api/v1"

type PrincipalResolver interface {
	Resolve(ctx context.Context, token string) (*models.User, error)
}

type LoginAPI interface {
	Login(ctx context.Context, email, password string) (*models.Token, error)
	IssueToken(user *models.User) (*models.Token, error)
	RecoverPassword(ctx context.Context, email string) error
	RecoveryEmailContent(ctx context.Context, actor *models.User, email string) (*mail.Message, error)
	ResetPassword(ctx context.Context, token, newPassword string) error
	SendTestEmail(ctx context.Context, actor *models.User, email string) error
}

type UserAPI interface {
	List(ctx context.Context, actor *models.User, page services.Page) (*models.UsersPage, error)
	Create(ctx context.Context, actor *models.User, in models.UserCreate) (*models.User, error)
	Register(ctx context.Context, in models.UserRegister) (*models.User, error)
	Get(ctx context.Context, actor *models.User, id uuid.UUID) (*models.User, error)
	UpdateMe(ctx context.Context, actor *models.User, in models.UserUpdateMe) (*models.User, error)
	Update(ctx context.Context, actor *models.User, id uuid.UUID, in models.UserUpdate) (*models.User, error)
	ChangePassword(ctx context.Context, actor *models.User, in models.UpdatePassword) error
	DeleteMe(ctx context.Context, actor *models.User) error
	Delete(ctx context.Context, actor *models.User, id uuid.UUID) error
}

type ItemAPI interface {
	List(ctx context.Context, actor *models.User, page services.Page) (*models.ItemsPage, error)
	ListOwn(ctx context.Context, actor *models.User, page services.Page) (*models.ItemsPage, error)
	Get(ctx context.Context, actor *models.User, id uuid.UUID) (*models.Item, error)
	Create(ctx context.Context, actor *models.User, in models.ItemCreate) (*models.Item, error)
	Update(ctx context.Context, actor *models.User, id uuid.UUID, in models.ItemUpdate) (*models.Item, error)
	Delete(ctx context.Context, actor *models.User, id uuid.UUID) error
	GetOwned(ctx context.Context, actor *models.User, id uuid.UUID) (*models.Item, error)
	UpdateOwned(ctx context.Context, actor *models.User, id uuid.UUID, in models.ItemUpdate) (*models.Item, error)
	DeleteOwned(ctx context.Context, actor *models.User, id uuid.UUID) error
}

// RouterOptions wires the router. Ready reports whether dependencies such as
// the database are reachable; nil means always ready.
type RouterOptions struct {
	Login          LoginAPI
	Users          UserAPI
	Items          ItemAPI
	Resolver       PrincipalResolver
	Ready          func(context.Context) error
	AllowedOrigins []string
	Logger         logging.Logger
}

type handlers struct {
	login LoginAPI
	users UserAPI
	items ItemAPI
	ready func(context.Context) error
	log   logging.Logger
}

func corsOptions(origins []string) cors.Options {
	return cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
		MaxAge:           300,
	}
}

// NewRouter assembles the API with shared middleware and CORS policy.
func NewRouter(opts RouterOptions) chi.Router {
	log := opts.Logger
	if log == nil {
		log = logging.Nop{}
	}
	h := &handlers{
		login: opts.Login,
		users: opts.Users,
		items: opts.Items,
		ready: opts.Ready,
		log:   log,
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(log))
	r.Use(middleware.Recoverer)
	if len(opts.AllowedOrigins) > 0 {
		r.Use(cors.Handler(corsOptions(opts.AllowedOrigins)))
	}

	r.Get("/health", h.health)
	r.Get("/health/liveness", h.health)
	r.Get("/health/readiness", h.readiness)

	authn := authenticate(opts.Resolver, log)
	superuser := requireSuperuser(log)

	r.Route(APIPrefix, func(r chi.Router) {
		r.Route("/login", func(r chi.Router) {
			r.Post("/access-token", h.loginAccessToken)
			r.Post("/password-recovery/{email}", h.recoverPassword)
			r.Post("/reset-password/", h.resetPassword)
			r.With(authn).Post("/test-token", h.testToken)
			r.With(authn, superuser).Post("/password-recovery-html-content/{email}", h.recoveryHTMLContent)
		})

		r.Route("/users", func(r chi.Router) {
			r.Post("/signup", h.registerUser)

			r.Group(func(r chi.Router) {
				r.Use(authn)

				r.With(superuser).Get("/", h.listUsers)
				r.With(superuser).Post("/", h.createUser)

				r.Get("/me", h.readMe)
				r.Patch("/me", h.updateMe)
				r.Delete("/me", h.deleteMe)
				r.Patch("/me/password", h.updatePasswordMe)
				r.Get("/me/refresh-token", h.refreshToken)
				r.Get("/me/items/", h.listMyItems)
				r.Post("/me/items/", h.createItem)
				r.Get("/me/items/{id}", h.readItem(h.items.GetOwned))
				r.Put("/me/items/{id}", h.updateItem(h.items.UpdateOwned))
				r.Delete("/me/items/{id}", h.deleteItem(h.items.DeleteOwned, "The item has been successfully deleted"))

				r.Get("/{id}", h.readUser)
				r.With(superuser).Patch("/{id}", h.updateUser)
				r.With(superuser).Delete("/{id}", h.deleteUser)
			})
		})

		r.Route("/items", func(r chi.Router) {
			r.Use(authn)

			r.Get("/", h.listItems)
			r.Post("/", h.createItem)
			r.Get("/{id}", h.readItem(h.items.Get))
			r.Put("/{id}", h.updateItem(h.items.Update))
			r.Delete("/{id}", h.deleteItem(h.items.Delete, "Item deleted successfully"))
		})

		r.Route("/utils", func(r chi.Router) {
			r.Get("/health-check/", h.healthCheck)
			r.With(authn, superuser).Post("/test-email/", h.testEmail)
		})
	})

	return r
}
