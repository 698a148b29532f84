package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/caliperhq/labrecords/internal/records/domain"
	"github.com/caliperhq/labrecords/internal/records/service"
	"github.com/caliperhq/labrecords/internal/records/store"
	"github.com/caliperhq/labrecords/pkg/httpx"
	"github.com/caliperhq/labrecords/pkg/jwtx"
	"github.com/caliperhq/labrecords/pkg/slogx"

	_ "github.com/caliperhq/labrecords/api/records" // Swagger docs
	httpSwagger "github.com/swaggo/http-swagger"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	signer       jwtx.Signer
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store           store.Store
	AuthService     *service.AuthService
	IdentityService *service.IdentityService
	RecordService   *service.RecordService
}

func NewRouter(
	signer jwtx.Signer,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		signer:       signer,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	// Set default middleware chain
	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerIdentities()
	r.registerRecords()
	r.registerSystem()

	r.Mux.Handle("/swagger/", httpSwagger.Handler())
}

// ServeHTTP implements http.Handler for Router and applies the global middleware chain.
//
//	@title			Lab Records Service API
//	@version		0.1.0
//	@description	Records-management backend with optimistic record versioning, single-active-session
//	@description	bearer tokens and atomic reference-code allocation.
//
//	@contact.name				CaliperHQ Team
//	@contact.url				https://github.com/caliperhq/labrecords
//
//	@license.name				MIT
//	@license.url				https://opensource.org/licenses/MIT
//
//	@host						localhost:8080
//	@BasePath					/
//
//	@schemes					http https
//
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				JWT access token. Format: "Bearer {token}".
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	// POST /auth/login - strict rate limit by IP (authentication attempts)
	loginHandler := &LoginHandler{AuthService: r.AuthService}
	r.Mux.Handle("POST /v1/auth/login",
		httpx.Chain(loginHandler,
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /auth/logout-all - moderate rate limit by identity
	logoutHandler := &LogoutAllHandler{AuthService: r.AuthService}
	r.Mux.Handle("POST /v1/auth/logout-all",
		httpx.Chain(logoutHandler,
			RequireAuth(r.AuthService),
			httpx.RateLimitByIdentity(httpx.ModerateLimit),
		),
	)

	// POST /auth/password - strict rate limit by identity (carries the current password)
	passwordHandler := &PasswordHandler{AuthService: r.AuthService}
	r.Mux.Handle("POST /v1/auth/password",
		httpx.Chain(passwordHandler,
			RequireAuth(r.AuthService),
			httpx.RateLimitByIdentity(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerIdentities() {
	// GET /identity - lenient rate limit by identity
	whoami := &WhoamiHandler{}
	r.Mux.Handle("GET /v1/identity",
		httpx.Chain(whoami,
			RequireAuth(r.AuthService),
			httpx.RateLimitByIdentity(httpx.LenientLimit),
		),
	)

	h := &IdentitiesHandler{IdentityService: r.IdentityService}

	// POST /identities - Provision identity (admin only) - moderate rate limit
	securedCreate := httpx.Chain(http.HandlerFunc(h.HandleCreate),
		RequireAuth(r.AuthService),
		httpx.RequireRole(domain.RoleAdmin),
		httpx.RateLimitByIdentity(httpx.ModerateLimit),
	)

	// POST /identities/{id}/deactivate - admin only - moderate rate limit
	securedDeactivate := httpx.Chain(http.HandlerFunc(h.HandleDeactivate),
		RequireAuth(r.AuthService),
		httpx.RequireRole(domain.RoleAdmin),
		httpx.RateLimitByIdentity(httpx.ModerateLimit),
	)

	r.Mux.Handle("POST /v1/identities", securedCreate)
	r.Mux.Handle("POST /v1/identities/{id}/deactivate", securedDeactivate)
}

func (r *Router) registerRecords() {
	h := &RecordsHandler{RecordService: r.RecordService}

	secured := func(fn http.HandlerFunc, limit httpx.RateLimitConfig) http.Handler {
		return httpx.Chain(fn,
			RequireAuth(r.AuthService),
			httpx.RateLimitByIdentity(limit),
		)
	}

	r.Mux.Handle("POST /v1/records", secured(h.HandleCreate, httpx.ModerateLimit))
	r.Mux.Handle("GET /v1/records", secured(h.HandleList, httpx.LenientLimit))
	r.Mux.Handle("GET /v1/records/{id}", secured(h.HandleGet, httpx.LenientLimit))
	r.Mux.Handle("PUT /v1/records/{id}", secured(h.HandleUpdate, httpx.ModerateLimit))
	r.Mux.Handle("DELETE /v1/records/{id}", secured(h.HandleDelete, httpx.ModerateLimit))
}

func (r *Router) registerSystem() {
	// Health check endpoints - lenient rate limits (monitoring systems may poll frequently)
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store, r.signer),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
