package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/caliperhq/labrecords/internal/records/domain"
	"github.com/caliperhq/labrecords/internal/records/service"
	"github.com/caliperhq/labrecords/pkg/httpx"
	"github.com/caliperhq/labrecords/pkg/slogx"
)

type identityCtxKey struct{}

// RequireAuth authenticates the bearer token against the live session
// version and stamps the resolved identity onto the request context. All
// failure classification happens in AuthService; this middleware only
// translates the classified error into the wire envelope.
func RequireAuth(auth *service.AuthService) httpx.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			log := slogx.FromContext(ctx)

			raw := bearerToken(r)

			identity, _, err := auth.Authenticate(ctx, raw)
			if err != nil {
				log.Info("authentication rejected", "err", err)
				writeError(w, err)
				return
			}

			ctx = context.WithValue(ctx, identityCtxKey{}, identity)
			ctx = httpx.WithPrincipal(ctx, identity.ID, identity.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerToken(r *http.Request) string {
	authz := r.Header.Get("Authorization")
	if !strings.HasPrefix(authz, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(authz, "Bearer"))
}

// identityFromCtx returns the identity stamped by RequireAuth.
func identityFromCtx(ctx context.Context) (domain.Identity, bool) {
	identity, ok := ctx.Value(identityCtxKey{}).(domain.Identity)
	return identity, ok
}
