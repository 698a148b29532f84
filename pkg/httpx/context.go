package httpx

import "context"

type ctxKey string

const (
	CtxKeyIdentityID ctxKey = "identity_id"
	CtxKeyRole       ctxKey = "role"
)

// WithPrincipal stamps the authenticated identity onto the request context.
func WithPrincipal(ctx context.Context, identityID, role string) context.Context {
	ctx = context.WithValue(ctx, CtxKeyIdentityID, identityID)
	return context.WithValue(ctx, CtxKeyRole, role)
}

// IdentityIDFromCtx returns the authenticated identity id, or "".
func IdentityIDFromCtx(ctx context.Context) string {
	if v, ok := ctx.Value(CtxKeyIdentityID).(string); ok {
		return v
	}
	return ""
}

// RoleFromCtx returns the authenticated identity's role, or "".
func RoleFromCtx(ctx context.Context) string {
	if v, ok := ctx.Value(CtxKeyRole).(string); ok {
		return v
	}
	return ""
}
