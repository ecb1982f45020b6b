package httpx

import (
	"context"

	"github.com/campusreach/directory/pkg/jwtx"
)

type ctxKey string

const (
	CtxKeyAdminID ctxKey = "admin_id"
	CtxKeyClaims  ctxKey = "claims"
)

// AdminIDFromContext returns the authenticated admin id, or "".
func AdminIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(CtxKeyAdminID).(string); ok {
		return v
	}
	return ""
}

// ClaimsFromContext returns the verified token claims, if any.
func ClaimsFromContext(ctx context.Context) (jwtx.Claims, bool) {
	c, ok := ctx.Value(CtxKeyClaims).(jwtx.Claims)
	return c, ok
}
