package tokenctx

import (
	"context"

	"github.com/akitada/filedepot/internal/models"
)

type ctxKey string

const tokenKey ctxKey = "accesstoken"

// New returns a context carrying the authenticated token. The token's
// UserID is the request's principal.
func New(ctx context.Context, t models.AccessToken) context.Context {
	return context.WithValue(ctx, tokenKey, t)
}

// FromContext extracts the authenticated token from the context
func FromContext(ctx context.Context) (models.AccessToken, bool) {
	t, ok := ctx.Value(tokenKey).(models.AccessToken)
	return t, ok
}
