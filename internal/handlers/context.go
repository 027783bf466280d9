package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/akitada/filedepot/internal/handlers/tokenctx"
	"github.com/akitada/filedepot/internal/models"
	"github.com/akitada/filedepot/internal/repository"
)

// mustToken returns the token the auth pipeline stored. Protected
// handlers are only reachable through middleware.RequireScope, so a
// missing token is a wiring bug, not a runtime condition.
func mustToken(ctx context.Context) models.AccessToken {
	token, ok := tokenctx.FromContext(ctx)
	if !ok {
		panic("handlers: no access token in context; handler mounted without RequireScope")
	}
	return token
}

const (
	defaultPage = 1
	defaultPer  = 20
)

// listOptions reads pagination and sorting params. Unparseable values
// fall back to defaults instead of failing the request.
func listOptions(r *http.Request) repository.ListItemsOptions {
	q := r.URL.Query()

	page, err := strconv.Atoi(q.Get("page"))
	if err != nil || page < 1 {
		page = defaultPage
	}

	per, err := strconv.Atoi(q.Get("per"))
	if err != nil || per < 1 {
		per = defaultPer
	}

	return repository.ListItemsOptions{
		Page:       page,
		Per:        per,
		OrderBy:    q.Get("orderby"),
		Descending: q.Get("order") == "desc",
	}
}
