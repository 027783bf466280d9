package handlers

import (
	"net/http"

	"github.com/akitada/filedepot/internal/handlers/middleware"
	"github.com/akitada/filedepot/internal/logger"
	"github.com/akitada/filedepot/internal/models"
)

// chain applies middlewares in the given order: m1(m2(...(h)))
func chain(h http.Handler, mds ...func(next http.Handler) http.Handler) http.Handler {
	for i := len(mds) - 1; i >= 0; i-- {
		h = mds[i](h)
	}
	return h
}

// NewRouter wires every endpoint. Retrieval endpoints sit behind the
// READ pipeline, mutating ones behind WRITE; issuance, revocation and
// registration are reachable without a token.
func NewRouter(
	auth authService,
	users userService,
	files fileService,
	l logger.Logger,
) http.Handler {
	authHandler := NewAuth(auth, users, l)
	userHandler := NewUser(users, l)
	fileHandler := NewFile(files, l)

	withRead := middleware.RequireScope(auth, models.ScopeRead)
	withWrite := middleware.RequireScope(auth, models.ScopeWrite)

	mux := http.NewServeMux()

	mux.Handle("POST /user", http.HandlerFunc(userHandler.register))
	mux.Handle("POST /signin", http.HandlerFunc(authHandler.signin))
	mux.Handle("POST /signout", http.HandlerFunc(authHandler.signout))

	mux.Handle("GET /files", withRead(http.HandlerFunc(fileHandler.list)))
	mux.Handle("GET /files/{id}", withRead(http.HandlerFunc(fileHandler.show)))
	mux.Handle("POST /files", withWrite(http.HandlerFunc(fileHandler.create)))
	mux.Handle("PATCH /files/{id}", withWrite(http.HandlerFunc(fileHandler.update)))
	mux.Handle("PUT /files/{id}", withWrite(http.HandlerFunc(fileHandler.update)))
	mux.Handle("DELETE /files/{id}", withWrite(http.HandlerFunc(fileHandler.delete)))

	return chain(mux,
		middleware.LoggerMiddleware(l),
	)
}
