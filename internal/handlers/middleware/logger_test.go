package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type loggerFunc func(string, ...any)

func (f loggerFunc) Info(msg string, v ...any) { f(msg, v...) }

func Test_LoggerMiddleware(t *testing.T) {
	var logged []any
	calls := 0
	l := loggerFunc(func(_ string, v ...any) {
		calls++
		logged = v
	})

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, err := w.Write([]byte("nope"))
		require.NoError(t, err)
	})

	srv := httptest.NewServer(LoggerMiddleware(l)(h))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/files/missing")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	defer resp.Body.Close() // nolint:errcheck

	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Equal(t, "nope", string(body))

	require.Equal(t, 1, calls, "exactly one log line per request")

	// Flatten key/value pairs for easier assertions
	fields := map[string]any{}
	for i := 0; i+1 < len(logged); i += 2 {
		fields[logged[i].(string)] = logged[i+1]
	}
	assert.Equal(t, "GET", fields["method"])
	assert.Equal(t, "/files/missing", fields["uri"])
	assert.Equal(t, http.StatusNotFound, fields["status"])
	assert.Equal(t, len("nope"), fields["size"])
	assert.Contains(t, fields, "duration")
}
