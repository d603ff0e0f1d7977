package catalog_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xeptore/reactordj/catalog"
)

func serve(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestLoaderLoad(t *testing.T) {
	t.Parallel()

	t.Run("DropsNonPublicRecords", func(t *testing.T) {
		t.Parallel()

		srv := serve(t, http.StatusOK, `[
			{"id": "1", "title": "Open", "username": "ana", "audio": "https://cdn.example/1.mp3", "isPublicProject": true},
			{"id": "2", "title": "Private", "username": "bob", "audio": "https://cdn.example/2.mp3", "isPublicProject": false}
		]`)

		c, err := catalog.NewLoader(srv.URL, time.Second, zerolog.Nop()).Load(t.Context())
		require.NoError(t, err)
		require.Equal(t, 1, c.Len())
		assert.Equal(t, "Open", c.At(0).Title)
	})

	t.Run("NonSuccessStatusIsFetchError", func(t *testing.T) {
		t.Parallel()

		srv := serve(t, http.StatusServiceUnavailable, `{"error": "down"}`)

		_, err := catalog.NewLoader(srv.URL, time.Second, zerolog.Nop()).Load(t.Context())
		var fetchErr *catalog.FetchError
		require.ErrorAs(t, err, &fetchErr)
		assert.Equal(t, http.StatusServiceUnavailable, fetchErr.StatusCode)
		assert.Equal(t, srv.URL, fetchErr.URL)
	})

	t.Run("UnreachableIsFetchError", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.NotFoundHandler())
		url := srv.URL
		srv.Close()

		_, err := catalog.NewLoader(url, time.Second, zerolog.Nop()).Load(t.Context())
		var fetchErr *catalog.FetchError
		require.ErrorAs(t, err, &fetchErr)
		assert.Zero(t, fetchErr.StatusCode)
	})

	t.Run("TimeoutIsFetchError", func(t *testing.T) {
		t.Parallel()

		release := make(chan struct{})
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-release:
			case <-r.Context().Done():
			}
		}))
		t.Cleanup(srv.Close)
		t.Cleanup(func() { close(release) })

		_, err := catalog.NewLoader(srv.URL, 50*time.Millisecond, zerolog.Nop()).Load(t.Context())
		var fetchErr *catalog.FetchError
		require.ErrorAs(t, err, &fetchErr)
	})

	t.Run("MalformedPayloadIsDecodeError", func(t *testing.T) {
		t.Parallel()

		for name, body := range map[string]string{
			"Object":       `{"items": []}`,
			"Garbage":      `<html></html>`,
			"Empty":        ``,
			"MissingTitle": `[{"username": "a", "audio": "u", "isPublicProject": true}]`,
		} {
			t.Run(name, func(t *testing.T) {
				t.Parallel()

				srv := serve(t, http.StatusOK, body)
				_, err := catalog.NewLoader(srv.URL, time.Second, zerolog.Nop()).Load(t.Context())
				var decodeErr *catalog.DecodeError
				require.ErrorAs(t, err, &decodeErr)
				var fetchErr *catalog.FetchError
				assert.False(t, errors.As(err, &fetchErr))
			})
		}
	})

	t.Run("CanceledContextIsReturnedAsIs", func(t *testing.T) {
		t.Parallel()

		srv := serve(t, http.StatusOK, `[]`)
		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		_, err := catalog.NewLoader(srv.URL, time.Second, zerolog.Nop()).Load(ctx)
		require.ErrorIs(t, err, context.Canceled)
	})
}
