package geography

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	apperrors "github.com/ecoleta/ecoleta-web/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestClient_ListStates_SortedByCode(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/estados", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":35,"sigla":"SP"},{"id":12,"sigla":"AC"},{"id":33,"sigla":"RJ"}]`))
	})

	client := NewClient(srv.URL, srv.Client())
	states, err := client.ListStates(context.Background())

	require.NoError(t, err)
	require.Len(t, states, 3)
	assert.Equal(t, "AC", states[0].Code)
	assert.Equal(t, "RJ", states[1].Code)
	assert.Equal(t, "SP", states[2].Code)
}

func TestClient_ListCities_ScopedToState(t *testing.T) {
	var calls int32
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "/estados/SP/municipios", r.URL.Path)
		// IBGE answers without a JSON content type on some mirrors
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte(`[{"nome":"Santos"},{"nome":"São Paulo"}]`))
	})

	client := NewClient(srv.URL, srv.Client())
	cities, err := client.ListCities(context.Background(), "SP")

	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	require.Len(t, cities, 2)
	assert.Equal(t, "Santos", cities[0].Name)
	assert.Equal(t, "São Paulo", cities[1].Name)
}

func TestClient_ListCities_EmptyCode(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", nil)

	_, err := client.ListCities(context.Background(), "  ")
	assert.True(t, apperrors.Is(err, apperrors.ErrInvalidInput))
}

func TestClient_ServerError(t *testing.T) {
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	client := NewClient(srv.URL, srv.Client())

	states, err := client.ListStates(context.Background())
	require.Error(t, err)
	assert.Nil(t, states)
	assert.True(t, apperrors.Is(err, apperrors.ErrUpstream))
	assert.Contains(t, err.Error(), "status 500")

	cities, err := client.ListCities(context.Background(), "RJ")
	require.Error(t, err)
	assert.Nil(t, cities)
}
