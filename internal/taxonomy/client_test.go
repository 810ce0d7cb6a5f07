package taxonomy

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "/options", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"brands": ["Bentley"],
			"models": {"Bentley": ["Batur"]},
			"years": {"Bentley": {"Batur": [2024]}},
			"attrs": {"Bentley": {"Batur": {
				"fuel_type": ["Gasoline"],
				"transmission": ["A"],
				"engine_type": ["W12"],
				"engine_displacement": [5950],
				"horsepower": [740],
				"torque": [1000]
			}}},
			"engine_displacement_map": {"Bentley": {"Batur": {"W12": [5950]}}}
		}`))
	}))
	defer srv.Close()

	client, err := NewClient(Config{BaseURL: srv.URL})
	require.NoError(t, err)

	snapshot, err := client.Fetch(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"Bentley"}, snapshot.Brands)
	assert.Equal(t, []string{"Batur"}, snapshot.ModelsFor("Bentley"))
	assert.Equal(t, []int{2024}, snapshot.YearsFor("Bentley", "Batur"))

	attrs, ok := snapshot.AttrsFor("Bentley", "Batur")
	require.True(t, ok)
	assert.Equal(t, []string{"W12"}, attrs.EngineTypes)
	assert.Equal(t, []int{5950}, snapshot.DisplacementsFor("Bentley", "Batur", "W12"))
}

func TestClientFetchNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	client, err := NewClient(Config{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = client.Fetch(context.Background())
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	_, err := NewClient(Config{})
	assert.Error(t, err)
}
