package fleet

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssetExists(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/cars/car-1":
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(`{"success":true}`))
		case "/api/cars/broken":
			w.WriteHeader(http.StatusBadGateway)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client := NewClient(srv.URL+"/", time.Second)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		ok, err := client.AssetExists(ctx, "car-1")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("not found", func(t *testing.T) {
		ok, err := client.AssetExists(ctx, "car-2")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("upstream failure", func(t *testing.T) {
		ok, err := client.AssetExists(ctx, "broken")
		require.Error(t, err)
		assert.False(t, ok)
	})
}

func TestAssetExistsTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 20*time.Millisecond)
	_, err := client.AssetExists(context.Background(), "car-1")
	assert.Error(t, err)
}
