package location

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/placepulse/fencewatch/internal/model"
)

func TestStatic_AlwaysSameCoordinate(t *testing.T) {
	coord := model.Coordinate{Latitude: -6.2088, Longitude: 106.8456}
	p := Static{Coord: coord}

	got, err := p.Current(context.Background())
	require.NoError(t, err)
	assert.Equal(t, coord, got)
}

func TestHTTPProvider_DecodesCoordinate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"latitude": -6.2088, "longitude": 106.8456}`)) //nolint:errcheck
	}))
	defer srv.Close()

	p := NewHTTPProvider(srv.URL)
	got, err := p.Current(context.Background())
	require.NoError(t, err)
	assert.InDelta(t, -6.2088, got.Latitude, 1e-9)
	assert.InDelta(t, 106.8456, got.Longitude, 1e-9)
}

func TestHTTPProvider_NonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	p := NewHTTPProvider(srv.URL)
	_, err := p.Current(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestHTTPProvider_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not json`)) //nolint:errcheck
	}))
	defer srv.Close()

	p := NewHTTPProvider(srv.URL)
	_, err := p.Current(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode")
}
