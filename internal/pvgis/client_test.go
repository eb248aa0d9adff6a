package pvgis_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/solarview/solarview/internal/pvgis"
)

func params() pvgis.Params {
	return pvgis.Params{Lat: 40.4168, Lon: -3.7038, PeakPower: 1, Loss: 14}
}

func TestEstimate_ForwardsQueryAndRelaysBody(t *testing.T) {
	t.Parallel()

	var got url.Values
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		got = r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"outputs":{"totals":{"fixed":{"E_y":1523.4}}}}`))
	}))
	defer srv.Close()

	client := pvgis.NewClient(srv.URL, 5*time.Second)
	body, err := client.Estimate(context.Background(), params())
	require.NoError(t, err)

	assert.JSONEq(t, `{"outputs":{"totals":{"fixed":{"E_y":1523.4}}}}`, string(body))
	assert.Equal(t, "40.4168", got.Get("lat"))
	assert.Equal(t, "-3.7038", got.Get("lon"))
	assert.Equal(t, "1", got.Get("peakpower"))
	assert.Equal(t, "14", got.Get("loss"))
	assert.Equal(t, "json", got.Get("outputformat"))
	assert.Equal(t, "1", got.Get("optimalinclination"))
	assert.Equal(t, "1", got.Get("optimalazimuth"))
}

func TestEstimate_UpstreamStatus(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"location over the sea"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	_, err := pvgis.NewClient(srv.URL, 5*time.Second).Estimate(context.Background(), params())
	assert.ErrorIs(t, err, pvgis.ErrUpstream)
	assert.NotErrorIs(t, err, pvgis.ErrTimeout)
}

func TestEstimate_InvalidJSON(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>maintenance</html>"))
	}))
	defer srv.Close()

	_, err := pvgis.NewClient(srv.URL, 5*time.Second).Estimate(context.Background(), params())
	assert.ErrorIs(t, err, pvgis.ErrUpstream)
}

func TestEstimate_Timeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	_, err := pvgis.NewClient(srv.URL, 50*time.Millisecond).Estimate(context.Background(), params())
	assert.ErrorIs(t, err, pvgis.ErrTimeout)
}

func TestEstimate_Unreachable(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.NotFoundHandler())
	addr := srv.URL
	srv.Close()

	_, err := pvgis.NewClient(addr, time.Second).Estimate(context.Background(), params())
	assert.ErrorIs(t, err, pvgis.ErrUpstream)
}

func TestNewClient_DefaultURL(t *testing.T) {
	t.Parallel()

	assert.NotNil(t, pvgis.NewClient("", time.Second))
}
