package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"skysentry/internal/types"
)

func newTestProvider(t *testing.T, handler http.Handler) (*Provider, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p := NewProvider(ProviderConfig{
		HTTPClient: srv.Client(),
		BaseURL:    srv.URL,
		APIKey:     "test-key",
		UserAgent:  "skysentry-test",
		Retry:      RetryPolicy{MaxRetries: 2, MinWait: time.Millisecond, MaxWait: 2 * time.Millisecond},
	})
	p.base.sleepFn = func(time.Duration) {}
	return p, srv
}

func testLoc() types.Location {
	return types.Location{Lat: 60.1699, Lon: 24.9384, DisplayName: "Helsinki"}
}

func TestProviderCurrent(t *testing.T) {
	p, _ := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/data/2.5/weather" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("appid"); got != "test-key" {
			t.Errorf("missing api key, got %q", got)
		}
		if got := r.URL.Query().Get("units"); got != "metric" {
			t.Errorf("units = %q, want metric", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"main": {"temp": 18.4, "feels_like": 17.9, "humidity": 62},
			"wind": {"speed": 4.2},
			"rain": {"1h": 0.3},
			"weather": [{"main": "Rain"}],
			"dt": 1748860800
		}`))
	}))

	snap, err := p.Current(context.Background(), testLoc())
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if snap.Temperature != 18.4 || snap.Humidity != 62 {
		t.Errorf("got %+v", snap)
	}
	if snap.Category != types.CategoryRain {
		t.Errorf("category = %q, want rain (normalized)", snap.Category)
	}
	if snap.Precipitation != 0.3 {
		t.Errorf("precipitation = %v, want 0.3", snap.Precipitation)
	}
	if snap.CapturedAt.IsZero() {
		t.Error("captured_at not set")
	}
}

func TestProviderHourlyForecast(t *testing.T) {
	p, _ := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"list": [
				{"dt": 1748864400, "main": {"temp": 19}, "pop": 0.75, "weather": [{"main": "Clouds"}]},
				{"dt": 1748868000, "main": {"temp": 18}, "pop": 0.2, "weather": [{"main": "Rain"}], "rain": {"3h": 1.2}}
			]
		}`))
	}))

	hours, err := p.HourlyForecast(context.Background(), testLoc())
	if err != nil {
		t.Fatalf("hourly: %v", err)
	}
	if len(hours) != 2 {
		t.Fatalf("got %d entries, want 2", len(hours))
	}
	if hours[0].RainProbability != 75 {
		t.Errorf("pop 0.75 must become probability 75, got %v", hours[0].RainProbability)
	}
	if hours[1].Category != types.CategoryRain || hours[1].Precipitation != 1.2 {
		t.Errorf("entry 1: %+v", hours[1])
	}
}

func TestProviderHourlyForecastEmptyIsNoData(t *testing.T) {
	p, _ := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"list": []}`))
	}))

	_, err := p.HourlyForecast(context.Background(), testLoc())
	if !types.IsNoData(err) {
		t.Errorf("expected no-data error, got %v", err)
	}
}

func TestProviderUVIndex(t *testing.T) {
	p, _ := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/data/2.5/uvi" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"value": 7.2}`))
	}))

	uv, err := p.UVIndex(context.Background(), testLoc())
	if err != nil {
		t.Fatalf("uv: %v", err)
	}
	if uv != 7.2 {
		t.Errorf("got %v, want 7.2", uv)
	}
}

func TestProviderAirQualityScaleMapping(t *testing.T) {
	cases := []struct {
		scale   int
		wantAQI int
	}{
		{1, 25}, {2, 75}, {3, 125}, {4, 175}, {5, 300},
	}
	for _, tc := range cases {
		scale := tc.scale
		p, _ := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"list": [{"main": {"aqi": ` + strconv.Itoa(scale) + `}, "components": {"pm2_5": 40.1, "o3": 12.0}}]}`))
		}))

		air, err := p.AirQuality(context.Background(), testLoc())
		if err != nil {
			t.Fatalf("scale %d: %v", scale, err)
		}
		if air.AQI != tc.wantAQI {
			t.Errorf("scale %d: got AQI %d, want %d", scale, air.AQI, tc.wantAQI)
		}
		if air.DominantPollutant != "pm2_5" {
			t.Errorf("scale %d: dominant = %q, want pm2_5", scale, air.DominantPollutant)
		}
	}
}

func TestProviderAirQualityUnknownScale(t *testing.T) {
	p, _ := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"list": [{"main": {"aqi": 9}, "components": {}}]}`))
	}))

	_, err := p.AirQuality(context.Background(), testLoc())
	if !types.IsNoData(err) {
		t.Errorf("expected no-data error, got %v", err)
	}
}

func TestProvider404MapsToNoData(t *testing.T) {
	p, _ := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := p.Current(context.Background(), testLoc())
	if !types.IsNoData(err) {
		t.Errorf("expected no-data error, got %v", err)
	}
}

func TestProviderRetriesTransientThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	p, _ := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"value": 3.0}`))
	}))

	uv, err := p.UVIndex(context.Background(), testLoc())
	if err != nil {
		t.Fatalf("uv after retry: %v", err)
	}
	if uv != 3.0 {
		t.Errorf("got %v, want 3.0", uv)
	}
	if calls.Load() != 2 {
		t.Errorf("got %d calls, want 2", calls.Load())
	}
}

func TestProviderExhaustedRetriesIsTransient(t *testing.T) {
	p, _ := newTestProvider(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	_, err := p.UVIndex(context.Background(), testLoc())
	if !types.IsTransient(err) {
		t.Errorf("expected transient error, got %v", err)
	}
}
