package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"skysentry/internal/types"
)

// Provider is the OpenWeather-style REST implementation of
// types.WeatherProvider. Each call is independent: the orchestrator fans the
// four out concurrently under its own deadline.
type Provider struct {
	base    *BaseClient
	baseURL string
	apiKey  string
	clock   types.Clock
}

var _ types.WeatherProvider = (*Provider)(nil)

// ProviderConfig holds the settings for creating a Provider.
type ProviderConfig struct {
	HTTPClient *http.Client
	BaseURL    string // e.g. https://api.openweathermap.org
	APIKey     string
	UserAgent  string
	Retry      RetryPolicy
	Clock      types.Clock
}

// NewProvider creates a Provider with a shared circuit breaker across all
// four endpoints: they hit the same upstream, so one outage trips them all.
func NewProvider(cfg ProviderConfig) *Provider {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	clock := cfg.Clock
	if clock == nil {
		clock = types.RealClock{}
	}
	return &Provider{
		base:    NewBaseClient(httpClient, "weather-provider", cfg.Retry, cfg.UserAgent),
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		clock:   clock,
	}
}

// currentResponse mirrors the provider's current-conditions payload.
type currentResponse struct {
	Main struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Rain struct {
		OneHour float64 `json:"1h"`
	} `json:"rain"`
	Snow struct {
		OneHour float64 `json:"1h"`
	} `json:"snow"`
	Weather []struct {
		Main string `json:"main"`
	} `json:"weather"`
	Dt int64 `json:"dt"`
}

// Current fetches current conditions for the location.
func (p *Provider) Current(ctx context.Context, loc types.Location) (*types.WeatherSnapshot, error) {
	var resp currentResponse
	if err := p.get(ctx, "/data/2.5/weather", loc, nil, &resp); err != nil {
		return nil, err
	}

	snap := &types.WeatherSnapshot{
		Temperature:   resp.Main.Temp,
		FeelsLike:     resp.Main.FeelsLike,
		Humidity:      resp.Main.Humidity,
		WindSpeed:     resp.Wind.Speed,
		Precipitation: resp.Rain.OneHour + resp.Snow.OneHour,
		CapturedAt:    time.Unix(resp.Dt, 0).UTC(),
		Location:      loc,
	}
	if snap.CapturedAt.IsZero() || resp.Dt == 0 {
		snap.CapturedAt = p.clock.Now()
	}
	if len(resp.Weather) > 0 {
		snap.Category = types.NormalizeCategory(resp.Weather[0].Main)
	}
	return snap, nil
}

// forecastResponse mirrors the provider's hourly forecast payload.
type forecastResponse struct {
	List []struct {
		Dt   int64 `json:"dt"`
		Main struct {
			Temp      float64 `json:"temp"`
			FeelsLike float64 `json:"feels_like"`
			Humidity  int     `json:"humidity"`
		} `json:"main"`
		Wind struct {
			Speed float64 `json:"speed"`
		} `json:"wind"`
		Weather []struct {
			Main string `json:"main"`
		} `json:"weather"`
		Pop  float64 `json:"pop"` // precipitation probability, 0..1
		Rain struct {
			ThreeHour float64 `json:"3h"`
		} `json:"rain"`
	} `json:"list"`
}

// HourlyForecast fetches the short-range forecast series for the location.
func (p *Provider) HourlyForecast(ctx context.Context, loc types.Location) ([]types.WeatherSnapshot, error) {
	var resp forecastResponse
	if err := p.get(ctx, "/data/2.5/forecast", loc, nil, &resp); err != nil {
		return nil, err
	}

	hours := make([]types.WeatherSnapshot, 0, len(resp.List))
	for _, h := range resp.List {
		snap := types.WeatherSnapshot{
			Temperature:     h.Main.Temp,
			FeelsLike:       h.Main.FeelsLike,
			Humidity:        h.Main.Humidity,
			WindSpeed:       h.Wind.Speed,
			Precipitation:   h.Rain.ThreeHour,
			RainProbability: h.Pop * 100,
			CapturedAt:      time.Unix(h.Dt, 0).UTC(),
			Location:        loc,
		}
		if len(h.Weather) > 0 {
			snap.Category = types.NormalizeCategory(h.Weather[0].Main)
		}
		hours = append(hours, snap)
	}
	if len(hours) == 0 {
		return nil, types.NoDataError("empty forecast for location")
	}
	return hours, nil
}

// uvResponse mirrors the provider's UV index payload.
type uvResponse struct {
	Value float64 `json:"value"`
}

// UVIndex fetches the current UV index for the location.
func (p *Provider) UVIndex(ctx context.Context, loc types.Location) (float64, error) {
	var resp uvResponse
	if err := p.get(ctx, "/data/2.5/uvi", loc, nil, &resp); err != nil {
		return 0, err
	}
	return resp.Value, nil
}

// airResponse mirrors the provider's air-pollution payload. The provider
// reports a 1-5 qualitative scale plus raw component concentrations.
type airResponse struct {
	List []struct {
		Main struct {
			AQI int `json:"aqi"`
		} `json:"main"`
		Components map[string]float64 `json:"components"`
	} `json:"list"`
}

// aqiScale maps the provider's 1-5 qualitative scale onto the familiar
// 0-500-style index the rules and thresholds are expressed in. Values are the
// band midpoints of the qualitative categories.
var aqiScale = map[int]int{1: 25, 2: 75, 3: 125, 4: 175, 5: 300}

// AirQuality fetches the air-quality index and dominant pollutant.
func (p *Provider) AirQuality(ctx context.Context, loc types.Location) (types.AirQuality, error) {
	var resp airResponse
	if err := p.get(ctx, "/data/2.5/air_pollution", loc, nil, &resp); err != nil {
		return types.AirQuality{}, err
	}
	if len(resp.List) == 0 {
		return types.AirQuality{}, types.NoDataError("no air quality data for location")
	}

	entry := resp.List[0]
	aqi, ok := aqiScale[entry.Main.AQI]
	if !ok {
		return types.AirQuality{}, types.NoDataError(fmt.Sprintf("unrecognized air quality scale value %d", entry.Main.AQI))
	}

	return types.AirQuality{
		AQI:               aqi,
		DominantPollutant: dominantPollutant(entry.Components),
	}, nil
}

// dominantPollutant returns the component with the highest concentration.
// Concentrations share a unit in the provider payload, so a direct comparison
// is good enough for display purposes.
func dominantPollutant(components map[string]float64) string {
	var name string
	var peak float64
	for k, v := range components {
		if name == "" || v > peak {
			name = k
			peak = v
		}
	}
	return name
}

// get performs a GET against path with the location and API key applied,
// decoding a 200 into out. 404 maps to no-data; transport errors, 429 and 5xx
// map to transient.
func (p *Provider) get(ctx context.Context, path string, loc types.Location, extra url.Values, out any) error {
	q := url.Values{}
	q.Set("lat", fmt.Sprintf("%.4f", loc.Lat))
	q.Set("lon", fmt.Sprintf("%.4f", loc.Lon))
	q.Set("units", "metric")
	q.Set("appid", p.apiKey)
	for k, vs := range extra {
		for _, v := range vs {
			q.Add(k, v)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("weather provider: building request: %w", err)
	}

	resp, err := p.base.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return types.TransientProviderError("decoding provider response", err)
		}
		return nil
	case resp.StatusCode == http.StatusNotFound:
		return types.NoDataError(fmt.Sprintf("no data for %s", path))
	default:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return types.TransientProviderError(
			fmt.Sprintf("provider returned %d for %s: %s", resp.StatusCode, path, string(body)), nil)
	}
}
