package weather

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/sandevgo/vitalbot/internal/config"
	"github.com/sandevgo/vitalbot/internal/core"
	"github.com/sandevgo/vitalbot/pkg/log"
	"github.com/sandevgo/vitalbot/pkg/retry"
)

const maxResponseSize = 1 << 20

var aqiLabels = map[int]string{
	1: "good",
	2: "fair",
	3: "moderate",
	4: "poor",
	5: "very poor",
}

// AirQualityLabel maps the OpenWeatherMap 1..5 index to a word.
func AirQualityLabel(aqi int) string {
	return aqiLabels[aqi]
}

type statusError struct {
	code int
	body string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("http %d: %s", e.code, e.body)
}

func retryable(err error) bool {
	var se *statusError
	if errors.As(err, &se) {
		return se.code == http.StatusTooManyRequests || se.code >= 500
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// OpenWeather reads current conditions and air quality from OpenWeatherMap.
// Results are cached per location.
type OpenWeather struct {
	client  *http.Client
	baseURL string
	apiKey  string
	ttl     time.Duration
	cache   *ristretto.Cache
	retrier *retry.Retrier
}

func NewOpenWeather(cfg *config.WeatherConfig) (*OpenWeather, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters:        1e4,
		MaxCost:            1 << 10,
		BufferItems:        64,
		IgnoreInternalCost: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create weather cache: %w", err)
	}

	rc := &retry.Config{
		MaxRetries:    2,
		BackoffFactor: 2,
		InitialDelay:  200 * time.Millisecond,
		MaxDelay:      time.Second,
		Jitter:        50 * time.Millisecond,
		Retryable:     retryable,
	}

	return &OpenWeather{
		client:  &http.Client{Timeout: 10 * time.Second},
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		ttl:     cfg.CacheTTL,
		cache:   cache,
		retrier: retry.NewRetrier(rc),
	}, nil
}

func (o *OpenWeather) Close() {
	o.cache.Close()
}

type currentResponse struct {
	Coord struct {
		Lat float64 `json:"lat"`
		Lon float64 `json:"lon"`
	} `json:"coord"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
	Main struct {
		Temp *float64 `json:"temp"`
	} `json:"main"`
}

type pollutionResponse struct {
	List []struct {
		Main struct {
			AQI int `json:"aqi"`
		} `json:"main"`
	} `json:"list"`
}

func (o *OpenWeather) GetWeather(ctx context.Context, location string) (*core.WeatherRecord, error) {
	location = strings.TrimSpace(location)
	if o.apiKey == "" {
		return nil, fmt.Errorf("openweather: no api key: %w", core.ErrSourceUnavailable)
	}
	if location == "" {
		return nil, fmt.Errorf("openweather: no location: %w", core.ErrSourceUnavailable)
	}

	key := strings.ToLower(location)
	if v, ok := o.cache.Get(key); ok {
		if rec, ok := v.(core.WeatherRecord); ok {
			return &rec, nil
		}
	}

	logger := log.FromCtx(ctx)

	var cur currentResponse
	q := url.Values{"q": {location}, "units": {"metric"}, "appid": {o.apiKey}}
	if err := o.get(ctx, "/data/2.5/weather", q, &cur); err != nil {
		return nil, fmt.Errorf("openweather current %s: %w: %w", location, core.ErrSourceUnavailable, err)
	}

	rec := core.WeatherRecord{Temperature: cur.Main.Temp}
	if len(cur.Weather) > 0 {
		rec.Condition = strings.ToLower(cur.Weather[0].Description)
		if rec.Condition == "" {
			rec.Condition = strings.ToLower(cur.Weather[0].Main)
		}
	}

	var pol pollutionResponse
	pq := url.Values{
		"lat":   {fmt.Sprintf("%.4f", cur.Coord.Lat)},
		"lon":   {fmt.Sprintf("%.4f", cur.Coord.Lon)},
		"appid": {o.apiKey},
	}
	if err := o.get(ctx, "/data/2.5/air_pollution", pq, &pol); err != nil {
		logger.Warn().Err(err).Str("location", location).Msg("air quality unavailable")
	} else if len(pol.List) > 0 {
		rec.AirQuality = AirQualityLabel(pol.List[0].Main.AQI)
	}

	if o.ttl > 0 {
		o.cache.SetWithTTL(key, rec, 1, o.ttl)
		o.cache.Wait()
	}
	return &rec, nil
}

func (o *OpenWeather) get(ctx context.Context, path string, q url.Values, out any) error {
	return o.retrier.Do(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.baseURL+path+"?"+q.Encode(), nil)
		if err != nil {
			return fmt.Errorf("create request: %w", err)
		}
		req.Header.Set("User-Agent", core.AppUserAgent)

		resp, err := o.client.Do(req)
		if err != nil {
			return fmt.Errorf("request: %w", err)
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
		if err != nil {
			return fmt.Errorf("read body: %w", err)
		}
		if resp.StatusCode != http.StatusOK {
			return &statusError{code: resp.StatusCode, body: strings.TrimSpace(string(body))}
		}
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("decode: %w", err)
		}
		return nil
	})
}
