package weather

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sandevgo/vitalbot/internal/config"
	"github.com/sandevgo/vitalbot/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

type owmServer struct {
	current   atomic.Int32
	pollution atomic.Int32

	currentStatus   int
	pollutionStatus int
}

func (s *owmServer) handler(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.URL.Query().Get("appid"))
		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Path {
		case "/data/2.5/weather":
			s.current.Add(1)
			assert.Equal(t, "metric", r.URL.Query().Get("units"))
			if s.currentStatus != 0 {
				w.WriteHeader(s.currentStatus)
				_, _ = w.Write([]byte(`{"cod":"err","message":"nope"}`))
				return
			}
			_, _ = w.Write([]byte(`{"coord":{"lat":51.5,"lon":-0.12},"weather":[{"main":"Clear","description":"Clear Sky"}],"main":{"temp":21.4}}`))
		case "/data/2.5/air_pollution":
			s.pollution.Add(1)
			assert.Equal(t, "51.5000", r.URL.Query().Get("lat"))
			if s.pollutionStatus != 0 {
				w.WriteHeader(s.pollutionStatus)
				return
			}
			_, _ = w.Write([]byte(`{"list":[{"main":{"aqi":4}}]}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})
}

func newProvider(t *testing.T, srv *httptest.Server, key string) *OpenWeather {
	t.Helper()
	o, err := NewOpenWeather(&config.WeatherConfig{APIKey: key, BaseURL: srv.URL + "/", CacheTTL: time.Minute})
	require.NoError(t, err)
	t.Cleanup(o.Close)
	return o
}

func TestOpenWeather_GetWeather(t *testing.T) {
	s := &owmServer{}
	srv := httptest.NewServer(s.handler(t))
	defer srv.Close()

	o := newProvider(t, srv, "secret")
	rec, err := o.GetWeather(context.Background(), "London")
	require.NoError(t, err)

	require.NotNil(t, rec.Temperature)
	assert.InDelta(t, 21.4, *rec.Temperature, 1e-9)
	assert.Equal(t, "clear sky", rec.Condition)
	assert.Equal(t, "poor", rec.AirQuality)

	again, err := o.GetWeather(context.Background(), " london ")
	require.NoError(t, err)
	assert.Equal(t, rec, again)
	assert.EqualValues(t, 1, s.current.Load())
	assert.EqualValues(t, 1, s.pollution.Load())
}

func TestOpenWeather_AirQualityOptional(t *testing.T) {
	s := &owmServer{pollutionStatus: http.StatusUnauthorized}
	srv := httptest.NewServer(s.handler(t))
	defer srv.Close()

	rec, err := newProvider(t, srv, "secret").GetWeather(context.Background(), "London")
	require.NoError(t, err)
	assert.Equal(t, "clear sky", rec.Condition)
	assert.Empty(t, rec.AirQuality)
}

func TestOpenWeather_Unavailable(t *testing.T) {
	t.Run("no api key", func(t *testing.T) {
		srv := httptest.NewServer((&owmServer{}).handler(t))
		defer srv.Close()

		_, err := newProvider(t, srv, "").GetWeather(context.Background(), "London")
		assert.ErrorIs(t, err, core.ErrSourceUnavailable)
	})

	t.Run("not found is not retried", func(t *testing.T) {
		s := &owmServer{currentStatus: http.StatusNotFound}
		srv := httptest.NewServer(s.handler(t))
		defer srv.Close()

		_, err := newProvider(t, srv, "secret").GetWeather(context.Background(), "Atlantis")
		assert.ErrorIs(t, err, core.ErrSourceUnavailable)
		assert.EqualValues(t, 1, s.current.Load())
	})

	t.Run("server errors are retried", func(t *testing.T) {
		s := &owmServer{currentStatus: http.StatusBadGateway}
		srv := httptest.NewServer(s.handler(t))
		defer srv.Close()

		_, err := newProvider(t, srv, "secret").GetWeather(context.Background(), "London")
		assert.ErrorIs(t, err, core.ErrSourceUnavailable)
		assert.EqualValues(t, 3, s.current.Load())
	})
}

func TestAirQualityLabel(t *testing.T) {
	assert.Equal(t, "good", AirQualityLabel(1))
	assert.Equal(t, "very poor", AirQualityLabel(5))
	assert.Equal(t, "", AirQualityLabel(9))
}

func TestActivityHint(t *testing.T) {
	tests := []struct {
		name string
		w    *core.WeatherRecord
		want string
	}{
		{name: "nil", w: nil, want: ""},
		{name: "poor air", w: &core.WeatherRecord{Temperature: ptr(20.0), AirQuality: "poor"}, want: "indoor activities recommended"},
		{name: "air quality only", w: &core.WeatherRecord{AirQuality: "very poor"}, want: "indoor activities recommended"},
		{name: "rain", w: &core.WeatherRecord{Temperature: ptr(15.0), Condition: "light rain"}, want: "indoor activities recommended"},
		{name: "hot", w: &core.WeatherRecord{Temperature: ptr(34.0), Condition: "clear sky"}, want: "stay hydrated and avoid midday heat"},
		{name: "freezing", w: &core.WeatherRecord{Temperature: ptr(-3.0), Condition: "clear sky"}, want: "dress warmly for outdoor activity"},
		{name: "fine", w: &core.WeatherRecord{Temperature: ptr(18.0), Condition: "few clouds", AirQuality: "good"}, want: "good conditions for outdoor activity"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ActivityHint(tt.w))
		})
	}
}

type stubWeather struct {
	rec *core.WeatherRecord
	err error
}

func (s stubWeather) GetWeather(ctx context.Context, location string) (*core.WeatherRecord, error) {
	return s.rec, s.err
}

func TestSignals(t *testing.T) {
	saturdayEvening := time.Date(2024, 6, 15, 19, 30, 0, 0, time.UTC)
	profile := &core.UserProfile{ID: "u1", Location: "London"}

	s := NewSignals(stubWeather{rec: &core.WeatherRecord{AirQuality: "poor"}}).
		WithClock(func() time.Time { return saturdayEvening }, time.UTC)

	got, err := s.Signals(context.Background(), profile)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		SignalTimeOfDay:    "evening",
		SignalWeekend:      true,
		SignalSeason:       "summer",
		SignalActivityHint: "indoor activities recommended",
	}, got)

	s = NewSignals(stubWeather{err: errors.New("down")}).
		WithClock(func() time.Time { return time.Date(2024, 1, 10, 7, 0, 0, 0, time.UTC) }, time.UTC)
	got, err = s.Signals(context.Background(), profile)
	require.NoError(t, err)
	assert.Equal(t, "morning", got[SignalTimeOfDay])
	assert.Equal(t, false, got[SignalWeekend])
	assert.Equal(t, "winter", got[SignalSeason])
	assert.NotContains(t, got, SignalActivityHint)
}

func TestTimeOfDayAndSeason(t *testing.T) {
	at := func(month time.Month, hour int) time.Time { return time.Date(2024, month, 1, hour, 0, 0, 0, time.UTC) }

	assert.Equal(t, "night", TimeOfDay(at(time.March, 3)))
	assert.Equal(t, "afternoon", TimeOfDay(at(time.March, 13)))
	assert.Equal(t, "night", TimeOfDay(at(time.March, 23)))
	assert.Equal(t, "spring", Season(at(time.April, 12)))
	assert.Equal(t, "autumn", Season(at(time.October, 12)))
}
