package weather

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"github.com/hashicorp/go-hclog"
)

func testClient(t *testing.T, geocode, forecast http.HandlerFunc) *Client {
	t.Helper()

	geocodeServer := httptest.NewServer(geocode)
	t.Cleanup(geocodeServer.Close)
	forecastServer := httptest.NewServer(forecast)
	t.Cleanup(forecastServer.Close)

	c := NewClient(hclog.NewNullLogger())
	c.geocodeURL = geocodeServer.URL
	c.forecastURL = forecastServer.URL
	return c
}

func louisvilleGeocode(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Get("name") != "Louisville" {
		fmt.Fprint(w, `{"results":[]}`)
		return
	}
	fmt.Fprint(w, `{"results":[
		{"name":"Louisville","latitude":38.25,"longitude":-85.76,"timezone":"America/New_York"}
	]}`)
}

func TestGeocode(t *testing.T) {
	c := testClient(t, louisvilleGeocode, func(w http.ResponseWriter, r *http.Request) {})

	loc, err := c.Geocode(context.Background(), "Louisville")
	if err != nil {
		t.Fatalf("Geocode() error = %v", err)
	}
	if loc.Name != "Louisville" || loc.Timezone != "America/New_York" {
		t.Errorf("unexpected location: %+v", loc)
	}
	if loc.Latitude != 38.25 {
		t.Errorf("Latitude = %v, want 38.25", loc.Latitude)
	}
}

func TestGeocodeCityNotFound(t *testing.T) {
	c := testClient(t, louisvilleGeocode, func(w http.ResponseWriter, r *http.Request) {})

	_, err := c.Geocode(context.Background(), "Atlantis")
	if err == nil {
		t.Fatal("Geocode(unknown city) should fail")
	}
	if !errors.Is(err, ErrCityNotFound) {
		t.Errorf("error = %v, want ErrCityNotFound", err)
	}
}

func TestUnitsFor(t *testing.T) {
	tests := []struct {
		system     string
		tempSymbol string
		tempUnit   string
	}{
		{"imperial", "°F", "fahrenheit"},
		{"metric", "°C", "celsius"},
		{"", "°F", "fahrenheit"},
		{"nonsense", "°F", "fahrenheit"},
	}

	for _, tt := range tests {
		t.Run("system "+tt.system, func(t *testing.T) {
			units := UnitsFor(tt.system)
			if units.TempSymbol != tt.tempSymbol {
				t.Errorf("TempSymbol = %q, want %q", units.TempSymbol, tt.tempSymbol)
			}
			if units.TemperatureUnit != tt.tempUnit {
				t.Errorf("TemperatureUnit = %q, want %q", units.TemperatureUnit, tt.tempUnit)
			}
		})
	}
}

func TestCurrentWeatherReport(t *testing.T) {
	forecast := func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("temperature_unit") != "fahrenheit" {
			t.Errorf("temperature_unit = %q, want fahrenheit", q.Get("temperature_unit"))
		}
		if q.Get("timezone") != "America/New_York" {
			t.Errorf("timezone = %q, want America/New_York", q.Get("timezone"))
		}
		fmt.Fprint(w, `{
			"timezone_abbreviation":"EST",
			"current":{
				"time":"2024-01-15T14:30",
				"temperature_2m":41.4,
				"relative_humidity_2m":65,
				"apparent_temperature":37.8,
				"precipitation":0.12,
				"rain":0.12,
				"showers":0,
				"snowfall":0,
				"weather_code":61,
				"cloud_cover":90,
				"pressure_msl":1013.25,
				"wind_speed_10m":12.3,
				"wind_gusts_10m":20.1
			}
		}`)
	}

	c := testClient(t, louisvilleGeocode, forecast)
	report, err := c.Current(context.Background(), "Louisville", UnitsFor("imperial"))
	if err != nil {
		t.Fatalf("Current() error = %v", err)
	}

	// The report carries a whole-number Fahrenheit temperature.
	if !regexp.MustCompile(`\d+°F`).MatchString(report) {
		t.Errorf("report lacks a °F temperature:\n%s", report)
	}

	wantLines := []string{
		"Current weather for Louisville as of 02:30 PM EST:",
		"**Conditions:** Slight rain",
		"**Temperature:** 41°F (Feels like 38°F)",
		"**Humidity:** 65%",
		"**Cloud Cover:** 90%",
		"**Pressure:** 1013.2 hPa",
		"**Wind:** 12 mph, gusts to 20 mph",
		"**Precipitation:**",
		"• Rain: 0.12 in",
	}
	for _, line := range wantLines {
		if !strings.Contains(report, line) {
			t.Errorf("report missing %q:\n%s", line, report)
		}
	}
}

func TestCurrentWeatherNoPrecipitation(t *testing.T) {
	forecast := func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"timezone_abbreviation":"EST",
			"current":{
				"time":"2024-06-01T09:00",
				"temperature_2m":72,
				"relative_humidity_2m":40,
				"apparent_temperature":71,
				"precipitation":0,"rain":0,"showers":0,"snowfall":0,
				"weather_code":0,
				"cloud_cover":5,
				"pressure_msl":1020,
				"wind_speed_10m":5,
				"wind_gusts_10m":8
			}
		}`)
	}

	c := testClient(t, louisvilleGeocode, forecast)
	report, err := c.Current(context.Background(), "Louisville", UnitsFor("imperial"))
	if err != nil {
		t.Fatalf("Current() error = %v", err)
	}

	if strings.Contains(report, "Precipitation") {
		t.Errorf("dry report should omit the precipitation block:\n%s", report)
	}
	if !strings.Contains(report, "**Conditions:** Clear sky") {
		t.Errorf("report missing clear sky condition:\n%s", report)
	}
}

func TestCurrentWeatherMetricUnits(t *testing.T) {
	forecast := func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("wind_speed_unit"); got != "kmh" {
			t.Errorf("wind_speed_unit = %q, want kmh", got)
		}
		fmt.Fprint(w, `{
			"timezone_abbreviation":"CET",
			"current":{
				"time":"2024-01-15T14:30",
				"temperature_2m":5.2,
				"relative_humidity_2m":70,
				"apparent_temperature":2.4,
				"precipitation":0,"rain":0,"showers":0,"snowfall":0,
				"weather_code":3,
				"cloud_cover":100,
				"pressure_msl":1008,
				"wind_speed_10m":15,
				"wind_gusts_10m":30
			}
		}`)
	}

	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"results":[{"name":"Berlin","latitude":52.52,"longitude":13.4,"timezone":"Europe/Berlin"}]}`)
	}, forecast)

	report, err := c.Current(context.Background(), "Berlin", UnitsFor("metric"))
	if err != nil {
		t.Fatalf("Current() error = %v", err)
	}
	if !strings.Contains(report, "5°C") {
		t.Errorf("metric report lacks °C temperature:\n%s", report)
	}
	if !strings.Contains(report, "15 km/h") {
		t.Errorf("metric report lacks km/h wind:\n%s", report)
	}
}

func forecastDaily(w http.ResponseWriter, r *http.Request) {
	fmt.Fprint(w, `{
		"daily":{
			"time":["2024-01-15","2024-01-16","2024-01-17"],
			"weather_code":[61,71,0],
			"temperature_2m_max":[45.2,33.1,40.0],
			"temperature_2m_min":[38.1,25.4,30.2],
			"sunrise":["2024-01-15T07:55","2024-01-16T07:55","2024-01-17T07:54"],
			"sunset":["2024-01-15T17:40","2024-01-16T17:41","2024-01-17T17:42"],
			"uv_index_max":[2.5,3.0,4.1],
			"precipitation_sum":[0.35,1.2,0],
			"precipitation_probability_max":[80,60,5],
			"wind_speed_10m_max":[15.2,20.8,8.1],
			"wind_gusts_10m_max":[25.3,35.1,12.4]
		}
	}`)
}

func TestForecastReport(t *testing.T) {
	c := testClient(t, louisvilleGeocode, forecastDaily)

	report, err := c.Forecast(context.Background(), "Louisville", 3, UnitsFor("imperial"))
	if err != nil {
		t.Fatalf("Forecast() error = %v", err)
	}

	wantLines := []string{
		"**3-Day Weather Forecast for Louisville**",
		"**Today** (Mon, Jan 15)",
		"**Tomorrow** (Tue, Jan 16)",
		"**Wednesday, Jan 17**",
		"• Slight rain",
		"• High: 45°F / Low: 38°F",
		"• Sunrise: 07:55 AM / Sunset: 05:40 PM",
		"• UV Index: 2.5",
		"• Precipitation: 80% chance (0.35 in expected)",
		"• Wind: Max 15 mph, gusts to 25 mph",
		"• Precipitation: 5% chance\n",
	}
	for _, line := range wantLines {
		if !strings.Contains(report, line) {
			t.Errorf("report missing %q:\n%s", line, report)
		}
	}

	// Dry day carries no expected-amount suffix.
	if strings.Contains(report, "5% chance (") {
		t.Errorf("dry day should omit the expected amount:\n%s", report)
	}
}

func TestForecastDayClamping(t *testing.T) {
	var gotDays string
	c := testClient(t, louisvilleGeocode, func(w http.ResponseWriter, r *http.Request) {
		gotDays = r.URL.Query().Get("forecast_days")
		forecastDaily(w, r)
	})

	tests := []struct {
		days int
		want string
	}{
		{0, "1"},
		{-5, "1"},
		{7, "7"},
		{16, "16"},
		{99, "16"},
	}

	for _, tt := range tests {
		if _, err := c.Forecast(context.Background(), "Louisville", tt.days, UnitsFor("imperial")); err != nil {
			t.Fatalf("Forecast(%d) error = %v", tt.days, err)
		}
		if gotDays != tt.want {
			t.Errorf("Forecast(%d) requested forecast_days = %q, want %q", tt.days, gotDays, tt.want)
		}
	}
}

func TestAPIErrorReason(t *testing.T) {
	c := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":true,"reason":"Latitude must be in range"}`)
	}, func(w http.ResponseWriter, r *http.Request) {})

	_, err := c.Geocode(context.Background(), "Louisville")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "Latitude must be in range") {
		t.Errorf("error = %q, want the API reason", err.Error())
	}
}

func TestUnreachableAPI(t *testing.T) {
	c := NewClient(hclog.NewNullLogger())
	c.geocodeURL = "http://127.0.0.1:1/v1/search"

	if _, err := c.Geocode(context.Background(), "Louisville"); err == nil {
		t.Error("Geocode() against an unreachable host should fail")
	}
}

func TestConditionText(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{0, "Clear sky"},
		{61, "Slight rain"},
		{99, "Thunderstorm with heavy hail"},
		{42, "Unknown"},
		{-1, "Unknown"},
	}

	for _, tt := range tests {
		if got := ConditionText(tt.code); got != tt.want {
			t.Errorf("ConditionText(%d) = %q, want %q", tt.code, got, tt.want)
		}
	}
}
