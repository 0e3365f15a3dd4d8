package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"

	"github.com/hashicorp/go-hclog"
	weaver "github.com/puregrain/weavertools"
	"github.com/puregrain/weavertools/weather"
	"gopkg.in/yaml.v3"
)

// fakeOpenMeteo stands in for both Open-Meteo endpoints.
func fakeOpenMeteo(t *testing.T) (geocodeURL, forecastURL string) {
	t.Helper()

	geocode := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("name") == "Atlantis" {
			fmt.Fprint(w, `{"results":[]}`)
			return
		}
		fmt.Fprint(w, `{"results":[{"name":"Louisville","latitude":38.25,"longitude":-85.76,"timezone":"America/New_York"}]}`)
	}))
	t.Cleanup(geocode.Close)

	forecast := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("current") != "" {
			fmt.Fprint(w, `{
				"timezone_abbreviation":"EST",
				"current":{
					"time":"2024-01-15T14:30","temperature_2m":41.4,
					"relative_humidity_2m":65,"apparent_temperature":37.8,
					"precipitation":0,"rain":0,"showers":0,"snowfall":0,
					"weather_code":2,"cloud_cover":40,"pressure_msl":1015,
					"wind_speed_10m":10,"wind_gusts_10m":18
				}
			}`)
			return
		}
		fmt.Fprint(w, `{
			"daily":{
				"time":["2024-01-15","2024-01-16"],
				"weather_code":[2,61],
				"temperature_2m_max":[45,40],"temperature_2m_min":[30,28],
				"sunrise":["2024-01-15T07:55","2024-01-16T07:55"],
				"sunset":["2024-01-15T17:40","2024-01-16T17:41"],
				"uv_index_max":[2.0,1.5],
				"precipitation_sum":[0,0.4],
				"precipitation_probability_max":[10,70],
				"wind_speed_10m_max":[12,18],"wind_gusts_10m_max":[20,30]
			}
		}`)
	}))
	t.Cleanup(forecast.Close)

	return geocode.URL, forecast.URL
}

func testTool(t *testing.T) *weatherTool {
	t.Helper()
	geocodeURL, forecastURL := fakeOpenMeteo(t)

	tool := &weatherTool{client: weather.NewClient(hclog.NewNullLogger())}
	tool.client.SetEndpoints(geocodeURL, forecastURL)
	return tool
}

func callTool(t *testing.T, tool *weatherTool, args string) *weaver.Result {
	t.Helper()
	out, err := tool.Call(context.Background(), args)
	if err != nil {
		t.Fatalf("Call(%s) error = %v", args, err)
	}
	result, err := weaver.FromJSON(out)
	if err != nil {
		t.Fatalf("Call(%s) returned a non-envelope: %v", args, err)
	}
	return result
}

func TestCurrentWeatherDefaultsToLouisvilleFahrenheit(t *testing.T) {
	tool := testTool(t)

	// No city, no valves: falls back to Louisville with imperial units.
	result := callTool(t, tool, `{"operation":"get_current_weather"}`)
	if result.IsError() {
		t.Fatalf("unexpected error: %s", result.Error)
	}

	report := result.Data.(string)
	if !strings.Contains(report, "Louisville") {
		t.Errorf("report should name the default city:\n%s", report)
	}
	if !regexp.MustCompile(`\d+°F`).MatchString(report) {
		t.Errorf("default-unit report lacks a °F temperature:\n%s", report)
	}
}

func TestForecastOperation(t *testing.T) {
	tool := testTool(t)

	result := callTool(t, tool, `{"operation":"get_weather_forecast","city":"Louisville","days":2}`)
	if result.IsError() {
		t.Fatalf("unexpected error: %s", result.Error)
	}

	report := result.Data.(string)
	if !strings.Contains(report, "2-Day Weather Forecast for Louisville") {
		t.Errorf("unexpected forecast header:\n%s", report)
	}
	if !strings.Contains(report, "**Today**") || !strings.Contains(report, "**Tomorrow**") {
		t.Errorf("forecast missing day headings:\n%s", report)
	}
}

func TestCityNotFoundEnvelope(t *testing.T) {
	tool := testTool(t)

	result := callTool(t, tool, `{"operation":"get_current_weather","city":"Atlantis"}`)
	if !result.IsError() {
		t.Fatal("unknown city should yield an error envelope")
	}
	if !strings.Contains(result.Error, "not found") {
		t.Errorf("Error = %q, want a not-found message", result.Error)
	}
}

func TestUnreachableAPIEnvelope(t *testing.T) {
	tool := &weatherTool{client: weather.NewClient(hclog.NewNullLogger())}
	tool.client.SetEndpoints("http://127.0.0.1:1/v1/search", "http://127.0.0.1:1/v1/forecast")

	result := callTool(t, tool, `{"operation":"get_current_weather","city":"Louisville"}`)
	if !result.IsError() {
		t.Fatal("unreachable API should yield an error envelope, not a Go error")
	}
}

func TestUnitChain(t *testing.T) {
	tool := testTool(t)
	tool.SetHostContext(weaver.HostContext{DataDir: t.TempDir()})

	valves := tool.Valves()
	if err := valves.Set("unit_system", "imperial"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := valves.Set("user_unit_system", "metric"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	// Explicit argument beats both valves.
	if got := tool.units("imperial"); got.TempSymbol != "°F" {
		t.Errorf("explicit units ignored: %+v", got)
	}
	// User valve beats the admin valve.
	if got := tool.units(""); got.TempSymbol != "°C" {
		t.Errorf("user valve should win: %+v", got)
	}
}

func TestLocationChain(t *testing.T) {
	tool := testTool(t)
	tool.SetHostContext(weaver.HostContext{DataDir: t.TempDir()})

	if got := tool.city("Berlin"); got != "Berlin" {
		t.Errorf("explicit city ignored: %q", got)
	}
	if got := tool.city(""); got != "Louisville" {
		t.Errorf("default city = %q, want Louisville", got)
	}

	if err := tool.Valves().Set("default_location", "Chicago"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if got := tool.city(""); got != "Chicago" {
		t.Errorf("admin valve ignored: %q", got)
	}

	if err := tool.Valves().Set("user_location", "Tokyo"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if got := tool.city(""); got != "Tokyo" {
		t.Errorf("user valve should win: %q", got)
	}
}

func TestUnknownOperation(t *testing.T) {
	tool := testTool(t)
	result := callTool(t, tool, `{"operation":"make_it_rain"}`)
	if !result.IsError() || !strings.Contains(result.Error, "unknown operation") {
		t.Errorf("unexpected result: %+v", result)
	}
}

func TestEmbeddedToolDefinition(t *testing.T) {
	var config weaver.PluginConfig
	if err := yaml.Unmarshal([]byte(configYAML), &config); err != nil {
		t.Fatalf("embedded plugin.yaml does not parse: %v", err)
	}
	if err := weaver.ValidateYAMLToolDefinition(config.Tool); err != nil {
		t.Fatalf("tool definition invalid: %v", err)
	}

	tool, err := config.Tool.ToToolDefinition()
	if err != nil {
		t.Fatalf("ToToolDefinition() error = %v", err)
	}

	properties := tool.Parameters["properties"].(map[string]interface{})
	operation := properties["operation"].(map[string]interface{})
	for _, op := range operation["enum"].([]string) {
		if _, ok := handlers[op]; !ok {
			t.Errorf("operation %q has no handler", op)
		}
	}
	if _, ok := properties["days"]; !ok {
		t.Error("days parameter missing from the flattened schema")
	}
}
