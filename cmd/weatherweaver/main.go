package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hashicorp/go-hclog"
	weaver "github.com/puregrain/weavertools"
	"github.com/puregrain/weavertools/weather"
)

//go:embed plugin.yaml
var configYAML string

type weatherTool struct {
	weaver.BasePlugin

	client *weather.Client
}

type params struct {
	Operation string `json:"operation"`
	City      string `json:"city,omitempty"`
	Units     string `json:"units,omitempty"`
	Days      int    `json:"days,omitempty"`
}

type handlerFunc func(ctx context.Context, t *weatherTool, p params) *weaver.Result

var handlers = map[string]handlerFunc{
	"get_current_weather":  handleCurrentWeather,
	"get_weather_forecast": handleForecast,
}

func (t *weatherTool) Call(ctx context.Context, args string) (string, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(args), &raw); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}

	if err := t.ValidateCallParams(raw); err != nil {
		return weaver.ErrorResult(err.Error()).ToJSON()
	}

	var p params
	if err := json.Unmarshal([]byte(args), &p); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}

	handler, ok := handlers[p.Operation]
	if !ok {
		return weaver.Errorf("unknown operation: %s", p.Operation).ToJSON()
	}

	return handler(ctx, t, p).ToJSON()
}

func (t *weatherTool) api() *weather.Client {
	if t.client == nil {
		t.client = weather.NewClient(hclog.Default())
	}
	return t.client
}

// city applies the location override chain: explicit argument, then the
// user valve, then the admin default.
func (t *weatherTool) city(explicit string) string {
	return weaver.ResolveString(t.Valves(), explicit,
		[]string{"user_location", "default_location"}, "Louisville")
}

// units applies the same chain for the unit system.
func (t *weatherTool) units(explicit string) weather.Units {
	system := weaver.ResolveString(t.Valves(), explicit,
		[]string{"user_unit_system", "unit_system"}, "imperial")
	return weather.UnitsFor(system)
}

func handleCurrentWeather(ctx context.Context, t *weatherTool, p params) *weaver.Result {
	city := t.city(p.City)
	report, err := t.api().Current(ctx, city, t.units(p.Units))
	if err != nil {
		return weatherError(city, err)
	}
	return weaver.TextResult(report)
}

func handleForecast(ctx context.Context, t *weatherTool, p params) *weaver.Result {
	days := p.Days
	if days == 0 {
		days = 7
	}

	city := t.city(p.City)
	report, err := t.api().Forecast(ctx, city, days, t.units(p.Units))
	if err != nil {
		return weatherError(city, err)
	}
	return weaver.TextResult(report)
}

func weatherError(city string, err error) *weaver.Result {
	if errors.Is(err, weather.ErrCityNotFound) {
		return weaver.NotFoundResult(fmt.Sprintf("city %q", city))
	}
	return weaver.ErrorResult(err.Error())
}

func main() {
	weaver.ServePlugin(&weatherTool{}, configYAML)
}
