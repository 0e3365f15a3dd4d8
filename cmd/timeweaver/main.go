package main

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"time"

	weaver "github.com/puregrain/weavertools"
	"github.com/puregrain/weavertools/clock"
)

//go:embed plugin.yaml
var configYAML string

type timeTool struct {
	weaver.BasePlugin
}

type params struct {
	Operation string `json:"operation"`
	Timezone  string `json:"timezone,omitempty"`
}

type handlerFunc func(ctx context.Context, t *timeTool, p params) *weaver.Result

var handlers = map[string]handlerFunc{
	"current_date":     handleCurrentDate,
	"current_time":     handleCurrentTime,
	"current_datetime": handleCurrentDateTime,
}

func (t *timeTool) Call(ctx context.Context, args string) (string, error) {
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

// location applies the timezone override chain: explicit argument, then
// the user valve, then the admin default.
func (t *timeTool) location(explicit string) (*time.Location, error) {
	userTZ := ""
	defaultTZ := "UTC"
	if valves := t.Valves(); valves != nil {
		if v, err := valves.GetString("user_timezone"); err == nil {
			userTZ = v
		}
		if v, err := valves.GetString("default_timezone"); err == nil && v != "" {
			defaultTZ = v
		}
	}
	return clock.Resolve(explicit, userTZ, defaultTZ)
}

func handleCurrentDate(_ context.Context, t *timeTool, p params) *weaver.Result {
	loc, err := t.location(p.Timezone)
	if err != nil {
		return weaver.ErrorResult(err.Error())
	}
	return weaver.TextResult(clock.CurrentDate(time.Now(), loc))
}

func handleCurrentTime(_ context.Context, t *timeTool, p params) *weaver.Result {
	loc, err := t.location(p.Timezone)
	if err != nil {
		return weaver.ErrorResult(err.Error())
	}
	return weaver.TextResult(clock.CurrentTime(time.Now(), loc))
}

func handleCurrentDateTime(_ context.Context, t *timeTool, p params) *weaver.Result {
	loc, err := t.location(p.Timezone)
	if err != nil {
		return weaver.ErrorResult(err.Error())
	}
	return weaver.TextResult(clock.CurrentDateTime(time.Now(), loc))
}

func main() {
	weaver.ServePlugin(&timeTool{}, configYAML)
}
