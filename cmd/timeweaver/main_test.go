package main

import (
	"context"
	"strings"
	"testing"

	weaver "github.com/puregrain/weavertools"
	"gopkg.in/yaml.v3"
)

func callTool(t *testing.T, tool *timeTool, args string) *weaver.Result {
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

func TestCallOperations(t *testing.T) {
	tool := &timeTool{}

	tests := []struct {
		operation string
		want      string
	}{
		{"current_date", "Today's date is "},
		{"current_time", "Current Time: "},
		{"current_datetime", " at "},
	}

	for _, tt := range tests {
		t.Run(tt.operation, func(t *testing.T) {
			result := callTool(t, tool, `{"operation":"`+tt.operation+`","timezone":"UTC"}`)
			if result.IsError() {
				t.Fatalf("unexpected error result: %s", result.Error)
			}
			text, ok := result.Data.(string)
			if !ok || !strings.Contains(text, tt.want) {
				t.Errorf("Data = %v, want text containing %q", result.Data, tt.want)
			}
			if !strings.Contains(text, "UTC") {
				t.Errorf("Data = %v, want the timezone name", result.Data)
			}
		})
	}
}

func TestCallUnknownOperation(t *testing.T) {
	tool := &timeTool{}
	result := callTool(t, tool, `{"operation":"stop_time"}`)
	if !result.IsError() {
		t.Fatal("unknown operation should yield an error envelope")
	}
	if !strings.Contains(result.Error, "unknown operation") {
		t.Errorf("Error = %q, want 'unknown operation'", result.Error)
	}
}

func TestCallInvalidTimezone(t *testing.T) {
	tool := &timeTool{}
	result := callTool(t, tool, `{"operation":"current_time","timezone":"Mars/Olympus_Mons"}`)
	if !result.IsError() {
		t.Fatal("invalid timezone should yield an error envelope")
	}
	if !strings.Contains(result.Error, "invalid timezone") {
		t.Errorf("Error = %q, want 'invalid timezone'", result.Error)
	}
}

func TestCallMalformedArguments(t *testing.T) {
	tool := &timeTool{}
	if _, err := tool.Call(context.Background(), "{not json"); err == nil {
		t.Error("malformed arguments should surface as a Go error")
	}
}

func TestTimezonePrecedence(t *testing.T) {
	// All three tiers set: the explicit argument must win, and with no
	// argument the user valve must beat the admin default.
	tool := &timeTool{}
	tool.SetHostContext(weaver.HostContext{DataDir: t.TempDir()})

	valves := tool.Valves()
	if valves == nil {
		t.Fatal("Valves() = nil after SetHostContext")
	}
	if err := valves.Set("default_timezone", "America/New_York"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := valves.Set("user_timezone", "Asia/Tokyo"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	explicit := callTool(t, tool, `{"operation":"current_time","timezone":"Europe/London"}`)
	text := explicit.Data.(string)
	if !strings.Contains(text, "GMT") && !strings.Contains(text, "BST") {
		t.Errorf("explicit timezone ignored: %q", text)
	}

	fromValves := callTool(t, tool, `{"operation":"current_time"}`)
	text = fromValves.Data.(string)
	if !strings.Contains(text, "JST") {
		t.Errorf("user valve should win over admin default: %q", text)
	}
}

func TestEmbeddedToolDefinition(t *testing.T) {
	var config weaver.PluginConfig
	if err := yaml.Unmarshal([]byte(configYAML), &config); err != nil {
		t.Fatalf("embedded plugin.yaml does not parse: %v", err)
	}
	if config.Name != "timeweaver" {
		t.Errorf("Name = %q, want timeweaver", config.Name)
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
	enum := operation["enum"].([]string)
	if len(enum) != 3 {
		t.Errorf("operation enum = %v, want the three clock operations", enum)
	}

	// Every advertised operation has a handler.
	for _, op := range enum {
		if _, ok := handlers[op]; !ok {
			t.Errorf("operation %q has no handler", op)
		}
	}
}
