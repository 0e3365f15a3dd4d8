package weaver

import (
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// DisplayType defines how a result should be rendered by the host UI.
type DisplayType string

const (
	DisplayTypeText  DisplayType = "text"  // Plain text response
	DisplayTypeTable DisplayType = "table" // Tabular data
	DisplayTypeList  DisplayType = "list"  // Simple list
	DisplayTypeJSON  DisplayType = "json"  // Raw JSON viewer
)

// Result status values.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

// Result is the uniform response envelope for tool calls. It is a tagged
// success/failure value: Status distinguishes the variants, so callers
// never have to sniff the payload for an "error" key to know whether a
// call failed. The Error field is still serialized under the "error" key
// for hosts that render failures by key presence.
type Result struct {
	Status      string                 `json:"status" yaml:"status"`
	DisplayType DisplayType            `json:"displayType,omitempty" yaml:"displayType,omitempty"`
	Title       string                 `json:"title,omitempty" yaml:"title,omitempty"`
	Description string                 `json:"description,omitempty" yaml:"description,omitempty"`
	Data        interface{}            `json:"data,omitempty" yaml:"data,omitempty"`
	Error       string                 `json:"error,omitempty" yaml:"error,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// IsError reports whether the result is the failure variant.
func (r *Result) IsError() bool {
	return r.Status == StatusError
}

// ToJSON converts the Result to a JSON string.
func (r *Result) ToJSON() (string, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("failed to marshal result: %w", err)
	}
	return string(data), nil
}

// ToYAML converts the Result to a YAML string.
func (r *Result) ToYAML() (string, error) {
	data, err := yaml.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("failed to marshal result: %w", err)
	}
	return string(data), nil
}

// FromJSON parses a JSON string into a Result.
func FromJSON(jsonStr string) (*Result, error) {
	var r Result
	if err := json.Unmarshal([]byte(jsonStr), &r); err != nil {
		return nil, fmt.Errorf("failed to unmarshal result: %w", err)
	}
	return &r, nil
}

// FromYAML parses a YAML string into a Result.
func FromYAML(yamlStr string) (*Result, error) {
	var r Result
	if err := yaml.Unmarshal([]byte(yamlStr), &r); err != nil {
		return nil, fmt.Errorf("failed to unmarshal result: %w", err)
	}
	return &r, nil
}

// ParseResult attempts to parse a result string as either JSON or YAML.
func ParseResult(result string) (*Result, error) {
	if r, err := FromJSON(result); err == nil {
		return r, nil
	}
	if r, err := FromYAML(result); err == nil {
		return r, nil
	}
	return nil, fmt.Errorf("result is not a valid envelope (neither JSON nor YAML)")
}

// TextResult creates a success Result carrying plain text.
func TextResult(text string) *Result {
	return &Result{
		Status:      StatusOK,
		DisplayType: DisplayTypeText,
		Data:        text,
	}
}

// TableResult creates a success Result for tabular data.
func TableResult(title string, columns []string, data interface{}) *Result {
	return &Result{
		Status:      StatusOK,
		DisplayType: DisplayTypeTable,
		Title:       title,
		Data:        data,
		Metadata: map[string]interface{}{
			"columns": columns,
		},
	}
}

// ListResult creates a success Result for list display.
func ListResult(title string, items interface{}) *Result {
	return &Result{
		Status:      StatusOK,
		DisplayType: DisplayTypeList,
		Title:       title,
		Data:        items,
	}
}

// ErrorResult creates the failure variant with the given message.
func ErrorResult(message string) *Result {
	return &Result{
		Status:      StatusError,
		DisplayType: DisplayTypeText,
		Error:       message,
	}
}

// Errorf creates the failure variant with a formatted message.
func Errorf(format string, args ...interface{}) *Result {
	return ErrorResult(fmt.Sprintf(format, args...))
}

// NotFoundResult creates the failure variant for a missing entity (city,
// timezone, storage pool). The message is distinct from transport
// failures so the LLM can relay it verbatim.
func NotFoundResult(what string) *Result {
	return Errorf("not found: %s", what)
}
