package weaver

import (
	"context"
)

// PluginTool is the interface that tool plugins must implement to be loaded
// by the chat host runtime. The interface is provider-agnostic: the host
// translates the generic definition into whatever shape the active LLM
// provider expects.
type PluginTool interface {
	// Definition returns the generic tool definition that the host advertises
	// to the LLM.
	Definition() Tool
	// Call executes the tool with the given arguments JSON string and returns
	// the result JSON string. Domain failures (unreachable API, unknown city,
	// bad timezone) must be reported through an error Result envelope, not a
	// Go error; a Go error is reserved for malformed invocations.
	Call(ctx context.Context, args string) (string, error)
}

// VersionedTool extends PluginTool with version information.
type VersionedTool interface {
	PluginTool
	// Version returns the plugin version (e.g. "1.0.4").
	Version() string
}

// PluginCompatibility extends PluginTool with host compatibility information.
// Plugins should implement this to enable compatibility validation at load
// time.
type PluginCompatibility interface {
	PluginTool
	Version() string
	// MinHostVersion returns the minimum host runtime version required.
	// Empty string means no minimum.
	MinHostVersion() string
	// MaxHostVersion returns the maximum compatible host version.
	// Empty string means no maximum.
	MaxHostVersion() string
	// APIVersion returns the plugin API version (e.g. "v1").
	APIVersion() string
}

// HostContext provides information about the host runtime to plugins.
type HostContext struct {
	// Name is the name of the host profile the plugin was loaded for.
	Name string
	// ConfigPath is the path to the host's main config file.
	ConfigPath string
	// ValvesPath is the path to the plugin's valve file, if the host manages
	// one explicitly.
	ValvesPath string
	// DataDir is the directory the plugin may use for its valve file and any
	// scratch data.
	DataDir string
	// User identifies the chat user on whose behalf the tool is invoked.
	// User-level valves ("user_*" keys) apply to this identity.
	User string
}

// HostAwareTool extends PluginTool with host context information.
type HostAwareTool interface {
	PluginTool
	// SetHostContext provides the current host information to the plugin.
	SetHostContext(ctx HostContext)
}

// DefaultValvesProvider allows plugins to provide default valve values.
type DefaultValvesProvider interface {
	// GetDefaultValves returns default valves as a JSON string.
	GetDefaultValves() (string, error)
}

// ConfigVariableType represents the type of a configuration variable.
type ConfigVariableType string

const (
	ConfigTypeString   ConfigVariableType = "string"
	ConfigTypeInt      ConfigVariableType = "int"
	ConfigTypeFloat    ConfigVariableType = "float"
	ConfigTypeBool     ConfigVariableType = "bool"
	ConfigTypePassword ConfigVariableType = "password"
	ConfigTypeURL      ConfigVariableType = "url"
)

// ConfigVariable describes a valve that the plugin requires from the host.
type ConfigVariable struct {
	// Key is the valve key (e.g. "proxmox_host", "default_timezone").
	Key string `json:"key"`
	// Name is the human-readable name for the variable.
	Name string `json:"name"`
	// Description explains what this variable is used for.
	Description string `json:"description"`
	// Type specifies the data type and input method.
	Type ConfigVariableType `json:"type"`
	// Required indicates whether this variable must be provided.
	Required bool `json:"required"`
	// DefaultValue provides a default value (optional).
	DefaultValue interface{} `json:"default_value,omitempty"`
	// Validation provides a regex or other validation rule (optional).
	Validation string `json:"validation,omitempty"`
	// Options provides a list of valid options for enum-like variables.
	Options []string `json:"options,omitempty"`
	// Placeholder text to show in input fields.
	Placeholder string `json:"placeholder,omitempty"`
}

// InitializationProvider allows plugins to describe their required valves.
// Hosts use it to prompt for and persist credentials before first use.
type InitializationProvider interface {
	// GetRequiredConfig returns the valves that need to be set.
	GetRequiredConfig() []ConfigVariable
	// ValidateConfig checks if the provided configuration is valid.
	ValidateConfig(config map[string]interface{}) error
	// InitializeWithConfig sets up the plugin with the provided configuration.
	InitializeWithConfig(config map[string]interface{}) error
}

// MetadataProvider allows plugins to expose authorship and licensing
// information.
type MetadataProvider interface {
	// GetMetadata returns plugin metadata (maintainers, license, repository).
	GetMetadata() (*PluginMetadata, error)
	// GetTags returns plugin tags, typically sourced from plugin.yaml.
	GetTags() []string
}

// OperationInfo describes a single operation and its parameters.
type OperationInfo struct {
	// Name is the operation name (e.g. "list_nodes", "get_current_weather").
	Name string
	// Parameters is a list of parameter names for this operation.
	Parameters []string
	// RequiredParameters is a list of required parameter names.
	RequiredParameters []string
}

// OperationsProvider allows plugins to expose their operation-specific
// parameters so the host can show correct arguments per operation.
type OperationsProvider interface {
	// GetOperations returns a list of operations with their parameters.
	GetOperations() []OperationInfo
}
