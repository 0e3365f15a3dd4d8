package weaver

import (
	"fmt"
	"sync"
)

// BasePlugin provides default implementations for the common plugin
// interfaces. Plugins embed this struct and use ServePlugin(), which
// handles initialization automatically.
//
// Example usage:
//
//	//go:embed plugin.yaml
//	var configYAML string
//
//	type myTool struct {
//	    weaver.BasePlugin
//	}
//
//	func main() {
//	    weaver.ServePlugin(&myTool{}, configYAML)
//	}
type BasePlugin struct {
	version       string
	minHostVer    string
	maxHostVer    string
	apiVersion    string
	metadata      *PluginMetadata
	hostContext   HostContext
	defaultValves string
	pluginConfig  *PluginConfig
	valves        ValveStore
	valvesMu      sync.Mutex
}

// newBasePlugin creates a base plugin with version and compatibility info.
// Internal; used by ServePlugin.
func newBasePlugin(version, minHostVersion, maxHostVersion, apiVersion string) BasePlugin {
	return BasePlugin{
		version:    version,
		minHostVer: minHostVersion,
		maxHostVer: maxHostVersion,
		apiVersion: apiVersion,
	}
}

// Version returns the plugin version.
// Implements VersionedTool and PluginCompatibility.
func (b *BasePlugin) Version() string {
	return b.version
}

// MinHostVersion returns the minimum compatible host version.
func (b *BasePlugin) MinHostVersion() string {
	return b.minHostVer
}

// MaxHostVersion returns the maximum compatible host version (empty = no
// limit).
func (b *BasePlugin) MaxHostVersion() string {
	return b.maxHostVer
}

// APIVersion returns the API version this plugin implements.
func (b *BasePlugin) APIVersion() string {
	return b.apiVersion
}

// SetHostContext stores the host context for later use.
// Implements HostAwareTool.
func (b *BasePlugin) SetHostContext(ctx HostContext) {
	b.hostContext = ctx
}

// GetHostContext returns a pointer to the stored host context.
func (b *BasePlugin) GetHostContext() *HostContext {
	return &b.hostContext
}

// SetMetadata sets the plugin metadata.
func (b *BasePlugin) SetMetadata(metadata *PluginMetadata) {
	b.metadata = metadata
}

// GetMetadata returns the plugin metadata, or nil if none was set.
// Implements MetadataProvider.
func (b *BasePlugin) GetMetadata() (*PluginMetadata, error) {
	return b.metadata, nil
}

// GetTags returns plugin tags from plugin.yaml or metadata.
// Implements MetadataProvider.
func (b *BasePlugin) GetTags() []string {
	if b.pluginConfig != nil && len(b.pluginConfig.Tags) > 0 {
		return b.pluginConfig.Tags
	}
	if b.metadata == nil {
		return nil
	}
	return b.metadata.Tags
}

// SetDefaultValves sets the default valves JSON string.
func (b *BasePlugin) SetDefaultValves(valves string) {
	b.defaultValves = valves
}

// GetDefaultValves returns the default valves JSON string.
// Implements DefaultValvesProvider.
func (b *BasePlugin) GetDefaultValves() (string, error) {
	return b.defaultValves, nil
}

// SetPluginConfig sets the parsed plugin.yaml configuration.
func (b *BasePlugin) SetPluginConfig(config *PluginConfig) {
	b.pluginConfig = config
}

// GetConfigFromYAML returns the valve descriptors defined in plugin.yaml.
// Returns an empty slice if no config section exists.
func (b *BasePlugin) GetConfigFromYAML() []ConfigVariable {
	if b.pluginConfig == nil {
		return []ConfigVariable{}
	}
	return b.pluginConfig.ToConfigVariables()
}

// Valves returns the valve store for this plugin, lazily initialized on
// first access. Returns nil if the host context has not been provided yet,
// so call it only after SetHostContext.
//
// Example usage:
//
//	func (t *myTool) Call(ctx context.Context, args string) (string, error) {
//	    valves := t.Valves()
//	    host := weaver.ResolveString(valves, "", []string{"proxmox_host"}, defaultHost)
//	    ...
//	}
func (b *BasePlugin) Valves() ValveStore {
	b.valvesMu.Lock()
	defer b.valvesMu.Unlock()

	if b.valves != nil {
		return b.valves
	}

	if b.hostContext.DataDir == "" {
		return nil
	}

	pluginName := "unknown"
	if b.metadata != nil && b.metadata.Name != "" {
		pluginName = b.metadata.Name
	}

	vs, err := NewValveStore(b.hostContext.DataDir, pluginName)
	if err != nil {
		return nil
	}

	b.valves = vs
	return b.valves
}

// GetToolDefinition returns the tool definition from plugin.yaml if
// available. Returns an error if no tool definition exists in the plugin
// config.
func (b *BasePlugin) GetToolDefinition() (Tool, error) {
	if b.pluginConfig == nil {
		return Tool{}, fmt.Errorf("plugin config not set")
	}

	if b.pluginConfig.Tool == nil {
		return Tool{}, fmt.Errorf("no tool definition in plugin.yaml")
	}

	// If the tool name is not specified, use the plugin name.
	if b.pluginConfig.Tool.Name == "" {
		b.pluginConfig.Tool.Name = b.pluginConfig.Name
	}

	return b.pluginConfig.Tool.ToToolDefinition()
}

// ValidateCallParams validates incoming call parameters against the
// plugin.yaml tool definition, including per-operation required
// parameters. A nil tool definition validates everything.
func (b *BasePlugin) ValidateCallParams(params map[string]interface{}) error {
	if b.pluginConfig == nil {
		return nil
	}
	return ValidateToolParametersWithOperations(b.pluginConfig.Tool, params)
}

// GetOperations returns the operation information from plugin.yaml.
// Implements OperationsProvider. Returns nil if no operations are defined.
func (b *BasePlugin) GetOperations() []OperationInfo {
	if b.pluginConfig == nil || b.pluginConfig.Tool == nil {
		return nil
	}
	return GetOperationsFromYAML(b.pluginConfig.Tool)
}

// Definition returns the tool definition, automatically reading from
// plugin.yaml. Plugins only need to override this method if they require
// custom definition logic beyond what plugin.yaml expresses.
//
// Implements PluginTool (the Call half must come from the plugin itself).
func (b *BasePlugin) Definition() Tool {
	tool, err := b.GetToolDefinition()
	if err == nil {
		return tool
	}

	// Fallback: use metadata if available.
	name := "unknown-plugin"
	description := "Plugin integration"

	if b.metadata != nil {
		if b.metadata.Name != "" {
			name = b.metadata.Name
		}
		if b.metadata.Description != "" {
			description = b.metadata.Description
		}
	}

	return Tool{
		Name:        name,
		Description: description,
		Parameters:  map[string]interface{}{},
	}
}

// Compile-time interface check: BasePlugin implements OperationsProvider.
var _ OperationsProvider = (*BasePlugin)(nil)
