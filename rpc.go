package weaver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/rpc"

	"github.com/hashicorp/go-plugin"
)

// ToolRPCPlugin is the plugin.Plugin implementation that serves and
// consumes tools over go-plugin's net/rpc protocol. All structured values
// cross the wire as JSON strings, so the gob layer only ever sees plain
// strings and slices.
type ToolRPCPlugin struct {
	// Impl is the concrete implementation (only set plugin-side).
	Impl PluginTool
}

// Server returns the RPC server for this plugin.
func (p *ToolRPCPlugin) Server(*plugin.MuxBroker) (interface{}, error) {
	return &ToolRPCServer{Impl: p.Impl}, nil
}

// Client returns the RPC client wrapper used by the host.
func (p *ToolRPCPlugin) Client(b *plugin.MuxBroker, c *rpc.Client) (interface{}, error) {
	return &ToolRPC{client: c}, nil
}

// Wire messages. Exported fields only; gob-encoded by net/rpc.

type DefinitionReply struct {
	Name           string
	Description    string
	ParametersJSON string
}

type CallArgs struct {
	ArgsJSON string
}

type CallReply struct {
	ResultJSON string
	Error      string
}

type VersionReply struct {
	Version string
}

type CompatibilityReply struct {
	MinHostVersion string
	MaxHostVersion string
	APIVersion     string
}

type HostContextArgs struct {
	Name       string
	ConfigPath string
	ValvesPath string
	DataDir    string
	User       string
}

type ValvesReply struct {
	ValvesJSON string
	Error      string
}

type ConfigVariablesReply struct {
	// VarsJSON is a JSON-encoded []ConfigVariable; DefaultValue is
	// interface-typed, so JSON avoids gob type registration.
	VarsJSON string
}

type ConfigJSONArgs struct {
	ConfigJSON string
}

type ConfigReply struct {
	OK    bool
	Error string
}

type MetadataReply struct {
	MetadataJSON string
	Error        string
}

type OperationsReply struct {
	Operations []OperationInfo
	Supported  bool
}

// ToolRPCServer is the server side: it runs inside the plugin process and
// dispatches host calls onto the concrete PluginTool implementation.
// net/rpc cannot carry a context across the wire, so handlers run under
// context.Background(); cancellation is a host-side concern.
type ToolRPCServer struct {
	Impl PluginTool
}

func (s *ToolRPCServer) GetDefinition(_ interface{}, reply *DefinitionReply) error {
	def := s.Impl.Definition()

	paramsJSON, err := json.Marshal(def.Parameters)
	if err != nil {
		return err
	}

	*reply = DefinitionReply{
		Name:           def.Name,
		Description:    def.Description,
		ParametersJSON: string(paramsJSON),
	}
	return nil
}

func (s *ToolRPCServer) Call(args CallArgs, reply *CallReply) error {
	result, err := s.Impl.Call(context.Background(), args.ArgsJSON)
	if err != nil {
		*reply = CallReply{Error: err.Error()}
		return nil
	}
	*reply = CallReply{ResultJSON: result}
	return nil
}

func (s *ToolRPCServer) GetVersion(_ interface{}, reply *VersionReply) error {
	if versionedTool, ok := s.Impl.(VersionedTool); ok {
		*reply = VersionReply{Version: versionedTool.Version()}
		return nil
	}
	*reply = VersionReply{Version: "unknown"}
	return nil
}

func (s *ToolRPCServer) GetCompatibility(_ interface{}, reply *CompatibilityReply) error {
	if compatTool, ok := s.Impl.(PluginCompatibility); ok {
		*reply = CompatibilityReply{
			MinHostVersion: compatTool.MinHostVersion(),
			MaxHostVersion: compatTool.MaxHostVersion(),
			APIVersion:     compatTool.APIVersion(),
		}
	}
	return nil
}

func (s *ToolRPCServer) SetHostContext(args HostContextArgs, _ *struct{}) error {
	if hostAware, ok := s.Impl.(HostAwareTool); ok {
		hostAware.SetHostContext(HostContext{
			Name:       args.Name,
			ConfigPath: args.ConfigPath,
			ValvesPath: args.ValvesPath,
			DataDir:    args.DataDir,
			User:       args.User,
		})
	}
	return nil
}

func (s *ToolRPCServer) GetDefaultValves(_ interface{}, reply *ValvesReply) error {
	if valvesProvider, ok := s.Impl.(DefaultValvesProvider); ok {
		valves, err := valvesProvider.GetDefaultValves()
		if err != nil {
			*reply = ValvesReply{Error: err.Error()}
			return nil
		}
		*reply = ValvesReply{ValvesJSON: valves}
	}
	return nil
}

func (s *ToolRPCServer) GetRequiredConfig(_ interface{}, reply *ConfigVariablesReply) error {
	if initProvider, ok := s.Impl.(InitializationProvider); ok {
		configVars := initProvider.GetRequiredConfig()
		varsJSON, err := json.Marshal(configVars)
		if err != nil {
			return err
		}
		*reply = ConfigVariablesReply{VarsJSON: string(varsJSON)}
	}
	return nil
}

func (s *ToolRPCServer) ValidateConfig(args ConfigJSONArgs, reply *ConfigReply) error {
	initProvider, ok := s.Impl.(InitializationProvider)
	if !ok {
		*reply = ConfigReply{OK: false, Error: "plugin does not implement InitializationProvider"}
		return nil
	}

	var config map[string]interface{}
	if err := json.Unmarshal([]byte(args.ConfigJSON), &config); err != nil {
		*reply = ConfigReply{OK: false, Error: err.Error()}
		return nil
	}

	if err := initProvider.ValidateConfig(config); err != nil {
		*reply = ConfigReply{OK: false, Error: err.Error()}
		return nil
	}

	*reply = ConfigReply{OK: true}
	return nil
}

func (s *ToolRPCServer) InitializeWithConfig(args ConfigJSONArgs, reply *ConfigReply) error {
	initProvider, ok := s.Impl.(InitializationProvider)
	if !ok {
		*reply = ConfigReply{OK: false, Error: "plugin does not implement InitializationProvider"}
		return nil
	}

	var config map[string]interface{}
	if err := json.Unmarshal([]byte(args.ConfigJSON), &config); err != nil {
		*reply = ConfigReply{OK: false, Error: err.Error()}
		return nil
	}

	if err := initProvider.InitializeWithConfig(config); err != nil {
		*reply = ConfigReply{OK: false, Error: err.Error()}
		return nil
	}

	*reply = ConfigReply{OK: true}
	return nil
}

func (s *ToolRPCServer) GetMetadata(_ interface{}, reply *MetadataReply) error {
	metadataProvider, ok := s.Impl.(MetadataProvider)
	if !ok {
		return nil
	}

	metadata, err := metadataProvider.GetMetadata()
	if err != nil {
		*reply = MetadataReply{Error: err.Error()}
		return nil
	}
	if metadata == nil {
		return nil
	}

	metadata.Tags = metadataProvider.GetTags()

	metadataJSON, err := json.Marshal(metadata)
	if err != nil {
		return err
	}
	*reply = MetadataReply{MetadataJSON: string(metadataJSON)}
	return nil
}

func (s *ToolRPCServer) GetOperations(_ interface{}, reply *OperationsReply) error {
	if opsProvider, ok := s.Impl.(OperationsProvider); ok {
		operations := opsProvider.GetOperations()
		if operations == nil {
			*reply = OperationsReply{Supported: false}
			return nil
		}
		*reply = OperationsReply{Operations: operations, Supported: true}
		return nil
	}
	*reply = OperationsReply{Supported: false}
	return nil
}

// ToolRPC is the client side: the host holds one per loaded plugin and it
// presents the plugin as a local PluginTool.
type ToolRPC struct {
	client *rpc.Client
}

func (c *ToolRPC) Definition() Tool {
	var reply DefinitionReply
	if err := c.client.Call("Plugin.GetDefinition", new(interface{}), &reply); err != nil {
		return Tool{}
	}

	var params map[string]interface{}
	if err := json.Unmarshal([]byte(reply.ParametersJSON), &params); err != nil {
		params = map[string]interface{}{}
	}

	return Tool{
		Name:        reply.Name,
		Description: reply.Description,
		Parameters:  params,
	}
}

func (c *ToolRPC) Call(ctx context.Context, args string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	reply := new(CallReply)
	call := c.client.Go("Plugin.Call", CallArgs{ArgsJSON: args}, reply, nil)
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-call.Done:
	}
	if call.Error != nil {
		return "", call.Error
	}
	if reply.Error != "" {
		return "", fmt.Errorf("%s", reply.Error)
	}
	return reply.ResultJSON, nil
}

func (c *ToolRPC) Version() string {
	var reply VersionReply
	if err := c.client.Call("Plugin.GetVersion", new(interface{}), &reply); err != nil {
		return "unknown"
	}
	return reply.Version
}

func (c *ToolRPC) MinHostVersion() string {
	var reply CompatibilityReply
	if err := c.client.Call("Plugin.GetCompatibility", new(interface{}), &reply); err != nil {
		return ""
	}
	return reply.MinHostVersion
}

func (c *ToolRPC) MaxHostVersion() string {
	var reply CompatibilityReply
	if err := c.client.Call("Plugin.GetCompatibility", new(interface{}), &reply); err != nil {
		return ""
	}
	return reply.MaxHostVersion
}

func (c *ToolRPC) APIVersion() string {
	var reply CompatibilityReply
	if err := c.client.Call("Plugin.GetCompatibility", new(interface{}), &reply); err != nil {
		return ""
	}
	return reply.APIVersion
}

func (c *ToolRPC) SetHostContext(ctx HostContext) {
	_ = c.client.Call("Plugin.SetHostContext", HostContextArgs{
		Name:       ctx.Name,
		ConfigPath: ctx.ConfigPath,
		ValvesPath: ctx.ValvesPath,
		DataDir:    ctx.DataDir,
		User:       ctx.User,
	}, new(struct{}))
}

func (c *ToolRPC) GetDefaultValves() (string, error) {
	var reply ValvesReply
	if err := c.client.Call("Plugin.GetDefaultValves", new(interface{}), &reply); err != nil {
		return "", err
	}
	if reply.Error != "" {
		return "", fmt.Errorf("%s", reply.Error)
	}
	return reply.ValvesJSON, nil
}

func (c *ToolRPC) GetRequiredConfig() []ConfigVariable {
	var reply ConfigVariablesReply
	if err := c.client.Call("Plugin.GetRequiredConfig", new(interface{}), &reply); err != nil {
		return []ConfigVariable{}
	}
	if reply.VarsJSON == "" {
		return []ConfigVariable{}
	}

	var configVars []ConfigVariable
	if err := json.Unmarshal([]byte(reply.VarsJSON), &configVars); err != nil {
		return []ConfigVariable{}
	}
	return configVars
}

func (c *ToolRPC) ValidateConfig(config map[string]interface{}) error {
	configJSON, err := json.Marshal(config)
	if err != nil {
		return err
	}

	var reply ConfigReply
	if err := c.client.Call("Plugin.ValidateConfig", ConfigJSONArgs{ConfigJSON: string(configJSON)}, &reply); err != nil {
		return err
	}
	if !reply.OK {
		return fmt.Errorf("%s", reply.Error)
	}
	return nil
}

func (c *ToolRPC) InitializeWithConfig(config map[string]interface{}) error {
	configJSON, err := json.Marshal(config)
	if err != nil {
		return err
	}

	var reply ConfigReply
	if err := c.client.Call("Plugin.InitializeWithConfig", ConfigJSONArgs{ConfigJSON: string(configJSON)}, &reply); err != nil {
		return err
	}
	if !reply.OK {
		return fmt.Errorf("%s", reply.Error)
	}
	return nil
}

func (c *ToolRPC) GetMetadata() (*PluginMetadata, error) {
	var reply MetadataReply
	if err := c.client.Call("Plugin.GetMetadata", new(interface{}), &reply); err != nil {
		return nil, err
	}
	if reply.Error != "" {
		return nil, fmt.Errorf("%s", reply.Error)
	}
	if reply.MetadataJSON == "" {
		return nil, nil
	}

	var metadata PluginMetadata
	if err := json.Unmarshal([]byte(reply.MetadataJSON), &metadata); err != nil {
		return nil, err
	}
	return &metadata, nil
}

func (c *ToolRPC) GetTags() []string {
	metadata, err := c.GetMetadata()
	if err != nil || metadata == nil {
		return nil
	}
	return metadata.Tags
}

// GetOperations returns operation-specific parameter information, or nil
// if the plugin doesn't implement OperationsProvider.
func (c *ToolRPC) GetOperations() []OperationInfo {
	var reply OperationsReply
	if err := c.client.Call("Plugin.GetOperations", new(interface{}), &reply); err != nil || !reply.Supported {
		return nil
	}
	return reply.Operations
}

// Compile-time interface checks.
var (
	_ PluginTool             = (*ToolRPC)(nil)
	_ VersionedTool          = (*ToolRPC)(nil)
	_ PluginCompatibility    = (*ToolRPC)(nil)
	_ MetadataProvider       = (*ToolRPC)(nil)
	_ DefaultValvesProvider  = (*ToolRPC)(nil)
	_ HostAwareTool          = (*ToolRPC)(nil)
	_ InitializationProvider = (*ToolRPC)(nil)
	_ OperationsProvider     = (*ToolRPC)(nil)
)
