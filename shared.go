package weaver

import (
	"github.com/hashicorp/go-plugin"
)

// Handshake is the shared handshake config between host and plugins. The
// magic cookie is not a security measure, it just keeps users from
// launching plugin binaries by hand and getting confusing output.
var Handshake = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "WEAVER_PLUGIN",
	MagicCookieValue: "weaver-tools-v1",
}

// PluginMap is the map of plugins the host can dispense.
var PluginMap = map[string]plugin.Plugin{
	"tool": &ToolRPCPlugin{},
}
