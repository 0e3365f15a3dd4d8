package weaver

import (
	"fmt"
	"os"
	"reflect"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"
)

// ServePlugin is the single call a plugin main() needs. It reads the
// embedded plugin.yaml, initializes the BasePlugin, injects it into the
// tool struct via reflection, and hands off to go-plugin's serve loop.
//
// Usage:
//
//	//go:embed plugin.yaml
//	var configYAML string
//
//	func main() {
//	    weaver.ServePlugin(&myTool{}, configYAML)
//	}
//
// Requirements:
// - tool must be a pointer to a struct
// - tool must embed weaver.BasePlugin
// - configYAML must be a valid plugin.yaml string
func ServePlugin(tool PluginTool, configYAML string) {
	config, err := readPluginConfig(configYAML)
	if err != nil {
		panic(fmt.Sprintf("ServePlugin failed to parse config: %v", err))
	}

	apiVersion := config.Requirements.APIVersion
	if apiVersion == "" {
		apiVersion = "v1"
	}

	base := newBasePlugin(
		config.Version,
		config.Requirements.MinHostVersion,
		config.Requirements.MaxHostVersion, // may be empty (no max limit)
		apiVersion,
	)

	base.SetPluginConfig(&config)
	base.SetMetadata(config.ToMetadata())

	if err := injectBasePlugin(tool, &base); err != nil {
		panic(fmt.Sprintf("ServePlugin failed: %v", err))
	}

	logger := hclog.New(&hclog.LoggerOptions{
		Name:       config.Name,
		Level:      hclog.LevelFromString(os.Getenv("WEAVER_LOG_LEVEL")),
		Output:     os.Stderr,
		JSONFormat: true,
	})

	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: Handshake,
		Plugins: map[string]plugin.Plugin{
			"tool": &ToolRPCPlugin{Impl: tool},
		},
		Logger: logger,
	})
}

// injectBasePlugin uses reflection to find and set the embedded BasePlugin field
func injectBasePlugin(tool PluginTool, base *BasePlugin) error {
	toolValue := reflect.ValueOf(tool)

	if toolValue.Kind() != reflect.Ptr {
		return fmt.Errorf("tool must be a pointer, got %T", tool)
	}

	structValue := toolValue.Elem()
	if structValue.Kind() != reflect.Struct {
		return fmt.Errorf("tool must be a pointer to struct, got %T", tool)
	}

	structType := structValue.Type()
	for i := 0; i < structType.NumField(); i++ {
		field := structType.Field(i)

		if field.Type == reflect.TypeOf(BasePlugin{}) && field.Anonymous {
			fieldValue := structValue.Field(i)

			if !fieldValue.CanSet() {
				return fmt.Errorf("cannot set BasePlugin field in %T (field is unexported)", tool)
			}

			fieldValue.Set(reflect.ValueOf(base).Elem())
			return nil
		}
	}

	return fmt.Errorf("tool %T does not embed weaver.BasePlugin", tool)
}
