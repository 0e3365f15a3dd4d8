package weaver

import (
	"fmt"
	"net/url"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"
)

// Maintainer identifies a plugin maintainer.
type Maintainer struct {
	Name  string `json:"name" yaml:"name"`
	Email string `json:"email" yaml:"email"`
}

// Platform represents a supported operating system and its architectures.
type Platform struct {
	OS            string   `json:"os" yaml:"os"`
	Architectures []string `json:"architectures" yaml:"architectures"`
}

// Requirements represents plugin dependencies and version requirements.
type Requirements struct {
	MinHostVersion string   `json:"min_host_version,omitempty" yaml:"min_host_version,omitempty"`
	MaxHostVersion string   `json:"max_host_version,omitempty" yaml:"max_host_version,omitempty"`
	APIVersion     string   `json:"api_version,omitempty" yaml:"api_version,omitempty"`
	Dependencies   []string `json:"dependencies,omitempty" yaml:"dependencies,omitempty"`
}

// PluginMetadata carries authorship and licensing information over the
// plugin protocol.
type PluginMetadata struct {
	Name         string       `json:"name"`
	Version      string       `json:"version"`
	Description  string       `json:"description"`
	Tags         []string     `json:"tags,omitempty"`
	License      string       `json:"license"`
	Repository   string       `json:"repository"`
	Maintainers  []Maintainer `json:"maintainers,omitempty"`
	Platforms    []Platform   `json:"platforms,omitempty"`
	Requirements Requirements `json:"requirements,omitempty"`
}

// YAMLConfigVariable represents a valve descriptor in plugin.yaml.
type YAMLConfigVariable struct {
	Key          string      `yaml:"key"`
	Name         string      `yaml:"name"`
	Description  string      `yaml:"description"`
	Type         string      `yaml:"type"`
	Required     bool        `yaml:"required"`
	DefaultValue interface{} `yaml:"default_value,omitempty"`
	Validation   string      `yaml:"validation,omitempty"`
	Options      []string    `yaml:"options,omitempty"`
	Placeholder  string      `yaml:"placeholder,omitempty"`
}

// YAMLConfig represents the config section in plugin.yaml.
type YAMLConfig struct {
	Variables []YAMLConfigVariable `yaml:"variables,omitempty"`
}

// PluginConfig represents the complete plugin configuration from
// plugin.yaml.
type PluginConfig struct {
	Name         string              `yaml:"name"`
	Version      string              `yaml:"version"`
	Description  string              `yaml:"description"`
	Tags         []string            `yaml:"tags,omitempty"`
	License      string              `yaml:"license"`
	Repository   string              `yaml:"repository"`
	Platforms    []Platform          `yaml:"platforms"`
	Maintainers  []Maintainer        `yaml:"maintainers"`
	Requirements Requirements        `yaml:"requirements,omitempty"`
	Config       YAMLConfig          `yaml:"config,omitempty"`
	Tool         *YAMLToolDefinition `yaml:"tool_definition,omitempty"`
}

// readPluginConfig parses and validates plugin configuration from embedded
// YAML. Returns an error if the configuration is invalid.
func readPluginConfig(embeddedYAML string) (PluginConfig, error) {
	var config PluginConfig

	if err := yaml.Unmarshal([]byte(embeddedYAML), &config); err != nil {
		return PluginConfig{}, fmt.Errorf("invalid plugin config YAML: %w", err)
	}

	if config.Name == "" {
		return PluginConfig{}, fmt.Errorf("invalid plugin config: missing required field: name")
	}
	if config.Version == "" {
		return PluginConfig{}, fmt.Errorf("invalid plugin config: missing required field: version")
	}
	if config.Description == "" {
		return PluginConfig{}, fmt.Errorf("invalid plugin config: missing required field: description")
	}
	if config.License == "" {
		return PluginConfig{}, fmt.Errorf("invalid plugin config: missing required field: license")
	}
	if config.Repository == "" {
		return PluginConfig{}, fmt.Errorf("invalid plugin config: missing required field: repository")
	}
	if len(config.Platforms) == 0 {
		return PluginConfig{}, fmt.Errorf("invalid plugin config: missing required field: platforms")
	}
	if len(config.Maintainers) == 0 {
		return PluginConfig{}, fmt.Errorf("invalid plugin config: missing required field: maintainers")
	}

	if _, err := semver.NewVersion(config.Version); err != nil {
		return PluginConfig{}, fmt.Errorf("invalid plugin config: invalid semver format for version: %s", config.Version)
	}

	if _, err := url.ParseRequestURI(config.Repository); err != nil {
		return PluginConfig{}, fmt.Errorf("invalid plugin config: invalid URL format for repository: %s", config.Repository)
	}

	for i, platform := range config.Platforms {
		if platform.OS == "" {
			return PluginConfig{}, fmt.Errorf("invalid plugin config: platform[%d] missing os field", i)
		}
		if len(platform.Architectures) == 0 {
			return PluginConfig{}, fmt.Errorf("invalid plugin config: platform[%d] has empty architectures array", i)
		}
	}

	for i, maintainer := range config.Maintainers {
		if maintainer.Name == "" {
			return PluginConfig{}, fmt.Errorf("invalid plugin config: maintainer[%d] missing name field", i)
		}
		if maintainer.Email == "" {
			return PluginConfig{}, fmt.Errorf("invalid plugin config: maintainer[%d] missing email field", i)
		}
	}

	if config.Requirements.MinHostVersion != "" {
		if _, err := semver.NewVersion(config.Requirements.MinHostVersion); err != nil {
			return PluginConfig{}, fmt.Errorf("invalid plugin config: invalid semver format for min_host_version: %s", config.Requirements.MinHostVersion)
		}
	}

	return config, nil
}

// ToMetadata converts PluginConfig to PluginMetadata for the plugin
// protocol.
func (c *PluginConfig) ToMetadata() *PluginMetadata {
	return &PluginMetadata{
		Name:         c.Name,
		Version:      c.Version,
		Description:  c.Description,
		Tags:         c.Tags,
		License:      c.License,
		Repository:   c.Repository,
		Maintainers:  c.Maintainers,
		Platforms:    c.Platforms,
		Requirements: c.Requirements,
	}
}

// ToConfigVariables converts the config section to ConfigVariable
// descriptors.
func (c *PluginConfig) ToConfigVariables() []ConfigVariable {
	if len(c.Config.Variables) == 0 {
		return nil
	}

	result := make([]ConfigVariable, 0, len(c.Config.Variables))
	for _, yamlVar := range c.Config.Variables {
		result = append(result, ConfigVariable{
			Key:          yamlVar.Key,
			Name:         yamlVar.Name,
			Description:  yamlVar.Description,
			Type:         ConfigVariableType(yamlVar.Type),
			Required:     yamlVar.Required,
			DefaultValue: yamlVar.DefaultValue,
			Validation:   yamlVar.Validation,
			Options:      yamlVar.Options,
			Placeholder:  yamlVar.Placeholder,
		})
	}

	return result
}
