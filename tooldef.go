package weaver

import (
	"fmt"
	"sort"
)

// YAMLToolParameter represents a tool parameter in plugin.yaml.
type YAMLToolParameter struct {
	Name        string      `yaml:"name"`
	Type        string      `yaml:"type"` // string, integer, number, boolean, enum
	Description string      `yaml:"description"`
	Required    bool        `yaml:"required,omitempty"`
	Default     interface{} `yaml:"default,omitempty"`
	Enum        []string    `yaml:"enum,omitempty"`
	Min         *float64    `yaml:"min,omitempty"`
	Max         *float64    `yaml:"max,omitempty"`
}

// YAMLOperationDefinition represents per-operation parameters in
// plugin.yaml.
type YAMLOperationDefinition struct {
	Parameters []YAMLToolParameter `yaml:"parameters,omitempty"`
}

// YAMLToolDefinition represents a tool definition in plugin.yaml.
type YAMLToolDefinition struct {
	Name        string                             `yaml:"name"`
	Description string                             `yaml:"description"`
	Parameters  []YAMLToolParameter                `yaml:"parameters,omitempty"`
	Operations  map[string]YAMLOperationDefinition `yaml:"operations,omitempty"`
}

// ToToolDefinition converts a YAML tool definition to a weaver.Tool. This
// lets plugins define their tool interface in plugin.yaml instead of code.
//
// When operations are defined, a single flat JSON schema is produced (LLM
// providers generally do not support oneOf at the top level); only the
// operation parameter is required at the top level and operation-specific
// required parameters are validated at call time via
// ValidateToolParametersWithOperations.
func (y *YAMLToolDefinition) ToToolDefinition() (Tool, error) {
	if y == nil {
		return Tool{}, fmt.Errorf("tool definition is nil")
	}
	if y.Name == "" {
		return Tool{}, fmt.Errorf("tool name is required")
	}
	if y.Description == "" {
		return Tool{}, fmt.Errorf("tool description is required")
	}

	if len(y.Operations) == 0 {
		properties, required, err := buildParametersSchema(y.Parameters)
		if err != nil {
			return Tool{}, err
		}

		parametersSchema := map[string]interface{}{
			"type":       "object",
			"properties": properties,
		}
		if len(required) > 0 {
			parametersSchema["required"] = required
		}

		return Tool{
			Name:        y.Name,
			Description: y.Description,
			Parameters:  parametersSchema,
		}, nil
	}

	// Union of global and per-operation parameters.
	allParams := make(map[string]YAMLToolParameter)
	if err := addParameterDefinitions(allParams, y.Parameters); err != nil {
		return Tool{}, err
	}

	operationNames := sortedOperationNames(y.Operations)
	for _, opName := range operationNames {
		if err := addParameterDefinitions(allParams, y.Operations[opName].Parameters); err != nil {
			return Tool{}, err
		}
	}

	// Auto-derive the operation enum from operation keys if not explicit.
	if opParam, ok := allParams["operation"]; ok && len(opParam.Enum) == 0 {
		opParam.Enum = operationNames
		allParams["operation"] = opParam
	}

	if _, ok := allParams["operation"]; !ok {
		return Tool{}, fmt.Errorf("operation parameter is required when operations are defined")
	}

	properties := make(map[string]interface{}, len(allParams))
	for name, param := range allParams {
		paramSchema, err := buildParameterSchema(param)
		if err != nil {
			return Tool{}, fmt.Errorf("parameter %q: %w", name, err)
		}
		properties[name] = paramSchema
	}

	_, globalRequired, err := buildParametersSchema(y.Parameters)
	if err != nil {
		return Tool{}, err
	}

	parametersSchema := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}

	required := globalRequired
	if !containsString(required, "operation") {
		required = append(required, "operation")
	}
	parametersSchema["required"] = required

	return Tool{
		Name:        y.Name,
		Description: y.Description,
		Parameters:  parametersSchema,
	}, nil
}

// buildParameterSchema converts a YAMLToolParameter to JSON Schema format.
func buildParameterSchema(param YAMLToolParameter) (map[string]interface{}, error) {
	if param.Type == "" {
		return nil, fmt.Errorf("type is required")
	}

	schema := make(map[string]interface{})
	if param.Description != "" {
		schema["description"] = param.Description
	}
	if param.Default != nil {
		schema["default"] = param.Default
	}

	switch param.Type {
	case "string":
		schema["type"] = "string"
		if len(param.Enum) > 0 {
			schema["enum"] = param.Enum
		}

	case "integer":
		schema["type"] = "integer"
		if param.Min != nil {
			schema["minimum"] = int(*param.Min)
		}
		if param.Max != nil {
			schema["maximum"] = int(*param.Max)
		}

	case "number":
		schema["type"] = "number"
		if param.Min != nil {
			schema["minimum"] = *param.Min
		}
		if param.Max != nil {
			schema["maximum"] = *param.Max
		}

	case "boolean":
		schema["type"] = "boolean"

	case "enum":
		if len(param.Enum) == 0 {
			return nil, fmt.Errorf("enum type requires 'enum' field with values")
		}
		schema["type"] = "string"
		schema["enum"] = param.Enum

	default:
		return nil, fmt.Errorf("unsupported type: %s (supported: string, integer, number, boolean, enum)", param.Type)
	}

	return schema, nil
}

func buildParametersSchema(params []YAMLToolParameter) (map[string]interface{}, []string, error) {
	properties := make(map[string]interface{})
	var required []string

	for _, param := range params {
		if param.Name == "" {
			return nil, nil, fmt.Errorf("parameter name is required")
		}

		paramSchema, err := buildParameterSchema(param)
		if err != nil {
			return nil, nil, fmt.Errorf("parameter %q: %w", param.Name, err)
		}

		properties[param.Name] = paramSchema
		if param.Required {
			required = append(required, param.Name)
		}
	}

	return properties, required, nil
}

func addParameterDefinitions(all map[string]YAMLToolParameter, params []YAMLToolParameter) error {
	for _, param := range params {
		if param.Name == "" {
			return fmt.Errorf("parameter name is required")
		}
		if existing, ok := all[param.Name]; ok {
			if existing.Type != param.Type {
				return fmt.Errorf("parameter %q has conflicting types: %s vs %s", param.Name, existing.Type, param.Type)
			}
			continue
		}
		all[param.Name] = param
	}
	return nil
}

func sortedOperationNames(operations map[string]YAMLOperationDefinition) []string {
	if len(operations) == 0 {
		return nil
	}

	names := make([]string, 0, len(operations))
	for name := range operations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func containsString(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}

// ValidateToolParametersWithOperations validates incoming call parameters
// against the YAML tool definition, including operation-specific required
// parameters.
func ValidateToolParametersWithOperations(toolDef *YAMLToolDefinition, params map[string]interface{}) error {
	if toolDef == nil {
		return nil
	}

	if len(toolDef.Operations) == 0 {
		for _, param := range toolDef.Parameters {
			if param.Required && isMissingParam(param, params) {
				return fmt.Errorf("required field '%s' is missing", param.Name)
			}
		}
		return nil
	}

	operation, ok := params["operation"].(string)
	if !ok || operation == "" {
		return fmt.Errorf("required field 'operation' is missing")
	}

	opDef, ok := toolDef.Operations[operation]
	if !ok {
		operationParam, found := findParameter(toolDef.Parameters, "operation")
		if !found || len(operationParam.Enum) == 0 || !containsString(operationParam.Enum, operation) {
			return fmt.Errorf("unknown operation: %s", operation)
		}
	}

	for _, param := range toolDef.Parameters {
		if param.Required && param.Name != "operation" && isMissingParam(param, params) {
			return fmt.Errorf("required field '%s' is missing", param.Name)
		}
	}

	for _, param := range opDef.Parameters {
		if param.Required && isMissingParam(param, params) {
			return fmt.Errorf("required field '%s' is missing", param.Name)
		}
	}

	return nil
}

// isMissingParam checks if a required parameter is missing from the params
// map. Empty strings count as missing.
func isMissingParam(param YAMLToolParameter, params map[string]interface{}) bool {
	value, exists := params[param.Name]
	if !exists || value == nil {
		return true
	}

	switch param.Type {
	case "string", "enum":
		if v, ok := value.(string); ok && v == "" {
			return true
		}
	}

	return false
}

func findParameter(params []YAMLToolParameter, name string) (YAMLToolParameter, bool) {
	for _, param := range params {
		if param.Name == name {
			return param, true
		}
	}
	return YAMLToolParameter{}, false
}

// ValidateYAMLToolDefinition performs comprehensive validation on a YAML
// tool definition. Returns detailed messages to help plugin authors fix
// issues.
func ValidateYAMLToolDefinition(toolDef *YAMLToolDefinition) error {
	if toolDef == nil {
		return fmt.Errorf("tool definition cannot be nil")
	}

	if toolDef.Name == "" {
		return fmt.Errorf("tool.name is required")
	}
	if len(toolDef.Name) > 64 {
		return fmt.Errorf("tool.name must be 64 characters or less (got %d)", len(toolDef.Name))
	}

	if toolDef.Description == "" {
		return fmt.Errorf("tool.description is required")
	}
	if len(toolDef.Description) > 1024 {
		return fmt.Errorf("tool.description must be 1024 characters or less (got %d)", len(toolDef.Description))
	}

	if len(toolDef.Parameters) == 0 && len(toolDef.Operations) == 0 {
		return fmt.Errorf("tool must have at least one parameter")
	}

	paramTypes := make(map[string]string)
	checkParam := func(param YAMLToolParameter) error {
		if param.Name == "" {
			return fmt.Errorf("parameter name is required")
		}
		if err := validateParameter(param); err != nil {
			return err
		}
		if existingType, ok := paramTypes[param.Name]; ok && existingType != param.Type {
			return fmt.Errorf("parameter %q has conflicting types: %s vs %s", param.Name, existingType, param.Type)
		}
		paramTypes[param.Name] = param.Type
		return nil
	}

	for _, param := range toolDef.Parameters {
		if err := checkParam(param); err != nil {
			return err
		}
	}

	if len(toolDef.Operations) > 0 {
		operationParam, ok := findParameter(toolDef.Parameters, "operation")
		if !ok {
			return fmt.Errorf("operation parameter is required when operations are defined")
		}
		if operationParam.Type != "string" {
			return fmt.Errorf("operation parameter must be type string")
		}
		if !operationParam.Required {
			return fmt.Errorf("operation parameter must be required when operations are defined")
		}

		for opName := range toolDef.Operations {
			if opName == "" {
				return fmt.Errorf("operation name cannot be empty")
			}
		}

		// If an enum is explicitly provided it must cover every operation.
		if len(operationParam.Enum) > 0 {
			for opName := range toolDef.Operations {
				if !containsString(operationParam.Enum, opName) {
					return fmt.Errorf("operation parameter enum missing value %q", opName)
				}
			}
		}

		for _, opDef := range toolDef.Operations {
			for _, param := range opDef.Parameters {
				if err := checkParam(param); err != nil {
					return err
				}
			}
		}
	}

	return nil
}

// validateParameter validates a single parameter definition.
func validateParameter(param YAMLToolParameter) error {
	validTypes := map[string]bool{
		"string": true, "integer": true, "number": true,
		"boolean": true, "enum": true,
	}
	if !validTypes[param.Type] {
		return fmt.Errorf("parameter %q: invalid type %q (must be one of: string, integer, number, boolean, enum)", param.Name, param.Type)
	}

	if param.Description == "" {
		return fmt.Errorf("parameter %q: description is required", param.Name)
	}

	switch param.Type {
	case "enum":
		if len(param.Enum) == 0 {
			return fmt.Errorf("parameter %q: enum type requires 'enum' field with values", param.Name)
		}
		if param.Default != nil {
			defaultStr, ok := param.Default.(string)
			if !ok {
				return fmt.Errorf("parameter %q: enum default must be a string", param.Name)
			}
			if !containsString(param.Enum, defaultStr) {
				return fmt.Errorf("parameter %q: default value %q is not in enum values", param.Name, defaultStr)
			}
		}

	case "integer", "number":
		if param.Min != nil && param.Max != nil && *param.Min > *param.Max {
			return fmt.Errorf("parameter %q: min (%v) cannot be greater than max (%v)", param.Name, *param.Min, *param.Max)
		}
	}

	return nil
}

// GetOperationsFromYAML extracts operation information from a
// YAMLToolDefinition. This helper makes it easy for plugins to implement
// the OperationsProvider interface.
func GetOperationsFromYAML(toolDef *YAMLToolDefinition) []OperationInfo {
	if toolDef == nil || len(toolDef.Operations) == 0 {
		return nil
	}

	operationNames := sortedOperationNames(toolDef.Operations)
	operations := make([]OperationInfo, 0, len(operationNames))

	for _, opName := range operationNames {
		opDef := toolDef.Operations[opName]

		var params []string
		var requiredParams []string

		for _, param := range opDef.Parameters {
			params = append(params, param.Name)
			if param.Required {
				requiredParams = append(requiredParams, param.Name)
			}
		}

		sort.Strings(params)
		sort.Strings(requiredParams)

		operations = append(operations, OperationInfo{
			Name:               opName,
			Parameters:         params,
			RequiredParameters: requiredParams,
		})
	}

	return operations
}
