package weaver

// Helper functions for building JSON schema parameter definitions.
// These make it easier to construct tool definitions without manually
// building nested map[string]interface{} structures.

// StringProperty creates a JSON schema property for a string parameter.
func StringProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
	}
}

// NumberProperty creates a JSON schema property for a number parameter.
func NumberProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "number",
		"description": description,
	}
}

// IntegerProperty creates a JSON schema property for an integer parameter.
func IntegerProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "integer",
		"description": description,
	}
}

// BooleanProperty creates a JSON schema property for a boolean parameter.
func BooleanProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "boolean",
		"description": description,
	}
}

// ObjectProperty creates a JSON schema property for an object parameter.
// The properties parameter defines the object's fields, and required lists
// the required field names.
func ObjectProperty(description string, properties map[string]interface{}, required []string) map[string]interface{} {
	obj := map[string]interface{}{
		"type":       "object",
		"properties": properties,
	}

	if description != "" {
		obj["description"] = description
	}

	if len(required) > 0 {
		obj["required"] = required
	}

	return obj
}

// StringEnumProperty creates a string property constrained to a set of
// values.
//
// Example:
//
//	"timeframe": weaver.StringEnumProperty("RRD timeframe", []string{"hour", "day", "week", "month", "year"})
func StringEnumProperty(description string, values []string) map[string]interface{} {
	interfaceValues := make([]interface{}, len(values))
	for i, v := range values {
		interfaceValues[i] = v
	}

	return map[string]interface{}{
		"type":        "string",
		"description": description,
		"enum":        interfaceValues,
	}
}

// WithMinMax adds minimum and maximum constraints to a number/integer
// property.
func WithMinMax(property map[string]interface{}, min, max float64) map[string]interface{} {
	property["minimum"] = min
	property["maximum"] = max
	return property
}

// WithDefault adds a default value to a property.
func WithDefault(property map[string]interface{}, defaultValue interface{}) map[string]interface{} {
	property["default"] = defaultValue
	return property
}
