package weaver

// Tool represents a generic, provider-agnostic function/tool definition.
// The Parameters field contains a JSON schema describing the expected
// inputs; the host translates it to provider-specific formats.
//
// Example:
//
//	tool := weaver.Tool{
//	    Name:        "get_current_weather",
//	    Description: "Get the current weather for a city",
//	    Parameters: map[string]interface{}{
//	        "type": "object",
//	        "properties": map[string]interface{}{
//	            "city": map[string]interface{}{
//	                "type":        "string",
//	                "description": "City name, e.g. Louisville",
//	            },
//	        },
//	    },
//	}
type Tool struct {
	// Name is the unique identifier for this tool (required).
	// Should be descriptive and follow snake_case convention.
	Name string

	// Description explains what the tool does and when to use it (required).
	Description string

	// Parameters is a JSON schema object describing the tool's input
	// parameters (required). Must follow JSON Schema conventions.
	Parameters map[string]interface{}
}

// NewTool creates a new Tool with the given name, description, and
// parameters.
func NewTool(name, description string, parameters map[string]interface{}) Tool {
	return Tool{
		Name:        name,
		Description: description,
		Parameters:  parameters,
	}
}
