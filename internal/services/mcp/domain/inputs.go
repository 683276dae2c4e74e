package domain

// Input is implemented by every tool input shape. Example returns the
// canonical value advertised alongside the input schema; it is never executed.
type Input interface {
	Example() Input
}

// EchoInput represents the MCP tool input for echo.
type EchoInput struct {
	EchoText string `json:"echoText,omitempty" jsonschema:"text to echo back"`
}

// Example implements Input.
func (EchoInput) Example() Input {
	return EchoInput{EchoText: "Echo..."}
}

// SelectRandomInput represents the MCP tool input for random selection.
type SelectRandomInput struct {
	Ints []int `json:"ints,omitempty" jsonschema:"integers to pick from"`
}

// Example implements Input.
func (SelectRandomInput) Example() Input {
	return SelectRandomInput{Ints: []int{5, 4, 6, 7, 123, 8411}}
}

// RuntimeVersionInput represents the MCP tool input for the version tool.
type RuntimeVersionInput struct{}

// Example implements Input.
func (RuntimeVersionInput) Example() Input {
	return RuntimeVersionInput{}
}
