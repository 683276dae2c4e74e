package domain

// ToolName identifies a tool from the closed set served by the toolbox.
type ToolName string

const (
	// ToolEcho returns the text it was sent.
	ToolEcho ToolName = "echo"
	// ToolSelectRandom picks one of the supplied integers.
	ToolSelectRandom ToolName = "selectRandom"
	// ToolRuntimeVersion reports the Go toolchain version.
	ToolRuntimeVersion ToolName = "runtimeVersion"
)

// toolNames lists every tool in registration order.
var toolNames = []ToolName{ToolEcho, ToolSelectRandom, ToolRuntimeVersion}

// ParseToolName matches value against the known tools. Matching is exact and
// case-sensitive.
func ParseToolName(value string) (ToolName, bool) {
	for _, name := range toolNames {
		if string(name) == value {
			return name, true
		}
	}
	return "", false
}

// ToolSpec describes a tool for discovery and result rendering.
type ToolSpec struct {
	Name        ToolName
	Description string
	// ResultPrefix is prepended to the handler output in the text result.
	ResultPrefix string
}

// EchoTool describes the echo tool.
func EchoTool() ToolSpec {
	return ToolSpec{
		Name:         ToolEcho,
		Description:  "Echo back any text that was sent",
		ResultPrefix: "You sent: ",
	}
}

// SelectRandomTool describes the random selection tool.
func SelectRandomTool() ToolSpec {
	return ToolSpec{
		Name:         ToolSelectRandom,
		Description:  "Takes in a collection of numbers and picks one at random",
		ResultPrefix: "I picked: ",
	}
}

// RuntimeVersionTool describes the runtime version tool.
func RuntimeVersionTool() ToolSpec {
	return ToolSpec{
		Name:         ToolRuntimeVersion,
		Description:  "Retrieves the version of the Go toolchain available to the server",
		ResultPrefix: "Go version: ",
	}
}
