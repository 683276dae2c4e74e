package registry

import (
	"fmt"

	"github.com/louisbranch/mcptoolbox/internal/random"
	"github.com/louisbranch/mcptoolbox/internal/services/mcp/domain"
)

// Dependencies are the collaborators the default tools need.
type Dependencies struct {
	Source random.Source
	Prober domain.VersionProber
}

// NewDefault registers every toolbox tool in discovery order.
func NewDefault(deps Dependencies) (*Registry, error) {
	if deps.Source == nil {
		return nil, fmt.Errorf("random source is required")
	}
	if deps.Prober == nil {
		return nil, fmt.Errorf("version prober is required")
	}

	r := New()
	if err := Register(r, domain.EchoTool(), domain.EchoHandler()); err != nil {
		return nil, err
	}
	if err := Register(r, domain.SelectRandomTool(), domain.SelectRandomHandler(deps.Source)); err != nil {
		return nil, err
	}
	if err := Register(r, domain.RuntimeVersionTool(), domain.RuntimeVersionHandler(deps.Prober)); err != nil {
		return nil, err
	}
	return r, nil
}
