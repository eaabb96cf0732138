package workflow

import (
	"fmt"

	"github.com/trendflow/trendflow/internal/modules"
	"github.com/trendflow/trendflow/internal/modules/publish"
	"github.com/trendflow/trendflow/internal/modules/rendervideo"
	"github.com/trendflow/trendflow/internal/modules/scriptgen"
	"github.com/trendflow/trendflow/internal/modules/trendscore"
	"github.com/trendflow/trendflow/internal/modules/tts"
	"github.com/trendflow/trendflow/internal/registry"
)

// DefaultRegistry returns a registry with every built-in module registered
func DefaultRegistry() (*registry.Registry, error) {
	reg := registry.New()
	adapters := []modules.Adapter{
		trendscore.New(),
		scriptgen.New(),
		tts.New(),
		rendervideo.New(),
		publish.New(),
	}
	for _, a := range adapters {
		if err := reg.Register(a.Contract(), a); err != nil {
			return nil, fmt.Errorf("failed to register %s module: %w", a.Name(), err)
		}
	}
	return reg, nil
}
