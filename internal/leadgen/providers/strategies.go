package providers

import (
	_ "embed"
	"fmt"

	"leadgen_backend/internal/leadgen/domain"

	"gopkg.in/yaml.v3"
)

// searchStrategy narrows a query to one platform, either by Exa category or
// by a domain restriction.
type searchStrategy struct {
	Category string   `yaml:"category"`
	Domains  []string `yaml:"domains"`
}

//go:embed strategies.yaml
var strategiesYAML []byte

var exaStrategies = mustLoadStrategies(strategiesYAML)

// loadStrategies parses the platform table and rejects unknown platforms.
func loadStrategies(data []byte) (map[domain.Platform]searchStrategy, error) {
	var raw map[string]searchStrategy
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse strategies: %w", err)
	}
	out := make(map[domain.Platform]searchStrategy, len(raw))
	for name, strategy := range raw {
		platform, ok := domain.ParsePlatform(name)
		if !ok {
			return nil, fmt.Errorf("unknown platform %q in strategies", name)
		}
		out[platform] = strategy
	}
	return out, nil
}

func mustLoadStrategies(data []byte) map[domain.Platform]searchStrategy {
	strategies, err := loadStrategies(data)
	if err != nil {
		panic(err)
	}
	return strategies
}
