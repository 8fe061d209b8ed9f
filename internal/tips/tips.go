package tips

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/ukydev/smart-garage/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed tips.yaml
var defaultCatalogue []byte

// Catalogue holds the static maintenance tips.
type Catalogue struct {
	General []models.Tip            `yaml:"general"`
	ByKind  map[string][]models.Tip `yaml:"by_kind"`
}

// Default parses the embedded catalogue.
func Default() (*Catalogue, error) {
	return Parse(defaultCatalogue)
}

// Parse decodes a YAML catalogue. Kind keys are lower-cased.
func Parse(data []byte) (*Catalogue, error) {
	var c Catalogue
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse tips: %w", err)
	}
	byKind := make(map[string][]models.Tip, len(c.ByKind))
	for k, v := range c.ByKind {
		byKind[strings.ToLower(k)] = v
	}
	c.ByKind = byKind
	if c.General == nil {
		c.General = []models.Tip{}
	}
	return &c, nil
}

// ForKind looks up the tips of a vehicle kind, case-insensitively.
func (c *Catalogue) ForKind(kind string) ([]models.Tip, bool) {
	t, ok := c.ByKind[strings.ToLower(kind)]
	if !ok || len(t) == 0 {
		return nil, false
	}
	return t, true
}
