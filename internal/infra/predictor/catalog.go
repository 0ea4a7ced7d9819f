package predictor

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/Krishna2005-yadav/Crop-System/internal/core/domain"
)

// DiseaseCatalog resolves presentation details for classifier labels, with
// optional per-deployment overrides on top of the built-in table.
type DiseaseCatalog struct {
	overrides map[string]domain.DiseaseInfo
}

type catalogEntry struct {
	Plant     string `yaml:"plant"`
	Status    string `yaml:"status"`
	Name      string `yaml:"name"`
	Symptoms  string `yaml:"symptoms"`
	Treatment string `yaml:"treatment"`
}

// LoadDiseaseCatalog reads overrides from a YAML file keyed by label. An empty path yields the built-in table only.
func LoadDiseaseCatalog(path string) (*DiseaseCatalog, error) {
	catalog := &DiseaseCatalog{overrides: map[string]domain.DiseaseInfo{}}
	if path == "" {
		return catalog, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read disease catalog: %w", err)
	}
	if err := catalog.parse(data); err != nil {
		return nil, err
	}
	return catalog, nil
}

func (c *DiseaseCatalog) parse(data []byte) error {
	var entries map[string]catalogEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parse disease catalog: %w", err)
	}
	for label, e := range entries {
		if e.Name == "" {
			return fmt.Errorf("parse disease catalog: entry %q has no name", label)
		}
		c.overrides[label] = domain.DiseaseInfo(e)
	}
	return nil
}

// Lookup returns the override for label, or the built-in details.
func (c *DiseaseCatalog) Lookup(label string) domain.DiseaseInfo {
	if c != nil {
		if info, ok := c.overrides[label]; ok {
			return info
		}
	}
	return domain.DiseaseDetails(label)
}
