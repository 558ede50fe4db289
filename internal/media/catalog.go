package media

import (
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// CatalogEntry is one selectable asset with its matching tags.
type CatalogEntry struct {
	Path string   `yaml:"path"`
	Tags []string `yaml:"tags"`
}

// Catalog is a tagged collection of asset files (background video templates
// or music tracks) loaded from YAML.
type Catalog struct {
	Assets []CatalogEntry `yaml:"assets"`

	baseDir string
}

// LoadCatalog reads a catalog file. Relative asset paths resolve against the
// catalog file's directory.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}

	var cat Catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	if len(cat.Assets) == 0 {
		return nil, fmt.Errorf("catalog %s lists no assets", path)
	}
	cat.baseDir = filepath.Dir(path)
	return &cat, nil
}

// Select returns the asset whose tags best match the keywords: the entry with
// the most keyword hits wins, first in file order on ties. With no hits at
// all, a random entry is returned so every job still gets an asset.
func (c *Catalog) Select(keywords []string) string {
	kw := make(map[string]bool, len(keywords))
	for _, k := range keywords {
		kw[strings.ToLower(k)] = true
	}

	best := -1
	bestHits := 0
	for i, entry := range c.Assets {
		hits := 0
		for _, tag := range entry.Tags {
			if kw[strings.ToLower(tag)] {
				hits++
			}
		}
		if hits > bestHits {
			best = i
			bestHits = hits
		}
	}

	if best < 0 {
		best = rand.Intn(len(c.Assets))
	}
	return c.resolve(c.Assets[best].Path)
}

func (c *Catalog) resolve(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.baseDir, path)
}
