// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/xeipuuv/gojsonschema"
)

func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cat Catalog
	err = json.Unmarshal(data, &cat)
	return &cat, err
}

// SchemaMap decodes a JSON schema string into the map form stored in the catalog.
func SchemaMap(schema string) map[string]interface{} {
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(schema), &m); err != nil {
		return nil
	}
	return m
}

// Sort orders transforms by ID.
func (c *Catalog) Sort() {
	sort.Slice(c.Transforms, func(i, j int) bool { return c.Transforms[i].ID < c.Transforms[j].ID })
}

// Find returns the transform with the given ID.
func (c *Catalog) Find(id string) (*Transform, bool) {
	for i := range c.Transforms {
		if c.Transforms[i].ID == id {
			return &c.Transforms[i], true
		}
	}
	return nil, false
}

// Validate checks IDs are unique and every schema compiles.
func (c *Catalog) Validate() error {
	seen := make(map[string]bool, len(c.Transforms))
	for _, t := range c.Transforms {
		if t.ID == "" {
			return fmt.Errorf("transform with empty id")
		}
		if seen[t.ID] {
			return fmt.Errorf("duplicate transform id %q", t.ID)
		}
		seen[t.ID] = true

		for name, schema := range map[string]map[string]interface{}{
			"inputSchema":  t.InputSchema,
			"outputSchema": t.OutputSchema,
		} {
			if len(schema) == 0 {
				return fmt.Errorf("%s: %s is empty", t.ID, name)
			}
			if _, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(schema)); err != nil {
				return fmt.Errorf("%s: %s: %w", t.ID, name, err)
			}
		}
	}
	return nil
}
