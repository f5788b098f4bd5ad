// Package catalog holds the read-only set of checklist definitions.
// A Catalog is built once at startup and shared by every request.
package catalog

import (
	"bytes"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/Lllllllleong/equipmentchecklist/internal/models"
	"gopkg.in/yaml.v3"
)

// Catalog is an immutable lookup of checklist definitions keyed by type ID.
type Catalog struct {
	byType map[string]models.ChecklistDefinition
}

// file is the on-disk YAML layout.
type file struct {
	Checklists []models.ChecklistDefinition `yaml:"checklists"`
}

// Load reads and validates a catalog YAML file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog %s: %w", path, err)
	}
	return Parse(data)
}

// Parse builds a catalog from YAML content. Unknown keys are rejected.
func Parse(data []byte) (*Catalog, error) {
	var f file
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	return New(f.Checklists...)
}

// New builds a catalog from definitions. Definitions are copied.
func New(defs ...models.ChecklistDefinition) (*Catalog, error) {
	c := &Catalog{byType: make(map[string]models.ChecklistDefinition, len(defs))}
	for i, def := range defs {
		def.TypeID = strings.TrimSpace(def.TypeID)
		switch {
		case def.TypeID == "":
			return nil, fmt.Errorf("checklist #%d: type must not be empty", i+1)
		case strings.TrimSpace(def.TemplateReference) == "":
			return nil, fmt.Errorf("checklist %q: template must not be empty", def.TypeID)
		case len(def.Questions) == 0:
			return nil, fmt.Errorf("checklist %q: at least one question is required", def.TypeID)
		}
		if _, dup := c.byType[def.TypeID]; dup {
			return nil, fmt.Errorf("checklist %q is defined more than once", def.TypeID)
		}
		def.Questions = append([]string(nil), def.Questions...)
		c.byType[def.TypeID] = def
	}
	return c, nil
}

// Get returns the definition for typeID.
func (c *Catalog) Get(typeID string) (models.ChecklistDefinition, bool) {
	def, ok := c.byType[typeID]
	if !ok {
		return models.ChecklistDefinition{}, false
	}
	def.Questions = append([]string(nil), def.Questions...)
	return def, true
}

// Exists reports whether typeID is defined.
func (c *Catalog) Exists(typeID string) bool {
	_, ok := c.byType[typeID]
	return ok
}

// All returns every definition sorted by type ID.
func (c *Catalog) All() []models.ChecklistDefinition {
	out := make([]models.ChecklistDefinition, 0, len(c.byType))
	for id := range c.byType {
		def, _ := c.Get(id)
		out = append(out, def)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TypeID < out[j].TypeID })
	return out
}

// Len returns the number of definitions.
func (c *Catalog) Len() int {
	return len(c.byType)
}
