/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package drills loads the drill library and answers filtered selection
// queries against it.
package drills

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"math/rand"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultMinutes is used for drills that do not declare a duration.
const DefaultMinutes = 5

// Drill intensity tags.
const (
	IntensityLow    = "low"
	IntensityMedium = "medium"
	IntensityHigh   = "high"
)

//go:embed catalog.yml
var embeddedCatalog []byte

// Drill is a single catalog entry.
type Drill struct {
	ID          string   `json:"id"`
	Category    string   `json:"category"`
	Intensity   string   `json:"intensity"`
	Equipment   []string `json:"equipment"`
	Minutes     int      `json:"minutes"`
	Description string   `json:"description"`
}

// Requires reports whether every piece of equipment the drill needs is in
// the available set.
func (d Drill) Requires(available map[string]struct{}) bool {
	for _, item := range d.Equipment {
		if _, ok := available[item]; !ok {
			return false
		}
	}
	return true
}

type drillRecord struct {
	Category    string   `yaml:"category"`
	Intensity   string   `yaml:"intensity"`
	Equipment   []string `yaml:"equipment"`
	Minutes     int      `yaml:"minutes"`
	Description string   `yaml:"description"`
}

// Catalog is an immutable, ordered drill library. It is safe for concurrent
// use once constructed.
type Catalog struct {
	drills []Drill
}

// New builds a catalog from drills, copying the input.
func New(drills []Drill) *Catalog {
	out := make([]Drill, len(drills))
	for i, d := range drills {
		if d.Minutes < 1 {
			d.Minutes = DefaultMinutes
		}
		d.Equipment = append([]string(nil), d.Equipment...)
		out[i] = d
	}
	return &Catalog{drills: out}
}

// Load reads a YAML drill library from path. A missing file yields an empty
// catalog so plans can still be built with generic block descriptions.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return New(nil), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read drill catalog: %w", err)
	}
	return Parse(data)
}

// Default returns the catalog embedded in the binary.
func Default() (*Catalog, error) {
	return Parse(embeddedCatalog)
}

// Parse decodes a keyed YAML mapping, keeping document order.
func Parse(data []byte) (*Catalog, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse drill catalog: %w", err)
	}
	if len(doc.Content) == 0 {
		return New(nil), nil
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("parse drill catalog: expected a mapping at the top level, got kind %d", root.Kind)
	}

	drills := make([]Drill, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]

		var rec drillRecord
		if err := value.Decode(&rec); err != nil {
			return nil, fmt.Errorf("parse drill %q: %w", key.Value, err)
		}
		drills = append(drills, Drill{
			ID:          key.Value,
			Category:    rec.Category,
			Intensity:   rec.Intensity,
			Equipment:   rec.Equipment,
			Minutes:     rec.Minutes,
			Description: rec.Description,
		})
	}
	return New(drills), nil
}

// Len returns the number of drills.
func (c *Catalog) Len() int {
	return len(c.drills)
}

// All returns every drill in catalog order.
func (c *Catalog) All() []Drill {
	return append([]Drill(nil), c.drills...)
}

// Equipment returns every distinct equipment tag referenced by the catalog.
func (c *Catalog) Equipment() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, d := range c.drills {
		for _, item := range d.Equipment {
			if _, ok := seen[item]; ok {
				continue
			}
			seen[item] = struct{}{}
			out = append(out, item)
		}
	}
	return out
}

// Query narrows a catalog lookup. Empty fields match everything. Equipment is
// only checked when RestrictEquipment is set, in which case an empty list
// means nothing is available. Equipment aliases are accepted.
type Query struct {
	Category          string
	Intensity         string
	Equipment         []string
	RestrictEquipment bool
}

// Filter returns drills matching q in catalog order.
func (c *Catalog) Filter(q Query) []Drill {
	var available map[string]struct{}
	if q.RestrictEquipment {
		available = make(map[string]struct{}, len(q.Equipment))
		for _, item := range q.Equipment {
			available[CanonicalEquipment(item)] = struct{}{}
		}
	}

	var out []Drill
	for _, d := range c.drills {
		if q.Category != "" && d.Category != q.Category {
			continue
		}
		if q.Intensity != "" && d.Intensity != q.Intensity {
			continue
		}
		if q.RestrictEquipment && !d.Requires(available) {
			continue
		}
		out = append(out, d)
	}
	return out
}

// PickForBlock shuffles the drills matching category, intensity and the
// available equipment, then takes drills until their suggested minutes cover
// minutesNeeded or the pool runs out. An empty result is not an error.
func (c *Catalog) PickForBlock(rng *rand.Rand, category, intensity string, equipment []string, minutesNeeded int) []Drill {
	pool := c.Filter(Query{
		Category:          category,
		Intensity:         intensity,
		Equipment:         equipment,
		RestrictEquipment: true,
	})
	rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	var selected []Drill
	total := 0
	for _, d := range pool {
		if total >= minutesNeeded {
			break
		}
		selected = append(selected, d)
		total += d.Minutes
	}
	return selected
}
