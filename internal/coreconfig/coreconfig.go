// Package coreconfig loads the fixed ambient tables the type-system core
// treats as data rather than as a hardcoded switch: the numeric subtyping
// tower and the primitive tag table the type algebra fixes. funxy loads its
// own structured config with gopkg.in/yaml.v3 (internal/ext/config.go);
// this package follows the same approach for the same reason — keeping
// the Subtype Oracle free of an inline literal list and giving tests one
// place to assert the tower's shape.
//
// Nothing here is end-user configurable: the tower is fixed
// (Float :> Ratio :> Int :> Nat :> Bool) and the primitive tag set. Loading
// it from an embedded YAML document is "ambient configuration of an
// internal table," not a builtin-type catalogue.
package coreconfig

import (
	_ "embed"

	"gopkg.in/yaml.v3"
)

//go:embed tower.yaml
var towerYAML []byte

// Tower describes the fixed numeric subtyping order and the full primitive
// tag table, as loaded from the embedded document.
type Tower struct {
	// NumericOrder lists primitive tags from most general to most specific:
	// NumericOrder[i] :> NumericOrder[i+1].
	NumericOrder []string `yaml:"numeric_order"`
	// Primitives lists every primitive tag the core recognizes, including
	// mutable counterparts, with the immutable tag each mutable one maps to
	// ("" for tags that have no mutable counterpart).
	Primitives []PrimitiveEntry `yaml:"primitives"`
}

// PrimitiveEntry is one row of the primitive tag table.
type PrimitiveEntry struct {
	Tag       string `yaml:"tag"`
	MutableOf string `yaml:"mutable_of"`
}

var loaded *Tower

// Load parses the embedded tower document once and caches the result;
// subsequent calls return the cached value. The document is fixed at
// build time, so parse errors here are a programmer error in the core
// itself, not a runtime condition a caller can recover from.
func Load() *Tower {
	if loaded != nil {
		return loaded
	}
	var t Tower
	if err := yaml.Unmarshal(towerYAML, &t); err != nil {
		panic("coreconfig: malformed embedded tower.yaml: " + err.Error())
	}
	loaded = &t
	return loaded
}

// Rank returns the numeric tower's position for tag (0 = most general), or
// -1 if tag is not part of the numeric tower (e.g. Str, Obj).
func (t *Tower) Rank(tag string) int {
	for i, n := range t.NumericOrder {
		if n == tag {
			return i
		}
	}
	return -1
}

// NumericSupertypeOf reports whether sup is a numeric-tower supertype of
// sub (sup comes no later in NumericOrder). Both tags must be part of the
// tower; callers outside the tower should fall back to other subtype rules.
func (t *Tower) NumericSupertypeOf(sup, sub string) bool {
	rs, rb := t.Rank(sup), t.Rank(sub)
	return rs >= 0 && rb >= 0 && rs <= rb
}
