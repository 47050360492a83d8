package coreconfig

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLoadIsCached(t *testing.T) {
	a := Load()
	b := Load()
	if a != b {
		t.Error("Load should cache and return the same Tower instance")
	}
}

func TestNumericOrderMatchesSpecTower(t *testing.T) {
	tower := Load()
	want := []string{"Float", "Ratio", "Int", "Nat", "Bool"}
	if diff := cmp.Diff(want, tower.NumericOrder); diff != "" {
		t.Errorf("NumericOrder mismatch (-want +got):\n%s", diff)
	}
}

func TestRankOfNonNumericTagIsNegative(t *testing.T) {
	tower := Load()
	if tower.Rank("Str") != -1 {
		t.Errorf("Rank(Str) = %d, want -1", tower.Rank("Str"))
	}
}

func TestNumericSupertypeOfOrdering(t *testing.T) {
	tower := Load()
	if !tower.NumericSupertypeOf("Float", "Int") {
		t.Error("Float should be a numeric supertype of Int")
	}
	if tower.NumericSupertypeOf("Int", "Float") {
		t.Error("Int should not be a numeric supertype of Float")
	}
	if !tower.NumericSupertypeOf("Int", "Int") {
		t.Error("a tag should be its own numeric supertype (reflexivity)")
	}
}

func TestNumericSupertypeOfOutsideTowerIsFalse(t *testing.T) {
	tower := Load()
	if tower.NumericSupertypeOf("Str", "Int") {
		t.Error("Str is not part of the numeric tower, so this should be false")
	}
}

func TestMutableCounterpartsAreDistinctTags(t *testing.T) {
	tower := Load()
	found := false
	for _, p := range tower.Primitives {
		if p.Tag == "Int!" {
			found = true
			if p.MutableOf != "Int" {
				t.Errorf("Int! should map back to Int, got %q", p.MutableOf)
			}
		}
	}
	if !found {
		t.Error("expected Int! in the primitive table")
	}
}
