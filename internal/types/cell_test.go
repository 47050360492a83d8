package types

import "testing"

func TestCellStartsUnbound(t *testing.T) {
	c := NewUnbound[Type](LevelTop, TopConstraint())
	if c.IsLinked() {
		t.Error("a fresh cell should not be linked")
	}
	if c.Level() != LevelTop {
		t.Errorf("Level() = %d, want %d", c.Level(), LevelTop)
	}
}

func TestCellLinkMakesItObservable(t *testing.T) {
	c := NewUnbound[Type](LevelTop, TopConstraint())
	c.Link(Int())
	if !c.IsLinked() {
		t.Error("Link should mark the cell linked")
	}
	if c.Crack() != Int() {
		t.Errorf("Crack() = %v, want Int", c.Crack())
	}
}

func TestCellCrackPanicsWhenUnbound(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Crack on an unbound cell should panic")
		}
	}()
	NewUnbound[Type](LevelTop, TopConstraint()).Crack()
}

func TestCellConstraintPanicsWhenLinked(t *testing.T) {
	c := NewUnbound[Type](LevelTop, TopConstraint())
	c.Link(Int())
	defer func() {
		if recover() == nil {
			t.Error("Constraint on a linked cell should panic")
		}
	}()
	c.Constraint()
}

func TestCellUpdateLevelOnlyLowers(t *testing.T) {
	c := NewUnbound[Type](Level(5), TopConstraint())
	c.UpdateLevel(2)
	if c.Level() != 2 {
		t.Errorf("UpdateLevel(2) on level 5 = %d, want 2", c.Level())
	}
	c.UpdateLevel(10)
	if c.Level() != 2 {
		t.Errorf("UpdateLevel(10) should not raise level back up, got %d", c.Level())
	}
}

func TestUpdateLevelsRecursesThroughLinks(t *testing.T) {
	inner := NewUnbound[Type](Level(5), TopConstraint())
	outer := NewUnbound[Type](Level(4), TopConstraint())
	outer.Link(Array{Elem: FreeVar{C: inner}, Len: IntParam(3)})

	UpdateLevels(FreeVar{C: outer}, 2)
	if inner.Level() != 2 {
		t.Errorf("inner cell level = %d, want 2 after UpdateLevels through the link", inner.Level())
	}
}

func TestLiftLevelsRaisesEveryCell(t *testing.T) {
	a := NewUnbound[Type](Level(1), TopConstraint())
	n := NewUnbound[TyParam](Level(1), TypeOfC(NatP()))
	t0 := Array{Elem: FreeVar{C: a}, Len: FreeTyParam{C: n}}

	LiftLevels(t0)
	if a.Level() != 2 || n.Level() != 2 {
		t.Errorf("LiftLevels = (%d, %d), want both 2", a.Level(), n.Level())
	}
}

func TestLevelGeneralizableAt(t *testing.T) {
	if !Level(2).GeneralizableAt(1) {
		t.Error("a level strictly deeper than the enclosing scope should be generalizable")
	}
	if Level(1).GeneralizableAt(1) {
		t.Error("a level equal to the enclosing scope should not be generalizable")
	}
	if LevelTop.GeneralizableAt(1) {
		t.Error("LevelTop should never be generalizable at a deeper scope")
	}
}
