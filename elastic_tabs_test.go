package termcore

import "testing"

func TestElasticTabsArenaRefCounting(t *testing.T) {
	a := newElasticTabsArena()
	id := a.create(0)
	if g := a.get(id); g == nil || g.refCount != 1 {
		t.Fatalf("expected refCount 1 after create, got %+v", g)
	}
	a.attach(id)
	if g := a.get(id); g.refCount != 2 {
		t.Fatalf("expected refCount 2 after attach, got %d", g.refCount)
	}
	a.detach(id)
	if g := a.get(id); g == nil || g.refCount != 1 {
		t.Fatalf("expected refCount 1 after one detach, got %+v", g)
	}
	a.detach(id)
	if g := a.get(id); g != nil {
		t.Fatalf("expected group to be released at refCount 0, got %+v", g)
	}
}

func TestElasticTabsGroupDirtyTracking(t *testing.T) {
	g := newElasticTabsGroup(0)
	if g.IsDirty {
		t.Fatal("new group should not start dirty")
	}
	g.markAdded(5)
	if !g.IsDirty || g.FirstDirtyLine != 5 {
		t.Fatalf("markAdded(5): got dirty=%v first=%d", g.IsDirty, g.FirstDirtyLine)
	}
	g.markAdded(2)
	if g.FirstDirtyLine != 2 {
		t.Fatalf("markAdded(2) should lower first dirty line, got %d", g.FirstDirtyLine)
	}
	g.markAdded(10)
	if g.FirstDirtyLine != 2 {
		t.Fatalf("markAdded(10) should not raise first dirty line, got %d", g.FirstDirtyLine)
	}
	g.undirtify()
	if g.IsDirty || g.FirstDirtyLine != noDirtyLine {
		t.Fatalf("undirtify did not reset state: %+v", g)
	}
	g.markShrunk()
	if !g.IsDirty || g.FirstDirtyLine != 0 {
		t.Fatalf("markShrunk must force a full recompute from line 0, got %+v", g)
	}
}

func TestElasticTabsArenaRecompute(t *testing.T) {
	a := newElasticTabsArena()
	id := a.create(0)

	l1 := NewLine()
	l1.AppendCharacters([]byte("a"), plainStyle())
	l1.AppendTab(plainStyle())
	l1.AppendCharacters([]byte("x"), plainStyle())

	l2 := NewLine()
	l2.AppendCharacters([]byte("bbbbb"), plainStyle())
	l2.AppendTab(plainStyle())
	l2.AppendCharacters([]byte("y"), plainStyle())

	a.recompute(id, []*Line{l1, l2})
	g := a.get(id)
	if len(g.ColumnWidths) != 1 || g.ColumnWidths[0] != 5 {
		t.Fatalf("expected column 0 width 5 (widest of 1 and 5), got %v", g.ColumnWidths)
	}
	if g.IsDirty {
		t.Fatal("recompute should clear the dirty flag")
	}
}
