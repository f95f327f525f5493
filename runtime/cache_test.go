package runtime

import (
	"errors"
	"testing"
)

func TestCacheInsertRemove(t *testing.T) {
	c := newCache()
	ref := &Ref{}

	id := c.Insert(ref)
	if id != 1 {
		t.Fatalf("first id = %d, want 1", id)
	}
	if c.Len() != 1 {
		t.Fatalf("Len = %d, want 1", c.Len())
	}

	got := c.Remove(id)
	if got != ref {
		t.Fatal("Remove returned a different reference")
	}
	if c.Len() != 0 {
		t.Fatalf("Len after remove = %d, want 0", c.Len())
	}
}

func TestCacheIDsMonotonicWithReuse(t *testing.T) {
	c := newCache()
	a := c.Insert(&Ref{})
	b := c.Insert(&Ref{})
	if a == b {
		t.Fatalf("live ids collide: %d", a)
	}

	c.Remove(a)
	reused := c.Insert(&Ref{})
	if reused != a {
		t.Fatalf("freed id not reused: got %d, want %d", reused, a)
	}

	next := c.Insert(&Ref{})
	if next != 3 {
		t.Fatalf("fresh id = %d, want 3", next)
	}
}

func TestCacheRemoveUnknownPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("Remove of unknown id did not panic")
		}
	}()
	newCache().Remove(42)
}

func TestCacheWithUnknownPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("With of unknown id did not panic")
		}
	}()
	newCache().With(7, func(*Ref) error { return nil })
}

func TestCacheWithLendsEntry(t *testing.T) {
	c := newCache()
	ref := &Ref{}
	id := c.Insert(ref)

	var seen *Ref
	wantErr := errors.New("from fn")
	err := c.With(id, func(r *Ref) error {
		seen = r
		return wantErr
	})
	if err != wantErr {
		t.Fatalf("With error = %v, want %v", err, wantErr)
	}
	if seen != ref {
		t.Fatal("With lent a different reference")
	}
	if c.Len() != 1 {
		t.Fatal("With removed the entry")
	}
}
