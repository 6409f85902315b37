package vocab

import "testing"

func TestNewRejectsEOSAsOrdinaryToken(t *testing.T) {
	_, err := New(5, map[string][]uint32{"x": {5}})
	if err == nil {
		t.Fatal("expected EOSDisallowed error when a token maps to the eos id")
	}
}

func TestGetAndGetByID(t *testing.T) {
	v, err := New(99, map[string][]uint32{"foo": {1, 2}, "bar": {3}})
	if err != nil {
		t.Fatal(err)
	}
	ids, ok := v.Get("foo")
	if !ok || len(ids) != 2 {
		t.Fatalf("expected two ids for foo, got %v ok=%v", ids, ok)
	}
	tok, ok := v.GetByID(3)
	if !ok || tok != "bar" {
		t.Fatalf("expected bar for id 3, got %q ok=%v", tok, ok)
	}
}

func TestRemoveDropsBothDirections(t *testing.T) {
	v, err := New(99, map[string][]uint32{"foo": {1}})
	if err != nil {
		t.Fatal(err)
	}
	v.Remove("foo")
	if _, ok := v.Get("foo"); ok {
		t.Fatal("expected foo to be gone from the forward map")
	}
	if _, ok := v.GetByID(1); ok {
		t.Fatal("expected id 1 to be gone from the reverse map")
	}
}

func TestDigestStableAcrossCalls(t *testing.T) {
	v, err := New(99, map[string][]uint32{"a": {1}, "b": {2}})
	if err != nil {
		t.Fatal(err)
	}
	d1 := v.Digest()
	d2 := v.Digest()
	if d1 != d2 {
		t.Fatal("expected repeated Digest calls on an unchanged vocabulary to agree")
	}
}

func TestDigestChangesOnMutation(t *testing.T) {
	v, err := New(99, map[string][]uint32{"a": {1}})
	if err != nil {
		t.Fatal(err)
	}
	before := v.Digest()
	if err := v.Insert("b", 2); err != nil {
		t.Fatal(err)
	}
	after := v.Digest()
	if before == after {
		t.Fatal("expected Digest to change after inserting a new token")
	}
}

func TestSize(t *testing.T) {
	v, err := New(99, map[string][]uint32{"a": {1}, "b": {2, 3}})
	if err != nil {
		t.Fatal(err)
	}
	if v.Size() != 3 {
		t.Fatalf("expected size 3, got %d", v.Size())
	}
}
