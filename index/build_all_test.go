package index

import "testing"

func TestBuildAllBuildsEveryPattern(t *testing.T) {
	v := buildVocab(t, map[string][]uint32{"a": {1}, "b": {2}}, 99)
	indexes, err := BuildAll([]string{"a", "b", "ab"}, v)
	if err != nil {
		t.Fatal(err)
	}
	if len(indexes) != 3 {
		t.Fatalf("expected 3 indexes, got %d", len(indexes))
	}
	for i, idx := range indexes {
		if idx == nil {
			t.Fatalf("expected index %d to be built", i)
		}
	}
}

func TestBuildAllPropagatesFirstError(t *testing.T) {
	v := buildVocab(t, map[string][]uint32{"a": {1}}, 99)
	if _, err := BuildAll([]string{"a", "(unclosed"}, v); err == nil {
		t.Fatal("expected an error when one pattern in the batch is invalid")
	}
}
