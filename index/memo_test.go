package index

import (
	"testing"

	"github.com/jmorganca/outlines-go/vocab"
)

func TestBuildMemoizedReturnsSameIndexForSameKey(t *testing.T) {
	v := buildVocab(t, map[string][]uint32{"a": {1}}, 99)
	first, err := BuildMemoized("a+", v)
	if err != nil {
		t.Fatal(err)
	}
	second, err := BuildMemoized("a+", v)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Fatal("expected BuildMemoized to return the cached *Index on a repeat call")
	}
}

func TestBuildMemoizedDistinguishesVocabularies(t *testing.T) {
	v1 := buildVocab(t, map[string][]uint32{"a": {1}}, 99)
	v2, err := vocab.New(99, map[string][]uint32{"a": {7}})
	if err != nil {
		t.Fatal(err)
	}
	first, err := BuildMemoized("a+", v1)
	if err != nil {
		t.Fatal(err)
	}
	second, err := BuildMemoized("a+", v2)
	if err != nil {
		t.Fatal(err)
	}
	if first == second {
		t.Fatal("expected distinct vocabularies to produce distinct cache entries")
	}
}
