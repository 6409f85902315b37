package index

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"

	"github.com/jmorganca/outlines-go/envconfig"
	"github.com/jmorganca/outlines-go/vocab"
)

// Memo is the process-wide Index cache, keyed by (regex, eos,
// vocab.Digest()). It replaces a per-caller ad-hoc cache with a single
// shared one, grounded on x/grammar/engine.go's maskCache LRU, generalized
// from per-Engine to process-wide since two callers building the same regex
// against the same vocabulary is common across concurrent requests in a
// serving process.
var Memo sync.Map // memoKey -> *Index

type memoKey string

func makeMemoKey(pattern string, vocabulary *vocab.Vocabulary) memoKey {
	h := sha256.New()
	h.Write([]byte(pattern))
	h.Write([]byte{0})
	digest := vocabulary.Digest()
	h.Write(digest[:])
	var eosBuf [4]byte
	eos := vocabulary.EOS()
	eosBuf[0] = byte(eos)
	eosBuf[1] = byte(eos >> 8)
	eosBuf[2] = byte(eos >> 16)
	eosBuf[3] = byte(eos >> 24)
	h.Write(eosBuf[:])
	return memoKey(hex.EncodeToString(h.Sum(nil)))
}

// BuildMemoized is Build, but returns a cached Index when one already
// exists for the same (pattern, vocabulary) pair. Disabled (always
// rebuilds) when envconfig.IndexCacheSize is zero.
//
// Memo has no eviction: envconfig.IndexCacheSize gates whether memoisation
// happens at all rather than bounding how many entries accumulate. A
// process building a bounded, reused set of patterns (the common case: a
// handful of schemas served repeatedly) never needs eviction; one building
// an unbounded stream of distinct patterns should disable memoisation
// instead of relying on a cap this cache does not enforce.
func BuildMemoized(pattern string, vocabulary *vocab.Vocabulary) (*Index, error) {
	if envconfig.IndexCacheSize <= 0 {
		return Build(pattern, vocabulary)
	}
	key := makeMemoKey(pattern, vocabulary)
	if cached, ok := Memo.Load(key); ok {
		return cached.(*Index), nil
	}
	idx, err := Build(pattern, vocabulary)
	if err != nil {
		return nil, err
	}
	Memo.Store(key, idx)
	return idx, nil
}
