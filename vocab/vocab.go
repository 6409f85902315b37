// Package vocab implements the tokenizer's token-bytes↔id mapping plus the
// distinguished end-of-sequence marker. A Vocabulary is built once per
// model and is immutable in steady state; Insert/Remove exist for the rare
// caller that patches a loaded vocabulary (e.g. to add a stop sequence)
// rather than for building one token at a time.
package vocab

import (
	"crypto/sha256"
	"sort"

	"github.com/jmorganca/outlines-go/ecode"
)

// Vocabulary is a bidirectional token↔id map. Some tokenizers assign more
// than one id to an identical surface form, so the forward map holds a set
// of ids per token.
type Vocabulary struct {
	eos    uint32
	byTok  map[string]map[uint32]struct{}
	byID   map[uint32]string
	digest [32]byte
	dirty  bool
}

// New builds a Vocabulary from an eos id and a token→ids mapping. Inserting
// the EOS bytes as an ordinary token is rejected at construction the same
// way it is rejected from Insert.
func New(eos uint32, tokens map[string][]uint32) (*Vocabulary, error) {
	v := &Vocabulary{
		eos:   eos,
		byTok: make(map[string]map[uint32]struct{}, len(tokens)),
		byID:  make(map[uint32]string, len(tokens)),
		dirty: true,
	}
	for tok, ids := range tokens {
		for _, id := range ids {
			if err := v.insertLocked(tok, id); err != nil {
				return nil, err
			}
		}
	}
	return v, nil
}

func (v *Vocabulary) insertLocked(token string, id uint32) error {
	if id == v.eos {
		return &ecode.EOSDisallowed{Token: token}
	}
	if v.byTok[token] == nil {
		v.byTok[token] = make(map[uint32]struct{})
	}
	v.byTok[token][id] = struct{}{}
	v.byID[id] = token
	v.dirty = true
	return nil
}

// Insert adds a single token/id pair. It fails with EOSDisallowed if id is
// the vocabulary's EOS marker.
func (v *Vocabulary) Insert(token string, id uint32) error {
	return v.insertLocked(token, id)
}

// Remove deletes a token and every id currently mapped to it.
func (v *Vocabulary) Remove(token string) {
	ids, ok := v.byTok[token]
	if !ok {
		return
	}
	for id := range ids {
		delete(v.byID, id)
	}
	delete(v.byTok, token)
	v.dirty = true
}

// Get returns the set of ids mapped to token, if any.
func (v *Vocabulary) Get(token string) ([]uint32, bool) {
	ids, ok := v.byTok[token]
	if !ok {
		return nil, false
	}
	out := make([]uint32, 0, len(ids))
	for id := range ids {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, true
}

// GetByID returns the token bytes mapped to id, if any. EOS has no byte
// form and is never found here.
func (v *Vocabulary) GetByID(id uint32) (string, bool) {
	tok, ok := v.byID[id]
	return tok, ok
}

// EOS returns the distinguished end-of-sequence id.
func (v *Vocabulary) EOS() uint32 { return v.eos }

// Size returns the number of distinct ids in the vocabulary (EOS excluded).
func (v *Vocabulary) Size() int { return len(v.byID) }

// Tokens returns every (id, token-bytes) pair, sorted by id, for callers
// that need to enumerate the vocabulary (e.g. Index construction).
func (v *Vocabulary) Tokens() []TokenEntry {
	out := make([]TokenEntry, 0, len(v.byID))
	for id, tok := range v.byID {
		out = append(out, TokenEntry{ID: id, Bytes: tok})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// TokenEntry pairs a token id with its byte form.
type TokenEntry struct {
	ID    uint32
	Bytes string
}

// Digest returns a content digest of the vocabulary's (id, bytes) pairs,
// stable across process runs as long as the vocabulary's contents are the
// same. It is the vocabulary component of an Index memoisation key: unlike
// a hash of Go's map iteration or a pointer identity, this is reproducible
// across processes and serializable alongside the Index.
func (v *Vocabulary) Digest() [32]byte {
	if !v.dirty {
		return v.digest
	}
	h := sha256.New()
	for _, e := range v.Tokens() {
		var idBuf [4]byte
		idBuf[0] = byte(e.ID)
		idBuf[1] = byte(e.ID >> 8)
		idBuf[2] = byte(e.ID >> 16)
		idBuf[3] = byte(e.ID >> 24)
		h.Write(idBuf[:])
		h.Write([]byte(e.Bytes))
		h.Write([]byte{0})
	}
	var eosBuf [4]byte
	eosBuf[0] = byte(v.eos)
	eosBuf[1] = byte(v.eos >> 8)
	eosBuf[2] = byte(v.eos >> 16)
	eosBuf[3] = byte(v.eos >> 24)
	h.Write(eosBuf[:])
	copy(v.digest[:], h.Sum(nil))
	v.dirty = false
	return v.digest
}
