// Package fingerprint computes the change-detection hash of the public part
// of a project's content.
//
// The value is a heuristic: equal visible content always hashes equal, and
// differing visible content differs with very high probability. It is not a
// security control.
package fingerprint

import (
	"encoding/binary"
	"sort"
	"strconv"

	"github.com/cespare/xxhash/v2"

	"github.com/GoSim-25-26J-441/brandsite-backend/internal/content/domain"
)

// Value is a rendered fingerprint: 16 lowercase hex characters.
type Value string

// String implements fmt.Stringer.
func (v Value) String() string { return string(v) }

// IsPublicKey reports whether key contributes to the public rendering.
func IsPublicKey(key string) bool {
	return !domain.IsReserved(key) && !domain.IsInternal(key)
}

// Compute hashes the public key/value pairs of content. Insertion order does
// not matter; reserved and internal keys are ignored.
func Compute(content map[string]string) Value {
	keys := make([]string, 0, len(content))
	for k := range content {
		if IsPublicKey(k) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	d := xxhash.New()
	var n [8]byte
	for _, k := range keys {
		writeField(d, n[:], k)
		writeField(d, n[:], content[k])
	}
	return format(d.Sum64())
}

// FromItems hashes stored content. When a key repeats, the last value wins,
// matching merge semantics.
func FromItems(items []domain.ContentItem) Value {
	m := make(map[string]string, len(items))
	for _, it := range items {
		m[it.Key] = it.Value
	}
	return Compute(m)
}

// writeField length-prefixes s so that ("ab","c") and ("a","bc") differ.
func writeField(d *xxhash.Digest, buf []byte, s string) {
	binary.BigEndian.PutUint64(buf, uint64(len(s)))
	_, _ = d.Write(buf)
	_, _ = d.WriteString(s)
}

func format(sum uint64) Value {
	s := strconv.FormatUint(sum, 16)
	for len(s) < 16 {
		s = "0" + s
	}
	return Value(s)
}
