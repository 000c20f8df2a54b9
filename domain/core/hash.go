package core

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
	"math"

	"edakit/domain/dataset"
)

// Hash represents a cryptographic hash
type Hash string

// String returns the string representation
func (h Hash) String() string {
	return string(h)
}

// Short is the first 12 hex digits, enough to tell datasets apart in logs
func (h Hash) Short() string {
	if len(h) <= 12 {
		return string(h)
	}
	return string(h[:12])
}

// IsEmpty checks if the hash is empty
func (h Hash) IsEmpty() bool {
	return h == ""
}

// ComputeTableHash fingerprints the column names, kinds, values and row
// labels of tbl. Column order matters.
func ComputeTableHash(tbl *dataset.Table) Hash {
	h := sha256.New()
	writeString(h, "index")
	for _, label := range tbl.Index {
		writeString(h, label)
	}
	for _, c := range tbl.Columns() {
		writeString(h, c.Name)
		writeString(h, c.Kind().String())
		switch c.Kind() {
		case dataset.Numeric:
			var buf [8]byte
			for _, v := range c.Floats() {
				binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
				h.Write(buf[:])
			}
		default:
			for _, s := range c.Labels() {
				writeString(h, s)
			}
		}
	}
	return Hash(hex.EncodeToString(h.Sum(nil)))
}

// writeString length-prefixes s so adjacent strings cannot collide
func writeString(h hash.Hash, s string) {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(len(s)))
	h.Write(buf[:])
	h.Write([]byte(s))
}
