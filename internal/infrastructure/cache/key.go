package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"hash"
	"strconv"
)

// keyVersion is hashed ahead of the request fields.
const keyVersion = "gen-v1"

// DeriveKey fingerprints a generation request. Each field is length-prefixed
// before hashing, so no two distinct tuples share an encoding. An empty reference
// and an absent reference are the same request.
func DeriveKey(template, model string, batchSize int, referenceContent string) string {
	h := sha256.New()
	writeField(h, keyVersion)
	writeField(h, template)
	writeField(h, model)
	writeField(h, strconv.Itoa(batchSize))
	if referenceContent == "" {
		h.Write([]byte{0})
	} else {
		h.Write([]byte{1})
		writeField(h, referenceContent)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func writeField(h hash.Hash, field string) {
	var prefix [8]byte
	binary.BigEndian.PutUint64(prefix[:], uint64(len(field)))
	h.Write(prefix[:])
	h.Write([]byte(field))
}
