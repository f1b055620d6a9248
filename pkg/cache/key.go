// Package cache provides content-addressed artifact stores
package cache

import (
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"os"
	"path/filepath"

	"github.com/storyboard/storyboard/pkg/types"
)

// Key is the deterministic fingerprint of a generation request, a
// fixed-width hex digest truncated for display and filenames.
type Key string

// keyLength is the number of hex characters kept from the full digest
const keyLength = 16

// ComputeKey canonicalizes a request into a byte stream and hashes it.
// The serialization is order-preserving and type-tagged, with length
// prefixes so adjacent fields can never bleed into each other; image parts
// contribute the sha256 of the referenced file's bytes, which keeps keys
// identical across machines and run orders. Two requests yield the same key
// exactly when their semantic payloads match.
func ComputeKey(req types.Request) Key {
	h := sha256.New()

	writeField(h, "kind", string(req.Kind))
	writeField(h, "vendor", req.Model.Vendor)
	writeField(h, "model", req.Model.Model)
	if req.Voice != "" {
		writeField(h, "voice", req.Voice)
	}

	for _, part := range req.Parts {
		switch part.Kind {
		case types.PartText:
			writeField(h, "text", part.Value)
		case types.PartImageRef:
			writeField(h, "image", imageFingerprint(part.Value))
		}
	}

	sum := h.Sum(nil)
	return Key(hex.EncodeToString(sum)[:keyLength])
}

// writeField writes a tag and a length-prefixed payload
func writeField(h interface{ Write([]byte) (int, error) }, tag, value string) {
	var n [8]byte
	h.Write([]byte(tag))
	binary.BigEndian.PutUint64(n[:], uint64(len(value)))
	h.Write(n[:])
	h.Write([]byte(value))
}

// imageFingerprint returns the content hash of a reference image. Planning
// rejects missing files before keys are computed; the normalized-path
// fallback only covers a file vanishing between that check and this read.
func imageFingerprint(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
