package output

import (
	"crypto/sha256"
	"encoding/hex"
	"unicode/utf8"
)

// maxStemBytes leaves room for an extension under the common 255-byte
// file name limit.
const maxStemBytes = 200

// FileStem returns id when it fits in a file name. Longer IDs keep a prefix
// and end in a hash of the whole ID, so distinct IDs stay distinct.
func FileStem(id string) string {
	if len(id) <= maxStemBytes {
		return id
	}
	sum := sha256.Sum256([]byte(id))
	suffix := "-" + hex.EncodeToString(sum[:8])

	cut := maxStemBytes - len(suffix)
	for cut > 0 && !utf8.RuneStart(id[cut]) {
		cut--
	}
	return id[:cut] + suffix
}
