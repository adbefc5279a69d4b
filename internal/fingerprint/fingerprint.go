// Package fingerprint derives the stable file-id used to key every other
// component of the engine.
package fingerprint

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
)

// Length is the number of hex characters kept from the full MD5 digest.
const Length = 16

// Compute derives the 16-hex file-id from a file's identity triple.
//
// Path, size, and mtime are concatenated with ":" and hashed with MD5;
// moving or truncating the file changes the id, and two different paths
// only collide if both size and mtime also match.
func Compute(path string, size int64, mtimeMs int64) string {
	sum := md5.Sum([]byte(fmt.Sprintf("%s:%d:%d", path, size, mtimeMs)))
	return hex.EncodeToString(sum[:])[:Length]
}
