package journal

import (
	"encoding/hex"
	"os"

	"github.com/zeebo/blake3"
)

// DigestInput returns the hex-encoded BLAKE3 digest of an input artifact.
// Two runs over the same input produce the same digest, which is what makes
// reruns recognizable in the journal. Returns "" when the file is unreadable;
// the missing input will already have failed the case itself.
func DigestInput(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}
