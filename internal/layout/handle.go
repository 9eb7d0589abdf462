package layout

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// NewHandle describes a finished artifact. The digest is the BLAKE3 hash of
// its bytes.
func NewHandle(path string, pages int, data []byte) Handle {
	sum := blake3.Sum256(data)
	return Handle{
		Path:   path,
		Pages:  pages,
		Bytes:  int64(len(data)),
		Digest: hex.EncodeToString(sum[:]),
	}
}
