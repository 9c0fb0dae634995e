package ghost

import "github.com/cespare/xxhash"

// HashTileData content-hashes a ghost's decoded tile bytes, the same way
// the embedder's frame cache hashes pixel output to skip redundant
// writes. Draw uses this instead of a caller-supplied hash so a sprite
// with identical pixels never triggers a VRAM rewrite it doesn't need.
func HashTileData(tileData []byte) uint64 {
	if len(tileData) == 0 {
		return 0
	}
	return xxhash.Sum64(tileData)
}
