package ghost

import "github.com/linkcore/overlay-core/pkg/bits"

// Priority is the GBA OAM priority bit: 1 draws in front of the
// overworld's foreground layer, 2 behind it (spec.md §3 "oam_priority").
type Priority uint8

const (
	Front Priority = 1
	Back  Priority = 2
)

// ShapeSize maps a sprite's pixel dimensions to the GBA OAM shape/size
// field pair. Only the handful of shapes the overworld ghost sprites
// actually use are covered; unknown dimensions fall back to 16x32
// (shape=vertical, size=2), the common overworld NPC sprite size.
func ShapeSize(width, height int32) (shape, size uint16) {
	type dim struct{ w, h int32 }
	table := []struct {
		dim
		shape, size uint16
	}{
		{dim{8, 8}, 0, 0}, {dim{16, 16}, 0, 1}, {dim{32, 32}, 0, 2}, {dim{64, 64}, 0, 3},
		{dim{16, 8}, 1, 0}, {dim{32, 8}, 1, 1}, {dim{32, 16}, 1, 2}, {dim{64, 32}, 1, 3},
		{dim{8, 16}, 2, 0}, {dim{8, 32}, 2, 1}, {dim{16, 32}, 2, 2}, {dim{32, 64}, 2, 3},
	}
	for _, e := range table {
		if e.w == width && e.h == height {
			return e.shape, e.size
		}
	}
	return 2, 2
}

func wrapOAMY(y int32) uint16 {
	if y < 0 {
		y += 256
	}
	return uint16(y) & 0xFF
}

func wrapOAMX(x int32) uint16 {
	if x < 0 {
		x += 512
	}
	return uint16(x) & 0x1FF
}

// PackAttr0 packs a sprite's OAM attribute 0 word (spec.md §4.E).
func PackAttr0(y int32, shape uint16) uint16 {
	return wrapOAMY(y) | shape<<14
}

// PackAttr1 packs a sprite's OAM attribute 1 word.
func PackAttr1(x int32, hflip, vflip bool, size uint16) uint16 {
	v := wrapOAMX(x)
	if hflip {
		v = bits.Set16(v, 12)
	}
	if vflip {
		v = bits.Set16(v, 13)
	}
	return v | size<<14
}

// PackAttr2 packs a sprite's OAM attribute 2 word.
func PackAttr2(tileIndex uint16, priority Priority, palBank uint8) uint16 {
	return (tileIndex & 0x3FF) | uint16(priority)<<10 | uint16(palBank)<<12
}
