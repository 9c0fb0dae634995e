// Package memory provides a safe, domain-aware view over the emulator's raw
// memory buses. It never owns the backing bytes — the embedding emulator
// supplies one []byte per domain — it only validates ranges and performs
// the little-endian packing/unpacking the rest of the core relies on.
package memory

// Domain identifies one of the GBA's memory buses.
type Domain uint8

const (
	Cart Domain = iota
	EWRAM
	IWRAM
	OAM
	VRAM
	Palette
	IO
)

func (d Domain) String() string {
	switch d {
	case Cart:
		return "Cart"
	case EWRAM:
		return "EWRAM"
	case IWRAM:
		return "IWRAM"
	case OAM:
		return "OAM"
	case VRAM:
		return "VRAM"
	case Palette:
		return "Palette"
	case IO:
		return "IO"
	default:
		return "Domain(?)"
	}
}

// base is the absolute GBA address each domain starts at. Gateway
// addresses are always absolute; base is subtracted to find the offset
// into the domain's backing buffer.
var base = map[Domain]uint32{
	Cart:    0x08000000,
	EWRAM:   0x02000000,
	IWRAM:   0x03000000,
	OAM:     0x07000000,
	VRAM:    0x06000000,
	Palette: 0x05000000,
	IO:      0x04000000,
}

// sizeCap bounds how large a domain's backing buffer is allowed to be
// interpreted as, independent of whatever length slice the embedder
// supplies. EWRAM and IWRAM are fixed GBA hardware sizes per spec.md §4.A;
// the rest fall back to the supplied buffer's own length.
var sizeCap = map[Domain]uint32{
	EWRAM: 256 * 1024,
	IWRAM: 32 * 1024,
}

// Base returns the absolute base address of domain.
func Base(d Domain) uint32 {
	return base[d]
}

// end is the exclusive upper bound of each domain's absolute address
// window, used to classify a raw pointer value read out of memory into
// the domain that must be used to dereference it further.
var end = map[Domain]uint32{
	Cart:    0x0E000000,
	EWRAM:   0x02040000,
	IWRAM:   0x03008000,
	OAM:     0x07000400,
	VRAM:    0x06018000,
	Palette: 0x05000400,
	IO:      0x04000400,
}

// DomainForAddress classifies an absolute address into the domain whose
// window contains it. Pointer-chain resolution (config.Resolve) uses this
// to dereference a pointer value without knowing in advance which bus it
// targets.
func DomainForAddress(addr uint32) (Domain, bool) {
	for _, d := range []Domain{EWRAM, IWRAM, OAM, VRAM, Palette, IO, Cart} {
		if addr >= base[d] && addr < end[d] {
			return d, true
		}
	}
	return 0, false
}
