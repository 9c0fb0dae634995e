package memory

import (
	"github.com/linkcore/overlay-core/pkg/bits"
	"github.com/linkcore/overlay-core/pkg/log"
)

// Gateway is the single entry point every other component uses to touch
// emulator memory. It is per-frame safe: every operation is fallible and a
// failure is never escalated past a bool/sentinel, per spec.md §7 ("never
// surfaces to the user").
type Gateway struct {
	bufs map[Domain][]byte
	log  log.Logger
}

// New returns a Gateway with no domains bound yet. Bind each domain's
// backing buffer with Bind before use.
func New(logger log.Logger) *Gateway {
	if logger == nil {
		logger = log.NewNullLogger()
	}
	return &Gateway{bufs: make(map[Domain][]byte), log: logger}
}

// Bind attaches the emulator-owned backing buffer for domain. Rebinding
// replaces the previous buffer; it does not copy.
func (g *Gateway) Bind(d Domain, buf []byte) {
	g.bufs[d] = buf
}

// rangeOK reports whether [addr, addr+width) lies inside domain's bound
// buffer, after translating the absolute address to a domain offset.
func (g *Gateway) rangeOK(d Domain, addr uint32, width uint32) (offset uint32, ok bool) {
	buf, bound := g.bufs[d]
	if !bound {
		return 0, false
	}
	b := base[d]
	if addr < b {
		return 0, false
	}
	offset = addr - b
	limit := uint32(len(buf))
	if cap, capped := sizeCap[d]; capped && cap < limit {
		limit = cap
	}
	if offset+width > limit {
		return 0, false
	}
	return offset, true
}

// ReadU8 reads one byte from domain at absolute address addr. ok is false
// on any out-of-range or unbound access; callers treat that as "no change
// this frame" and never propagate it as an error.
func (g *Gateway) ReadU8(d Domain, addr uint32) (value uint8, ok bool) {
	off, rok := g.rangeOK(d, addr, 1)
	if !rok {
		g.log.Debugf("memory: read u8 out of range: domain=%s addr=%#x", d, addr)
		return 0, false
	}
	return g.bufs[d][off], true
}

// WriteU8 writes one byte to domain at absolute address addr.
func (g *Gateway) WriteU8(d Domain, addr uint32, value uint8) bool {
	off, ok := g.rangeOK(d, addr, 1)
	if !ok {
		g.log.Debugf("memory: write u8 out of range: domain=%s addr=%#x", d, addr)
		return false
	}
	g.bufs[d][off] = value
	return true
}

// ReadU16 reads a little-endian 16-bit value.
func (g *Gateway) ReadU16(d Domain, addr uint32) (value uint16, ok bool) {
	off, rok := g.rangeOK(d, addr, 2)
	if !rok {
		g.log.Debugf("memory: read u16 out of range: domain=%s addr=%#x", d, addr)
		return 0, false
	}
	buf := g.bufs[d]
	return bits.Uint16(buf[off], buf[off+1]), true
}

// WriteU16 writes a little-endian 16-bit value.
func (g *Gateway) WriteU16(d Domain, addr uint32, value uint16) bool {
	off, ok := g.rangeOK(d, addr, 2)
	if !ok {
		g.log.Debugf("memory: write u16 out of range: domain=%s addr=%#x", d, addr)
		return false
	}
	buf := g.bufs[d]
	buf[off] = uint8(value)
	buf[off+1] = uint8(value >> 8)
	return true
}

// ReadU32 reads a little-endian 32-bit value.
func (g *Gateway) ReadU32(d Domain, addr uint32) (value uint32, ok bool) {
	off, rok := g.rangeOK(d, addr, 4)
	if !rok {
		g.log.Debugf("memory: read u32 out of range: domain=%s addr=%#x", d, addr)
		return 0, false
	}
	buf := g.bufs[d]
	return bits.Uint32(buf[off], buf[off+1], buf[off+2], buf[off+3]), true
}

// WriteU32 writes a little-endian 32-bit value.
func (g *Gateway) WriteU32(d Domain, addr uint32, value uint32) bool {
	off, ok := g.rangeOK(d, addr, 4)
	if !ok {
		g.log.Debugf("memory: write u32 out of range: domain=%s addr=%#x", d, addr)
		return false
	}
	buf := g.bufs[d]
	buf[off] = uint8(value)
	buf[off+1] = uint8(value >> 8)
	buf[off+2] = uint8(value >> 16)
	buf[off+3] = uint8(value >> 24)
	return true
}

// ReadRange reads length bytes starting at addr. A nil, short-length
// return indicates failure.
func (g *Gateway) ReadRange(d Domain, addr uint32, length int) ([]byte, bool) {
	off, ok := g.rangeOK(d, addr, uint32(length))
	if !ok {
		g.log.Debugf("memory: read range out of range: domain=%s addr=%#x len=%d", d, addr, length)
		return nil, false
	}
	out := make([]byte, length)
	copy(out, g.bufs[d][off:off+uint32(length)])
	return out, true
}

// WriteRange writes data starting at addr.
func (g *Gateway) WriteRange(d Domain, addr uint32, data []byte) bool {
	off, ok := g.rangeOK(d, addr, uint32(len(data)))
	if !ok {
		g.log.Debugf("memory: write range out of range: domain=%s addr=%#x len=%d", d, addr, len(data))
		return false
	}
	copy(g.bufs[d][off:off+uint32(len(data))], data)
	return true
}

// ReadSignedU16 reads a raw 16-bit value and reinterprets it as a two's
// complement signed value, matching GBA camera register semantics
// (spec.md §4.A: "values ≥ 0x8000 become negative").
func (g *Gateway) ReadSignedU16(d Domain, addr uint32) (value int16, ok bool) {
	raw, rok := g.ReadU16(d, addr)
	if !rok {
		return 0, false
	}
	return bits.SignedInt16(raw), true
}
