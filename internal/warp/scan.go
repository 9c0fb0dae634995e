package warp

import "encoding/binary"

// window is how far past a candidate prologue the scanner looks for its
// function body (spec.md §4.G "body is ≤128 bytes").
const window = 128

const thumbAlign = 2

func isPushLR(hw uint16) bool {
	return hw&0xFF00 == 0xB500
}

func isBLFirstHalf(hw uint16) bool {
	return hw&0xF800 == 0xF000
}

func isBLSecondHalf(hw uint16) bool {
	return hw&0xF800 == 0xF800
}

func readHalf(rom []byte, off int) (uint16, bool) {
	if off < 0 || off+2 > len(rom) {
		return 0, false
	}
	return binary.LittleEndian.Uint16(rom[off:]), true
}

func readWord(rom []byte, off int) (uint32, bool) {
	if off < 0 || off+4 > len(rom) {
		return 0, false
	}
	return binary.LittleEndian.Uint32(rom[off:]), true
}

// countBLsInBody scans a function body starting right after its prologue
// halfword, up to window bytes, and counts complete BL instruction pairs.
// size is the body length through the first POP {…, PC}, or window when
// no such return appears inside the window.
func countBLsInBody(rom []byte, bodyStart int) (count int, size int) {
	end := bodyStart + window
	if end > len(rom) {
		end = len(rom)
	}
	for off := bodyStart; off+4 <= end; off += thumbAlign {
		hi, ok := readHalf(rom, off)
		if !ok {
			break
		}
		if hi&0xFF00 == 0xBD00 { // POP {…, PC}
			return count, off + thumbAlign - bodyStart
		}
		if isBLFirstHalf(hi) {
			lo, ok := readHalf(rom, off+2)
			if ok && isBLSecondHalf(lo) {
				count++
				off += thumbAlign // consumed the second half too
			}
		}
	}
	return count, window
}

type candidate struct {
	addr    uint32
	blCount int
	size    int
}

// score ranks candidates: exactly 3 BLs is ideal, 2-5 is acceptable,
// smaller bodies are preferred among ties (spec.md §4.G).
func score(c candidate) (int, bool) {
	if c.blCount < 2 || c.blCount > 5 {
		return 0, false
	}
	s := c.blCount - 3
	if s < 0 {
		s = -s
	}
	return s*10000 + c.size, true
}

func bestCandidate(cands []candidate) (uint32, bool) {
	best := -1
	var bestAddr uint32
	for _, c := range cands {
		s, ok := score(c)
		if !ok {
			continue
		}
		if best == -1 || s < best {
			best = s
			bestAddr = c.addr
		}
	}
	return bestAddr, best != -1
}

// FindLoadCurrentMapData scans cart ROM for literal-pool references to
// anchorAddr (a known EWRAM warp-data address), then within ±32 KiB of
// each reference looks for a THUMB function prologue whose body shape
// matches LoadCurrentMapData (spec.md §4.G).
func FindLoadCurrentMapData(rom []byte, cartBase, anchorAddr uint32) (addr uint32, ok bool) {
	const searchRadius = 32 * 1024
	var cands []candidate

	for off := 0; off+4 <= len(rom); off += 4 {
		v, _ := readWord(rom, off)
		if v != anchorAddr {
			continue
		}
		lo := off - searchRadius
		if lo < 0 {
			lo = 0
		}
		hi := off + searchRadius
		if hi > len(rom) {
			hi = len(rom)
		}
		for p := lo; p+2 <= hi; p += thumbAlign {
			hw, ok := readHalf(rom, p)
			if !ok || !isPushLR(hw) {
				continue
			}
			blCount, size := countBLsInBody(rom, p+2)
			cands = append(cands, candidate{addr: cartBase + uint32(p), blCount: blCount, size: size})
		}
	}
	return bestCandidate(cands)
}

// blTarget decodes a THUMB BL instruction pair's branch target.
// pcAddr is the absolute address of the first halfword.
func blTarget(hi, lo uint16, pcAddr uint32) uint32 {
	offHigh := int32(hi&0x7FF) << 12
	offLow := int32(lo&0x7FF) << 1
	offset := offHigh | offLow
	// Sign-extend the 23-bit value.
	if offset&0x400000 != 0 {
		offset |= ^int32(0x7FFFFF)
	}
	return uint32(int64(pcAddr) + 4 + int64(offset))
}

// FindLoadCurrentMapDataByCB2 is the fallback address-discovery path:
// scan for literal-pool references to cb2LoadMapAddr, decode the BL
// immediately preceding each reference, and pick the most frequently
// occurring BL target whose body also has the expected function shape
// (spec.md §4.G).
func FindLoadCurrentMapDataByCB2(rom []byte, cartBase, cb2LoadMapAddr uint32) (addr uint32, ok bool) {
	votes := make(map[uint32]int)

	for off := 0; off+4 <= len(rom); off += 4 {
		v, _ := readWord(rom, off)
		if v != cb2LoadMapAddr {
			continue
		}
		const lookback = 64
		start := off - lookback
		if start < 0 {
			start = 0
		}
		for p := off - thumbAlign*2; p >= start; p -= thumbAlign {
			hi, ok1 := readHalf(rom, p)
			lo, ok2 := readHalf(rom, p+2)
			if !ok1 || !ok2 {
				continue
			}
			if isBLFirstHalf(hi) && isBLSecondHalf(lo) {
				target := blTarget(hi, lo, cartBase+uint32(p))
				votes[target]++
				break
			}
		}
	}

	bestAddr, found := uint32(0), false
	bestVotes := -1
	for target, count := range votes {
		if target < cartBase || int(target-cartBase)+2 > len(rom) {
			continue
		}
		bodyOff := int(target - cartBase)
		hw, ok := readHalf(rom, bodyOff)
		if !ok || !isPushLR(hw) {
			continue
		}
		blCount, _ := countBLsInBody(rom, bodyOff+2)
		if _, shaped := score(candidate{addr: target, blCount: blCount}); !shaped {
			continue
		}
		if count > bestVotes {
			bestVotes = count
			bestAddr = target
			found = true
		}
	}
	return bestAddr, found
}

// dummyWarpPattern is the ROM's canonical "dummy warp data" byte run
// written by the warp finalizer after every warp (spec.md §4.G).
var dummyWarpPattern = [8]byte{0xFF, 0xFF, 0xFF, 0x00, 0xFF, 0xFF, 0xFF, 0xFF}

// FindWarpDestStruct scans EWRAM for two consecutive copies of the
// dummy warp pattern; the warp-destination struct sits 8 bytes before
// the first copy.
func FindWarpDestStruct(ewram []byte, ewramBase uint32) (addr uint32, ok bool) {
	n := len(dummyWarpPattern)
	for off := 0; off+2*n <= len(ewram); off++ {
		if matchesAt(ewram, off, n) && matchesAt(ewram, off+n, n) {
			structOff := off - n
			if structOff < 0 {
				continue
			}
			return ewramBase + uint32(structOff), true
		}
	}
	return 0, false
}

func matchesAt(buf []byte, off, n int) bool {
	if off+n > len(buf) {
		return false
	}
	for i := 0; i < n; i++ {
		if buf[off+i] != dummyWarpPattern[i] {
			return false
		}
	}
	return true
}
