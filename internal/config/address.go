// Package config holds the immutable, per-ROM address map that every other
// component reads but never mutates (spec.md §3 "Address map (B)").
// Constructing and loading the map from a profile file is an external
// collaborator (spec.md §1) — this package only models the shape and
// resolves addresses against a memory.Gateway.
package config

import "github.com/linkcore/overlay-core/internal/memory"

// AddressRef is either a static absolute address, or a pointer chain
// rooted at a static address and walked through a sequence of offsets —
// "(root, [offsets…])" per spec.md §3.
type AddressRef struct {
	// Domain the Root address (or, for a static ref, the address itself)
	// lives in.
	Domain memory.Domain
	// Root is the address of the first pointer in the chain, or the
	// target address itself when Offsets is empty.
	Root uint32
	// Offsets walks the pointer chain: each entry but the last is added
	// to a dereferenced pointer to find the next pointer's address; the
	// last entry is added to the final dereferenced pointer to produce
	// the target address (not itself dereferenced).
	Offsets []int32
}

// Static builds an AddressRef that is a plain address, no pointer chain.
func Static(d memory.Domain, addr uint32) AddressRef {
	return AddressRef{Domain: d, Root: addr}
}

// PointerChain builds an AddressRef that must be resolved by walking a
// pointer chain before use.
func PointerChain(d memory.Domain, root uint32, offsets ...int32) AddressRef {
	return AddressRef{Domain: d, Root: root, Offsets: offsets}
}

// Resolve walks ref against gw, returning the final absolute address. For
// a static ref this is simply ref.Root. ok is false if any hop in the
// chain reads out of bounds — callers treat that exactly like any other
// Memory Gateway failure (spec.md §7: "no data this frame").
func Resolve(gw *memory.Gateway, ref AddressRef) (addr uint32, ok bool) {
	if len(ref.Offsets) == 0 {
		return ref.Root, true
	}

	domain := ref.Domain
	addr = ref.Root
	for i, off := range ref.Offsets {
		ptr, rok := gw.ReadU32(domain, addr)
		if !rok {
			return 0, false
		}
		addr = uint32(int64(ptr) + int64(off))
		if i == len(ref.Offsets)-1 {
			break
		}
		next, dok := memory.DomainForAddress(addr)
		if !dok {
			return 0, false
		}
		domain = next
	}
	return addr, true
}
