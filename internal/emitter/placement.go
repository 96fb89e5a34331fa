// Package emitter implements the ABF → BF placement and emission back
// end (spec.md §4.E): it assigns each abstract ABF address a physical
// tape cell by value affinity, builds an address-carrying placement
// tree, minimizes pointer-travel cost by randomized local search over a
// permutation of physical cells, and finally emits BF tokens from the
// remapped placement.
package emitter

import (
	"braincrab/internal/abf"
	"braincrab/internal/tape"
)

// placedKind identifies which case of placedInstr a value represents.
type placedKind int

const (
	placedAdd placedKind = iota
	placedWrite
	placedRead
	placedWhile
	placedSeq // a plain, unwrapped sequence of instructions; Address/Amount/Reset unused
)

// placedInstr is one placement-stage instruction: like a BF tree node,
// but still addressed by physical tape cell rather than by pointer
// movement, so that the remapping pass (placement.go's sibling,
// remap.go) can permute cell assignments before final emission.
type placedInstr struct {
	Kind    placedKind
	Address uint16
	Amount  uint8 // Add: wrapping byte delta to apply; zero cells are reset via a bracketed clear first when needed
	Reset   bool  // Add: clear the cell with [-] before adding, because its runtime value is unknown
	Body    []placedInstr
}

// cellValueKind distinguishes a placement-tracked physical cell whose
// value is known at compile time from one whose value is only knowable
// at runtime.
type cellValueKind int

// cellCompileTime is the zero value so that an untouched placementCell
// (the common case: most of a 30000-cell tape is never visited) reads as
// "known to be 0", matching a tape that starts out entirely zeroed.
const (
	cellCompileTime cellValueKind = iota
	cellRuntime
)

type placementCell struct {
	kind  cellValueKind
	value uint8
	used  bool
}

// placer assigns physical cells to abstract ABF addresses by value
// affinity (spec.md §4.E.1): preferring a free cell whose leftover
// compile-time value is close to the value about to be written there, so
// that the delta to reach the target value — and therefore the emitted
// BF — is small.
type placer struct {
	addressMap      map[abf.Address]uint16
	cells           []placementCell
	currentPosition uint16
}

func newPlacer() *placer {
	return &placer{
		addressMap: map[abf.Address]uint16{},
		cells:      make([]placementCell, tape.Size),
	}
}

// findAddress returns the free physical cell that minimizes
// |address − currentPosition| + valueDistance, where valueDistance is 0
// when expected is absent, the absolute difference to a known
// compile-time value when present, or a flat 255 when the cell's value
// is unknown (spec.md §4.E.1).
func (p *placer) findAddress(expected *uint8) uint16 {
	bestAddress := uint16(0)
	bestDistance := -1

	for i := range p.cells {
		if p.cells[i].used {
			continue
		}
		address := uint16(i)
		addressDistance := distance(p.currentPosition, address)

		valueDistance := 0
		if expected != nil {
			if p.cells[i].kind == cellCompileTime {
				valueDistance = int(absDiff(p.cells[i].value, *expected))
			} else {
				valueDistance = 255
			}
		}

		total := addressDistance + valueDistance
		if bestDistance == -1 || total < bestDistance {
			bestDistance = total
			bestAddress = address
		}
		if bestDistance == 0 {
			break
		}
	}

	return bestAddress
}

func (p *placer) setCompileTime(address uint16, value uint8) {
	p.cells[address] = placementCell{kind: cellCompileTime, value: value, used: true}
	p.currentPosition = address
}

func (p *placer) setRuntime(address uint16) {
	p.cells[address] = placementCell{kind: cellRuntime, used: true}
	p.currentPosition = address
}

func (p *placer) free(address uint16) {
	p.cells[address].used = false
}

func distance(a, b uint16) int {
	if a > b {
		return int(a - b)
	}
	return int(b - a)
}

func absDiff(a, b uint8) uint8 {
	if a > b {
		return a - b
	}
	return b - a
}

// place walks optimized ABF and returns the physical-address-carrying
// placement tree, along with the final address map (exposed for tests
// and diagnostics).
func place(program abf.Program) ([]placedInstr, map[abf.Address]uint16) {
	p := newPlacer()
	out := placeInto(program, p, false)
	return out, p.addressMap
}

func placeInto(program abf.Program, p *placer, inLoop bool) []placedInstr {
	out := make([]placedInstr, 0, len(program.Instructions))

	for _, instr := range program.Instructions {
		switch instr.Kind {
		case abf.OpNew:
			out = append(out, placeNew(p, instr.Address, instr.Value, inLoop))

		case abf.OpRead:
			bfAddress := p.findAddress(nil)
			p.addressMap[instr.Address] = bfAddress
			out = append(out, placedInstr{Kind: placedRead, Address: bfAddress})
			p.setRuntime(bfAddress)

		case abf.OpFree:
			p.free(p.addressMap[instr.Address])

		case abf.OpWrite:
			bfAddress := p.addressMap[instr.Address]
			out = append(out, placedInstr{Kind: placedWrite, Address: bfAddress})
			p.currentPosition = bfAddress

		case abf.OpWriteConst:
			out = append(out, placeWriteConst(p, instr.Value, inLoop))

		case abf.OpAdd:
			bfAddress := p.addressMap[instr.Address]
			out = append(out, placedInstr{Kind: placedAdd, Address: bfAddress, Amount: uint8(instr.Delta)})
			p.currentPosition = bfAddress

		case abf.OpWhile:
			out = append(out, placeWhile(p, instr))
		}
	}

	return out
}

func placeNew(p *placer, address abf.Address, value uint8, inLoop bool) placedInstr {
	var expected *uint8
	if !inLoop {
		expected = &value
	}
	bfAddress := p.findAddress(expected)
	p.addressMap[address] = bfAddress

	instr := placedInstr{Kind: placedAdd, Address: bfAddress}
	if !inLoop && p.cells[bfAddress].kind == cellCompileTime {
		instr.Amount = value - p.cells[bfAddress].value
	} else {
		instr.Reset = true
		instr.Amount = value
	}

	p.setCompileTime(bfAddress, value)
	return instr
}

// placeWriteConst finds a transient cell affine to value, zeroes and sets
// it, writes it, and immediately frees it again: WriteConst names no ABF
// address, so the cell it borrows belongs to no one past this emission.
// Inside a loop body the tracked compile-time value cannot be trusted
// across iterations (the physical cell keeps whatever a prior iteration
// left behind), so a reset is forced unconditionally there, mirroring
// the same inLoop restriction placeNew applies to New.
func placeWriteConst(p *placer, value uint8, inLoop bool) placedInstr {
	var expected *uint8
	if !inLoop {
		expected = &value
	}
	bfAddress := p.findAddress(expected)

	var setup placedInstr
	if !inLoop && p.cells[bfAddress].kind == cellCompileTime {
		setup = placedInstr{Kind: placedAdd, Address: bfAddress, Amount: value - p.cells[bfAddress].value}
	} else {
		setup = placedInstr{Kind: placedAdd, Address: bfAddress, Amount: value, Reset: true}
	}

	p.setCompileTime(bfAddress, value)
	p.free(bfAddress)

	return placedInstr{
		Kind: placedSeq,
		Body: []placedInstr{
			setup,
			{Kind: placedWrite, Address: bfAddress},
		},
	}
}

func placeWhile(p *placer, instr abf.Instruction) placedInstr {
	bfAddress := p.addressMap[instr.Address]

	modified := instr.Body.ModifiedAddresses()
	for _, m := range modified {
		if bfm, ok := p.addressMap[m]; ok {
			p.setRuntime(bfm)
		}
	}

	body := placeInto(instr.Body, p, true)

	for _, m := range modified {
		if bfm, ok := p.addressMap[m]; ok {
			p.setRuntime(bfm)
		}
	}
	p.setCompileTime(bfAddress, 0)

	return placedInstr{Kind: placedWhile, Address: bfAddress, Body: body}
}
