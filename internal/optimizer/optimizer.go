// Package optimizer implements the ABF → ABF partial-evaluation pass
// (spec.md §4.D): symbolic interpretation of straight-line ABF that folds
// compile-time arithmetic, speculatively unrolls While loops whose
// predicate provably reaches zero within a bounded number of iterations,
// and falls back to emitting residual runtime code when it cannot.
package optimizer

import "braincrab/internal/abf"

// unrollCap is the maximum number of speculative iterations attempted
// before a While loop's predicate is given up on and the loop is emitted
// as residual runtime code (spec.md §4.D): 255*255, chosen because a
// single cell can be decremented at most 255 times from any start before
// reaching zero, and the square gives headroom for nested counters.
const unrollCap = 65025

// valueKind distinguishes a cell whose value is known at compile time
// from one whose value can only be known at runtime.
type valueKind int

const (
	runtime valueKind = iota
	compileTime
)

// cellValue is the symbolic value of one ABF address during optimization.
type cellValue struct {
	kind  valueKind
	value uint8 // meaningful only when kind == compileTime
}

func compileTimeValue(v uint8) cellValue { return cellValue{kind: compileTime, value: v} }

func runtimeValue() cellValue { return cellValue{kind: runtime} }

// cell pairs a symbolic value with whether the address is currently live
// (allocated) in the symbolic state.
type cell struct {
	value cellValue
	used  bool
}

// state is the optimizer's abstract machine: a sparse map from address to
// symbolic cell, grown on demand. It is cheap to deep-copy, which is what
// lets the optimizer speculatively clone state before attempting to
// unroll a loop and discard the clone on failure (spec.md §4.D, §5
// "Speculative execution").
type state struct {
	cells map[abf.Address]cell
}

func newState() *state {
	return &state{cells: map[abf.Address]cell{}}
}

func (s *state) clone() *state {
	cells := make(map[abf.Address]cell, len(s.cells))
	for k, v := range s.cells {
		cells[k] = v
	}
	return &state{cells: cells}
}

func (s *state) get(address abf.Address) cell {
	return s.cells[address]
}

func (s *state) setValue(address abf.Address, v cellValue) {
	s.cells[address] = cell{value: v, used: true}
}

func (s *state) free(address abf.Address) {
	c := s.cells[address]
	c.used = false
	s.cells[address] = c
}

// Optimize runs the partial-evaluation pass over program and returns the
// residual ABF program: compile-time computation folded away, loops
// either fully unrolled or re-emitted with their modified addresses
// demoted to runtime (spec.md §4.D).
func Optimize(program abf.Program) abf.Program {
	s := newState()
	output := abf.Program{}
	optimizeInto(program, s, &output)
	return output
}

func optimizeInto(program abf.Program, s *state, output *abf.Program) {
	for _, instr := range program.Instructions {
		switch instr.Kind {
		case abf.OpNew:
			s.setValue(instr.Address, compileTimeValue(instr.Value))

		case abf.OpRead:
			output.Add(abf.Read(instr.Address))
			s.setValue(instr.Address, runtimeValue())

		case abf.OpFree:
			c := s.get(instr.Address)
			if c.value.kind == runtime {
				output.Add(abf.Free(instr.Address))
			}
			s.free(instr.Address)

		case abf.OpWrite:
			c := s.get(instr.Address)
			if c.value.kind == compileTime {
				output.Add(abf.WriteConst(c.value.value))
			} else {
				output.Add(abf.Write(instr.Address))
			}

		case abf.OpWriteConst:
			output.Add(abf.WriteConst(instr.Value))

		case abf.OpAdd:
			c := s.get(instr.Address)
			if c.value.kind == compileTime {
				c.value = compileTimeValue(c.value.value + uint8(instr.Delta))
				s.cells[instr.Address] = c
			} else {
				output.Add(abf.Add(instr.Address, instr.Delta))
			}

		case abf.OpWhile:
			optimizeWhile(instr, s, output)
		}
	}
}

func optimizeWhile(instr abf.Instruction, s *state, output *abf.Program) {
	address := instr.Address
	body := instr.Body

	speculativeState := s.clone()
	speculativeOutput := *output

	unrolled := false
	for iter := 0; iter < unrollCap; iter++ {
		c := speculativeState.get(address)
		if c.value.kind == compileTime && c.value.value == 0 {
			unrolled = true
			break
		}
		if c.value.kind == runtime {
			unrolled = false
			break
		}
		optimizeInto(body, speculativeState, &speculativeOutput)
	}

	if unrolled {
		*s = *speculativeState
		*output = speculativeOutput
	} else {
		// Unrolling did not terminate within the cap: fall back to residual
		// runtime code. Every address the body modifies must be demoted to
		// Runtime in the parent state before re-optimizing the body once
		// against that demoted state, so the emitted loop body sees the same
		// symbolic view it would see as an actual runtime loop.
		newBody := abf.Program{}
		for _, modified := range body.ModifiedAddresses() {
			c := s.get(modified)
			if !c.used {
				continue
			}
			if c.value.kind == compileTime {
				output.Add(abf.New(modified, c.value.value))
			}
			s.setValue(modified, runtimeValue())
		}
		optimizeInto(body, s, &newBody)
		output.Add(abf.While(address, newBody))
	}

	// Whether unrolled or emitted as residual runtime code, a While loop
	// always exits with its predicate at zero: later code can fold on
	// that fact even when the loop body itself had to stay runtime.
	s.setValue(address, compileTimeValue(0))
}
