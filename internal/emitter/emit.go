package emitter

import (
	"math/rand/v2"

	"braincrab/internal/abf"
	"braincrab/internal/bf"
)

// Options configures the address-remapping pass (spec.md §4.E.2 and §6:
// externally supplied so emission stays reproducible for a given seed).
type Options struct {
	Seed       uint64
	Iterations int
}

// DefaultOptions matches the reference iteration count (spec.md §4.E.2:
// "K iterations, caller-configurable, default e.g. 1 000").
var DefaultOptions = Options{Iterations: 1000}

// Emit runs the full placement → remap → emission pipeline over an
// already partial-evaluated ABF program and returns the final BF
// program.
func Emit(program abf.Program, opts Options) bf.Program {
	placed, _ := place(program)

	path := calculatePath(placed)
	rng := rand.New(rand.NewPCG(opts.Seed, opts.Seed))
	mapping := optimizeMapping(path, opts.Iterations, rng)
	remapped := remapInstructions(placed, mapping)

	out := bf.Program{}
	pointer := uint16(0)
	emitInto(remapped, &pointer, &out)
	return out
}

func moveTo(pointer *uint16, out *bf.Program, address uint16) {
	if *pointer == address {
		return
	}
	out.Add(bf.Move(int(address) - int(*pointer)))
	*pointer = address
}

func emitInto(instructions []placedInstr, pointer *uint16, out *bf.Program) {
	for _, instr := range instructions {
		emitOne(instr, pointer, out)
	}
}

func emitOne(instr placedInstr, pointer *uint16, out *bf.Program) {
	switch instr.Kind {
	case placedSeq:
		emitInto(instr.Body, pointer, out)

	case placedAdd:
		moveTo(pointer, out, instr.Address)
		if instr.Reset {
			out.Add(bf.Loop([]bf.Tree{bf.AddBy(255)}))
		}
		out.Add(bf.AddBy(instr.Amount))

	case placedWrite:
		moveTo(pointer, out, instr.Address)
		out.Add(bf.Write())

	case placedRead:
		moveTo(pointer, out, instr.Address)
		out.Add(bf.Read())

	case placedWhile:
		moveTo(pointer, out, instr.Address)
		body := bf.Program{}
		innerPointer := *pointer
		emitInto(instr.Body, &innerPointer, &body)
		moveTo(&innerPointer, &body, instr.Address)
		out.Add(bf.Loop(body.Instructions))
		*pointer = instr.Address
	}
}
