package bf

import (
	"bufio"
	"fmt"
	"io"
)

// TapeSize is the fixed length of the interpreter's tape (spec.md §3.C).
const TapeSize = 30000

// Interpreter executes a parsed BF program against a 30000-cell, 8-bit
// wrapping tape with blocking I/O.
type Interpreter struct {
	tape    [TapeSize]uint8
	pointer int

	out io.Writer
	in  *bufio.Reader
}

// NewInterpreter returns a fresh interpreter reading from in and writing
// to out.
func NewInterpreter(in io.Reader, out io.Writer) *Interpreter {
	return &Interpreter{out: out, in: bufio.NewReader(in)}
}

// Run executes every instruction in program in order.
func (bfi *Interpreter) Run(program Program) error {
	return bfi.runInstructions(program.Instructions)
}

func (bfi *Interpreter) runInstructions(instructions []Tree) error {
	for _, t := range instructions {
		if err := bfi.runOne(t); err != nil {
			return err
		}
	}
	return nil
}

func (bfi *Interpreter) runOne(t Tree) error {
	switch t.Kind {
	case TreeMove:
		bfi.pointer = wrapPointer(bfi.pointer + t.Amount)
	case TreeAdd:
		bfi.tape[bfi.pointer] += t.Add
	case TreeWrite:
		if _, err := fmt.Fprintf(bfi.out, "%c", bfi.tape[bfi.pointer]); err != nil {
			return err
		}
	case TreeRead:
		b, err := bfi.readByte()
		if err != nil {
			return err
		}
		bfi.tape[bfi.pointer] = b
	case TreeLoop:
		for bfi.tape[bfi.pointer] != 0 {
			if err := bfi.runInstructions(t.Body); err != nil {
				return err
			}
		}
	}
	return nil
}

// readByte reads one input byte, re-reading once if the first byte read
// is a carriage return (13): terminals that send CRLF line endings would
// otherwise deliver a byte the source program never asked for.
func (bfi *Interpreter) readByte() (byte, error) {
	b, err := bfi.in.ReadByte()
	if err != nil {
		return 0, err
	}
	if b == 13 {
		return bfi.in.ReadByte()
	}
	return b, nil
}

func wrapPointer(p int) int {
	if p < 0 {
		return p + TapeSize
	}
	if p >= TapeSize {
		return p - TapeSize
	}
	return p
}
