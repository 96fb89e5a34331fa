package abf

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuilderEmitsStraightLineInstructionsInOrder(t *testing.T) {
	b := NewBuilder()
	b.NewAddress(0, 5)
	b.Add(0, 1)
	b.Write(0)
	b.Free(0)

	prog := b.Build()
	assert.Equal(t, []Instruction{
		New(0, 5),
		Add(0, 1),
		Write(0),
		Free(0),
	}, prog.Instructions)
}

func TestBuilderNestsWhileBodyUnderParentFrame(t *testing.T) {
	b := NewBuilder()
	b.NewAddress(0, 3)
	b.While(0, func() {
		b.Add(0, -1)
		b.WriteConst('x')
	})
	b.Free(0)

	prog := b.Build()
	assert.Len(t, prog.Instructions, 3)
	assert.Equal(t, OpWhile, prog.Instructions[1].Kind)
	assert.Equal(t, Address(0), prog.Instructions[1].Address)
	assert.Equal(t, []Instruction{Add(0, -1), WriteConst('x')}, prog.Instructions[1].Body.Instructions)
}

func TestBuilderSupportsNestedWhileFrames(t *testing.T) {
	b := NewBuilder()
	b.NewAddress(0, 2)
	b.NewAddress(1, 2)
	b.While(0, func() {
		b.While(1, func() {
			b.Add(1, -1)
		})
		b.Add(0, -1)
	})

	prog := b.Build()
	outer := prog.Instructions[2]
	assert.Equal(t, OpWhile, outer.Kind)
	inner := outer.Body.Instructions[0]
	assert.Equal(t, OpWhile, inner.Kind)
	assert.Equal(t, Address(1), inner.Address)
}
