package abf

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUsedAddressesIncludesNestedWhileBody(t *testing.T) {
	prog := NewProgram(
		New(0, 5),
		New(1, 0),
		While(0, NewProgram(
			Add(1, 1),
			Add(0, -1),
		)),
		Write(1),
	)

	assert.ElementsMatch(t, []Address{0, 1}, prog.UsedAddresses())
}

func TestUsedAddressesIgnoresWriteConst(t *testing.T) {
	prog := NewProgram(WriteConst('A'))
	assert.Empty(t, prog.UsedAddresses())
}

func TestModifiedAddressesExcludesWriteAndNew(t *testing.T) {
	prog := NewProgram(
		New(0, 5),
		Write(0),
		Read(1),
		Add(2, 3),
	)

	assert.ElementsMatch(t, []Address{1, 2}, prog.ModifiedAddresses())
}

func TestModifiedAddressesRecursesIntoWhile(t *testing.T) {
	prog := NewProgram(
		New(0, 1),
		While(0, NewProgram(
			Add(0, -1),
			Read(3),
		)),
	)

	assert.ElementsMatch(t, []Address{0, 3}, prog.ModifiedAddresses())
}

func TestAddFreesInsertsOneFreePerAddressAtLastUse(t *testing.T) {
	prog := NewProgram(
		New(0, 0),
		New(1, 0),
		Add(0, 1),
		Write(0),
		Add(1, 2),
		Write(1),
	)

	prog.AddFrees()

	var frees []Address
	for _, i := range prog.Instructions {
		if i.Kind == OpFree {
			frees = append(frees, i.Address)
		}
	}
	assert.Equal(t, []Address{0, 1}, frees, "each address should be freed exactly once, in last-use order")

	// Free(0) must come directly after the Write(0) that last uses it, and
	// strictly before any use of address 1 that follows it.
	var freeIndex, lastUseIndex int
	for idx, i := range prog.Instructions {
		if i.Kind == OpFree && i.Address == 0 {
			freeIndex = idx
		}
		if i.Kind == OpWrite && i.Address == 0 {
			lastUseIndex = idx
		}
	}
	assert.Equal(t, lastUseIndex+1, freeIndex)
}

func TestAddFreesTreatsWhileUseAsLastUseInParentScope(t *testing.T) {
	prog := NewProgram(
		New(0, 3),
		New(1, 0),
		While(0, NewProgram(
			Add(1, 1),
			Add(0, -1),
		)),
		Write(1),
	)

	prog.AddFrees()

	// Address 0 is only used inside the While's own predicate/body, so its
	// Free must land immediately after the While instruction, not inside it.
	var whileIndex, zeroFreeIndex, oneFreeIndex int
	for idx, i := range prog.Instructions {
		switch {
		case i.Kind == OpWhile:
			whileIndex = idx
		case i.Kind == OpFree && i.Address == 0:
			zeroFreeIndex = idx
		case i.Kind == OpFree && i.Address == 1:
			oneFreeIndex = idx
		}
	}
	assert.Equal(t, whileIndex+1, zeroFreeIndex)
	assert.Greater(t, oneFreeIndex, zeroFreeIndex)
}

func TestAddFreesDoesNotFreeAnAddressTwice(t *testing.T) {
	prog := NewProgram(
		New(0, 0),
		Add(0, 1),
		Add(0, 1),
		Write(0),
	)

	prog.AddFrees()

	count := 0
	for _, i := range prog.Instructions {
		if i.Kind == OpFree && i.Address == 0 {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestStringRendersNestedWhile(t *testing.T) {
	prog := NewProgram(
		New(0, 2),
		While(0, NewProgram(Add(0, -1))),
	)

	out := prog.String()
	assert.Contains(t, out, "&0 = 2;")
	assert.Contains(t, out, "while &0 {")
	assert.Contains(t, out, "    &0 += -1;")
}
