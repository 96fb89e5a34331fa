package tape

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllocateReturnsDistinctNonOverlappingRuns(t *testing.T) {
	a := New()

	first, err := a.Allocate(4, 0)
	require.NoError(t, err)

	second, err := a.Allocate(3, 0)
	require.NoError(t, err)

	assert.False(t, rangesOverlap(first, 4, second, 3), "allocations must not overlap")
}

func TestDeallocateRestoresPriorState(t *testing.T) {
	a := New()

	addr, err := a.Allocate(5, 0)
	require.NoError(t, err)
	assert.True(t, a.IsReserved(addr))

	a.Deallocate(addr, 5)
	for i := uint16(0); i < 5; i++ {
		assert.False(t, a.IsReserved(addr+i), "cell %d should be free again", addr+i)
	}

	// The freed range should be reusable for an identical allocation.
	again, err := a.Allocate(5, 0)
	require.NoError(t, err)
	assert.Equal(t, addr, again)
}

func TestAllocateFailsWhenTapeIsFull(t *testing.T) {
	a := New()
	_, err := a.Allocate(Size, 0)
	require.NoError(t, err)

	_, err = a.Allocate(1, 0)
	assert.ErrorIs(t, err, ErrNoFreeAddresses)
}

func TestAllocatePrefersCellsNearHint(t *testing.T) {
	a := New()
	// Reserve cells 0-99; the hint points at cell 100, the first free one.
	_, err := a.Allocate(100, 0)
	require.NoError(t, err)

	addr, err := a.Allocate(1, 100)
	require.NoError(t, err)
	assert.Equal(t, uint16(100), addr)
}

func TestMultiCellAllocationIsContiguous(t *testing.T) {
	a := New()
	addr, err := a.Allocate(8, 0)
	require.NoError(t, err)
	for i := uint16(0); i < 8; i++ {
		assert.True(t, a.IsReserved(addr+i))
	}
}

func rangesOverlap(startA uint16, sizeA uint16, startB uint16, sizeB uint16) bool {
	endA := startA + sizeA
	endB := startB + sizeB
	return startA < endB && startB < endA
}
