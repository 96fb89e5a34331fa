package abf

// Builder accumulates ABF instructions into nested scopes: a stack of
// in-progress programs, with the top of the stack receiving new
// instructions. Pushing a While frame opens a new body; popping it wraps
// the accumulated body instructions into a single While on the parent
// frame. This mirrors the front-end compiler's need to emit straight-line
// code and loop bodies without building an explicit tree by hand.
type Builder struct {
	stack []Program
}

// NewBuilder returns a Builder with a single empty top-level frame.
func NewBuilder() *Builder {
	return &Builder{stack: []Program{{}}}
}

func (b *Builder) top() *Program {
	return &b.stack[len(b.stack)-1]
}

// NewAddress emits a New instruction for address with the given initial
// value.
func (b *Builder) NewAddress(address Address, value uint8) {
	b.top().Add(New(address, value))
}

// Read emits a Read instruction.
func (b *Builder) Read(address Address) {
	b.top().Add(Read(address))
}

// Write emits a Write instruction.
func (b *Builder) Write(address Address) {
	b.top().Add(Write(address))
}

// WriteConst emits a WriteConst instruction.
func (b *Builder) WriteConst(value uint8) {
	b.top().Add(WriteConst(value))
}

// Add emits an Add instruction.
func (b *Builder) Add(address Address, delta int8) {
	b.top().Add(Add(address, delta))
}

// Free emits a Free instruction.
func (b *Builder) Free(address Address) {
	b.top().Add(Free(address))
}

// BeginWhile pushes a new, empty frame that will become a While body.
func (b *Builder) BeginWhile() {
	b.stack = append(b.stack, Program{})
}

// EndWhile pops the top frame and emits it as a single While instruction
// on address in the now-current frame.
func (b *Builder) EndWhile(address Address) {
	body := b.stack[len(b.stack)-1]
	b.stack = b.stack[:len(b.stack)-1]
	b.top().Add(While(address, body))
}

// While runs emit inside a fresh While body frame and then closes it onto
// address, as a convenience over matched BeginWhile/EndWhile calls.
func (b *Builder) While(address Address, emit func()) {
	b.BeginWhile()
	emit()
	b.EndWhile(address)
}

// Build returns the accumulated top-level program. It must be called
// with exactly one frame on the stack (i.e. every BeginWhile has a
// matching EndWhile).
func (b *Builder) Build() Program {
	return b.stack[0]
}
