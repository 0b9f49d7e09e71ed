package riscv

import "strings"

// BasicBlock is a native basic block: a unique label and an ordered,
// mutable instruction sequence. Terminator targets point at sibling
// BasicBlock objects by reference so that rewriting a block's contents
// never invalidates another block's jump targets.
type BasicBlock struct {
	Label  string
	Instrs []Instruction
}

// NewBlock allocates an empty block with the given label.
func NewBlock(label string) *BasicBlock {
	return &BasicBlock{Label: label}
}

// Add appends instr to the block.
func (b *BasicBlock) Add(instr Instruction) {
	b.Instrs = append(b.Instrs, instr)
}

// Empty reports whether the block has no instructions.
func (b *BasicBlock) Empty() bool {
	return len(b.Instrs) == 0
}

// Terminator returns the block's last instruction, or nil if empty.
func (b *BasicBlock) Terminator() Instruction {
	if b.Empty() {
		return nil
	}
	return b.Instrs[len(b.Instrs)-1]
}

func (b *BasicBlock) String() string {
	var sb strings.Builder
	sb.WriteString(b.Label)
	sb.WriteString(":")
	for _, instr := range b.Instrs {
		sb.WriteString("\n    ")
		sb.WriteString(instr.String())
	}
	return sb.String()
}

// StackObject is a slot in the function's stack frame. Offset is nil
// until the finalisation pass assigns it; Size is in bytes and is always
// a WordSize multiple for the spill slots this backend allocates.
type StackObject struct {
	Offset *int32
	Size   int32
}

// Function is a native function: parameters occupy virtual registers
// v1..NumParams, mirroring the TAC function they were translated from.
// tempCounter continues numbering from the TAC function's own counter so
// that registers minted during allocation (e.g. LoadStackAddr's address
// temp) never collide with a temp the frontend already used.
type Function struct {
	Name         string
	NumParams    int
	Blocks       []*BasicBlock
	StackObjects []*StackObject

	tempCounter int
}

// NewFunction allocates a function whose temp counter starts at
// usedTemps, the highest temp index already minted by the TAC function it
// was translated from.
func NewFunction(name string, numParams, usedTemps int) *Function {
	return &Function{Name: name, NumParams: numParams, tempCounter: usedTemps}
}

// AddBlock appends block to the function.
func (f *Function) AddBlock(block *BasicBlock) {
	f.Blocks = append(f.Blocks, block)
}

// NewTemp mints a fresh virtual register, disjoint from every temp the
// frontend minted and from every temp minted earlier in this function.
func (f *Function) NewTemp() Reg {
	f.tempCounter++
	return Reg(f.tempCounter)
}

// NewStackObject reserves a frame slot of the given size and returns it.
// Its Offset is unresolved until the finalisation pass runs.
func (f *Function) NewStackObject(size int32) *StackObject {
	obj := &StackObject{Size: size}
	f.StackObjects = append(f.StackObjects, obj)
	return obj
}

// BlockByLabel returns the block with the given label, or nil.
func (f *Function) BlockByLabel(label string) *BasicBlock {
	for _, b := range f.Blocks {
		if b.Label == label {
			return b
		}
	}
	return nil
}

func (f *Function) String() string {
	var sb strings.Builder
	sb.WriteString(f.Name)
	sb.WriteString(":")
	for _, b := range f.Blocks {
		sb.WriteString("\n")
		sb.WriteString(b.String())
	}
	return sb.String()
}

// AssignStackOffsets lays out every StackObject sequentially from the
// bottom of the frame (offset 0, growing upward in byte terms as more
// slots are added) and returns the combined size of the stack objects in
// bytes, rounded up to a 16-byte boundary. The saved-register area is not
// included in that size.
func (f *Function) AssignStackOffsets() int32 {
	var off int32
	for _, obj := range f.StackObjects {
		o := off
		obj.Offset = &o
		off += obj.Size
	}
	return alignUp(off, 16)
}

func alignUp(n, align int32) int32 {
	if n%align == 0 {
		return n
	}
	return n + (align - n%align)
}

// Program is an ordered list of native functions.
type Program struct {
	Funcs []*Function
}

func (p *Program) String() string {
	parts := make([]string, len(p.Funcs))
	for i, fn := range p.Funcs {
		parts[i] = fn.String()
	}
	return strings.Join(parts, "\n")
}
