package tac

import "strings"

// Block is a TAC basic block: a unique label and an ordered instruction
// sequence. Terminator targets point at sibling Block objects by reference.
type Block struct {
	Label  string
	Instrs []Instr
}

// NewBlock allocates an empty block with the given label.
func NewBlock(label string) *Block {
	return &Block{Label: label}
}

// Add appends instr to the block.
func (b *Block) Add(instr Instr) {
	b.Instrs = append(b.Instrs, instr)
}

// Empty reports whether the block has no instructions.
func (b *Block) Empty() bool {
	return len(b.Instrs) == 0
}

// Terminator returns the block's last instruction, or nil if empty.
func (b *Block) Terminator() Instr {
	if b.Empty() {
		return nil
	}
	return b.Instrs[len(b.Instrs)-1]
}

func (b *Block) String() string {
	var sb strings.Builder
	sb.WriteString(b.Label)
	sb.WriteString(":")
	for _, instr := range b.Instrs {
		sb.WriteString("\n    ")
		sb.WriteString(instr.String())
	}
	return sb.String()
}

// Func is a TAC function: a name, a parameter count, and an ordered list
// of blocks (the first is the entry). tempUsed tracks the highest temp
// index minted so far, seeded from NumParams since parameters occupy the
// first NumParams temp slots.
type Func struct {
	Name      string
	NumParams int
	Blocks    []*Block

	tempUsed int
}

// NewFunc allocates a function whose temp counter starts after its
// parameters.
func NewFunc(name string, numParams int) *Func {
	return &Func{Name: name, NumParams: numParams, tempUsed: numParams}
}

// AddBlock appends block to the function.
func (f *Func) AddBlock(block *Block) {
	f.Blocks = append(f.Blocks, block)
}

// NewTemp mints a fresh virtual temp.
func (f *Func) NewTemp() Temp {
	f.tempUsed++
	return Temp{Index: f.tempUsed}
}

// UsedTemps returns the highest temp index minted so far, so that a
// downstream native function can continue numbering its own virtual
// registers without colliding with frontend-minted temps.
func (f *Func) UsedTemps() int {
	return f.tempUsed
}

func (f *Func) String() string {
	var sb strings.Builder
	sb.WriteString(f.Name)
	sb.WriteString(":")
	for _, b := range f.Blocks {
		sb.WriteString("\n")
		sb.WriteString(b.String())
	}
	return sb.String()
}

// Prog is an ordered list of TAC functions.
type Prog struct {
	Funcs []*Func
}

func (p *Prog) String() string {
	parts := make([]string, len(p.Funcs))
	for i, fn := range p.Funcs {
		parts[i] = fn.String()
	}
	return strings.Join(parts, "\n")
}
