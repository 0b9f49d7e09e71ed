package riscv

import (
	"fmt"

	"riscvcc/tac"
)

// Instruction is the closed set of native instruction variants. Every
// variant enumerates every register it reads/writes through Defs/Uses,
// including registers stored in variant-specific fields, and
// ReplaceOperand substitutes consistently across both lists and those
// fields (see the package-level invariant documented in the function
// comments below).
type Instruction interface {
	fmt.Stringer
	Defs() []Reg
	Uses() []Reg
	// ReplaceOperand substitutes every occurrence of old with repl, across
	// Defs(), Uses(), and any named register field.
	ReplaceOperand(old, repl Reg)
	isNativeInstr()
}

func replaceReg(r *Reg, old, repl Reg) {
	if *r == old {
		*r = repl
	}
}

func replaceOptReg(r *Reg, old, repl Reg) {
	if r != nil && *r == old {
		*r = repl
	}
}

// --- value-producing ---

// LoadImm32 loads a 32-bit constant into Dst ("li").
type LoadImm32 struct {
	Dst   Reg
	Value int32
}

func (i *LoadImm32) Defs() []Reg { return []Reg{i.Dst} }
func (i *LoadImm32) Uses() []Reg { return nil }
func (i *LoadImm32) ReplaceOperand(old, repl Reg) {
	replaceReg(&i.Dst, old, repl)
}
func (i *LoadImm32) String() string { return fmt.Sprintf("li %s, %d", regName(i.Dst), i.Value) }
func (*LoadImm32) isNativeInstr()   {}

// Move is a register-to-register copy ("mv").
type Move struct {
	Dst, Src Reg
}

func (i *Move) Defs() []Reg { return []Reg{i.Dst} }
func (i *Move) Uses() []Reg { return []Reg{i.Src} }
func (i *Move) ReplaceOperand(old, repl Reg) {
	replaceReg(&i.Dst, old, repl)
	replaceReg(&i.Src, old, repl)
}
func (i *Move) String() string { return fmt.Sprintf("mv %s, %s", regName(i.Dst), regName(i.Src)) }
func (*Move) isNativeInstr()   {}

// Unary applies a unary operator.
type Unary struct {
	Op       tac.UnaryOp
	Dst, Src Reg
}

func (i *Unary) Defs() []Reg { return []Reg{i.Dst} }
func (i *Unary) Uses() []Reg { return []Reg{i.Src} }
func (i *Unary) ReplaceOperand(old, repl Reg) {
	replaceReg(&i.Dst, old, repl)
	replaceReg(&i.Src, old, repl)
}
func (i *Unary) String() string {
	return fmt.Sprintf("%s %s, %s", unaryMnemonic(i.Op), regName(i.Dst), regName(i.Src))
}
func (*Unary) isNativeInstr() {}

func unaryMnemonic(op tac.UnaryOp) string {
	switch op {
	case tac.NEG:
		return "neg"
	case tac.NOT:
		return "not"
	case tac.SEQZ:
		return "seqz"
	default:
		return "?unop?"
	}
}

// Binary applies a binary operator.
type Binary struct {
	Op         tac.BinaryOp
	Dst        Reg
	Src1, Src2 Reg
}

func (i *Binary) Defs() []Reg { return []Reg{i.Dst} }
func (i *Binary) Uses() []Reg { return []Reg{i.Src1, i.Src2} }
func (i *Binary) ReplaceOperand(old, repl Reg) {
	replaceReg(&i.Dst, old, repl)
	replaceReg(&i.Src1, old, repl)
	replaceReg(&i.Src2, old, repl)
}
func (i *Binary) String() string {
	return fmt.Sprintf("%s %s, %s, %s", binaryMnemonic(i.Op), regName(i.Dst), regName(i.Src1), regName(i.Src2))
}
func (*Binary) isNativeInstr() {}

func binaryMnemonic(op tac.BinaryOp) string {
	switch op {
	case tac.ADD:
		return "add"
	case tac.SUB:
		return "sub"
	case tac.MUL:
		return "mul"
	case tac.DIV:
		return "div"
	case tac.REM:
		return "rem"
	case tac.EQU:
		return "equ"
	case tac.NEQ:
		return "neq"
	case tac.SLT:
		return "slt"
	case tac.LEQ:
		return "leq"
	case tac.SGT:
		return "sgt"
	case tac.GEQ:
		return "geq"
	case tac.AND:
		return "and"
	case tac.OR:
		return "or"
	default:
		return "?binop?"
	}
}

// AddI is "addi dst, src, imm" with a 12-bit signed immediate.
type AddI struct {
	Dst, Src Reg
	Imm      int32
}

func (i *AddI) Defs() []Reg { return []Reg{i.Dst} }
func (i *AddI) Uses() []Reg { return []Reg{i.Src} }
func (i *AddI) ReplaceOperand(old, repl Reg) {
	replaceReg(&i.Dst, old, repl)
	replaceReg(&i.Src, old, repl)
}
func (i *AddI) String() string {
	if !IsImm12(i.Imm) {
		panic("addi immediate does not fit imm12")
	}
	return fmt.Sprintf("addi %s, %s, %d", regName(i.Dst), regName(i.Src), i.Imm)
}
func (*AddI) isNativeInstr() {}

// Load is "lw dst, off(base)".
type Load struct {
	Dst, Base Reg
	Off       int32
}

func (i *Load) Defs() []Reg { return []Reg{i.Dst} }
func (i *Load) Uses() []Reg { return []Reg{i.Base} }
func (i *Load) ReplaceOperand(old, repl Reg) {
	replaceReg(&i.Dst, old, repl)
	replaceReg(&i.Base, old, repl)
}
func (i *Load) String() string {
	return fmt.Sprintf("lw %s, %d(%s)", regName(i.Dst), i.Off, regName(i.Base))
}
func (*Load) isNativeInstr() {}

// Store is "sw src, off(base)".
type Store struct {
	Src, Base Reg
	Off       int32
}

func (i *Store) Defs() []Reg { return nil }
func (i *Store) Uses() []Reg { return []Reg{i.Src, i.Base} }
func (i *Store) ReplaceOperand(old, repl Reg) {
	replaceReg(&i.Src, old, repl)
	replaceReg(&i.Base, old, repl)
}
func (i *Store) String() string {
	return fmt.Sprintf("sw %s, %d(%s)", regName(i.Src), i.Off, regName(i.Base))
}
func (*Store) isNativeInstr() {}

// --- stack pseudo-ops (unresolved until frame layout) ---

// slotLabel renders a stack slot for the debug form of the stack
// pseudo-ops: its frame offset once layout has assigned one, "?" before
// that. It does not depend on where the slot lives in memory, so the
// same program always prints the same text.
func slotLabel(s *StackObject) string {
	if s == nil || s.Offset == nil {
		return "?"
	}
	return fmt.Sprintf("%d", *s.Offset)
}

// LoadStackAddr materialises the address of a stack slot into Dst.
type LoadStackAddr struct {
	Dst  Reg
	Slot *StackObject
	Off  int32
}

func (i *LoadStackAddr) Defs() []Reg { return []Reg{i.Dst} }
func (i *LoadStackAddr) Uses() []Reg { return nil }
func (i *LoadStackAddr) ReplaceOperand(old, repl Reg) {
	replaceReg(&i.Dst, old, repl)
}
func (i *LoadStackAddr) String() string {
	return fmt.Sprintf("load-addr %s, stack-obj[%s]+%d", regName(i.Dst), slotLabel(i.Slot), i.Off)
}
func (*LoadStackAddr) isNativeInstr() {}

// StackLoad reloads a spilled virtual register from its stack slot.
type StackLoad struct {
	Dst  Reg
	Slot *StackObject
	Off  int32
}

func (i *StackLoad) Defs() []Reg { return []Reg{i.Dst} }
func (i *StackLoad) Uses() []Reg { return nil }
func (i *StackLoad) ReplaceOperand(old, repl Reg) {
	replaceReg(&i.Dst, old, repl)
}
func (i *StackLoad) String() string {
	return fmt.Sprintf("lw %s, stack-obj[%s]+%d", regName(i.Dst), slotLabel(i.Slot), i.Off)
}
func (*StackLoad) isNativeInstr() {}

// StackStore spills a physical register to its stack slot.
type StackStore struct {
	Src  Reg
	Slot *StackObject
	Off  int32
}

func (i *StackStore) Defs() []Reg { return nil }
func (i *StackStore) Uses() []Reg { return []Reg{i.Src} }
func (i *StackStore) ReplaceOperand(old, repl Reg) {
	replaceReg(&i.Src, old, repl)
}
func (i *StackStore) String() string {
	return fmt.Sprintf("sw %s, stack-obj[%s]+%d", regName(i.Src), slotLabel(i.Slot), i.Off)
}
func (*StackStore) isNativeInstr() {}

// SPAdd adjusts the stack pointer by Delta. Sp itself is never in
// Defs()/Uses(): it is not treated as an allocatable operand. AuxSrc, when
// present, is a scratch register already holding Delta (used for huge
// frames whose delta overflows imm12).
type SPAdd struct {
	Delta  int32
	AuxSrc *Reg
}

func (i *SPAdd) Defs() []Reg { return nil }
func (i *SPAdd) Uses() []Reg {
	if i.AuxSrc == nil {
		return nil
	}
	return []Reg{*i.AuxSrc}
}
func (i *SPAdd) ReplaceOperand(old, repl Reg) {
	replaceOptReg(i.AuxSrc, old, repl)
}
func (i *SPAdd) String() string {
	s := fmt.Sprintf("sp-add %d", i.Delta)
	if i.AuxSrc != nil {
		s += fmt.Sprintf(" (%s)", regName(*i.AuxSrc))
	}
	return s
}
func (*SPAdd) isNativeInstr() {}

// --- terminators ---

// CmpBranchOp enumerates the final single-target branch comparisons.
type CmpBranchOp int

const (
	BEQ CmpBranchOp = iota
	BNE
	BLT
	BGE
)

func (op CmpBranchOp) mnemonic() string {
	switch op {
	case BEQ:
		return "beq"
	case BNE:
		return "bne"
	case BLT:
		return "blt"
	case BGE:
		return "bge"
	default:
		return "?cmpbranch?"
	}
}

// Jump is an unconditional branch.
type Jump struct {
	Target *BasicBlock
}

func (i *Jump) Defs() []Reg                 { return nil }
func (i *Jump) Uses() []Reg                 { return nil }
func (i *Jump) ReplaceOperand(old, r Reg)   {}
func (i *Jump) String() string              { return fmt.Sprintf("j %s", i.Target.Label) }
func (*Jump) isNativeInstr()                {}

// RegBranch is the intermediate two-target branch form emitted by
// translation. It never reaches the printer: finalisation always rewrites
// it into a single CmpBranch (possibly plus a trailing Jump).
type RegBranch struct {
	Cond                    Reg
	FalseTarget, TrueTarget *BasicBlock
}

func (i *RegBranch) Defs() []Reg { return nil }
func (i *RegBranch) Uses() []Reg { return []Reg{i.Cond} }
func (i *RegBranch) ReplaceOperand(old, repl Reg) {
	replaceReg(&i.Cond, old, repl)
}
func (i *RegBranch) String() string {
	return fmt.Sprintf("br %s, %s, %s", regName(i.Cond), i.FalseTarget.Label, i.TrueTarget.Label)
}
func (*RegBranch) isNativeInstr() {}

// CmpBranch is the final single-target branch form.
type CmpBranch struct {
	Op         CmpBranchOp
	Target     *BasicBlock
	Src1, Src2 Reg
}

func (i *CmpBranch) Defs() []Reg { return nil }
func (i *CmpBranch) Uses() []Reg { return []Reg{i.Src1, i.Src2} }
func (i *CmpBranch) ReplaceOperand(old, repl Reg) {
	replaceReg(&i.Src1, old, repl)
	replaceReg(&i.Src2, old, repl)
}
func (i *CmpBranch) String() string {
	return fmt.Sprintf("%s %s, %s, %s", i.Op.mnemonic(), regName(i.Src1), regName(i.Src2), i.Target.Label)
}
func (*CmpBranch) isNativeInstr() {}

// NativeRet is the final "ret" instruction.
type NativeRet struct{}

func (i *NativeRet) Defs() []Reg               { return nil }
func (i *NativeRet) Uses() []Reg               { return nil }
func (i *NativeRet) ReplaceOperand(old, r Reg) {}
func (i *NativeRet) String() string            { return "ret" }
func (*NativeRet) isNativeInstr()              {}

// Return is carried over from TAC and lowered during finalisation (moved
// into a0, then either a direct ret or a jump to the function's exit
// block).
type Return struct {
	Value *Reg
}

func (i *Return) Defs() []Reg { return nil }
func (i *Return) Uses() []Reg {
	if i.Value == nil {
		return nil
	}
	return []Reg{*i.Value}
}
func (i *Return) ReplaceOperand(old, repl Reg) {
	replaceOptReg(i.Value, old, repl)
}
func (i *Return) String() string {
	if i.Value == nil {
		return "return"
	}
	return fmt.Sprintf("return %s", regName(*i.Value))
}
func (*Return) isNativeInstr() {}

// --- other TAC carried through unchanged ---

// Call is carried through from TAC; call lowering onto the A0-A7 argument
// registers is handled upstream, the backend only needs accurate
// Defs()/Uses() for liveness and allocation.
type Call struct {
	Callee string
	Dst    Reg
	Args   []Reg
}

func (i *Call) Defs() []Reg { return []Reg{i.Dst} }
func (i *Call) Uses() []Reg { return append([]Reg(nil), i.Args...) }
func (i *Call) ReplaceOperand(old, repl Reg) {
	replaceReg(&i.Dst, old, repl)
	for idx := range i.Args {
		replaceReg(&i.Args[idx], old, repl)
	}
}
// The register operands are bookkeeping for liveness only; the textual
// form is the plain "call" pseudo-instruction the assembler expands.
func (i *Call) String() string {
	return "call " + i.Callee
}
func (*Call) isNativeInstr() {}

// Comment is a debug annotation with no operands.
type Comment struct {
	Msg string
}

func (i *Comment) Defs() []Reg               { return nil }
func (i *Comment) Uses() []Reg               { return nil }
func (i *Comment) ReplaceOperand(old, r Reg) {}
func (i *Comment) String() string            { return fmt.Sprintf("# %s", i.Msg) }
func (*Comment) isNativeInstr()              {}

// IsTerminator reports whether instr ends a basic block.
func IsTerminator(instr Instruction) bool {
	switch instr.(type) {
	case *Jump, *RegBranch, *CmpBranch, *NativeRet, *Return:
		return true
	default:
		return false
	}
}
