package riscv

import (
	"sort"

	"riscvcc/tac"
)

const addOp = tac.ADD

// hugeFrameThreshold is the frame size, in bytes, at or above which the
// prologue/epilogue stack pointer adjustment no longer fits a 12-bit
// immediate and needs a scratch register.
const hugeFrameThreshold = 2048

// Emitter turns an allocated native function into its final form:
// prologue/epilogue synthesis followed by resolving every stack
// pseudo-op and intermediate branch/return into its final instructions.
type Emitter struct {
	exitBlock *BasicBlock
}

// EmitFunc runs both stages of code generation on fn, in place.
func EmitFunc(fn *Function) {
	e := &Emitter{}
	e.emitPrologueEpilogue(fn)
	e.finalize(fn)
}

func (e *Emitter) emitPrologueEpilogue(fn *Function) {
	isLeaf := true
	savedSet := make(map[Reg]struct{})

	for _, b := range fn.Blocks {
		for _, instr := range b.Instrs {
			if _, isCall := instr.(*Call); isCall {
				isLeaf = false
			}
			for _, r := range allOperands(instr) {
				if IsCalleeSaved(r) {
					savedSet[r] = struct{}{}
				}
			}
		}
	}

	savedRegs := make([]Reg, 0, len(savedSet))
	for r := range savedSet {
		savedRegs = append(savedRegs, r)
	}
	sort.Slice(savedRegs, func(i, j int) bool { return -int32(savedRegs[i]) > -int32(savedRegs[j]) })
	if !isLeaf {
		savedRegs = append([]Reg{RA}, savedRegs...)
	}
	invariant(len(savedRegs) <= MaxSavedCount, ErrTooManySavedRegs)

	savedRegsSize := int32(len(savedRegs)) * WordSize
	var stackObjsSize int32
	for _, obj := range fn.StackObjects {
		stackObjsSize += obj.Size
	}
	frameSize := savedRegsSize + stackObjsSize

	isHugeFrame := frameSize >= hugeFrameThreshold
	var auxReg *Reg
	if isHugeFrame {
		t0 := T0
		auxReg = &t0
	}

	var prologue, epilogue []Instruction
	for i, r := range savedRegs {
		prologue = append(prologue, &Store{Src: r, Base: SP, Off: int32(i)*WordSize - savedRegsSize})
	}
	if isHugeFrame {
		prologue = append(prologue, &LoadImm32{Dst: T0, Value: -frameSize})
	}
	if frameSize > 0 {
		prologue = append(prologue, &SPAdd{Delta: -frameSize, AuxSrc: auxReg})
	}

	if isHugeFrame {
		epilogue = append(epilogue, &LoadImm32{Dst: T0, Value: frameSize})
	}
	if frameSize > 0 {
		epilogue = append(epilogue, &SPAdd{Delta: frameSize, AuxSrc: auxReg})
	}
	for i, r := range savedRegs {
		epilogue = append(epilogue, &Load{Dst: r, Base: SP, Off: int32(i)*WordSize - savedRegsSize})
	}
	epilogue = append(epilogue, &NativeRet{})

	entry := fn.Blocks[0]
	entry.Instrs = append(append([]Instruction{}, prologue...), entry.Instrs...)

	if frameSize > 0 {
		e.exitBlock = NewBlock(fn.Name + ".exit")
		e.exitBlock.Instrs = epilogue
		fn.AddBlock(e.exitBlock)
	}
}

// allOperands returns every register an instruction reads or writes,
// defs before uses, for scanning purposes (callee-saved detection) where
// the distinction between reading and writing does not matter.
func allOperands(instr Instruction) []Reg {
	return append(append([]Reg{}, instr.Defs()...), instr.Uses()...)
}

// finalize assigns real stack offsets and rewrites every stack
// pseudo-op and intermediate control-flow instruction into its final
// form, one block at a time, tracking the net effect of SPAdd deltas
// seen so far so that stack-relative offsets stay correct after the
// stack pointer moves mid-function.
func (e *Emitter) finalize(fn *Function) {
	fn.AssignStackOffsets()

	var spOffset int32
	for i, b := range fn.Blocks {
		var nextBlock *BasicBlock
		if i+1 < len(fn.Blocks) {
			nextBlock = fn.Blocks[i+1]
		}

		newInstrs := make([]Instruction, 0, len(b.Instrs))
		emit := func(instr Instruction) { newInstrs = append(newInstrs, instr) }

		for _, instr := range b.Instrs {
			switch v := instr.(type) {
			case *LoadStackAddr:
				off := v.Off + *v.Slot.Offset - spOffset
				if IsImm12(off) {
					emit(&AddI{Dst: v.Dst, Src: SP, Imm: off})
				} else {
					emit(&LoadImm32{Dst: v.Dst, Value: off})
					emit(&Binary{Op: addOp, Dst: v.Dst, Src1: SP, Src2: v.Dst})
				}

			case *StackLoad:
				off := v.Off + *v.Slot.Offset - spOffset
				if IsImm12(off) {
					emit(&Load{Dst: v.Dst, Base: SP, Off: off})
				} else {
					emit(&LoadImm32{Dst: v.Dst, Value: off})
					emit(&Binary{Op: addOp, Dst: v.Dst, Src1: SP, Src2: v.Dst})
					emit(&Load{Dst: v.Dst, Base: v.Dst})
				}

			case *StackStore:
				off := v.Off + *v.Slot.Offset - spOffset
				invariant(IsImm12(off), ErrImm12Overflow)
				emit(&Store{Src: v.Src, Base: SP, Off: off})

			case *SPAdd:
				spOffset += v.Delta

			case *Jump:
				if nextBlock != v.Target {
					emit(instr)
				}

			case *RegBranch:
				switch nextBlock {
				case v.FalseTarget:
					emit(&CmpBranch{Op: BNE, Target: v.TrueTarget, Src1: v.Cond, Src2: ZERO})
				case v.TrueTarget:
					emit(&CmpBranch{Op: BEQ, Target: v.FalseTarget, Src1: v.Cond, Src2: ZERO})
				default:
					emit(&CmpBranch{Op: BNE, Target: v.TrueTarget, Src1: v.Cond, Src2: ZERO})
					emit(&Jump{Target: v.FalseTarget})
				}

			case *Return:
				if v.Value != nil {
					emit(&Move{Dst: A0, Src: *v.Value})
				}
				if e.exitBlock == nil {
					emit(&NativeRet{})
				} else if nextBlock != e.exitBlock {
					emit(&Jump{Target: e.exitBlock})
				}

			default:
				emit(instr)
			}
		}

		b.Instrs = newInstrs
	}
}
