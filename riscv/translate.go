package riscv

import "riscvcc/tac"

// reg converts a frontend-minted Temp into its native virtual register.
// The two numbering spaces are kept disjoint by construction (native
// per-function temp counters start at tac.Func.UsedTemps()), so this is a
// plain reinterpretation of the same index, not a remapping.
func reg(t tac.Temp) Reg { return Reg(t.Index) }

func regPtr(t *tac.Temp) *Reg {
	if t == nil {
		return nil
	}
	r := reg(*t)
	return &r
}

// TranslateFunc lowers a single TAC function into its native form. Every
// basic block is pre-created up front (indexed by label) so that
// terminators translated later in the same pass, or in an earlier block,
// can always resolve a forward jump target.
func TranslateFunc(fn *tac.Func) *Function {
	native := NewFunction(fn.Name, fn.NumParams, fn.UsedTemps())

	bbMap := make(map[string]*BasicBlock, len(fn.Blocks))
	for _, src := range fn.Blocks {
		bbMap[src.Label] = NewBlock(src.Label)
	}

	for _, src := range fn.Blocks {
		dst := bbMap[src.Label]
		for _, instr := range src.Instrs {
			dst.Add(translateInstr(instr, bbMap))
		}
		native.AddBlock(dst)
	}
	return native
}

// translateInstr converts one TAC instruction into its native
// equivalent. Control-flow instructions need bbMap to resolve their
// targets; everything else maps straight across with Temp->Reg
// conversion, a direct one-to-one mapping for every TAC variant this
// pipeline produces, so nothing here needs to be broken into
// finer-grained native instructions emitting fresh temps.
func translateInstr(instr tac.Instr, bbMap map[string]*BasicBlock) Instruction {
	switch v := instr.(type) {
	case tac.Assign:
		return &Move{Dst: reg(v.Dst), Src: reg(v.Src)}
	case tac.LoadImm32:
		return &LoadImm32{Dst: reg(v.Dst), Value: v.Value}
	case tac.Unary:
		return &Unary{Op: v.Op, Dst: reg(v.Dst), Src: reg(v.Src)}
	case tac.Binary:
		return &Binary{Op: v.Op, Dst: reg(v.Dst), Src1: reg(v.Lhs), Src2: reg(v.Rhs)}
	case tac.Jump:
		return &Jump{Target: targetBlock(bbMap, v.Target.Label)}
	case tac.Branch:
		return &RegBranch{
			Cond:        reg(v.Cond),
			FalseTarget: targetBlock(bbMap, v.FalseTarget.Label),
			TrueTarget:  targetBlock(bbMap, v.TrueTarget.Label),
		}
	case tac.Return:
		return &Return{Value: regPtr(v.Value)}
	case tac.Call:
		args := make([]Reg, len(v.Args))
		for i, a := range v.Args {
			args[i] = reg(a)
		}
		return &Call{Callee: v.Callee, Dst: reg(v.Dst), Args: args}
	case tac.Comment:
		return &Comment{Msg: v.Msg}
	default:
		panic(ErrUnknownInstr)
	}
}

func targetBlock(bbMap map[string]*BasicBlock, label string) *BasicBlock {
	b, ok := bbMap[label]
	invariant(ok, ErrUnknownTarget)
	return b
}

// Translate lowers a whole TAC program.
func Translate(prog *tac.Prog) *Program {
	out := &Program{Funcs: make([]*Function, len(prog.Funcs))}
	for i, fn := range prog.Funcs {
		out.Funcs[i] = TranslateFunc(fn)
	}
	return out
}
