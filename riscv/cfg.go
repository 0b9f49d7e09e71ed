package riscv

// ControlFlowGraph holds successor/predecessor adjacency for a function's
// blocks, derived purely from each block's terminator. RegBranch
// contributes two edges, in FalseTarget-then-TrueTarget order (matching
// its field order); Jump contributes one; CmpBranch contributes only its
// explicit target (its fall-through edge is not recorded); Return and
// NativeRet contribute none. An empty block has no successors. A
// non-empty block whose last instruction is not one of the terminator
// variants is an invariant violation.
type ControlFlowGraph struct {
	Func         *Function
	Succ         map[*BasicBlock][]*BasicBlock
	Pred         map[*BasicBlock][]*BasicBlock
	labelToBlock map[string]*BasicBlock
}

// BuildCFG constructs the control-flow graph for fn. It panics with
// ErrDuplicateLabel if two blocks share a label.
func BuildCFG(fn *Function) *ControlFlowGraph {
	cfg := &ControlFlowGraph{
		Func:         fn,
		Succ:         make(map[*BasicBlock][]*BasicBlock),
		Pred:         make(map[*BasicBlock][]*BasicBlock),
		labelToBlock: make(map[string]*BasicBlock),
	}
	for _, b := range fn.Blocks {
		if _, dup := cfg.labelToBlock[b.Label]; dup {
			panic(ErrDuplicateLabel)
		}
		cfg.labelToBlock[b.Label] = b
		cfg.Succ[b] = nil
		cfg.Pred[b] = nil
	}
	for _, b := range fn.Blocks {
		for _, s := range successorsOf(b) {
			cfg.addEdge(b, s)
		}
	}
	return cfg
}

func (cfg *ControlFlowGraph) addEdge(from, to *BasicBlock) {
	cfg.Succ[from] = append(cfg.Succ[from], to)
	cfg.Pred[to] = append(cfg.Pred[to], from)
}

// successorsOf returns a block's successors in terminator-defined order.
// Blocks with no instructions (never produced by this pipeline, but
// defensively handled) have no successors.
func successorsOf(b *BasicBlock) []*BasicBlock {
	term := b.Terminator()
	if term == nil {
		return nil
	}
	switch t := term.(type) {
	case *Jump:
		return []*BasicBlock{t.Target}
	case *RegBranch:
		return []*BasicBlock{t.FalseTarget, t.TrueTarget}
	case *CmpBranch:
		return []*BasicBlock{t.Target}
	case *Return, *NativeRet:
		return nil
	default:
		panic(ErrUnknownTerminator)
	}
}

// Entry returns the function's entry block (its first block).
func (cfg *ControlFlowGraph) Entry() *BasicBlock {
	if len(cfg.Func.Blocks) == 0 {
		return nil
	}
	return cfg.Func.Blocks[0]
}

// BlockByLabel looks up a block by label within this graph.
func (cfg *ControlFlowGraph) BlockByLabel(label string) *BasicBlock {
	return cfg.labelToBlock[label]
}
