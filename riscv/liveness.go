package riscv

// BlockLiveness holds the define/live_use/live_in/live_out register sets
// for one basic block.
type BlockLiveness struct {
	Define  map[Reg]struct{}
	LiveUse map[Reg]struct{}
	LiveIn  map[Reg]struct{}
	LiveOut map[Reg]struct{}
}

// InstrLiveness holds per-instruction live_in/live_out, aligned by index
// with the block's Instrs slice at the time Analyze ran. It is returned
// as a side table rather than attached to the instructions themselves:
// the instruction variants carry no liveness fields, so this is the only
// place that information lives.
type InstrLiveness struct {
	LiveIn, LiveOut []map[Reg]struct{}
}

func newRegSet() map[Reg]struct{} { return make(map[Reg]struct{}) }

func copyRegSet(s map[Reg]struct{}) map[Reg]struct{} {
	out := make(map[Reg]struct{}, len(s))
	for r := range s {
		out[r] = struct{}{}
	}
	return out
}

func unionInto(dst, src map[Reg]struct{}) (grew bool) {
	for r := range src {
		if _, ok := dst[r]; !ok {
			dst[r] = struct{}{}
			grew = true
		}
	}
	return grew
}

// Analyze runs the backward dataflow fixed point for every block in cfg,
// and, if doInstrLevel is set, also computes instruction-level live_in and
// live_out for every block via a reverse per-block walk seeded from the
// block's final live_out.
func Analyze(cfg *ControlFlowGraph, doInstrLevel bool) (map[*BasicBlock]*BlockLiveness, map[*BasicBlock]*InstrLiveness) {
	blocks := cfg.Func.Blocks
	res := make(map[*BasicBlock]*BlockLiveness, len(blocks))

	for _, b := range blocks {
		define := newRegSet()
		liveUse := newRegSet()
		for _, instr := range b.Instrs {
			for _, u := range instr.Uses() {
				if _, isDef := define[u]; !isDef {
					liveUse[u] = struct{}{}
				}
			}
			for _, d := range instr.Defs() {
				define[d] = struct{}{}
			}
		}
		res[b] = &BlockLiveness{
			Define:  define,
			LiveUse: liveUse,
			LiveIn:  copyRegSet(liveUse),
			LiveOut: newRegSet(),
		}
	}

	changed := true
	for changed {
		changed = false
		for _, b := range blocks {
			bl := res[b]
			for _, s := range cfg.Succ[b] {
				unionInto(bl.LiveOut, res[s].LiveIn)
			}
			// live_in = live_use ∪ (live_out - define)
			for r := range bl.LiveOut {
				if _, isDef := bl.Define[r]; isDef {
					continue
				}
				if _, present := bl.LiveIn[r]; !present {
					bl.LiveIn[r] = struct{}{}
					changed = true
				}
			}
		}
	}

	if !doInstrLevel {
		return res, nil
	}

	instrRes := make(map[*BasicBlock]*InstrLiveness, len(blocks))
	for _, b := range blocks {
		n := len(b.Instrs)
		il := &InstrLiveness{
			LiveIn:  make([]map[Reg]struct{}, n),
			LiveOut: make([]map[Reg]struct{}, n),
		}
		live := copyRegSet(res[b].LiveOut)
		for i := n - 1; i >= 0; i-- {
			instr := b.Instrs[i]
			il.LiveOut[i] = copyRegSet(live)
			for _, d := range instr.Defs() {
				delete(live, d)
			}
			for _, u := range instr.Uses() {
				live[u] = struct{}{}
			}
			il.LiveIn[i] = copyRegSet(live)
		}
		instrRes[b] = il
	}
	return res, instrRes
}
