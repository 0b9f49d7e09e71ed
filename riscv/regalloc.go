package riscv

import (
	"math/rand/v2"
	"sort"
)

// LocalAllocator assigns physical registers to virtual registers one
// basic block at a time: phys<->virt bindings are reset at the start of
// every block, so nothing about a register's assignment in one block
// carries over to the next. Every virtual register that is ever spilled
// gets its own stack slot, reused for the lifetime of the function.
type LocalAllocator struct {
	rng        *rand.Rand
	stackSlots map[Reg]*StackObject
	fn         *Function
}

// NewLocalAllocator builds an allocator whose victim-selection RNG is
// seeded deterministically from seed, so a given seed always reproduces
// the same spill decisions.
func NewLocalAllocator(seed uint64) *LocalAllocator {
	return &LocalAllocator{rng: rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))}
}

func (a *LocalAllocator) getStackSlot(v Reg) *StackObject {
	if slot, ok := a.stackSlots[v]; ok {
		return slot
	}
	slot := a.fn.NewStackObject(WordSize)
	a.stackSlots[v] = slot
	return slot
}

// AllocateFunc runs the allocator's outer fixed point: analyze liveness,
// allocate every block, conservatively expand any stack pseudo-ops that
// allocation produced, and repeat until a pass introduces no more
// expansions.
func (a *LocalAllocator) AllocateFunc(fn *Function) {
	a.fn = fn
	a.stackSlots = make(map[Reg]*StackObject)

	for {
		cfg := BuildCFG(fn)
		blockLive, instrLive := Analyze(cfg, true)

		for _, b := range fn.Blocks {
			a.doLocalAlloc(b, blockLive[b], instrLive[b])
		}

		done := true
		for _, b := range fn.Blocks {
			if !a.checkAndExpandStackOps(b) {
				done = false
			}
		}
		if done {
			break
		}
	}
}

func filterVirtual(regs []Reg) []Reg {
	out := make([]Reg, 0, len(regs))
	for _, r := range regs {
		if r.IsVirtual() {
			out = append(out, r)
		}
	}
	return out
}

func containsReg(regs []Reg, r Reg) bool {
	for _, x := range regs {
		if x == r {
			return true
		}
	}
	return false
}

func excludeRegs(all, exclude []Reg) []Reg {
	out := make([]Reg, 0, len(all))
	for _, r := range all {
		if !containsReg(exclude, r) {
			out = append(out, r)
		}
	}
	return out
}

// doLocalAlloc allocates physical registers for every instruction in b,
// rewriting each instruction's virtual operands to physical ones via
// ReplaceOperand as soon as a stage's bindings are known (rather than
// recording a deferred mapping to apply in one pass at the end): a
// virtual is never read through ReplaceOperand before it has been bound
// in the same instruction's own use or def stage, so this is safe.
func (a *LocalAllocator) doLocalAlloc(b *BasicBlock, bl *BlockLiveness, il *InstrLiveness) {
	phys2virt := make(map[Reg]Reg)
	virt2phys := make(map[Reg]Reg)

	unbind := func(p Reg) {
		v := phys2virt[p]
		delete(phys2virt, p)
		delete(virt2phys, v)
	}
	bind := func(v, p Reg) {
		phys2virt[p] = v
		virt2phys[v] = p
	}

	newInstrs := make([]Instruction, 0, len(b.Instrs))
	emit := func(instr Instruction) { newInstrs = append(newInstrs, instr) }

	for idx, instr := range b.Instrs {
		stages := [2][]Reg{filterVirtual(instr.Uses()), filterVirtual(instr.Defs())}
		needLoad := [2]bool{true, false}
		liveIn, liveOut := il.LiveIn[idx], il.LiveOut[idx]

		// Registers handed to any operand of this instruction, across both
		// stages. Neither the free scan nor the victim pick may touch them:
		// evicting a register another operand of the same instruction holds
		// would clobber a value the instruction still has to read. The free
		// scan also leaves alone a register bound to an operand of the
		// current stage that has not been processed yet.
		var taken []Reg
		for stage := 0; stage < 2; stage++ {
			// A reload clobbers its register before the instruction reads,
			// and a def clobbers it before any later reader runs, so prefer
			// registers the live sets say nothing still reads. Physical
			// registers pinned by an earlier allocation round appear in the
			// live sets directly and are skipped the same way.
			liveHere := liveIn
			if stage == 1 {
				liveHere = liveOut
			}
			for _, v := range stages[stage] {
				p, already := virt2phys[v]
				if !already {
					freeFound := false
					for _, cand := range Allocatable {
						if containsReg(taken, cand) {
							continue
						}
						if victim, occ := phys2virt[cand]; occ {
							if _, stillLive := liveOut[victim]; stillLive || containsReg(stages[stage], victim) {
								continue
							}
							unbind(cand)
						}
						if _, physLive := liveHere[cand]; physLive {
							continue
						}
						p = cand
						freeFound = true
						break
					}
					if !freeFound {
						// No register is provably safe; take any unbound one
						// before resorting to an eviction.
						for _, cand := range Allocatable {
							if containsReg(taken, cand) {
								continue
							}
							if _, occ := phys2virt[cand]; !occ {
								p = cand
								freeFound = true
								break
							}
						}
					}
					if !freeFound {
						candidates := excludeRegs(Allocatable, taken)
						invariant(len(candidates) > 0, ErrNoAllocatable)
						p = candidates[a.rng.IntN(len(candidates))]
						victim := phys2virt[p]
						emit(&StackStore{Src: p, Slot: a.getStackSlot(victim)})
						unbind(p)
					}
					bind(v, p)
					if needLoad[stage] {
						emit(&StackLoad{Dst: p, Slot: a.getStackSlot(v)})
					}
				}
				taken = append(taken, p)
				instr.ReplaceOperand(v, p)
			}
		}

		emit(instr)
	}

	// Every virtual register still live on exit from this block must be
	// spilled: the next block resets phys<->virt bindings from scratch and
	// has no notion of what this block left in a physical register. The
	// stores go in front of the terminator so they run on both branch
	// outcomes, in register-index order so slot layout is deterministic.
	var liveOutVirts []Reg
	for v := range bl.LiveOut {
		if _, bound := virt2phys[v]; bound {
			liveOutVirts = append(liveOutVirts, v)
		}
	}
	sort.Slice(liveOutVirts, func(i, j int) bool { return liveOutVirts[i] < liveOutVirts[j] })

	spills := make([]Instruction, 0, len(liveOutVirts))
	for _, v := range liveOutVirts {
		spills = append(spills, &StackStore{Src: virt2phys[v], Slot: a.getStackSlot(v)})
	}
	if n := len(newInstrs); len(spills) > 0 && n > 0 && IsTerminator(newInstrs[n-1]) {
		term := newInstrs[n-1]
		newInstrs = append(append(newInstrs[:n-1], spills...), term)
	} else {
		newInstrs = append(newInstrs, spills...)
	}

	b.Instrs = newInstrs
}

// checkAndExpandStackOps conservatively rewrites every StackStore into a
// LoadStackAddr+Store pair (the stack object's offset is still unknown at
// this point, so a StackStore can never be emitted directly) and any
// SPAdd whose delta does not fit in 12 bits into a LoadImm32+SPAdd(aux)
// pair. It reports whether b needed no rewriting, i.e. whether the outer
// fixed point can stop.
func (a *LocalAllocator) checkAndExpandStackOps(b *BasicBlock) bool {
	ok := true
	newInstrs := make([]Instruction, 0, len(b.Instrs))
	emit := func(instr Instruction) { newInstrs = append(newInstrs, instr) }

	for _, instr := range b.Instrs {
		switch v := instr.(type) {
		case *StackStore:
			ok = false
			addr := a.fn.NewTemp()
			emit(&LoadStackAddr{Dst: addr, Slot: v.Slot, Off: v.Off})
			emit(&Store{Src: v.Src, Base: addr})
		case *SPAdd:
			if v.AuxSrc == nil && !IsImm12(v.Delta) {
				ok = false
				tmp := a.fn.NewTemp()
				emit(&LoadImm32{Dst: tmp, Value: v.Delta})
				emit(&SPAdd{Delta: v.Delta, AuxSrc: &tmp})
			} else {
				emit(instr)
			}
		default:
			emit(instr)
		}
	}

	b.Instrs = newInstrs
	return ok
}
