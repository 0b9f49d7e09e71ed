package riscv

import (
	"testing"

	"riscvcc/tac"

	"github.com/stretchr/testify/assert"
)

// buildLinearFn builds: v1 = li 10; v2 = add v1, v1; ret (no value), the
// smallest case where v1's live range spans two instructions.
func buildLinearFn() *Function {
	fn := NewFunction("f", 0, 0)
	b := NewBlock("entry")
	b.Add(&LoadImm32{Dst: Reg(1), Value: 10})
	b.Add(&Binary{Op: tac.ADD, Dst: Reg(2), Src1: Reg(1), Src2: Reg(1)})
	b.Add(&NativeRet{})
	fn.AddBlock(b)
	return fn
}

func TestAnalyzeBlockLevelLiveness(t *testing.T) {
	fn := buildLinearFn()
	cfg := BuildCFG(fn)
	blockLive, _ := Analyze(cfg, false)

	b := fn.Blocks[0]
	bl := blockLive[b]
	assert.Contains(t, bl.Define, Reg(1))
	assert.Contains(t, bl.Define, Reg(2))
	assert.NotContains(t, bl.LiveIn, Reg(1), "v1 is defined before any use, so it is never live-in")
	assert.Empty(t, bl.LiveOut, "nothing escapes a block ending in ret")
}

func TestAnalyzeInstructionLevelLiveness(t *testing.T) {
	fn := buildLinearFn()
	cfg := BuildCFG(fn)
	_, instrLive := Analyze(cfg, true)

	b := fn.Blocks[0]
	il := instrLive[b]

	// After the LoadImm32, v1 is live (it's used by the next instruction).
	assert.Contains(t, il.LiveOut[0], Reg(1))
	// After the Binary, v1 is dead, and so is v2: the ret carries no value,
	// so nothing reads v2 and nothing remains live.
	assert.NotContains(t, il.LiveOut[1], Reg(1))
}

// buildDiamondFn builds a diamond CFG where v2 is defined in the entry
// and read in the join block, so it is live across both arms.
func buildDiamondFn() *Function {
	fn := NewFunction("f", 0, 0)
	entry := NewBlock("entry")
	left := NewBlock("left")
	right := NewBlock("right")
	join := NewBlock("join")

	v1, v2, v3, v4 := Reg(1), Reg(2), Reg(3), Reg(4)
	entry.Add(&LoadImm32{Dst: v1, Value: 1})
	entry.Add(&LoadImm32{Dst: v2, Value: 2})
	entry.Add(&RegBranch{Cond: v1, FalseTarget: left, TrueTarget: right})
	left.Add(&Binary{Op: tac.ADD, Dst: v3, Src1: v2, Src2: v2})
	left.Add(&Jump{Target: join})
	right.Add(&Binary{Op: tac.ADD, Dst: v4, Src1: v2, Src2: v2})
	right.Add(&Jump{Target: join})
	join.Add(&Return{Value: &v2})

	fn.AddBlock(entry)
	fn.AddBlock(left)
	fn.AddBlock(right)
	fn.AddBlock(join)
	return fn
}

func TestAnalyzeReachesAFixedPoint(t *testing.T) {
	fn := buildDiamondFn()
	cfg := BuildCFG(fn)

	first, _ := Analyze(cfg, false)
	second, _ := Analyze(cfg, false)
	for _, b := range fn.Blocks {
		assert.Equal(t, first[b].LiveIn, second[b].LiveIn, "%s: live_in must not change on re-analysis", b.Label)
		assert.Equal(t, first[b].LiveOut, second[b].LiveOut, "%s: live_out must not change on re-analysis", b.Label)
	}
}

func TestAnalyzeDataflowInclusions(t *testing.T) {
	fn := buildDiamondFn()
	cfg := BuildCFG(fn)
	blockLive, _ := Analyze(cfg, false)

	for _, b := range fn.Blocks {
		bl := blockLive[b]
		for r := range bl.LiveUse {
			assert.Contains(t, bl.LiveIn, r, "%s: live_in must contain live_use", b.Label)
		}
		for _, s := range cfg.Succ[b] {
			for r := range blockLive[s].LiveIn {
				assert.Contains(t, bl.LiveOut, r, "%s: live_out must contain %s's live_in", b.Label, s.Label)
			}
		}
	}

	// v2 crosses both arms of the diamond.
	left, right := fn.Blocks[1], fn.Blocks[2]
	assert.Contains(t, blockLive[left].LiveOut, Reg(2))
	assert.Contains(t, blockLive[right].LiveOut, Reg(2))
}

func TestAnalyzePropagatesAcrossEdges(t *testing.T) {
	fn := NewFunction("f", 1, 1)
	entry := NewBlock("entry")
	exit := NewBlock("exit")
	entry.Add(&Jump{Target: exit})
	v := Reg(1)
	exit.Add(&Return{Value: &v})
	fn.AddBlock(entry)
	fn.AddBlock(exit)

	cfg := BuildCFG(fn)
	blockLive, _ := Analyze(cfg, false)

	assert.Contains(t, blockLive[exit].LiveIn, Reg(1))
	assert.Contains(t, blockLive[entry].LiveOut, Reg(1))
	assert.Contains(t, blockLive[entry].LiveIn, Reg(1), "entry never defines v1, so it must flow through from live_out")
}
