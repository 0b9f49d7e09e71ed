package riscv

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildCFGJumpEdge(t *testing.T) {
	fn := NewFunction("f", 0, 0)
	a := NewBlock("a")
	b := NewBlock("b")
	a.Add(&Jump{Target: b})
	b.Add(&NativeRet{})
	fn.AddBlock(a)
	fn.AddBlock(b)

	cfg := BuildCFG(fn)
	assert.Equal(t, []*BasicBlock{b}, cfg.Succ[a])
	assert.Equal(t, []*BasicBlock{a}, cfg.Pred[b])
	assert.Empty(t, cfg.Succ[b])
}

func TestBuildCFGRegBranchEdgesAreFalseThenTrue(t *testing.T) {
	fn := NewFunction("f", 1, 1)
	entry := NewBlock("entry")
	whenFalse := NewBlock("when_false")
	whenTrue := NewBlock("when_true")
	entry.Add(&RegBranch{Cond: Reg(1), FalseTarget: whenFalse, TrueTarget: whenTrue})
	whenFalse.Add(&NativeRet{})
	whenTrue.Add(&NativeRet{})
	fn.AddBlock(entry)
	fn.AddBlock(whenFalse)
	fn.AddBlock(whenTrue)

	cfg := BuildCFG(fn)
	assert.Equal(t, []*BasicBlock{whenFalse, whenTrue}, cfg.Succ[entry])
	assert.Contains(t, cfg.Pred[whenFalse], entry)
	assert.Contains(t, cfg.Pred[whenTrue], entry)
}

func TestBuildCFGDuplicateLabelPanics(t *testing.T) {
	fn := NewFunction("f", 0, 0)
	fn.AddBlock(NewBlock("dup"))
	fn.AddBlock(NewBlock("dup"))

	assert.PanicsWithValue(t, ErrDuplicateLabel, func() { BuildCFG(fn) })
}

func TestBuildCFGReturnHasNoSuccessors(t *testing.T) {
	fn := NewFunction("f", 0, 0)
	only := NewBlock("only")
	only.Add(&Return{})
	fn.AddBlock(only)

	cfg := BuildCFG(fn)
	assert.Empty(t, cfg.Succ[only])
}
