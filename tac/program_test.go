package tac

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFuncNewTempStartsAfterParams(t *testing.T) {
	fn := NewFunc("f", 3)
	assert.Equal(t, 4, fn.NewTemp().Index)
	assert.Equal(t, 5, fn.NewTemp().Index)
	assert.Equal(t, 5, fn.UsedTemps())
}

func TestBlockTerminatorOfEmptyBlockIsNil(t *testing.T) {
	b := NewBlock("L0")
	assert.True(t, b.Empty())
	assert.Nil(t, b.Terminator())

	b.Add(Assign{Dst: Temp{Index: 1}, Src: Temp{Index: 2}})
	assert.False(t, b.Empty())
	assert.Equal(t, Assign{Dst: Temp{Index: 1}, Src: Temp{Index: 2}}, b.Terminator())
}

func TestProgStringJoinsFunctions(t *testing.T) {
	f1 := NewFunc("a", 0)
	f1.AddBlock(NewBlock("a.entry"))
	f2 := NewFunc("b", 0)
	f2.AddBlock(NewBlock("b.entry"))

	prog := &Prog{Funcs: []*Func{f1, f2}}
	s := prog.String()
	assert.Contains(t, s, "a:")
	assert.Contains(t, s, "b:")
}
