package riscv

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPrintEmitsHeaderAndLabels(t *testing.T) {
	fn := NewFunction("identity", 1, 1)
	b := NewBlock("identity.entry")
	b.Add(&Move{Dst: A0, Src: A0})
	b.Add(&NativeRet{})
	fn.AddBlock(b)
	prog := &Program{Funcs: []*Function{fn}}

	var sb strings.Builder
	err := Print(&sb, prog)
	assert.NoError(t, err)

	out := sb.String()
	assert.Contains(t, out, ".text")
	assert.Contains(t, out, ".global main")
	assert.Contains(t, out, "identity:")
	assert.Contains(t, out, "identity.entry:")
	assert.Contains(t, out, "mv a0, a0")
	assert.Contains(t, out, "ret")
}
