package riscv

import "riscvcc/tac"

// FuncPass transforms a single function in place.
type FuncPass func(fn *Function)

// Pipeline returns the ordered function passes a native function runs
// through after translation: local register allocation, then final code
// generation. seed drives the allocator's victim-selection RNG.
func Pipeline(seed uint64) []FuncPass {
	alloc := NewLocalAllocator(seed)
	return []FuncPass{
		alloc.AllocateFunc,
		EmitFunc,
	}
}

// Compile lowers a TAC program all the way down to a finished native
// program: translation, then every pass in Pipeline for each function.
func Compile(prog *tac.Prog, seed uint64) *Program {
	native := Translate(prog)
	passes := Pipeline(seed)
	for _, fn := range native.Funcs {
		for _, pass := range passes {
			pass(fn)
		}
	}
	return native
}
