// Package tac contains the three-address-code intermediate representation
// consumed by the backend. It is produced by the (out-of-scope) frontend:
// lexer, parser, AST, semantic analysis and AST->TAC lowering all live
// upstream of this package.
package tac

import "fmt"

// Temp is a temporary variable / virtual register name minted by the
// frontend. Indices are unbounded and have no notion of physical storage;
// the backend's riscv.Reg is the only type that distinguishes virtual from
// physical.
type Temp struct {
	Index int
}

func (t Temp) String() string {
	return fmt.Sprintf("_T%d", t.Index)
}
