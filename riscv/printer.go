package riscv

import (
	"fmt"
	"io"
)

// Print writes prog as RISC-V assembly text to w: a ".text"/".global
// main" header followed by every function's label and instruction
// stream, one mnemonic per line.
func Print(w io.Writer, prog *Program) error {
	if _, err := fmt.Fprintln(w, "    .text"); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, "    .global main"); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w); err != nil {
		return err
	}
	for _, fn := range prog.Funcs {
		if err := printFunc(w, fn); err != nil {
			return err
		}
	}
	return nil
}

func printFunc(w io.Writer, fn *Function) error {
	if _, err := fmt.Fprintf(w, "%s:\n", fn.Name); err != nil {
		return err
	}
	for _, b := range fn.Blocks {
		if _, err := fmt.Fprintf(w, "%s:\n", b.Label); err != nil {
			return err
		}
		for _, instr := range b.Instrs {
			if _, err := fmt.Fprintf(w, "    %s\n", instr.String()); err != nil {
				return err
			}
		}
	}
	return nil
}
