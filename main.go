// Command backendc lowers one of the built-in example TAC programs down
// to RISC-V assembly. The lexer, parser, AST and AST->TAC translation
// that would normally produce the TAC this tool consumes are out of
// scope; examples stands in for all of that.
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"riscvcc/examples"
	"riscvcc/riscv"
)

func main() {
	exampleName := flag.String("example", "identity", "name of the built-in example TAC program to compile")
	emit := flag.String("emit", "riscv", "pipeline stage to print: parse, tac, or riscv")
	seed := flag.Uint64("seed", 1, "seed for the register allocator's victim-selection RNG")
	verbose := flag.Bool("verbose", false, "print each function's block count and per-block successor count before allocation")
	flag.Parse()

	if err := run(*exampleName, *emit, *seed, *verbose); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(exampleName, emit string, seed uint64, verbose bool) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("internal error: %v", r)
		}
	}()

	if emit == "parse" {
		// Lexing/parsing is out of scope here: the closest equivalent stage
		// is listing the built-in TAC programs standing in for real source.
		names := examples.Names()
		sort.Strings(names)
		fmt.Println(strings.Join(names, "\n"))
		return nil
	}

	prog, ok := examples.Get(exampleName)
	if !ok {
		names := examples.Names()
		sort.Strings(names)
		return fmt.Errorf("unknown example %q (have: %s)", exampleName, strings.Join(names, ", "))
	}

	switch emit {
	case "tac":
		fmt.Println(prog.String())
		return nil

	case "riscv":
		native := riscv.Translate(prog)
		passes := riscv.Pipeline(seed)
		for _, fn := range native.Funcs {
			if verbose {
				cfg := riscv.BuildCFG(fn)
				fmt.Fprintf(os.Stderr, "# %s: %d block(s)\n", fn.Name, len(fn.Blocks))
				for _, b := range fn.Blocks {
					fmt.Fprintf(os.Stderr, "#   %s -> %d successor(s)\n", b.Label, len(cfg.Succ[b]))
				}
			}
			for _, pass := range passes {
				pass(fn)
			}
		}
		return riscv.Print(os.Stdout, native)

	default:
		return fmt.Errorf("unknown -emit value %q (want parse, tac, or riscv)", emit)
	}
}
