// Command sasm is the Simple86 assembler: it reads a single assembly
// source file, runs the two-pass assembler, and writes an object
// module the linker can consume.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/jpsantos/simple86/assembler"
	"github.com/jpsantos/simple86/config"
	"github.com/jpsantos/simple86/object"
)

// Version information, overridable at build time with:
// go build -ldflags "-X main.Version=v1.2.3"
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "sasm: loading config: %v\n", err)
		os.Exit(1)
	}

	var (
		showVersion = flag.Bool("version", false, "Show version information")
		verbose     = flag.Bool("v", cfg.Assembler.Verbose, "Print an assembly listing to stdout")
		output      = flag.String("o", cfg.Assembler.DefaultOutput, "Object module output path")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("sasm %s (%s, %s)\n", Version, Commit, Date)
		os.Exit(0)
	}

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: sasm [-v] [-o out] input.s86")
		os.Exit(1)
	}

	records, err := assembler.ReadSource(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "sasm: %v\n", err)
		os.Exit(1)
	}

	assembled := assembler.Assemble(records)

	if *verbose {
		if err := assembler.WriteListing(os.Stdout, assembled); err != nil {
			fmt.Fprintf(os.Stderr, "sasm: writing listing: %v\n", err)
			os.Exit(1)
		}
	}

	if err := object.WriteModule(*output, assembled); err != nil {
		fmt.Fprintf(os.Stderr, "sasm: %v\n", err)
		os.Exit(1)
	}
}
