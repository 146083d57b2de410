// Command slink is the Simple86 linker: it concatenates one or more
// object modules into a single address space, resolves every label and
// variable reference across the combined program, and writes the
// resulting executable binary image.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/jpsantos/simple86/binfmt"
	"github.com/jpsantos/simple86/config"
	"github.com/jpsantos/simple86/isa"
	"github.com/jpsantos/simple86/linker"
)

var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "slink: loading config: %v\n", err)
		os.Exit(1)
	}

	var (
		showVersion = flag.Bool("version", false, "Show version information")
		verbose     = flag.Bool("v", cfg.Linker.Verbose, "Report each module as it is loaded")
		output      = flag.String("o", cfg.Linker.DefaultOutput, "Executable output path")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("slink %s (%s, %s)\n", Version, Commit, Date)
		os.Exit(0)
	}

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: slink [-v] [-o out] module1.o86 [module2.o86 ...]")
		os.Exit(1)
	}

	var modules [][]isa.Record
	for _, path := range flag.Args() {
		records, err := linker.LoadModule(path)
		if err != nil {
			// A missing or unreadable module is skipped with a warning,
			// matching the original linker's tolerance for a module it
			// can't open rather than aborting the whole link.
			fmt.Fprintf(os.Stderr, "slink: skipping %s: %v\n", path, err)
			continue
		}
		if *verbose {
			fmt.Printf("slink: loaded %s (%d records)\n", path, len(records))
		}
		modules = append(modules, records)
	}

	linked := linker.Link(modules)

	image, err := binfmt.Encode(linked)
	if err != nil {
		fmt.Fprintf(os.Stderr, "slink: %v\n", err)
		os.Exit(1)
	}

	if err := os.WriteFile(*output, image, 0600); err != nil {
		fmt.Fprintf(os.Stderr, "slink: write %s: %v\n", *output, err)
		os.Exit(1)
	}
}
