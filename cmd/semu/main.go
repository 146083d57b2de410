// Command semu is the Simple86 emulator: it loads an executable binary
// image and runs it, either straight through, under an interactive
// debugger (text or graphical), or attached to an HTTP API server that
// other tools can poll or stream from.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jpsantos/simple86/apiserver"
	"github.com/jpsantos/simple86/config"
	"github.com/jpsantos/simple86/debugger"
	"github.com/jpsantos/simple86/gui"
	"github.com/jpsantos/simple86/vm"
)

var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "semu: loading config: %v\n", err)
		os.Exit(1)
	}

	var (
		showVersion = flag.Bool("version", false, "Show version information")
		tuiMode     = flag.Bool("tui", false, "Start the text-mode debugger")
		guiMode     = flag.Bool("gui", false, "Start the graphical debugger")
		apiMode     = flag.Bool("api-server", false, "Run under the HTTP/WebSocket API server")
		addr        = flag.String("addr", cfg.APIServer.ListenAddr, "API server listen address (used with -api-server)")
		maxSteps    = flag.Int("max-steps", cfg.Emulator.MaxSteps, "Maximum fetch/decode cycles before giving up (0 = unlimited)")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("semu %s (%s, %s)\n", Version, Commit, Date)
		os.Exit(0)
	}

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: semu [-tui] [-gui] [-api-server] [-addr host:port] [-max-steps N] program.bin")
		os.Exit(1)
	}

	image, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "semu: %v\n", err)
		os.Exit(1)
	}

	machine := vm.NewMachine(os.Stdin, os.Stdout)
	machine.MaxSteps = *maxSteps
	if err := machine.Load(image); err != nil {
		fmt.Fprintf(os.Stderr, "semu: %v\n", err)
		os.Exit(1)
	}

	switch {
	case *apiMode:
		runAPIServer(machine, *addr)
	case *tuiMode:
		dbg := debugger.NewDebugger(machine)
		if err := debugger.NewTUI(dbg).Run(); err != nil {
			fmt.Fprintf(os.Stderr, "semu: tui: %v\n", err)
			os.Exit(1)
		}
	case *guiMode:
		dbg := debugger.NewDebugger(machine)
		gui.Run(dbg)
	default:
		if err := machine.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "semu: %v\n", err)
			os.Exit(1)
		}
	}
}

// runAPIServer drives the machine to completion in the background while
// serving its state over HTTP/WebSocket, until the program halts or the
// process receives an interrupt.
func runAPIServer(m *vm.Machine, addr string) {
	server := apiserver.NewServer(m, addr, 0, 64)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	done := make(chan error, 1)
	go func() {
		for !m.Halted() {
			if err := m.Step(); err != nil {
				done <- err
				return
			}
			server.NotifyStep()
		}
		done <- nil
	}()

	go func() {
		if err := server.Start(); err != nil {
			fmt.Fprintf(os.Stderr, "semu: api server: %v\n", err)
		}
	}()

	select {
	case err := <-done:
		if err != nil {
			fmt.Fprintf(os.Stderr, "semu: %v\n", err)
		}
	case <-sigChan:
		fmt.Println("\nsemu: shutting down")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "semu: shutdown: %v\n", err)
	}
}
