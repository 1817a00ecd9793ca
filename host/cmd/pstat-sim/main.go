// Command pstat-sim runs the potentiostat firmware against a simulated board.
//
// By default host commands are read from stdin and replies written to stdout,
// so a capture can be replayed with a pipe. With -port the simulator answers
// on a serial device (one end of a virtual null-modem pair), and with
// -console it offers an interactive prompt.
package main

import (
	"context"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"unicode"

	"github.com/google/shlex"
	"github.com/peterh/liner"

	"pstat/core"
	"pstat/host/config"
	"pstat/host/serial"
	"pstat/host/sim"
)

var (
	configFile = flag.String("config", "", "YAML board profile")
	port       = flag.String("port", "", "Serial device to answer on")
	baud       = flag.Int("baud", serial.DefaultBaud, "Baud rate for -port")
	list       = flag.Bool("list", false, "List serial ports and exit")
	console    = flag.Bool("console", false, "Interactive prompt")
	debug      = flag.Bool("debug", false, "Log display updates, firmware debug lines and the timing ring")
)

func main() {
	flag.Parse()
	log.SetFlags(0)
	log.SetPrefix("pstat-sim: ")

	if *list {
		ports, err := serial.List()
		if err != nil {
			log.Fatalf("failed to list ports: %v", err)
		}
		for _, p := range ports {
			fmt.Println(p)
		}
		return
	}

	cfg := config.Default()
	if *configFile != "" {
		var err error
		if cfg, err = config.Load(*configFile); err != nil {
			log.Fatal(err)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := log.New(io.Discard, "", 0)
	if *debug {
		logger = log.New(os.Stderr, "pstat-sim: ", log.Lmicroseconds)
		core.SetDebugWriter(func(s string) { logger.Print(s) })
		core.SetDebugEnabled(true)
	}

	var err error
	switch {
	case *port != "":
		err = runPort(ctx, cfg, logger)
	case *console:
		err = runConsole(ctx, cfg, logger)
	default:
		err = runPipe(ctx, cfg, logger)
	}
	if *debug {
		core.DumpTimingRing()
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal(err)
	}
}

func runPipe(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	r, err := sim.NewRunner(cfg, os.Stdin, os.Stdout, logger)
	if err != nil {
		return err
	}
	return finish(r, r.Run(ctx))
}

func runPort(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	sc := cfg.Serial
	sc.Device = *port
	sc.Baud = *baud
	p, err := serial.Open(&sc)
	if err != nil {
		return err
	}
	// bytes left from an earlier session would run as commands
	if err := p.Flush(); err != nil {
		p.Close()
		return fmt.Errorf("failed to flush %s: %w", sc.Device, err)
	}
	r, err := sim.NewRunner(cfg, p, p, logger)
	if err != nil {
		p.Close()
		return err
	}
	log.Printf("answering on %s", sc.Device)
	return finish(r, r.Run(ctx))
}

func runConsole(ctx context.Context, cfg *config.Config, logger *log.Logger) error {
	r, err := sim.NewRunner(cfg, nil, consoleWriter{os.Stdout}, logger)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	fmt.Println("Commands are sent with a CR terminator. Several may be given on one line.")
	fmt.Println("Type 'quit' to exit.")
	for {
		text, err := line.Prompt("> ")
		if err != nil {
			break
		}
		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		if text == "quit" || text == "exit" {
			break
		}
		line.AppendHistory(text)

		cmds, err := shlex.Split(text)
		if err != nil {
			fmt.Printf("error: %v\n", err)
			continue
		}
		for _, c := range cmds {
			r.Inject([]byte(c + "\r"))
		}
	}

	cancel()
	return finish(r, <-done)
}

func finish(r *sim.Runner, err error) error {
	if cerr := r.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// consoleWriter prints text replies as they are and binary exports as a hex dump
type consoleWriter struct {
	w io.Writer
}

func (c consoleWriter) Write(p []byte) (int, error) {
	if printable(p) {
		return c.w.Write(p)
	}
	if _, err := io.WriteString(c.w, hex.Dump(p)); err != nil {
		return 0, err
	}
	return len(p), nil
}

func printable(p []byte) bool {
	for _, b := range p {
		if b != '\r' && b != '\n' && !unicode.IsPrint(rune(b)) {
			return false
		}
	}
	return true
}
