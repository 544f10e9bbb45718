package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/fiber-runtime/fiber"
	"github.com/wippyai/fiber-runtime/sched"
)

func main() {
	var (
		count       = flag.Int("n", 0, "Number of fibers to spawn")
		yields      = flag.Int("yields", -1, "Yields per fiber before finishing")
		stackKiB    = flag.Int("stack", 0, "Stack size per fiber in KiB")
		provider    = flag.String("provider", "", "Stack provider: fixed, pooled or guarded")
		configPath  = flag.String("config", "", "Path to a TOML config file")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
		verbose     = flag.Bool("v", false, "Debug logging")
	)
	flag.Parse()

	cfg := defaultConfig()
	if *configPath != "" {
		loaded, err := loadConfig(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	// Flags beat the file.
	if *count > 0 {
		cfg.Fibers = *count
	}
	if *yields >= 0 {
		cfg.Yields = *yields
	}
	if *stackKiB > 0 {
		cfg.StackKiB = *stackKiB
	}
	if *provider != "" {
		cfg.Provider = *provider
	}
	if err := cfg.validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *interactive {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: interactive mode needs a terminal")
			os.Exit(1)
		}
		if err := runInteractive(cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(cfg, *verbose); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg config, verbose bool) error {
	log := zap.NewNop()
	if verbose {
		dev, err := zap.NewDevelopment()
		if err != nil {
			return fmt.Errorf("logger: %w", err)
		}
		defer dev.Sync()
		log = dev
	}

	s := sched.New(sched.WithLogger(log))
	provider := cfg.newProvider()

	steps := make([]int, cfg.Fibers)
	handles := make([]*fiber.Fiber, 0, cfg.Fibers)
	for i := 0; i < cfg.Fibers; i++ {
		f, err := fiber.NewWithStack(s, provider, func(ctx *fiber.Context, args ...any) {
			slot := args[0].(int)
			for j := 0; j <= cfg.Yields; j++ {
				steps[slot]++
				if j < cfg.Yields {
					if err := ctx.Yield(); err != nil {
						return
					}
				}
			}
		}, i)
		if err != nil {
			for _, h := range handles {
				h.Join()
			}
			return fmt.Errorf("spawn fiber %d: %w", i, err)
		}
		handles = append(handles, f)
	}

	s.Run()
	for _, f := range handles {
		f.Join()
	}

	total := 0
	for _, n := range steps {
		total += n
	}
	st := s.Stats()
	fmt.Printf("Fibers: %d\n", cfg.Fibers)
	fmt.Printf("Provider: %s (%d KiB stacks)\n", cfg.Provider, cfg.StackKiB)
	fmt.Printf("Dispatches: %d\n", st.Dispatches)
	fmt.Printf("Steps: %d\n", total)
	return nil
}
