package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/wippyai/mask-runtime/engine"
	"github.com/wippyai/mask-runtime/options"
	"github.com/wippyai/mask-runtime/runtime"
)

func main() {
	var (
		engineFile  = flag.String("engine", "", "Path to the mask engine wasm file")
		maskSpec    = flag.String("mask", "phoneNumber", "Mask spec: named pattern, literal, or JSON")
		value       = flag.String("value", "", "Raw value to format")
		unmasked    = flag.Bool("unmasked", false, "Also print the unmasked value")
		verbose     = flag.Bool("v", false, "Verbose logging")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	if *engineFile == "" && !isNamedPattern(*maskSpec) {
		fmt.Fprintln(os.Stderr, "Usage: maskfield -engine <engine.wasm> -mask <spec> -value <raw>")
		fmt.Fprintln(os.Stderr, "       maskfield -engine <engine.wasm> -mask <spec> -i  (interactive mode)")
		fmt.Fprintln(os.Stderr, "       maskfield -mask <namedPattern>  (print the literal pattern)")
		os.Exit(1)
	}

	logger := zap.NewNop()
	if *verbose {
		l, err := zap.NewDevelopment()
		if err == nil {
			logger = l
		}
	}
	engine.SetLogger(logger)
	options.SetLogger(logger)

	if *interactive {
		if err := runInteractive(*engineFile, *maskSpec, logger); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(*engineFile, *maskSpec, *value, *unmasked, logger); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func isNamedPattern(spec string) bool {
	_, ok := options.NamedPattern(spec)
	return ok
}

func run(engineFile, maskSpec, value string, unmasked bool, logger *zap.Logger) error {
	ctx := context.Background()

	rt, err := runtime.New(runtime.Config{
		Load:   engine.LoadFile(engineFile),
		Logger: logger,
	})
	if err != nil {
		return err
	}
	defer rt.Close(ctx)

	// Best-effort cleanup if the process is interrupted mid-run.
	rt.RegisterTeardown(func(fn func()) {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, os.Interrupt, syscall.SIGTERM)
		go func() {
			<-ch
			fn()
			os.Exit(1)
		}()
	})

	field := &hostField{}
	handle, err := rt.CreateMask(ctx, field, maskSpec)
	if err != nil {
		return err
	}
	defer handle.Destroy(ctx)

	if p := handle.Pattern(); p != "" {
		fmt.Printf("Named pattern: %s\n", p)
		if value == "" {
			return nil
		}
	}

	if err := handle.SetValue(ctx, value); err != nil {
		return err
	}

	formatted, err := handle.Value(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("Formatted: %s\n", formatted)

	if unmasked {
		raw, err := handle.UnmaskedValue(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Unmasked:  %s\n", raw)
	}
	return nil
}

// hostField is the CLI's stand-in for a form field.
type hostField struct {
	value string
}

func (f *hostField) Value() string     { return f.value }
func (f *hostField) SetValue(v string) { f.value = v }
