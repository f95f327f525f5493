package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/quickjs-runtime/runtime"
)

func main() {
	var (
		file        = flag.String("file", "", "Path to JavaScript file to evaluate")
		expr        = flag.String("e", "", "Expression to evaluate")
		module      = flag.Bool("module", false, "Evaluate as an ES module")
		interactive = flag.Bool("i", false, "Interactive REPL with TUI")
		verbose     = flag.Bool("v", false, "Verbose bridge logging")
	)
	flag.Parse()

	if *file == "" && *expr == "" && !*interactive {
		fmt.Fprintln(os.Stderr, "Usage: run -file <script.js> [-module]")
		fmt.Fprintln(os.Stderr, "       run -e '<expression>'")
		fmt.Fprintln(os.Stderr, "       run -i  (interactive REPL)")
		os.Exit(1)
	}

	var opts []runtime.Option
	if *verbose {
		log, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		defer log.Sync()
		opts = append(opts, runtime.WithLogger(log))
	}

	if *interactive {
		if !term.IsTerminal(int(os.Stdin.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: interactive mode requires a terminal")
			os.Exit(1)
		}
		if err := runInteractive(opts); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(*file, *expr, *module, opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(file, expr string, module bool, opts []runtime.Option) error {
	ctx := context.Background()

	rt, err := runtime.New(ctx, opts...)
	if err != nil {
		return fmt.Errorf("create runtime: %w", err)
	}
	defer rt.Close()

	if file != "" {
		code, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("read file: %w", err)
		}
		eval := rt.Eval
		if module {
			eval = rt.EvalModule
		}
		out, err := eval(ctx, file, string(code))
		if err != nil {
			return err
		}
		if out != "" {
			fmt.Println(out)
		}
	}

	if expr != "" {
		out, err := rt.Eval(ctx, "<expr>", expr)
		if err != nil {
			return err
		}
		fmt.Println(out)
	}

	return nil
}
