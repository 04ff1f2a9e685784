package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"vellum/internal/ast"
	"vellum/internal/buildcache"
	"vellum/internal/diag"
	"vellum/internal/ir"
	"vellum/internal/lexer"
	"vellum/internal/lower"
	"vellum/internal/parser"
	"vellum/internal/resolver"
	"vellum/internal/sema"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	var printAST, printIR, printChecked bool

	root := &cobra.Command{
		Use:           "vellum",
		Short:         "Compile a game-scripting source program read from stdin",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mode := modeChecked
			switch {
			case printAST:
				mode = modeAST
			case printIR:
				mode = modeIR
			case printChecked:
				mode = modeChecked
			}
			return compile(cmd.Context(), stdin, stdout, stderr, mode)
		},
	}
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	flags := root.Flags()
	flags.BoolVarP(&printAST, "ast", "a", false, "print the parsed AST and exit")
	flags.BoolVarP(&printIR, "lower", "l", false, "print the lowered IR, skipping the final structural validation pass")
	flags.BoolVarP(&printChecked, "compile", "c", false, "type-check, lower, validate, and print the IR (default)")
	root.MarkFlagsMutuallyExclusive("ast", "lower", "compile")

	if err := root.ExecuteContext(context.Background()); err != nil {
		return 1
	}
	return 0
}

type mode int

const (
	modeAST mode = iota
	modeIR
	modeChecked
)

// compile runs the source read from stdin through the pipeline up to m,
// writing its text output to stdout. A non-nil return signals a phase
// failure already reported to stderr; RunE's SilenceErrors keeps cobra
// from printing it a second time, but the caller must still exit non-zero.
func compile(ctx context.Context, stdin io.Reader, stdout, stderr io.Writer, m mode) error {
	start := time.Now()
	sess := diag.NewSession()
	report := diag.NewReporter(stderr, sess)

	src, err := io.ReadAll(stdin)
	if err != nil {
		report.Report("read", []error{err})
		return err
	}

	var cache *buildcache.Cache
	var cacheKey buildcache.Key
	if m == modeChecked {
		if c, err := buildcache.Open(os.Getenv("VELLUM_CACHE_DSN"), cacheDBPath()); err == nil {
			cache = c
			defer cache.Close()
			cacheKey = buildcache.HashSource(src)
			if cached, ok, err := cache.Lookup(ctx, cacheKey); err == nil && ok {
				fmt.Fprint(stdout, cached)
				return nil
			}
		}
	}

	prog, fileWorld, perrs := parseEntry(ctx, src)
	if len(perrs) > 0 {
		report.Report("parse", perrs)
		return perrs[0]
	}

	if m == modeAST {
		fmt.Fprint(stdout, ast.Dump(prog))
		return nil
	}

	world := &sema.World{
		Program:  prog,
		Files:    fileWorld,
		Resolver: resolver.New(fileWorld),
	}
	bindings, serrs := sema.Check(world)
	if len(serrs) > 0 {
		report.Report("check", serrs)
		return serrs[0]
	}

	mod, lerrs := lower.Lower(prog, bindings)
	if len(lerrs) > 0 {
		report.Report("lower", lerrs)
		return lerrs[0]
	}

	if m == modeIR {
		fmt.Fprint(stdout, ir.Print(mod))
		return nil
	}

	notes, verrs := ir.Validate(mod)
	if len(verrs) > 0 {
		report.Report("validate", verrs)
		return verrs[0]
	}
	for _, n := range notes {
		fmt.Fprintln(stderr, "note:", n)
	}

	summary := diag.BuildSummary{
		ModuleName:  mod.Name,
		ObjectCount: len(mod.Objects),
		FuncCount:   len(mod.Functions),
		GlobalCount: len(mod.Globals),
	}
	irText := ir.Print(mod)
	if fp, err := diag.Fingerprint(summary); err == nil {
		irText = fmt.Sprintf("// build %s\n%s", fp, irText)
	}
	fmt.Fprint(stdout, irText)
	if cache != nil {
		cache.Store(ctx, cacheKey, irText)
	}
	report.Stats(len(src), time.Since(start))
	return nil
}

// cacheDBPath is the sqlite database backing the build cache when
// VELLUM_CACHE_DSN is unset: VELLUM_TEST_CACHE_PATH overrides it so tests
// don't share a cache file with each other or a real invocation.
func cacheDBPath() string {
	if p := os.Getenv("VELLUM_TEST_CACHE_PATH"); p != "" {
		return p
	}
	return filepath.Join(os.TempDir(), "vellum-buildcache.db")
}

// parseEntry parses src as the program's root namespace, then loads every
// file reachable from it through `open` namespace refs (resolved relative
// to the current working directory, since stdin has no directory of its
// own), plus the injected std namespace. The returned *resolver.World is
// the file graph sema.Check needs to follow `File` namespace refs.
func parseEntry(_ context.Context, src []byte) (*ast.Program, *resolver.World, []error) {
	l := lexer.New(string(src))
	p := parser.New(l)
	entryNS := p.ParseProgram().Root
	if errs := p.Errors(); len(errs) > 0 {
		return nil, nil, stringsToErrors(errs)
	}

	entryPath, _ := filepath.Abs("<stdin>")
	read := func(path string) ([]byte, error) {
		if path == entryPath {
			return src, nil
		}
		return os.ReadFile(path)
	}
	parseFile := func(path string, fsrc []byte) (*ast.Namespace, error) {
		if path == entryPath {
			return entryNS, nil
		}
		fl := lexer.New(string(fsrc))
		fp := parser.New(fl)
		ns := fp.ParseNamespaceFile()
		if errs := fp.Errors(); len(errs) > 0 {
			return nil, fmt.Errorf("%s: %d parse error(s): %s", path, len(errs), errs[0])
		}
		return ns, nil
	}

	world, werrs := resolver.LoadWorld("<stdin>", read, parseFile)
	if len(werrs) > 0 {
		return nil, nil, werrs
	}
	if err := resolver.LoadStd(world, parseFile); err != nil {
		return nil, nil, []error{err}
	}

	prog := &ast.Program{Root: entryNS, Files: world.Files}
	return prog, world, nil
}

func stringsToErrors(ss []string) []error {
	errs := make([]error, len(ss))
	for i, s := range ss {
		errs[i] = fmt.Errorf("%s", s)
	}
	return errs
}
