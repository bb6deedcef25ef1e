// acsc is the command-line driver for the object-layout and emission
// back-end in internal/backend. Flag handling uses one
// flag.String/flag.Bool variable per flag and flag.Args() for the positional
// source/object arguments, the way a small single-binary compiler
// driver usually lays out its flags.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/jerome-trc/zbcx/internal/backend"
	"github.com/jerome-trc/zbcx/internal/diag"
	"github.com/jerome-trc/zbcx/internal/frontend"
	"github.com/jerome-trc/zbcx/internal/ir"
	"github.com/jerome-trc/zbcx/internal/watch"
)

const versionString = "acsc 0.1.0"

// repeatedFlag collects every occurrence of a flag that may be given
// more than once on the command line (e.g. multiple -i search
// directories).
type repeatedFlag []string

func (r *repeatedFlag) String() string {
	if r == nil {
		return ""
	}
	return strings.Join(*r, ",")
}

func (r *repeatedFlag) Set(v string) error {
	*r = append(*r, v)
	return nil
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := flag.NewFlagSet("acsc", flag.ContinueOnError)

	var includeDirs repeatedFlag
	var linkLibs repeatedFlag
	var defines repeatedFlag

	fs.Var(&includeDirs, "i", "add a directory to the include search path, threaded but unused by the back-end")
	fs.Var(&linkLibs, "l", "link an already-compiled library by name, threaded but unused by the back-end")
	fs.Var(&defines, "D", "define a preprocessor macro, optionally name=value, threaded but unused by the back-end")
	textMode := fs.Bool("text", false, "read the source argument as the textual Program encoding instead of real ACS source")
	outputPath := fs.String("o", "", "output object file path (overrides the positional object argument)")
	preprocess := fs.Bool("preprocess", false, "stop after preprocessing, threaded but unused by the back-end")
	accErr := fs.String("acc-err", "", "write diagnostics to acs.err in the given directory instead of stdout")
	accStats := fs.Bool("acc-stats", false, "print phase timings and back-end counters after a successful compile")
	oneColumn := fs.Bool("one-column", false, "threaded but unused: report all diagnostics at column 1")
	tabSize := fs.Int("tab-size", 8, "threaded but unused: tab width for column accounting, 1..100")
	writeAsserts := fs.Bool("write-asserts", true, "emit runtime assertion message strings")
	noWriteAsserts := fs.Bool("no-write-asserts", false, "suppress runtime assertion message strings")
	cacheDir := fs.String("cache-dir", "", "on-disk build cache directory, threaded but unused by the back-end")
	cacheLifetime := fs.String("cache-lifetime", "", "on-disk build cache expiry, threaded but unused by the back-end")
	cache := fs.Bool("cache", false, "enable the on-disk build cache, threaded but unused by the back-end")
	cacheClear := fs.Bool("cache-clear", false, "clear the on-disk build cache, threaded but unused by the back-end")
	cachePrint := fs.Bool("cache-print", false, "print on-disk build cache contents, threaded but unused by the back-end")
	watchMode := fs.Bool("watch", false, "recompile automatically when the source argument changes")
	version := fs.Bool("version", false, "print version information and exit")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *version {
		fmt.Println(versionString)
		return 0
	}

	_ = includeDirs
	_ = linkLibs
	_ = defines
	_ = *preprocess
	_ = *oneColumn
	_ = *tabSize
	_ = *cacheDir
	_ = *cacheLifetime
	_ = *cache
	_ = *cacheClear
	_ = *cachePrint

	if *tabSize < 1 || *tabSize > 100 {
		fmt.Fprintln(os.Stderr, "acsc: --tab-size must be between 1 and 100")
		return 2
	}

	positional := fs.Args()
	if len(positional) < 1 {
		fmt.Fprintln(os.Stderr, "acsc: a source file argument is required")
		return 2
	}
	sourcePath := positional[0]
	if !*textMode {
		fmt.Fprintln(os.Stderr, "acsc: only -text input is supported; real ACS lexing/parsing is out of scope")
		return 2
	}

	objectPath := *outputPath
	if objectPath == "" && len(positional) >= 2 {
		objectPath = positional[1]
	}
	if objectPath == "" {
		objectPath = sourcePath + ".o"
	}

	sink, closeSink := openSink(*accErr)
	defer closeSink()

	opts := backend.Options{
		WriteAsserts: *writeAsserts && !*noWriteAsserts,
		OutputPath:   objectPath,
		AccStats:     *accStats,
	}

	compile := func() int {
		prog, err := loadProgram(sourcePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "acsc: %v\n", err)
			return 1
		}
		if err := backend.Run(prog, opts, sink); err != nil {
			return 1
		}
		return 0
	}

	if !*watchMode {
		return compile()
	}

	status := compile()
	w, err := watch.New(func(unitName string) {
		fmt.Fprintf(os.Stderr, "acsc: %s changed, rebuilding\n", unitName)
		compile()
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "acsc: cannot start watch mode: %v\n", err)
		return 1
	}
	defer w.Close()
	if err := w.Add(compileUnit(sourcePath, linkLibs)); err != nil {
		fmt.Fprintf(os.Stderr, "acsc: cannot watch %s: %v\n", sourcePath, err)
		return 1
	}
	w.Run()
	return status
}

// compileUnit builds the set of on-disk paths a rebuild of sourcePath
// actually depends on: the source itself plus any statically linked
// libraries named with -l that resolve to a file on disk. A change to
// any of them is one compilation unit's worth of change, so watch
// coalesces them under a single rebuild key instead of firing once
// per dependency file.
func compileUnit(sourcePath string, linkLibs repeatedFlag) watch.Unit {
	paths := []string{sourcePath}
	for _, lib := range linkLibs {
		if _, err := os.Stat(lib); err == nil {
			paths = append(paths, lib)
		}
	}
	return watch.Unit{Name: sourcePath, Paths: paths}
}

func loadProgram(path string) (*ir.Program, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}
	prog, err := frontend.Parse(string(src))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return prog, nil
}

// openSink implements the legacy -acc-err surface: a non-empty dir
// switches diagnostics from stdout to the acs.err log convention.
func openSink(dir string) (diag.Sink, func()) {
	if dir == "" {
		return diag.NewStdoutSink(os.Stdout), func() {}
	}
	s, err := diag.NewLogFileSink(dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "acsc: cannot open diagnostics log: %v, falling back to stdout\n", err)
		return diag.NewStdoutSink(os.Stdout), func() {}
	}
	return s, func() { s.Close() }
}
