// Command stt batch-elaborates .stt files: the external-facing tool spec.md
// §6 describes (no REPL, no interface-file persistence).
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"

	"github.com/sttlang/stt/internal/cliutil"
	"github.com/sttlang/stt/internal/diag"
	"github.com/sttlang/stt/internal/elab"
	"github.com/sttlang/stt/internal/eval"
	"github.com/sttlang/stt/internal/parser"
	"github.com/sttlang/stt/internal/prelude"
	"github.com/sttlang/stt/internal/surface"
	"github.com/sttlang/stt/internal/value"
)

func main() {
	var (
		showVersion = flag.Bool("version", false, "show version information")
		showHelp    = flag.Bool("help", false, "show help information")
		jsonOutput  = flag.Bool("json", false, "output version in JSON format")
		verbose     = flag.Bool("verbose", false, "enable informational logging")
		debugMode   = flag.Bool("debug", false, "enable debug logging")
		watch       = flag.Bool("watch", false, "re-elaborate files as they change on disk")
		normalize   = flag.String("normalize", "", "print the normal form of the named top-level declaration")
		noPrelude   = flag.Bool("no-prelude", false, "skip loading the embedded Church-encoding prelude")
	)

	flag.Usage = func() {
		cliutil.PrintUsage("stt", []cliutil.FlagInfo{
			{Name: "watch", Usage: "re-elaborate files as they change on disk"},
			{Name: "normalize NAME", Usage: "print the normal form of NAME after elaboration"},
			{Name: "verbose", Usage: "enable informational logging"},
			{Name: "debug", Usage: "enable debug logging"},
			{Name: "no-prelude", Usage: "skip loading the embedded Church-encoding prelude"},
		})
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if *showVersion {
		cliutil.PrintVersion("stt", *jsonOutput)
		os.Exit(0)
	}

	files := flag.Args()
	if len(files) == 0 {
		cliutil.ExitWithError("no .stt files given")
	}

	logger := cliutil.NewLogger(*verbose, *debugMode)

	if *watch {
		if err := runWatch(files, logger, *noPrelude, *normalize); err != nil {
			cliutil.ExitWithError("%v", err)
		}

		return
	}

	ok := elaborateOnce(files, logger, *noPrelude, *normalize)
	if !ok {
		os.Exit(1)
	}
}

// parsedFile is one source file's bytes read and parsed, but not yet
// elaborated — the unit of work fanned out across errgroup.Group.
type parsedFile struct {
	path string
	file *surface.File
}

// elaborateOnce reads, lexes and parses every file concurrently (pure I/O
// and parsing, no shared state), then elaborates every file's declarations
// sequentially into one shared top-level context, preserving the
// single-writer metacontext invariant spec.md §5 requires.
func elaborateOnce(files []string, logger *cliutil.Logger, noPrelude bool, normalizeName string) bool {
	parsed, err := parseAll(files, logger)
	if err != nil {
		cliutil.ExitWithError("%v", err)
	}

	rep := &diag.Collector{}
	e := elab.New(rep)

	if !noPrelude {
		preludeFile, perr := parser.Parse(prelude.Filename, prelude.Source)
		if perr != nil {
			cliutil.ExitWithError("failed to parse embedded prelude: %v", perr)
		}

		e.ElaborateFile(preludeFile)
	}

	var results []elab.DeclResult

	for _, pf := range parsed {
		fileLogger := logger.WithSource(pf.path)
		fileLogger.Debug("elaborating %d declaration(s)", len(pf.file.Decls))
		results = append(results, e.ElaborateFile(pf.file)...)
	}

	for _, r := range results {
		if !r.Ok {
			continue
		}

		if r.Elapsed > 0 {
			fmt.Printf("%s: elaborated in %s\n", r.Name, r.Elapsed)
		}

		if r.Normal != nil {
			fmt.Printf("%s normal form: %s\n", r.Name, r.Normal.String())
		}
	}

	if normalizeName != "" {
		printNormalForm(e, normalizeName)
	}

	for _, d := range rep.Diagnostics {
		fmt.Fprintln(os.Stderr, d.Error())
	}

	return !rep.HasErrors()
}

func printNormalForm(e *elab.Elab, name string) {
	id, _, ok := e.Tops.LookupByName(name)
	if !ok {
		fmt.Fprintf(os.Stderr, "--normalize: no such declaration %q\n", name)
		return
	}

	entry := e.Tops.Entry(id)
	if entry.DefTerm == nil {
		fmt.Fprintf(os.Stderr, "--normalize: %q is a postulate, has no definition\n", name)
		return
	}

	nf := eval.Nf(e.Mcx, value.Empty, entry.DefTerm)
	fmt.Printf("%s normal form: %s\n", name, nf.String())
}

// parseAll reads and parses every file's bytes concurrently via
// errgroup.Group, preserving input order in the returned slice so
// elaboration order (and therefore scope-error propagation) matches the
// order the files were given on the command line.
func parseAll(files []string, logger *cliutil.Logger) ([]parsedFile, error) {
	results := make([]parsedFile, len(files))

	g, _ := errgroup.WithContext(context.Background())

	for i, path := range files {
		i, path := i, path

		g.Go(func() error {
			src, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("reading %s: %w", path, err)
			}

			logger.WithSource(path).Debug("parsing %d byte(s)", len(src))

			f, err := parser.Parse(path, string(src))
			if err != nil {
				return fmt.Errorf("parsing %s: %w", path, err)
			}

			results[i] = parsedFile{path: path, file: f}

			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return results, nil
}

// runWatch re-elaborates every given file (and reports fresh diagnostics)
// whenever any of them changes on disk, the CLI-ambient-tooling analogue
// of the teacher's package-manager file watching.
func runWatch(files []string, logger *cliutil.Logger, noPrelude bool, normalizeName string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting file watcher: %w", err)
	}
	defer watcher.Close()

	dirs := map[string]bool{}

	for _, f := range files {
		dirs[filepath.Dir(f)] = true
	}

	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
	}

	logger.Info("watching %d file(s) for changes", len(files))
	elaborateOnce(files, logger, noPrelude, normalizeName)

	for {
		select {
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}

			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			if !watchedFile(files, ev.Name) {
				continue
			}

			logger.WithSource(ev.Name).Info("changed, re-elaborating")
			elaborateOnce(files, logger, noPrelude, normalizeName)

		case werr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}

			logger.Warn("watch error: %v", werr)
		}
	}
}

func watchedFile(files []string, changed string) bool {
	for _, f := range files {
		if filepath.Clean(f) == filepath.Clean(changed) {
			return true
		}
	}

	return false
}
