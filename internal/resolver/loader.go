package resolver

import (
	"fmt"
	"path/filepath"

	"github.com/emirpasic/gods/sets/linkedhashset"

	"vellum/internal/ast"
)

// FileParser parses a single source file's bytes into a root Namespace.
// Supplied by the caller (internal/parser) to keep this package free of a
// parser dependency.
type FileParser func(path string, src []byte) (*ast.Namespace, error)

// FileReader reads the bytes at an absolute or relative path.
type FileReader func(path string) ([]byte, error)

// LoadWorld walks the file-inclusion graph starting at entryPath: every
// `File` namespace ref reachable from the entry file is parsed and added to
// World.Files, detecting cycles via a forbidden-path set along the current
// walk (spec.md §4.1 "file loader boundary").
func LoadWorld(entryPath string, read FileReader, parse FileParser) (*World, []error) {
	w := &World{Entry: entryPath, Files: make(map[string]*ast.Namespace)}
	var errs []error
	visiting := linkedhashset.New()

	var load func(path string) *ast.Namespace
	load = func(path string) *ast.Namespace {
		abs, err := filepath.Abs(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("resolve path %q: %w", path, err))
			return nil
		}
		if visiting.Contains(abs) {
			errs = append(errs, fmt.Errorf("file inclusion cycle detected at %q", abs))
			return nil
		}
		if ns, ok := w.Files[abs]; ok {
			return ns
		}
		visiting.Add(abs)
		defer visiting.Remove(abs)

		src, err := read(abs)
		if err != nil {
			errs = append(errs, fmt.Errorf("read %q: %w", abs, err))
			return nil
		}
		ns, err := parse(abs, src)
		if err != nil {
			errs = append(errs, fmt.Errorf("parse %q: %w", abs, err))
			return nil
		}
		w.Files[abs] = ns

		for _, in := range ns.Inner {
			if fr, ok := in.Ref.(ast.FileRef); ok {
				dir := filepath.Dir(abs)
				dep := fr.Path
				if !filepath.IsAbs(dep) {
					dep = filepath.Join(dir, dep)
				}
				child := load(dep)
				if child != nil {
					depAbs, _ := filepath.Abs(dep)
					in.Ref = ast.FileRef{Path: depAbs}
				}
			}
		}
		return ns
	}

	root := load(entryPath)
	if root == nil {
		return w, errs
	}
	return w, errs
}
