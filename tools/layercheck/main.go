// Package main implements an import layering linter.
//
// It scans Go source files and enforces the module's package boundaries:
// the contracts hub stays dependency-free, library packages never import
// binaries, and the SDK client never drags server packages into callers.
//
// Usage:
//
//	go run tools/layercheck/main.go [-root <project-root>]
package main

import (
	"flag"
	"fmt"
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"strings"
)

const modulePath = "github.com/verityhq/verdict"

// boundary is one directory subtree's import rule.
type boundary struct {
	dir     string
	reason  string
	allowed func(importPath string) bool
}

var boundaries = []boundary{
	{
		dir:     "pkg/contracts",
		reason:  "contracts is the dependency-free hub every package imports",
		allowed: isStdlib,
	},
	{
		dir:    "pkg",
		reason: "library packages must not depend on binaries or the SDK",
		allowed: func(p string) bool {
			return !strings.HasPrefix(p, modulePath+"/cmd") &&
				!strings.HasPrefix(p, modulePath+"/sdk") &&
				!strings.HasPrefix(p, modulePath+"/examples")
		},
	},
	{
		dir:    "sdk/go/client",
		reason: "the SDK exposes only stdlib and contracts to callers",
		allowed: func(p string) bool {
			return isStdlib(p) || p == modulePath+"/pkg/contracts"
		},
	},
}

// isStdlib reports whether an import path names a standard library package:
// the first path element of a stdlib import never contains a dot.
func isStdlib(path string) bool {
	first := path
	if i := strings.Index(path, "/"); i >= 0 {
		first = path[:i]
	}
	return !strings.Contains(first, ".")
}

func main() {
	root := flag.String("root", ".", "Project root directory")
	flag.Parse()

	violations := 0
	fset := token.NewFileSet()

	for _, b := range boundaries {
		dir := filepath.Join(*root, b.dir)
		if _, err := os.Stat(dir); os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "ERROR: %s does not exist\n", dir)
			os.Exit(1)
		}
		violations += checkBoundary(fset, *root, dir, b)
	}

	if violations > 0 {
		fmt.Printf("\n❌ %d layering violation(s) found\n", violations)
		os.Exit(1)
	}

	fmt.Println("✅ layering check passed — no forbidden imports")
}

func checkBoundary(fset *token.FileSet, root, dir string, b boundary) int {
	violations := 0

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if info.Name() == "vendor" || info.Name() == "testdata" {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}

		f, parseErr := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
		if parseErr != nil {
			fmt.Fprintf(os.Stderr, "WARN: parse error in %s: %v\n", path, parseErr)
			return nil
		}

		for _, imp := range f.Imports {
			importPath := strings.Trim(imp.Path.Value, `"`)
			if b.allowed(importPath) {
				continue
			}
			pos := fset.Position(imp.Pos())
			relPath, _ := filepath.Rel(root, pos.Filename)
			fmt.Printf("LAYER VIOLATION: %s:%d imports %q (%s: %s)\n",
				relPath, pos.Line, importPath, b.dir, b.reason)
			violations++
		}
		return nil
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: walk failed: %v\n", err)
		os.Exit(1)
	}

	return violations
}
