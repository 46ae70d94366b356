// Command lintguidelines checks the package layering rules of this repo:
// domain packages stay free of application and adapter imports, GET
// handlers never call mutating use cases, storage packages do not reach
// into each other, and identifiers avoid cryptic abbreviations.
//
// Usage:
//
//	go run ./tools/lintguidelines --root . --strict
package main

import (
	"flag"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// violation is one broken rule at one position.
type violation struct {
	Rule    string
	File    string
	Line    int
	Message string
}

func (v violation) String() string {
	return fmt.Sprintf("%s:%d [%s] %s", v.File, v.Line, v.Rule, v.Message)
}

// bannedAbbrev matches identifier fragments that should be spelled out.
var bannedAbbrev = regexp.MustCompile(`(Usr|Pwd|Mgr|Cnt)([A-Z0-9_]|$)`)

// mutatingVerbs prefix orchestrator names that change state.
var mutatingVerbs = []string{"Create", "Update", "Delete", "Publish", "Save", "Record", "Send", "Subscribe", "Resend", "Seed", "Dispatch"}

func main() {
	root := flag.String("root", ".", "repository root")
	strict := flag.Bool("strict", false, "exit non-zero on any violation")
	flag.Parse()

	violations, err := lint(*root)
	if err != nil {
		slog.Error("lint_failed", "error", err)
		os.Exit(2)
	}
	for _, v := range violations {
		fmt.Println(v)
	}
	if len(violations) > 0 && *strict {
		os.Exit(1)
	}
}

// lint parses every non-test Go file under root/internal and returns the
// violations sorted by file and line.
func lint(root string) ([]violation, error) {
	var out []violation
	fset := token.NewFileSet()
	internal := filepath.Join(root, "internal")

	err := filepath.WalkDir(internal, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		file, err := parser.ParseFile(fset, path, nil, parser.SkipObjectResolution)
		if err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		out = append(out, checkNaming(fset, rel, file)...)
		out = append(out, checkConceptCoupling(fset, rel, file)...)
		out = append(out, checkRouteQuery(fset, rel, file)...)
		out = append(out, checkStorageIsolation(fset, rel, file)...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].File != out[j].File {
			return out[i].File < out[j].File
		}
		return out[i].Line < out[j].Line
	})
	return out, nil
}

func checkNaming(fset *token.FileSet, rel string, file *ast.File) []violation {
	var out []violation
	ast.Inspect(file, func(n ast.Node) bool {
		id, ok := n.(*ast.Ident)
		if !ok {
			return true
		}
		if bannedAbbrev.MatchString(id.Name) {
			out = append(out, violation{
				Rule:    "naming",
				File:    rel,
				Line:    fset.Position(id.Pos()).Line,
				Message: fmt.Sprintf("identifier %q uses an abbreviation", id.Name),
			})
		}
		return true
	})
	return out
}

// checkConceptCoupling keeps internal/domain free of application and
// adapter imports. Domain packages may import each other.
func checkConceptCoupling(fset *token.FileSet, rel string, file *ast.File) []violation {
	if !strings.HasPrefix(rel, "internal/domain/") {
		return nil
	}
	var out []violation
	for _, imp := range file.Imports {
		path, _ := strconv.Unquote(imp.Path.Value)
		if strings.Contains(path, "/internal/application") || strings.Contains(path, "/internal/adapters") {
			out = append(out, violation{
				Rule:    "concept-coupling",
				File:    rel,
				Line:    fset.Position(imp.Pos()).Line,
				Message: "domain package imports " + path,
			})
		}
	}
	return out
}

// checkRouteQuery flags handleGet* functions that call a mutating
// orchestrators.Execute* use case.
func checkRouteQuery(fset *token.FileSet, rel string, file *ast.File) []violation {
	if !strings.HasPrefix(rel, "internal/adapters/http/") {
		return nil
	}
	var out []violation
	for _, decl := range file.Decls {
		fn, ok := decl.(*ast.FuncDecl)
		if !ok || fn.Body == nil || !strings.HasPrefix(fn.Name.Name, "handleGet") {
			continue
		}
		ast.Inspect(fn.Body, func(n ast.Node) bool {
			sel, ok := n.(*ast.SelectorExpr)
			if !ok {
				return true
			}
			pkg, ok := sel.X.(*ast.Ident)
			if !ok || pkg.Name != "orchestrators" || !strings.HasPrefix(sel.Sel.Name, "Execute") {
				return true
			}
			if isMutating(strings.TrimPrefix(sel.Sel.Name, "Execute")) {
				out = append(out, violation{
					Rule:    "route-query",
					File:    rel,
					Line:    fset.Position(sel.Pos()).Line,
					Message: fmt.Sprintf("%s calls mutating %s", fn.Name.Name, sel.Sel.Name),
				})
			}
			return true
		})
	}
	return out
}

func isMutating(name string) bool {
	for _, verb := range mutatingVerbs {
		if strings.HasPrefix(name, verb) {
			return true
		}
	}
	return false
}

// checkStorageIsolation stops one store package importing another. The
// shared internal/adapters/storage root is allowed.
func checkStorageIsolation(fset *token.FileSet, rel string, file *ast.File) []violation {
	own := storagePackage(rel)
	if own == "" {
		return nil
	}
	var out []violation
	for _, imp := range file.Imports {
		path, _ := strconv.Unquote(imp.Path.Value)
		_, after, found := strings.Cut(path, "/internal/adapters/storage/")
		if !found {
			continue
		}
		other, _, _ := strings.Cut(after, "/")
		if other != own {
			out = append(out, violation{
				Rule:    "storage-isolation",
				File:    rel,
				Line:    fset.Position(imp.Pos()).Line,
				Message: fmt.Sprintf("storage/%s imports storage/%s", own, other),
			})
		}
	}
	return out
}

// storagePackage returns the store name for files under
// internal/adapters/storage/<name>/, or "".
func storagePackage(rel string) string {
	rest, ok := strings.CutPrefix(rel, "internal/adapters/storage/")
	if !ok {
		return ""
	}
	name, _, found := strings.Cut(rest, "/")
	if !found {
		return ""
	}
	return name
}
