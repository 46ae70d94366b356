package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLintFindsViolations(t *testing.T) {
	root := t.TempDir()

	writeFile(t, filepath.Join(root, "internal/domain/recipe/model.go"), `package recipe

import "dietwithdee/internal/adapters/storage"

type Recipe struct {
	ID      string
	UsrName string
}

var _ storage.SQLDB
`)
	writeFile(t, filepath.Join(root, "internal/adapters/http/handlers_recipes.go"), `package web

import (
	"net/http"

	"dietwithdee/internal/application/orchestrators"
)

func handleGetRecipes(w http.ResponseWriter, r *http.Request) {
	_ = orchestrators.ExecutePublishRecipe
}
`)
	writeFile(t, filepath.Join(root, "internal/adapters/storage/recipe/store.go"), `package recipe

import _ "dietwithdee/internal/adapters/storage/article"

type Store interface{}
`)

	violations, err := lint(root)
	if err != nil {
		t.Fatalf("lint failed: %v", err)
	}

	assertHasRule(t, violations, "concept-coupling")
	assertHasRule(t, violations, "naming")
	assertHasRule(t, violations, "route-query")
	assertHasRule(t, violations, "storage-isolation")
}

func TestLintAllowsSharedStorageRoot(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "internal/adapters/storage/recipe/sqlite_store.go"), `package recipe

import (
	"dietwithdee/internal/adapters/storage"
	domain "dietwithdee/internal/domain/recipe"
)

var _ storage.SQLDB
var _ domain.Recipe
`)
	violations, err := lint(root)
	if err != nil {
		t.Fatalf("lint failed: %v", err)
	}
	if len(violations) != 0 {
		t.Errorf("unexpected violations: %s", joinRules(violations))
	}
}

func TestLintSkipsTestFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "internal/domain/recipe/model_test.go"), `package recipe_test

import _ "dietwithdee/internal/application/orchestrators"

var memUsrStore struct{}
`)
	violations, err := lint(root)
	if err != nil {
		t.Fatalf("lint failed: %v", err)
	}
	if len(violations) != 0 {
		t.Errorf("test files should be skipped, got %s", joinRules(violations))
	}
}

func TestLintReportsParseErrors(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "internal/domain/recipe/model.go"), "package recipe\n\nfunc {")
	if _, err := lint(root); err == nil {
		t.Fatal("expected parse error")
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func assertHasRule(t *testing.T, violations []violation, rule string) {
	t.Helper()
	for _, v := range violations {
		if v.Rule == rule {
			return
		}
	}
	var rules []string
	for _, v := range violations {
		rules = append(rules, v.Rule)
	}
	t.Fatalf("expected rule %s; got %s", rule, strings.Join(rules, ", "))
}
