// Command sqllint checks that every SQL statement constant carries a unique
// "--sql <uuid>" marker on its first line. SQLRunner rejects statements
// without one at runtime; this catches them at review time.
package main

import (
	"flag"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

var (
	statementPattern  = regexp.MustCompile(`(?i)^(select|insert|update|delete|with)\b`)
	uuidMarkerPattern = regexp.MustCompile(`^--sql [0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}$`)
)

type violation struct {
	file    string
	name    string
	line    int
	message string
}

func (v violation) String() string {
	return fmt.Sprintf("%s:%d %s (%s)", v.file, v.line, v.message, v.name)
}

// marked is a statement with a valid marker, kept to find duplicates.
type marked struct {
	marker string
	at     violation
}

func main() {
	flag.Parse()
	targets := flag.Args()
	if len(targets) == 0 {
		targets = []string{"."}
	}
	violations, err := lintTargets(targets)
	if err != nil {
		fmt.Fprintf(os.Stderr, "sqllint: %v\n", err)
		os.Exit(1)
	}
	if report(os.Stderr, violations) {
		os.Exit(1)
	}
}

func report(w io.Writer, violations []violation) bool {
	if len(violations) == 0 {
		return false
	}
	fmt.Fprintln(w, "sqllint: SQL audit marker problems")
	for _, v := range violations {
		fmt.Fprintf(w, "  %s\n", v)
	}
	return true
}

func lintTargets(targets []string) ([]violation, error) {
	var (
		violations []violation
		seen       []marked
	)
	visit := func(path string) error {
		src, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		vs, ms, err := lintSource(path, src)
		if err != nil {
			return err
		}
		violations = append(violations, vs...)
		seen = append(seen, ms...)
		return nil
	}

	for _, target := range targets {
		info, err := os.Stat(target)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			if filepath.Ext(target) == ".go" {
				if err := visit(target); err != nil {
					return nil, err
				}
			}
			continue
		}
		err = filepath.WalkDir(target, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() {
				name := d.Name()
				if path != target && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") || name == "vendor" || name == "node_modules") {
					return filepath.SkipDir
				}
				return nil
			}
			if filepath.Ext(path) != ".go" || strings.HasSuffix(path, "_test.go") {
				return nil
			}
			return visit(path)
		})
		if err != nil {
			return nil, err
		}
	}
	return append(violations, duplicates(seen)...), nil
}

// lintSource inspects constant and variable declarations in one file.
func lintSource(path string, src []byte) ([]violation, []marked, error) {
	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, src, parser.ParseComments)
	if err != nil {
		return nil, nil, err
	}
	var (
		violations []violation
		ms         []marked
	)
	ast.Inspect(file, func(n ast.Node) bool {
		vs, ok := n.(*ast.ValueSpec)
		if !ok {
			return true
		}
		for i, value := range vs.Values {
			raw, ok := leadingLiteral(value)
			if !ok {
				continue
			}
			marker := firstLine(raw)
			body := raw
			if strings.HasPrefix(marker, "--sql") {
				body = strings.TrimPrefix(strings.TrimLeft(raw, "\n\r \t"), marker)
			} else if !statementPattern.MatchString(strings.TrimSpace(body)) {
				continue
			}
			name := joinNames(vs.Names)
			if i < len(vs.Names) {
				name = vs.Names[i].Name
			}
			at := violation{file: path, line: fset.Position(value.Pos()).Line, name: name}
			if !uuidMarkerPattern.MatchString(marker) {
				at.message = "missing or invalid --sql <uuid> marker"
				violations = append(violations, at)
				continue
			}
			if !statementPattern.MatchString(strings.TrimSpace(body)) {
				at.message = "marker is not followed by a SQL statement"
				violations = append(violations, at)
				continue
			}
			ms = append(ms, marked{marker: marker, at: at})
		}
		return true
	})
	return violations, ms, nil
}

// leadingLiteral returns the first string literal of a value, following the
// left side of + concatenations.
func leadingLiteral(expr ast.Expr) (string, bool) {
	for {
		switch e := expr.(type) {
		case *ast.BasicLit:
			if e.Kind != token.STRING {
				return "", false
			}
			raw, err := unquote(e.Value)
			if err != nil {
				return "", false
			}
			return raw, true
		case *ast.BinaryExpr:
			if e.Op != token.ADD {
				return "", false
			}
			expr = e.X
		case *ast.ParenExpr:
			expr = e.X
		default:
			return "", false
		}
	}
}

func duplicates(ms []marked) []violation {
	byMarker := map[string][]violation{}
	for _, m := range ms {
		byMarker[m.marker] = append(byMarker[m.marker], m.at)
	}
	var out []violation
	for marker, ats := range byMarker {
		if len(ats) < 2 {
			continue
		}
		for _, at := range ats {
			at.message = "duplicate marker " + strings.TrimPrefix(marker, "--sql ")
			out = append(out, at)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].file != out[j].file {
			return out[i].file < out[j].file
		}
		return out[i].line < out[j].line
	})
	return out
}

func firstLine(s string) string {
	s = strings.TrimLeft(s, "\n\r \t")
	if idx := strings.IndexAny(s, "\n\r"); idx >= 0 {
		return strings.TrimSpace(s[:idx])
	}
	return strings.TrimSpace(s)
}

func unquote(v string) (string, error) {
	if len(v) == 0 {
		return v, nil
	}
	if v[0] == '`' {
		return v[1 : len(v)-1], nil
	}
	return strconv.Unquote(v)
}

func joinNames(idents []*ast.Ident) string {
	parts := make([]string, 0, len(idents))
	for _, ident := range idents {
		if ident == nil {
			continue
		}
		parts = append(parts, ident.Name)
	}
	return strings.Join(parts, ",")
}
