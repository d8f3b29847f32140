// Package patch writes synthesized bodies back into Rust sources.
package patch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/rust"
)

var (
	ErrNotFound  = errors.New("function not found")
	ErrAmbiguous = errors.New("function path is ambiguous")
)

type Patcher struct {
	DryRun bool
	// KeepLineCount pads or joins lines so that the file keeps its line
	// count, leaving the positions of other functions valid.
	KeepLineCount bool

	out io.Writer
}

func New(dryRun, keepLineCount bool, out io.Writer) *Patcher {
	if out == nil {
		out = os.Stdout
	}
	return &Patcher{DryRun: dryRun, KeepLineCount: keepLineCount, out: out}
}

// Patch replaces the body of the function at fnPath in filename.
func (p *Patcher) Patch(ctx context.Context, filename, fnPath, body string) error {
	content, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file: %w", err)
	}
	patched, err := p.Replace(ctx, content, fnPath, body)
	if err != nil {
		return fmt.Errorf("%s: %w", filename, err)
	}

	if p.DryRun {
		fmt.Fprintf(p.out, "Would patch %s in %s:\n%s\n", fnPath, filename, body)
		return nil
	}
	info, err := os.Stat(filename)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filename, patched, info.Mode().Perm()); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// Replace returns src with the body of the function at fnPath replaced.
// body is the text between the braces; its lines are indented to the
// function's column.
func (p *Patcher) Replace(ctx context.Context, src []byte, fnPath, body string) ([]byte, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(rust.GetLanguage())
	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	fn, err := findFn(tree.RootNode(), src, fnPath)
	if err != nil {
		return nil, err
	}
	block := fn.ChildByFieldName("body")
	if block == nil {
		return nil, fmt.Errorf("%w: %s has no body", ErrNotFound, fnPath)
	}

	indent := strings.Repeat(" ", int(fn.StartPoint().Column))
	sln := strings.ReplaceAll(body, "\n", "\n"+indent)

	start, end := fn.StartByte(), fn.EndByte()
	method := string(src[start:end])
	bs, be := block.StartByte()-start, block.EndByte()-start
	newMethod := method[:bs] + "{" + sln + "}" + method[be:]

	if p.KeepLineCount {
		want, got := strings.Count(method, "\n"), strings.Count(newMethod, "\n")
		switch {
		case got < want:
			newMethod += strings.Repeat("\n", want-got)
		case got > want:
			newMethod = strings.Replace(newMethod, "\n", "", got-want)
		}
	}

	out := make([]byte, 0, len(src)+len(newMethod)-len(method))
	out = append(out, src[:start]...)
	out = append(out, newMethod...)
	out = append(out, src[end:]...)
	return out, nil
}

// findFn resolves a path such as `Account::withdraw` to a function item.
// The segment before the name, if any, must name the enclosing impl's
// type or trait, or the enclosing module.
func findFn(root *sitter.Node, src []byte, fnPath string) (*sitter.Node, error) {
	segs := strings.Split(fnPath, "::")
	name := segs[len(segs)-1]
	qualifier := ""
	if len(segs) > 1 {
		qualifier = baseName(segs[len(segs)-2])
	}

	var found []*sitter.Node
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		for i := 0; i < int(n.NamedChildCount()); i++ {
			child := n.NamedChild(i)
			if child.Type() == "function_item" {
				if id := child.ChildByFieldName("name"); id != nil && id.Content(src) == name &&
					(qualifier == "" || enclosedBy(child, src, qualifier)) {
					found = append(found, child)
				}
				continue
			}
			walk(child)
		}
	}
	walk(root)

	switch len(found) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, fnPath)
	case 1:
		return found[0], nil
	}
	return nil, fmt.Errorf("%w: %s matches %d functions", ErrAmbiguous, fnPath, len(found))
}

func enclosedBy(fn *sitter.Node, src []byte, qualifier string) bool {
	for n := fn.Parent(); n != nil; n = n.Parent() {
		switch n.Type() {
		case "impl_item":
			for _, field := range []string{"type", "trait"} {
				if t := n.ChildByFieldName(field); t != nil && baseName(t.Content(src)) == qualifier {
					return true
				}
			}
			return false
		case "mod_item":
			if id := n.ChildByFieldName("name"); id != nil && id.Content(src) == qualifier {
				return true
			}
		}
	}
	return false
}

// baseName strips generic arguments and leading path segments.
func baseName(s string) string {
	s, _, _ = strings.Cut(s, "<")
	if i := strings.LastIndex(s, "::"); i >= 0 {
		s = s[i+2:]
	}
	return strings.TrimSpace(s)
}
