package ty

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/rust"
)

var ErrParse = errors.New("cannot parse type")

// Parser turns the frontend's printed types back into Ty values. Paths are
// resolved against the known ADT definitions; names listed as generics
// become type parameters.
type Parser struct {
	parser   *sitter.Parser
	adts     map[string]*AdtDef
	generics map[string]bool
	regions  map[string]RegionKind
	anon     int
}

func NewParser(adts []*AdtDef) *Parser {
	parser := sitter.NewParser()
	parser.SetLanguage(rust.GetLanguage())
	p := &Parser{
		parser:   parser,
		adts:     make(map[string]*AdtDef),
		generics: make(map[string]bool),
		regions:  make(map[string]RegionKind),
	}
	box := BoxDef()
	p.addAdt(box)
	p.adts["alloc::boxed::Box"] = box
	p.addAdt(SetDef())
	for _, d := range adts {
		p.addAdt(d)
	}
	return p
}

func (p *Parser) addAdt(d *AdtDef) {
	p.adts[d.ShortPath()] = d
	if _, ok := p.adts[d.Name]; !ok || d.Local {
		p.adts[d.Name] = d
	}
}

// Lookup finds an ADT definition by path or item name.
func (p *Parser) Lookup(path string) (*AdtDef, bool) {
	d, ok := p.adts[path]
	return d, ok
}

// WithGenerics sets the names treated as generic parameters.
func (p *Parser) WithGenerics(names ...string) *Parser {
	p.generics = make(map[string]bool, len(names))
	for _, n := range names {
		p.generics[n] = true
	}
	return p
}

// WithRegionKind overrides how a named lifetime is classified. Unlisted
// named lifetimes are free regions.
func (p *Parser) WithRegionKind(name string, kind RegionKind) *Parser {
	p.regions[name] = kind
	return p
}

// ResetRegions forgets per-signature region kinds.
func (p *Parser) ResetRegions() {
	p.regions = make(map[string]RegionKind)
	p.anon = 0
}

// Parse parses a printed type.
func (p *Parser) Parse(ctx context.Context, s string) (*Ty, error) {
	s = strings.TrimSpace(s)
	if t, ok := opaqueForm(s); ok {
		return t, nil
	}
	src := []byte("type __T = " + s + ";")
	tree, err := p.parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrParse, s, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return nil, fmt.Errorf("%w %q: syntax error", ErrParse, s)
	}
	item := root.NamedChild(0)
	if item == nil || item.Type() != "type_item" {
		return nil, fmt.Errorf("%w %q", ErrParse, s)
	}
	node := item.ChildByFieldName("type")
	if node == nil {
		return nil, fmt.Errorf("%w %q", ErrParse, s)
	}
	return p.convert(node, src)
}

// opaqueForm recognises the compiler's printed forms that have no surface
// syntax, such as closures.
func opaqueForm(s string) (*Ty, bool) {
	switch {
	case strings.HasPrefix(s, "{closure"):
		return &Ty{Kind: Closure, Name: s}, true
	case strings.HasPrefix(s, "{generator"):
		return &Ty{Kind: Generator, Name: s}, true
	case strings.HasPrefix(s, "{fn") || strings.HasPrefix(s, "fn() {"):
		return &Ty{Kind: FnDef, Name: s}, true
	case strings.HasPrefix(s, "{extern"):
		return &Ty{Kind: Foreign, Name: s}, true
	case s == "{type error}":
		return &Ty{Kind: Error, Name: s}, true
	case strings.HasPrefix(s, "?"):
		return &Ty{Kind: Infer, Name: s}, true
	case strings.HasPrefix(s, "^"):
		return &Ty{Kind: Bound, Name: s}, true
	case strings.HasPrefix(s, "!") && len(s) > 1:
		return &Ty{Kind: Placeholder, Name: s}, true
	}
	return nil, false
}

func (p *Parser) convert(n *sitter.Node, src []byte) (*Ty, error) {
	text := n.Content(src)
	switch n.Type() {
	case "primitive_type":
		return Prim(text), nil
	case "unit_type":
		return Unit(), nil
	case "tuple_type":
		elems, err := p.convertAll(n, src)
		if err != nil {
			return nil, err
		}
		return TupleOf(elems...), nil
	case "reference_type":
		inner, err := p.convert(n.ChildByFieldName("type"), src)
		if err != nil {
			return nil, err
		}
		r := Region{Kind: FreeAnon, Index: p.nextAnon()}
		mut := false
		for i := 0; i < int(n.NamedChildCount()); i++ {
			c := n.NamedChild(i)
			switch c.Type() {
			case "lifetime":
				r = p.region(c.Content(src))
			case "mutable_specifier":
				mut = true
			}
		}
		return RefTo(r, mut, inner), nil
	case "pointer_type":
		inner, err := p.convert(n.ChildByFieldName("type"), src)
		if err != nil {
			return nil, err
		}
		mut := false
		for i := 0; i < int(n.NamedChildCount()); i++ {
			if n.NamedChild(i).Type() == "mutable_specifier" {
				mut = true
			}
		}
		return &Ty{Kind: RawPtr, Mut: mut, Elems: []*Ty{inner}}, nil
	case "array_type":
		elem, err := p.convert(n.ChildByFieldName("element"), src)
		if err != nil {
			return nil, err
		}
		if l := n.ChildByFieldName("length"); l != nil {
			return &Ty{Kind: Array, Name: l.Content(src), Elems: []*Ty{elem}}, nil
		}
		return &Ty{Kind: Slice, Elems: []*Ty{elem}}, nil
	case "function_type":
		return &Ty{Kind: FnPtr, Name: text}, nil
	case "dynamic_type", "bounded_type":
		return &Ty{Kind: Dynamic, Name: text}, nil
	case "abstract_type":
		return &Ty{Kind: Opaque, Name: text}, nil
	case "never_type":
		return &Ty{Kind: Never, Name: "!"}, nil
	case "type_identifier":
		return p.named(text, nil, nil)
	case "scoped_type_identifier":
		if isProjection(n, p.generics, src) {
			return &Ty{Kind: Projection, Name: text}, nil
		}
		return p.named(text, nil, nil)
	case "generic_type":
		base := n.ChildByFieldName("type")
		args := n.ChildByFieldName("type_arguments")
		var (
			tys     []*Ty
			regions []Region
		)
		for i := 0; args != nil && i < int(args.NamedChildCount()); i++ {
			c := args.NamedChild(i)
			if c.Type() == "lifetime" {
				regions = append(regions, p.region(c.Content(src)))
				continue
			}
			t, err := p.convert(c, src)
			if err != nil {
				return nil, err
			}
			tys = append(tys, t)
		}
		return p.named(base.Content(src), regions, tys)
	}
	return nil, fmt.Errorf("%w %q: unexpected %s", ErrParse, text, n.Type())
}

func (p *Parser) convertAll(n *sitter.Node, src []byte) ([]*Ty, error) {
	out := make([]*Ty, 0, n.NamedChildCount())
	for i := 0; i < int(n.NamedChildCount()); i++ {
		t, err := p.convert(n.NamedChild(i), src)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (p *Parser) named(path string, regions []Region, args []*Ty) (*Ty, error) {
	if p.generics[path] && len(args) == 0 {
		return ParamTy(path), nil
	}
	d, ok := p.adts[path]
	if !ok {
		return nil, fmt.Errorf("%w: unknown type %s", ErrParse, path)
	}
	if len(args) != len(d.Generics) {
		return nil, fmt.Errorf("%w: %s expects %d type arguments, got %d", ErrParse, path, len(d.Generics), len(args))
	}
	return AdtOf(d, regions, args...), nil
}

func (p *Parser) region(name string) Region {
	switch name {
	case "'static":
		return Region{Kind: Static, Name: name}
	case "'_":
		return Region{Kind: FreeAnon, Index: p.nextAnon()}
	}
	kind, ok := p.regions[name]
	if !ok {
		kind = FreeNamed
	}
	return Region{Kind: kind, Name: name}
}

func (p *Parser) nextAnon() int {
	p.anon++
	return p.anon - 1
}

// isProjection reports `<T as Trait>::Item` and `T::Item` paths.
func isProjection(n *sitter.Node, generics map[string]bool, src []byte) bool {
	path := n.ChildByFieldName("path")
	if path == nil {
		return false
	}
	if path.Type() == "bracketed_type" {
		return true
	}
	return generics[path.Content(src)]
}
