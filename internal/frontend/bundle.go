// Package frontend loads the contract bundles written by the compiler
// plugin: type definitions, pure functions and annotated signatures, with
// every contract already type checked and elaborated.
package frontend

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/gnolang/ruslic/internal/contract"
	"github.com/gnolang/ruslic/internal/ty"
)

var ErrBundle = errors.New("malformed bundle")

// Bundle is the elaborated content of one crate.
type Bundle struct {
	Crate  string
	Source string
	Adts   []*ty.AdtDef
	Pure   contract.PureFns
	// Fns are the candidates for synthesis.
	Fns []*contract.FnSig
	// Externs are functions the synthesizer may call.
	Externs []*contract.FnSig
	// TraitFns are trait methods bounding the crate's types.
	TraitFns []*contract.FnSig
}

// Goals returns the functions to synthesize: the ones marked for synthesis
// when there are any, every candidate otherwise.
func (b *Bundle) Goals() []*contract.FnSig {
	var marked []*contract.FnSig
	for _, fn := range b.Fns {
		if fn.Synth {
			marked = append(marked, fn)
		}
	}
	if len(marked) > 0 {
		return marked
	}
	return b.Fns
}

type rawBundle struct {
	Crate   string    `yaml:"crate"`
	Source  string    `yaml:"source"`
	Types   []rawAdt  `yaml:"types"`
	PureFns []rawPure `yaml:"pure_fns"`
	Fns     []rawFn   `yaml:"fns"`
}

type rawAdt struct {
	Index         uint32       `yaml:"index"`
	Name          string       `yaml:"name"`
	Path          string       `yaml:"path"`
	Kind          string       `yaml:"kind"`
	Box           bool         `yaml:"box"`
	Local         bool         `yaml:"local"`
	Private       bool         `yaml:"private"`
	NonExhaustive bool         `yaml:"non_exhaustive"`
	HasDtor       bool         `yaml:"has_dtor"`
	Copy          bool         `yaml:"copy"`
	Generics      []string     `yaml:"generics"`
	Lifetimes     []string     `yaml:"lifetimes"`
	Discr         string       `yaml:"discr"`
	Variants      []rawVariant `yaml:"variants"`
}

type rawVariant struct {
	Name          string     `yaml:"name"`
	Ctor          string     `yaml:"ctor"`
	NonExhaustive bool       `yaml:"non_exhaustive"`
	Fields        []rawField `yaml:"fields"`
}

type rawField struct {
	Name    string `yaml:"name"`
	Ty      string `yaml:"ty"`
	Private bool   `yaml:"private"`
}

type rawArg struct {
	Name string `yaml:"name"`
	Ty   string `yaml:"ty"`
}

type rawPure struct {
	Name       string    `yaml:"name"`
	Path       string    `yaml:"path"`
	Args       []rawArg  `yaml:"args"`
	Generics   []string  `yaml:"generics"`
	Executable bool      `yaml:"executable"`
	ASTNodes   int       `yaml:"ast_nodes"`
	Body       yaml.Node `yaml:"body"`
	Ensures    yaml.Node `yaml:"ensures"`
}

type rawFn struct {
	Name        string            `yaml:"name"`
	Path        string            `yaml:"path"`
	Synth       bool              `yaml:"synth"`
	Extern      bool              `yaml:"extern"`
	TraitMethod bool              `yaml:"trait_method"`
	Params      string            `yaml:"params"`
	Trait       string            `yaml:"trait"`
	TraitLocal  bool              `yaml:"trait_local"`
	Args        []rawArg          `yaml:"args"`
	Ret         string            `yaml:"ret"`
	Requires    yaml.Node         `yaml:"requires"`
	Ensures     yaml.Node         `yaml:"ensures"`
	Regions     map[string]string `yaml:"regions"`
	Outlives    [][]string        `yaml:"outlives"`
	Generics    []string          `yaml:"generics"`
	ASTNodes    int               `yaml:"ast_nodes"`
}

// Load reads a bundle file. A relative source path is resolved against the
// bundle's directory.
func Load(ctx context.Context, path string) (*Bundle, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	b, err := Decode(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if b.Source != "" && !filepath.IsAbs(b.Source) {
		b.Source = filepath.Join(filepath.Dir(path), b.Source)
		for _, fns := range [][]*contract.FnSig{b.Fns, b.Externs, b.TraitFns} {
			for _, fn := range fns {
				fn.Source = b.Source
			}
		}
	}
	return b, nil
}

// Decode parses a bundle.
func Decode(ctx context.Context, r io.Reader) (*Bundle, error) {
	var raw rawBundle
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBundle, err)
	}

	adts, parser, err := decodeAdts(ctx, raw.Types)
	if err != nil {
		return nil, err
	}
	d := &decoder{ctx: ctx, parser: parser}

	b := &Bundle{Crate: raw.Crate, Source: raw.Source, Adts: adts, Pure: make(contract.PureFns)}
	for i := range raw.PureFns {
		pf, err := d.pureFn(&raw.PureFns[i])
		if err != nil {
			return nil, fmt.Errorf("pure fn %s: %w", raw.PureFns[i].Path, err)
		}
		b.Pure[pf.Path] = pf
	}
	for i := range raw.Fns {
		rf := &raw.Fns[i]
		fn, err := d.fnSig(rf)
		if err != nil {
			return nil, fmt.Errorf("fn %s: %w", rf.Path, err)
		}
		fn.Source = raw.Source
		switch {
		case rf.TraitMethod:
			b.TraitFns = append(b.TraitFns, fn)
		case rf.Extern:
			b.Externs = append(b.Externs, fn)
		default:
			b.Fns = append(b.Fns, fn)
		}
	}
	return b, nil
}

// decodeAdts creates every definition before parsing any field type so
// that definitions may refer to each other and to themselves.
func decodeAdts(ctx context.Context, raws []rawAdt) ([]*ty.AdtDef, *ty.Parser, error) {
	defs := make([]*ty.AdtDef, len(raws))
	for i, r := range raws {
		if r.Name == "" || r.Path == "" {
			return nil, nil, fmt.Errorf("%w: type #%d needs a name and a path", ErrBundle, i)
		}
		def := &ty.AdtDef{
			Index:         r.Index,
			Name:          r.Name,
			Path:          r.Path,
			Box:           r.Box,
			Local:         r.Local,
			Private:       r.Private,
			NonExhaustive: r.NonExhaustive,
			HasDtor:       r.HasDtor,
			Copy:          r.Copy,
			Generics:      r.Generics,
			Lifetimes:     r.Lifetimes,
		}
		switch r.Kind {
		case "", "struct":
		case "enum":
			def.Enum = true
		default:
			return nil, nil, fmt.Errorf("%w: %s has unknown kind %q", ErrBundle, r.Path, r.Kind)
		}
		if r.Discr != "" {
			def.DiscrTy = ty.Prim(r.Discr)
		}
		defs[i] = def
	}

	parser := ty.NewParser(defs)
	for i, r := range raws {
		def := defs[i]
		parser.ResetRegions()
		parser.WithGenerics(def.Generics...)
		for _, l := range def.Lifetimes {
			parser.WithRegionKind(l, ty.EarlyBound)
		}
		for _, rv := range r.Variants {
			v := ty.Variant{Name: rv.Name, NonExhaustive: rv.NonExhaustive}
			switch rv.Ctor {
			case "", "braced":
				v.Ctor = ty.CtorFictive
			case "tuple":
				v.Ctor = ty.CtorFn
			case "unit":
				v.Ctor = ty.CtorConst
			default:
				return nil, nil, fmt.Errorf("%w: %s::%s has unknown constructor %q", ErrBundle, def.Path, rv.Name, rv.Ctor)
			}
			for _, rf := range rv.Fields {
				ft, err := parser.Parse(ctx, rf.Ty)
				if err != nil {
					return nil, nil, fmt.Errorf("%s::%s.%s: %w", def.Path, rv.Name, rf.Name, err)
				}
				v.Fields = append(v.Fields, ty.Field{Name: rf.Name, Ty: ft, Private: rf.Private})
			}
			def.Variants = append(def.Variants, v)
		}
	}
	return defs, parser, nil
}

var regionKinds = map[string]ty.RegionKind{
	"early":       ty.EarlyBound,
	"late":        ty.LateBound,
	"free":        ty.FreeNamed,
	"env":         ty.FreeEnv,
	"static":      ty.Static,
	"var":         ty.RegionVar,
	"placeholder": ty.RegionPlaceholder,
	"erased":      ty.Erased,
}

func (d *decoder) fnSig(r *rawFn) (*contract.FnSig, error) {
	d.parser.ResetRegions()
	d.parser.WithGenerics(r.Generics...)
	for name, kind := range r.Regions {
		k, ok := regionKinds[kind]
		if !ok {
			return nil, fmt.Errorf("%w: region %s has unknown kind %q", ErrBundle, name, kind)
		}
		d.parser.WithRegionKind(name, k)
	}

	fn := &contract.FnSig{
		Name:       r.Name,
		Path:       r.Path,
		Trait:      r.Trait,
		TraitLocal: r.TraitLocal,
		Generics:   r.Generics,
		Params:     r.Params,
		Synth:      r.Synth,
		Extern:     r.Extern,
		ASTNodes:   r.ASTNodes,
	}
	if fn.Name == "" || fn.Path == "" {
		return nil, fmt.Errorf("%w: functions need a name and a path", ErrBundle)
	}
	env := make(map[string]*ty.Ty, len(r.Args)+1)
	for _, a := range r.Args {
		t, err := d.parser.Parse(d.ctx, a.Ty)
		if err != nil {
			return nil, fmt.Errorf("argument %s: %w", a.Name, err)
		}
		fn.Args = append(fn.Args, contract.Arg{Name: a.Name, Ty: t})
		if a.Name != "" {
			env[a.Name] = t
		}
	}
	fn.Ret = ty.Unit()
	if r.Ret != "" {
		t, err := d.parser.Parse(d.ctx, r.Ret)
		if err != nil {
			return nil, fmt.Errorf("return type: %w", err)
		}
		fn.Ret = t
	}
	for _, o := range r.Outlives {
		if len(o) != 2 {
			return nil, fmt.Errorf("%w: outlives entries are [sub, sup] pairs, got %v", ErrBundle, o)
		}
		fn.Outlives = append(fn.Outlives, contract.Outlives{Sub: o[0], Sup: o[1]})
	}

	var err error
	if fn.Requires, err = d.optExpr(&r.Requires, env); err != nil {
		return nil, fmt.Errorf("requires: %w", err)
	}
	env[contract.ResultName] = fn.Ret
	if fn.Ensures, err = d.optExpr(&r.Ensures, env); err != nil {
		return nil, fmt.Errorf("ensures: %w", err)
	}
	return fn, nil
}

func (d *decoder) pureFn(r *rawPure) (*contract.PureFn, error) {
	d.parser.ResetRegions()
	d.parser.WithGenerics(r.Generics...)

	pf := &contract.PureFn{
		Name:       r.Name,
		Path:       r.Path,
		Executable: r.Executable,
		ASTNodes:   r.ASTNodes,
	}
	env := make(map[string]*ty.Ty, len(r.Args))
	for _, a := range r.Args {
		t, err := d.parser.Parse(d.ctx, a.Ty)
		if err != nil {
			return nil, fmt.Errorf("argument %s: %w", a.Name, err)
		}
		pf.ArgNames = append(pf.ArgNames, a.Name)
		env[a.Name] = t
	}
	if r.Body.Kind == 0 {
		return nil, fmt.Errorf("%w: missing body", ErrBundle)
	}
	var err error
	if pf.Body, err = d.expr(&r.Body, env); err != nil {
		return nil, fmt.Errorf("body: %w", err)
	}
	if r.Ensures.Kind != 0 {
		env[contract.ResultName] = pf.Body.Type()
		if pf.Ensures, err = d.expr(&r.Ensures, env); err != nil {
			return nil, fmt.Errorf("ensures: %w", err)
		}
	}
	return pf, nil
}

func (d *decoder) optExpr(n *yaml.Node, env map[string]*ty.Ty) (contract.Expr, error) {
	if n.Kind == 0 {
		return contract.BoolLit(true), nil
	}
	return d.expr(n, env)
}
