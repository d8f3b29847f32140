package ssl

import (
	"sort"
	"strings"
)

// ParamKind is the sort of a predicate parameter.
type ParamKind int

const (
	KindInt ParamKind = iota
	KindBool
	KindLft
	KindSet
	// KindSnap is the structural snapshot of a value, carried as an int.
	KindSnap
)

func (k ParamKind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	case KindLft:
		return "lft"
	case KindSet:
		return "set"
	case KindSnap:
		return "snap"
	default:
		return "?"
	}
}

// SnapName is the default parameter every non-primitive predicate has.
const SnapName = "snap"

// Param is a predicate parameter. Lifetime names keep their leading quote.
type Param struct {
	Kind ParamKind
	Name string
}

// DefaultParam is the structural snapshot parameter.
func DefaultParam() Param { return Param{Kind: KindSnap, Name: SnapName} }

func (p Param) String() string {
	switch p.Kind {
	case KindInt, KindSnap:
		return "int " + p.Name
	case KindBool:
		return "bool " + p.Name
	case KindLft:
		return "lft &" + trimQuote(p.Name)
	case KindSet:
		return "set " + p.Name
	}
	return "? " + p.Name
}

// Params is an ordered parameter list.
type Params []Param

func (ps Params) Contains(p Param) bool {
	for _, q := range ps {
		if q == p {
			return true
		}
	}
	return false
}

// Add appends p unless it is already present.
func (ps *Params) Add(p Param) {
	if !ps.Contains(p) {
		*ps = append(*ps, p)
	}
}

func (ps Params) ByName(name string) (Param, bool) {
	for _, q := range ps {
		if q.Name == name {
			return q, true
		}
	}
	return Param{}, false
}

// Arg supplies a value for Target at one predicate application.
type Arg struct {
	Name   string
	Target Param
}

func (a Arg) String() string {
	if a.Target.Kind == KindLft {
		return "&" + trimQuote(a.Name)
	}
	return a.Name
}

// BorrowInfo is one peeled reference layer.
type BorrowInfo struct {
	Lft string
	Mut bool
}

// STy is a translated type: borrow prefix, predicate and arguments.
type STy struct {
	Borrows []BorrowInfo
	Pred    string
	Args    []Arg
}

// MutBorrows counts the mutable layers of the borrow prefix.
func (t STy) MutBorrows() int {
	n := 0
	for _, b := range t.Borrows {
		if b.Mut {
			n++
		}
	}
	return n
}

// SApp is a heap chunk: a predicate applied at a named location.
type SApp struct {
	Private bool
	Field   string
	Ty      STy
}

// Arg returns the argument this chunk passes for p, inventing one named
// `<param>_<field>` when the chunk has none yet. The returned parameter
// carries p's kind and the argument's name.
func (s *SApp) Arg(p Param) Param {
	for _, a := range s.Ty.Args {
		if a.Target.Name == p.Name {
			return Param{Kind: p.Kind, Name: a.Name}
		}
	}
	name := p.Name + "_" + s.Field
	s.Ty.Args = append(s.Ty.Args, Arg{Name: name, Target: p})
	return Param{Kind: p.Kind, Name: name}
}

// Normalize rebuilds the argument list to follow params exactly.
func (s *SApp) Normalize(params Params) {
	args := make([]Arg, 0, len(params))
	for _, p := range params {
		found := false
		for _, a := range s.Ty.Args {
			if a.Target == p {
				args = append(args, a)
				found = true
				break
			}
		}
		if !found {
			args = append(args, Arg{Name: p.Name + "_" + s.Field, Target: p})
		}
	}
	s.Ty.Args = args
}

func (s *SApp) String() string {
	var b strings.Builder
	if s.Private {
		b.WriteString("priv ")
	}
	b.WriteString(s.Field)
	b.WriteString(": ")
	for _, br := range s.Ty.Borrows {
		b.WriteString("&" + trimQuote(br.Lft) + " ")
		if br.Mut {
			b.WriteString("mut ")
		}
	}
	b.WriteString(s.Ty.Pred)
	b.WriteString("(")
	for i, a := range s.Ty.Args {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(a.String())
	}
	b.WriteString(")")
	return b.String()
}

// Phi is a conjunction of pure facts.
type Phi []Expr

func (p Phi) String() string {
	if len(p) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString(p[0].String())
	for _, e := range p[1:] {
		b.WriteString(" &&\n  ")
		b.WriteString(e.String())
	}
	b.WriteString(" ;\n  ")
	return b.String()
}

// WithoutTrue drops literal `true` conjuncts, keeping order.
func (p Phi) WithoutTrue() Phi {
	out := p[:0:0]
	for _, e := range p {
		if !IsTrue(e) {
			out = append(out, e)
		}
	}
	return out
}

// Sigma is a separating conjunction of heap chunks.
type Sigma []*SApp

func (s Sigma) String() string {
	if len(s) == 0 {
		return "emp"
	}
	var b strings.Builder
	b.WriteString(s[0].String())
	for _, app := range s[1:] {
		b.WriteString(" **\n   ")
		b.WriteString(app.String())
	}
	return b.String()
}

// Find returns the chunk at field, or nil.
func (s Sigma) Find(field string) *SApp {
	for _, app := range s {
		if app.Field == field {
			return app
		}
	}
	return nil
}

type Assertion struct {
	Phi   Phi
	Sigma Sigma
}

// AddSeq records the structural snapshot of the assertion's owner:
// `snap == (dval, snap([], f1), ...)`.
func (a *Assertion) AddSeq(dval Expr) {
	elems := make([]Expr, 0, len(a.Sigma)+1)
	elems = append(elems, dval)
	for _, app := range a.Sigma {
		elems = append(elems, Snap{Field: app.Field})
	}
	a.Phi = append(a.Phi, Eq(Var{Name: SnapName}, Tuple{Elems: elems}))
}

// Clause is one disjunct of a predicate.
type Clause struct {
	Name     string
	HasName  bool
	PrimArg  string
	Selector Expr
	// Equalities are rendered as `key == value`.
	Equalities map[string]Expr
	Assn       Assertion
}

// NewClause returns a clause with selector and an empty body.
func NewClause(selector Expr) *Clause {
	return &Clause{Selector: selector, Equalities: make(map[string]Expr)}
}

func (c *Clause) WithName(name string) *Clause {
	c.Name = name
	c.HasName = true
	return c
}

func (c *Clause) String() string {
	keys := make([]string, 0, len(c.Equalities))
	for k := range c.Equalities {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pure := make(Phi, 0, len(keys)+len(c.Assn.Phi)+1)
	for _, k := range keys {
		pure = append(pure, Eq(Var{Name: k}, c.Equalities[k]))
	}
	pure = append(pure, c.Assn.Phi...)
	if c.PrimArg != "" {
		pure = append(pure, Var{Name: "#[" + c.PrimArg + "]"})
	}
	var b strings.Builder
	b.WriteString("| " + c.Selector.String() + " => ")
	if c.HasName {
		b.WriteString("\"" + c.Name + "\" ")
	}
	b.WriteString("{\n  " + pure.String() + " " + c.Assn.Sigma.String() + "\n }")
	return b.String()
}

// Predicate is the heap description of one type.
type Predicate struct {
	Prim      bool
	Copy      bool
	Drop      bool
	Private   bool
	Ident     string
	CleanName string
	Params    Params
	Clauses   []*Clause
}

func (p *Predicate) String() string {
	var b strings.Builder
	if p.Private {
		b.WriteString("priv ")
	}
	b.WriteString("predicate ")
	if p.Prim && len(p.Clauses) > 0 {
		b.WriteString("PRIM_")
	}
	b.WriteString(p.Ident)
	if p.Copy {
		b.WriteString("_COPY")
	} else if p.Drop {
		b.WriteString("_DROP")
	}
	b.WriteString("(")
	for i, param := range p.Params {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(param.String())
	}
	b.WriteString(") \"" + p.CleanName + "\" {\n")
	for _, c := range p.Clauses {
		b.WriteString(c.String())
		b.WriteString("\n")
	}
	b.WriteString("}\n")
	return b.String()
}

// PredMap indexes predicates by identifier.
type PredMap map[string]*Predicate

// Names returns the predicate identifiers in sorted order.
func (m PredMap) Names() []string {
	names := make([]string, 0, len(m))
	for n := range m {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func trimQuote(lft string) string {
	return strings.TrimPrefix(lft, "'")
}
