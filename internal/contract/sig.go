package contract

import (
	"github.com/gnolang/ruslic/internal/ty"
)

type Arg struct {
	Name string
	Ty   *ty.Ty
}

// Outlives states that region Sub does not outlive region Sup (`sub <= sup`).
type Outlives struct {
	Sub string
	Sup string
}

// FnSig is a fully elaborated function signature with its contract.
type FnSig struct {
	Name       string
	Path       string
	Trait      string
	TraitLocal bool
	Args       []Arg
	Ret        *ty.Ty
	Requires   Expr
	Ensures    Expr
	Outlives   []Outlives
	Generics   []string
	Params     string
	Synth      bool
	Extern     bool
	ASTNodes   int
	Source     string
}

// IsTrivial reports a function with no postcondition and a scalar or unit
// result: any implementation satisfies it.
func (s *FnSig) IsTrivial() bool {
	returnTrivial := s.Ret.IsUnit() || s.Ret.IsPrimitive()
	return (s.Ensures == nil || IsTrue(s.Ensures)) && returnTrivial
}

// FreeRegions lists the regions mentioned by the outlives facts, then those
// only mentioned by the argument and return types, in order of first
// appearance. Erased and late-bound regions are left out.
func (s *FnSig) FreeRegions() []string {
	var out []string
	seen := make(map[string]bool)
	add := func(r string) {
		if !seen[r] {
			seen[r] = true
			out = append(out, r)
		}
	}
	for _, o := range s.Outlives {
		add(o.Sub)
		add(o.Sup)
	}
	tys := make([]*ty.Ty, 0, len(s.Args)+1)
	for _, a := range s.Args {
		tys = append(tys, a.Ty)
	}
	tys = append(tys, s.Ret)
	for _, t := range tys {
		if t == nil {
			continue
		}
		for _, r := range t.RegionsDeep() {
			if r.Kind == ty.Erased || r.Kind == ty.LateBound {
				continue
			}
			add(r.String())
		}
	}
	return out
}

// SubRegion answers `a <= b` over the reflexive transitive closure of the
// declared outlives facts, with 'static outliving everything.
func (s *FnSig) SubRegion(a, b string) bool {
	if a == b || b == "'static" {
		return true
	}
	seen := map[string]bool{a: true}
	queue := []string{a}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, o := range s.Outlives {
			if o.Sub != cur || seen[o.Sup] {
				continue
			}
			if o.Sup == b {
				return true
			}
			seen[o.Sup] = true
			queue = append(queue, o.Sup)
		}
	}
	return false
}

// Subst instantiates the signature's generic parameters.
func (s *FnSig) Subst(types map[string]*ty.Ty) *FnSig {
	out := *s
	out.Args = make([]Arg, len(s.Args))
	for i, a := range s.Args {
		out.Args[i] = Arg{Name: a.Name, Ty: a.Ty.Subst(types, nil)}
	}
	out.Ret = s.Ret.Subst(types, nil)
	out.Requires = Subst(s.Requires, types)
	out.Ensures = Subst(s.Ensures, types)
	out.Generics = nil
	return &out
}

// PureFn is a side-effect free function usable inside contracts.
type PureFn struct {
	Name       string
	Path       string
	ArgNames   []string
	Body       Expr
	Ensures    Expr
	Executable bool
	ASTNodes   int
}

// PureFns indexes pure functions by path.
type PureFns map[string]*PureFn

// Instantiate returns the body and trusted postcondition with the call
// site's generic arguments substituted.
func (p *PureFn) Instantiate(types map[string]*ty.Ty) (body, ensures Expr) {
	if len(types) == 0 {
		return p.Body, p.Ensures
	}
	return Subst(p.Body, types), Subst(p.Ensures, types)
}
