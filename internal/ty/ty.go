// Package ty models the host language's types as the frontend reports them:
// already resolved, borrow checked and with region identities attached.
package ty

import (
	"strconv"
	"strings"
)

// Kind is the kind of a host type.
type Kind int

const (
	Bool Kind = iota
	Int
	Uint
	Char
	Float
	Str
	Tuple
	Ref
	Adt
	Param
	Array
	Slice
	RawPtr
	Foreign
	FnDef
	FnPtr
	Closure
	Generator
	Dynamic
	Never
	Projection
	Opaque
	Bound
	Placeholder
	Infer
	Error
)

func (k Kind) String() string {
	switch k {
	case Bool:
		return "bool"
	case Int:
		return "int"
	case Uint:
		return "uint"
	case Char:
		return "char"
	case Float:
		return "float"
	case Str:
		return "str"
	case Tuple:
		return "tuple"
	case Ref:
		return "ref"
	case Adt:
		return "adt"
	case Param:
		return "param"
	case Array:
		return "array"
	case Slice:
		return "slice"
	case RawPtr:
		return "rawptr"
	case Foreign:
		return "foreign"
	case FnDef:
		return "fndef"
	case FnPtr:
		return "fnptr"
	case Closure:
		return "closure"
	case Generator:
		return "generator"
	case Dynamic:
		return "dyn"
	case Never:
		return "never"
	case Projection:
		return "projection"
	case Opaque:
		return "opaque"
	case Bound:
		return "bound"
	case Placeholder:
		return "placeholder"
	case Infer:
		return "infer"
	case Error:
		return "error"
	default:
		return "?"
	}
}

// RegionKind mirrors the host compiler's region representation.
type RegionKind int

const (
	EarlyBound RegionKind = iota
	LateBound
	FreeAnon
	FreeNamed
	FreeEnv
	Static
	RegionVar
	RegionPlaceholder
	Erased
)

// Region is a lifetime. Name includes the leading quote ("'a"); Index is
// only meaningful for anonymous free regions.
type Region struct {
	Kind  RegionKind
	Name  string
	Index int
}

func (r Region) String() string {
	switch r.Kind {
	case Static:
		return "'static"
	case FreeAnon:
		return "'anon" + strconv.Itoa(r.Index)
	case Erased:
		return "'_"
	default:
		return r.Name
	}
}

// Ty is a host type. Elems holds tuple components, the pointee of references,
// raw pointers, arrays and slices, or the type arguments of an ADT.
type Ty struct {
	Kind    Kind
	Name    string
	Elems   []*Ty
	Region  Region
	Regions []Region
	Mut     bool
	Adt     *AdtDef
}

func Prim(name string) *Ty {
	switch {
	case name == "bool":
		return &Ty{Kind: Bool, Name: name}
	case name == "char":
		return &Ty{Kind: Char, Name: name}
	case name == "str":
		return &Ty{Kind: Str, Name: name}
	case strings.HasPrefix(name, "i"):
		return &Ty{Kind: Int, Name: name}
	case strings.HasPrefix(name, "u"):
		return &Ty{Kind: Uint, Name: name}
	case strings.HasPrefix(name, "f"):
		return &Ty{Kind: Float, Name: name}
	}
	return &Ty{Kind: Error, Name: name}
}

func Unit() *Ty { return &Ty{Kind: Tuple} }

func TupleOf(elems ...*Ty) *Ty { return &Ty{Kind: Tuple, Elems: elems} }

func RefTo(r Region, mut bool, inner *Ty) *Ty {
	return &Ty{Kind: Ref, Region: r, Mut: mut, Elems: []*Ty{inner}}
}

func ParamTy(name string) *Ty { return &Ty{Kind: Param, Name: name} }

func AdtOf(def *AdtDef, regions []Region, args ...*Ty) *Ty {
	return &Ty{Kind: Adt, Adt: def, Regions: regions, Elems: args}
}

// Inner returns the pointee of a reference.
func (t *Ty) Inner() *Ty {
	if len(t.Elems) == 0 {
		return nil
	}
	return t.Elems[0]
}

func (t *Ty) IsRef() bool { return t.Kind == Ref }

func (t *Ty) IsUnit() bool { return t.Kind == Tuple && len(t.Elems) == 0 }

func (t *Ty) IsBox() bool { return t.Kind == Adt && t.Adt.Box }

// IsPrimitive reports the host's notion of a primitive scalar.
func (t *Ty) IsPrimitive() bool {
	switch t.Kind {
	case Bool, Int, Uint, Char, Float:
		return true
	}
	return false
}

// IsSet reports whether t is the contract library's set type.
func (t *Ty) IsSet() bool {
	return t.Kind == Adt && strings.HasPrefix(t.String(), "russol_contracts::Set")
}

// IsScalar reports whether values of t are captured by a single logical
// variable: primitives and sets.
func (t *Ty) IsScalar() bool { return t.IsPrimitive() || t.IsSet() }

// PeelRefs strips every leading reference layer.
func (t *Ty) PeelRefs() *Ty {
	for t.Kind == Ref {
		t = t.Elems[0]
	}
	return t
}

// IsCopy approximates the host's Copy check for the types the translator
// can represent.
func (t *Ty) IsCopy() bool {
	switch t.Kind {
	case Bool, Int, Uint, Char, Float, Never, FnDef, FnPtr, RawPtr:
		return true
	case Ref:
		return !t.Mut
	case Tuple, Array:
		for _, e := range t.Elems {
			if !e.IsCopy() {
				return false
			}
		}
		return true
	case Adt:
		if !t.Adt.Copy {
			return false
		}
		for _, e := range t.Elems {
			if !e.IsCopy() {
				return false
			}
		}
		return true
	}
	return false
}

// Walk calls fn on t and every type nested in it, parents first.
func (t *Ty) Walk(fn func(*Ty)) {
	fn(t)
	for _, e := range t.Elems {
		e.Walk(fn)
	}
}

// RegionsDeep returns every region mentioned in t in left-to-right order,
// including those nested in type arguments.
func (t *Ty) RegionsDeep() []Region {
	var out []Region
	var walk func(*Ty)
	walk = func(t *Ty) {
		switch t.Kind {
		case Ref:
			out = append(out, t.Region)
		case Adt:
			out = append(out, t.Regions...)
		}
		for _, e := range t.Elems {
			walk(e)
		}
	}
	walk(t)
	return out
}

// Params returns the names of the generic parameters occurring in t.
func (t *Ty) Params() []string {
	var out []string
	seen := make(map[string]bool)
	t.Walk(func(t *Ty) {
		if t.Kind == Param && !seen[t.Name] {
			seen[t.Name] = true
			out = append(out, t.Name)
		}
	})
	return out
}

// Subst replaces generic parameters by name and, when regions is non-nil,
// early-bound region names.
func (t *Ty) Subst(types map[string]*Ty, regions map[string]Region) *Ty {
	if t == nil {
		return nil
	}
	if t.Kind == Param {
		if r, ok := types[t.Name]; ok {
			return r
		}
		return t
	}
	if len(t.Elems) == 0 && len(t.Regions) == 0 && t.Kind != Ref {
		return t
	}
	out := *t
	if len(t.Elems) > 0 {
		out.Elems = make([]*Ty, len(t.Elems))
		for i, e := range t.Elems {
			out.Elems[i] = e.Subst(types, regions)
		}
	}
	if regions != nil {
		if t.Kind == Ref {
			out.Region = substRegion(t.Region, regions)
		}
		if len(t.Regions) > 0 {
			out.Regions = make([]Region, len(t.Regions))
			for i, r := range t.Regions {
				out.Regions[i] = substRegion(r, regions)
			}
		}
	}
	return &out
}

func substRegion(r Region, regions map[string]Region) Region {
	if nr, ok := regions[r.Name]; ok && r.Name != "" {
		return nr
	}
	return r
}

// Equal is structural equality.
func Equal(a, b *Ty) bool {
	return a.String() == b.String()
}

// String prints t the way the host compiler displays it.
func (t *Ty) String() string {
	var b strings.Builder
	t.write(&b)
	return b.String()
}

func (t *Ty) write(b *strings.Builder) {
	switch t.Kind {
	case Tuple:
		b.WriteString("(")
		for i, e := range t.Elems {
			if i > 0 {
				b.WriteString(", ")
			}
			e.write(b)
		}
		if len(t.Elems) == 1 {
			b.WriteString(",")
		}
		b.WriteString(")")
	case Ref:
		b.WriteString("&")
		if r := t.Region.String(); t.Region.Kind != FreeAnon && t.Region.Kind != Erased && r != "" {
			b.WriteString(r)
			b.WriteString(" ")
		}
		if t.Mut {
			b.WriteString("mut ")
		}
		t.Elems[0].write(b)
	case RawPtr:
		if t.Mut {
			b.WriteString("*mut ")
		} else {
			b.WriteString("*const ")
		}
		t.Elems[0].write(b)
	case Array:
		b.WriteString("[")
		t.Elems[0].write(b)
		b.WriteString("; ")
		b.WriteString(t.Name)
		b.WriteString("]")
	case Slice:
		b.WriteString("[")
		t.Elems[0].write(b)
		b.WriteString("]")
	case Adt:
		b.WriteString(t.Adt.Path)
		n := 0
		for _, r := range t.Regions {
			if n == 0 {
				b.WriteString("<")
			} else {
				b.WriteString(", ")
			}
			b.WriteString(r.String())
			n++
		}
		for _, e := range t.Elems {
			if n == 0 {
				b.WriteString("<")
			} else {
				b.WriteString(", ")
			}
			e.write(b)
			n++
		}
		if n > 0 {
			b.WriteString(">")
		}
	case Never:
		b.WriteString("!")
	default:
		b.WriteString(t.Name)
	}
}
