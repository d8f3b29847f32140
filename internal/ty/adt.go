package ty

import (
	"fmt"
	"strings"
)

// CtorKind is the constructor form of a variant.
type CtorKind int

const (
	// CtorFictive is a braced variant: `S { .. }`.
	CtorFictive CtorKind = iota
	// CtorFn is a tuple-like variant: `S(..)`.
	CtorFn
	// CtorConst is a unit variant: `S`.
	CtorConst
)

type Field struct {
	Name    string
	Ty      *Ty
	Private bool
}

type Variant struct {
	Name          string
	Ctor          CtorKind
	NonExhaustive bool
	Fields        []Field
}

// AdtDef is a struct or enum definition. Field types may mention the
// definition's own generic parameters and lifetimes by name.
type AdtDef struct {
	Index         uint32
	Name          string
	Path          string
	Enum          bool
	Box           bool
	Local         bool
	Private       bool
	NonExhaustive bool
	HasDtor       bool
	Copy          bool
	Generics      []string
	Lifetimes     []string
	DiscrTy       *Ty
	Variants      []Variant
}

// IsNonExhaustive reports whether the type or any of its variants is
// marked non-exhaustive.
func (d *AdtDef) IsNonExhaustive() bool {
	if d.NonExhaustive {
		return true
	}
	for _, v := range d.Variants {
		if v.NonExhaustive {
			return true
		}
	}
	return false
}

// Discriminant returns the type of the enum discriminant.
func (d *AdtDef) Discriminant() *Ty {
	if d.DiscrTy != nil {
		return d.DiscrTy
	}
	return Prim("isize")
}

// FieldTy instantiates the type of field f of variant v for the given use
// of the definition.
func (d *AdtDef) FieldTy(use *Ty, v, f int) (*Ty, error) {
	if v < 0 || v >= len(d.Variants) {
		return nil, fmt.Errorf("%s has no variant %d", d.Path, v)
	}
	fields := d.Variants[v].Fields
	if f < 0 || f >= len(fields) {
		return nil, fmt.Errorf("%s::%s has no field %d", d.Path, d.Variants[v].Name, f)
	}
	types := make(map[string]*Ty, len(d.Generics))
	for i, g := range d.Generics {
		if i < len(use.Elems) {
			types[g] = use.Elems[i]
		}
	}
	regions := make(map[string]Region, len(d.Lifetimes))
	for i, l := range d.Lifetimes {
		if i < len(use.Regions) {
			regions[l] = use.Regions[i]
		}
	}
	return fields[f].Ty.Subst(types, regions), nil
}

// FieldIndex looks a field up by name.
func (d *AdtDef) FieldIndex(v int, name string) int {
	if v < 0 || v >= len(d.Variants) {
		return -1
	}
	for i, f := range d.Variants[v].Fields {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// ShortPath is the definition path without generic arguments.
func (d *AdtDef) ShortPath() string {
	p, _, _ := strings.Cut(d.Path, "<")
	return p
}

// BoxDef is the definition used for `Box<T>` when a bundle does not declare
// its own.
func BoxDef() *AdtDef {
	return &AdtDef{
		Index:    1,
		Name:     "Box",
		Path:     "std::boxed::Box",
		Box:      true,
		HasDtor:  true,
		Generics: []string{"T"},
		Variants: []Variant{{Name: "Box", Ctor: CtorFn, Fields: []Field{{Name: "0", Ty: ParamTy("T")}}}},
	}
}

// SetDef is the contract library's set type.
func SetDef() *AdtDef {
	return &AdtDef{
		Index:    2,
		Name:     "Set",
		Path:     "russol_contracts::Set",
		Copy:     true,
		Generics: []string{"T"},
		Variants: []Variant{{Name: "Set", Ctor: CtorConst}},
	}
}
