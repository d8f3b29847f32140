package ty

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func accountDef() *AdtDef {
	return &AdtDef{
		Index: 7,
		Name:  "Account",
		Path:  "Account",
		Local: true,
		Variants: []Variant{{
			Name:   "Account",
			Fields: []Field{{Name: "bal", Ty: Prim("u16")}},
		}},
	}
}

func TestParsePrimitivesAndCompounds(t *testing.T) {
	t.Parallel()
	p := NewParser([]*AdtDef{accountDef()}).WithGenerics("T")
	ctx := context.Background()

	tests := []struct {
		input string
		kind  Kind
		want  string
	}{
		{"i32", Int, "i32"},
		{"bool", Bool, "bool"},
		{"char", Char, "char"},
		{"f64", Float, "f64"},
		{"()", Tuple, "()"},
		{"(u8, bool)", Tuple, "(u8, bool)"},
		{"&'a mut Account", Ref, "&'a mut Account"},
		{"&Account", Ref, "&Account"},
		{"Box<Account>", Adt, "std::boxed::Box<Account>"},
		{"T", Param, "T"},
		{"[u8]", Slice, "[u8]"},
		{"[u8; 4]", Array, "[u8; 4]"},
		{"*const u8", RawPtr, "*const u8"},
		{"dyn Fn(u8)", Dynamic, "dyn Fn(u8)"},
		{"!", Never, "!"},
		{"{closure@src/lib.rs:3:5}", Closure, "{closure@src/lib.rs:3:5}"},
	}

	for _, tt := range tests {
		got, err := p.Parse(ctx, tt.input)
		require.NoError(t, err, tt.input)
		assert.Equal(t, tt.kind, got.Kind, tt.input)
		assert.Equal(t, tt.want, got.String(), tt.input)
	}
}

func TestParseRegions(t *testing.T) {
	t.Parallel()
	p := NewParser(nil).WithRegionKind("'b", LateBound)
	ctx := context.Background()

	r, err := p.Parse(ctx, "&'static u8")
	require.NoError(t, err)
	assert.Equal(t, Static, r.Region.Kind)

	r, err = p.Parse(ctx, "&'b mut u8")
	require.NoError(t, err)
	assert.Equal(t, LateBound, r.Region.Kind)
	assert.True(t, r.Mut)

	r, err = p.Parse(ctx, "&u8")
	require.NoError(t, err)
	assert.Equal(t, FreeAnon, r.Region.Kind)
	assert.Equal(t, "'anon0", r.Region.String())
}

func TestParseErrors(t *testing.T) {
	t.Parallel()
	p := NewParser(nil)
	ctx := context.Background()

	_, err := p.Parse(ctx, "Unknown")
	assert.ErrorIs(t, err, ErrParse)

	_, err = p.Parse(ctx, "Box<u8, u8>")
	assert.ErrorIs(t, err, ErrParse)
}

func TestFieldTySubstitutes(t *testing.T) {
	t.Parallel()
	list := &AdtDef{
		Index:    3,
		Name:     "Wrap",
		Path:     "Wrap",
		Generics: []string{"T"},
		Variants: []Variant{{Name: "Wrap", Fields: []Field{{Name: "v", Ty: ParamTy("T")}}}},
	}
	use := AdtOf(list, nil, Prim("u8"))
	got, err := list.FieldTy(use, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, "u8", got.String())

	_, err = list.FieldTy(use, 1, 0)
	assert.Error(t, err)
}

func TestRegionsDeepAndCopy(t *testing.T) {
	t.Parallel()
	a := Region{Kind: FreeNamed, Name: "'a"}
	b := Region{Kind: FreeNamed, Name: "'b"}
	inner := RefTo(b, false, Prim("u8"))
	outer := RefTo(a, true, TupleOf(inner, Prim("bool")))

	regions := outer.RegionsDeep()
	require.Len(t, regions, 2)
	assert.Equal(t, "'a", regions[0].Name)
	assert.Equal(t, "'b", regions[1].Name)

	assert.False(t, outer.IsCopy())
	assert.True(t, inner.IsCopy())
	assert.Equal(t, "(&'b u8, bool)", outer.PeelRefs().String())
}
