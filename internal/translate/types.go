package translate

import (
	"strconv"
	"strings"

	"github.com/gnolang/ruslic/internal/ssl"
	"github.com/gnolang/ruslic/internal/ty"
	"github.com/gnolang/ruslic/internal/types"
)

// Options tune how types are named and which are accepted.
type Options struct {
	// UseFullNames names clauses by their full path instead of the item name.
	UseFullNames bool `yaml:"use_full_names"`
	// AllowPrivateTypes translates types that are not visible from the
	// synthesized function instead of rejecting them.
	AllowPrivateTypes bool `yaml:"allow_private_types"`
}

// Largest magnitudes the synthesizer's integer domain handles per type.
var (
	signedBounds = map[string]uint64{
		"i8":    127,
		"i16":   32767,
		"i32":   2147483645,
		"i64":   2147483646,
		"isize": 2147483646,
		"i128":  2147483647,
	}
	unsignedBounds = map[string]uint64{
		"u8":    255,
		"u16":   65535,
		"u32":   65536,
		"u64":   65537,
		"usize": 65537,
		"u128":  65538,
	}
)

// Types whose only public paths are unreachable from user code.
var denyListed = []string{
	"char_data::tables::BidiClass",
	"error::conversion_range::ConversionRange",
	"proto::peer::Dyn",
	"codec::error::UserError",
}

// typeTranslator turns host types into predicates, memoized in preds.
type typeTranslator struct {
	opts  Options
	preds ssl.PredMap

	// reachable records every type met, references included, in order.
	reachable []*ty.Ty
	seen      map[string]bool
}

func newTypeTranslator(opts Options, preds ssl.PredMap) *typeTranslator {
	return &typeTranslator{opts: opts, preds: preds, seen: make(map[string]bool)}
}

// sapp translates t and places it at chunk `f<field>`.
func (tt *typeTranslator) sapp(private bool, field string, t *ty.Ty) (*ssl.SApp, error) {
	sty, err := tt.translate(t)
	if err != nil {
		return nil, err
	}
	return &ssl.SApp{Private: private, Field: "f" + field, Ty: sty}, nil
}

func (tt *typeTranslator) record(t *ty.Ty) {
	key := t.String()
	if !tt.seen[key] {
		tt.seen[key] = true
		tt.reachable = append(tt.reachable, t)
	}
}

// peel strips the reference layers of t into borrow infos.
func (tt *typeTranslator) peel(t *ty.Ty) ([]ssl.BorrowInfo, *ty.Ty, error) {
	tt.record(t)
	var borrows []ssl.BorrowInfo
	for t.Kind == ty.Ref {
		lft, err := regionName(t.Region)
		if err != nil {
			return nil, nil, err
		}
		borrows = append(borrows, ssl.BorrowInfo{Lft: lft, Mut: t.Mut})
		t = t.Inner()
		tt.record(t)
	}
	return borrows, t, nil
}

func (tt *typeTranslator) translate(t *ty.Ty) (ssl.STy, error) {
	borrows, inner, err := tt.peel(t)
	if err != nil {
		return ssl.STy{}, err
	}
	name := PredName(inner)
	out := ssl.STy{Borrows: borrows, Pred: name}

	switch {
	case inner.Kind == ty.Bool, inner.Kind == ty.Int, inner.Kind == ty.Uint, inner.IsSet():
		if _, ok := tt.preds[name]; !ok {
			tt.preds[name] = primitivePredicate(name, inner)
		}
		return out, nil
	case inner.IsUnit():
		if _, ok := tt.preds[name]; !ok {
			tt.preds[name] = &ssl.Predicate{
				Prim:      true,
				Copy:      true,
				Ident:     name,
				CleanName: inner.String(),
				Clauses:   []*ssl.Clause{ssl.NewClause(ssl.True)},
			}
		}
		return out, nil
	case inner.Kind == ty.Adt:
		args, err := tt.translateAdt(name, inner)
		out.Args = args
		return out, err
	case inner.Kind == ty.Tuple:
		args, err := tt.translateTuple(name, inner)
		out.Args = args
		return out, err
	case inner.Kind == ty.Param:
		if _, ok := tt.preds[name]; !ok {
			tt.preds[name] = &ssl.Predicate{
				Prim:      true,
				Copy:      inner.IsCopy(),
				Ident:     name,
				CleanName: inner.String(),
				Params:    ssl.Params{ssl.DefaultParam()},
			}
		}
		return out, nil
	}
	return ssl.STy{}, unsupported(unsupportedReason(inner.Kind))
}

func unsupportedReason(k ty.Kind) types.Reason {
	switch k {
	case ty.Char, ty.Float:
		return types.CharFloat
	case ty.Str, ty.Array, ty.Slice:
		return types.ArraySlice
	case ty.Foreign, ty.RawPtr:
		return types.Unsafe
	case ty.FnDef, ty.FnPtr, ty.Closure, ty.Generator:
		return types.Closure
	default:
		return types.OtherTy
	}
}

// primitivePredicate has a single clause carrying the value's range.
func primitivePredicate(name string, t *ty.Ty) *ssl.Predicate {
	kind := ssl.KindInt
	switch {
	case t.Kind == ty.Bool:
		kind = ssl.KindBool
	case t.IsSet():
		kind = ssl.KindSet
	}
	clause := ssl.NewClause(ssl.True)
	clause.PrimArg = ssl.SnapName
	clause.Assn.Phi = rangeFacts(ssl.SnapName, t)
	return &ssl.Predicate{
		Prim:      true,
		Copy:      t.IsCopy(),
		Ident:     name,
		CleanName: t.String(),
		Params:    ssl.Params{{Kind: kind, Name: ssl.SnapName}},
		Clauses:   []*ssl.Clause{clause},
	}
}

func rangeFacts(v string, t *ty.Ty) ssl.Phi {
	value := ssl.Var{Name: v}
	switch t.Kind {
	case ty.Int:
		n := signedBounds[t.Name]
		return ssl.Phi{
			ssl.Binary{Op: ssl.OpGe, Left: value, Right: ssl.Unary{Op: ssl.OpNeg, Operand: ssl.Int{Val: n}}},
			ssl.Binary{Op: ssl.OpLe, Left: value, Right: ssl.Int{Val: n}},
		}
	case ty.Uint:
		return ssl.Phi{
			ssl.Binary{Op: ssl.OpGe, Left: value, Right: ssl.Int{Val: 0}},
			ssl.Binary{Op: ssl.OpLe, Left: value, Right: ssl.Int{Val: unsignedBounds[t.Name]}},
		}
	}
	return nil
}

// lifetimeParams lists one Lft parameter per region mentioned in t.
func lifetimeParams(t *ty.Ty) (ssl.Params, error) {
	var params ssl.Params
	for _, r := range t.RegionsDeep() {
		name, err := regionName(r)
		if err != nil {
			return nil, err
		}
		params = append(params, ssl.Param{Kind: ssl.KindLft, Name: name})
	}
	return params, nil
}

// existingArgs maps the regions of this use onto the lifetime parameters
// of an already translated predicate, by position.
func existingArgs(pred *ssl.Predicate, lfts ssl.Params) ([]ssl.Arg, error) {
	var args []ssl.Arg
	i := 0
	for _, p := range pred.Params {
		if p.Kind != ssl.KindLft {
			continue
		}
		if i >= len(lfts) {
			return nil, invariantf("%s expects more lifetimes than given", pred.Ident)
		}
		args = append(args, ssl.Arg{Name: lfts[i].Name, Target: p})
		i++
	}
	if i != len(lfts) {
		return nil, invariantf("%s expects %d lifetimes, given %d", pred.Ident, i, len(lfts))
	}
	return args, nil
}

func selfArgs(lfts ssl.Params) []ssl.Arg {
	if len(lfts) == 0 {
		return nil
	}
	args := make([]ssl.Arg, len(lfts))
	for i, p := range lfts {
		args[i] = ssl.Arg{Name: p.Name, Target: p}
	}
	return args
}

func (tt *typeTranslator) translateAdt(name string, t *ty.Ty) ([]ssl.Arg, error) {
	clean := t.String()
	if strings.HasPrefix(clean, "core::pin::Pin") || strings.HasPrefix(clean, "std::pin::Pin") {
		return nil, unsupported(types.RequiresFlag)
	}
	lfts, err := lifetimeParams(t)
	if err != nil {
		return nil, err
	}
	if pred, ok := tt.preds[name]; ok {
		return existingArgs(pred, lfts)
	}

	def := t.Adt
	if def.Private && !tt.opts.AllowPrivateTypes {
		return nil, unsupported(types.PrivateType)
	}
	if def.IsNonExhaustive() {
		return nil, unsupported(types.NonExhaustive)
	}
	for _, deny := range denyListed {
		if strings.Contains(clean, deny) {
			return nil, unsupported(types.Other)
		}
	}

	params := append(ssl.Params{}, lfts...)
	params = append(params, ssl.DefaultParam())
	pred := &ssl.Predicate{
		Copy:      t.IsCopy(),
		Drop:      def.HasDtor && !def.Box,
		Ident:     name,
		CleanName: clean,
		Params:    params,
	}
	// Inserted before recursing so that recursive types terminate.
	tt.preds[name] = pred

	if def.Box {
		inner, err := tt.translate(t.Elems[0])
		if err != nil {
			return nil, err
		}
		clause := ssl.NewClause(ssl.True).WithName("Box::new")
		clause.Assn.Sigma = ssl.Sigma{{Field: "f_666", Ty: inner}}
		clause.Assn.AddSeq(ssl.Int{Val: 0})
		pred.Clauses = []*ssl.Clause{clause}
		return selfArgs(lfts), nil
	}

	itemName := def.Name
	switch {
	case tt.opts.UseFullNames && def.Local:
		itemName = "crate::" + def.ShortPath()
	case tt.opts.UseFullNames:
		itemName = "::" + def.ShortPath()
	}

	clauses := make([]*ssl.Clause, 0, len(def.Variants))
	for vid, v := range def.Variants {
		var (
			dval     ssl.Expr = ssl.Int{Val: 0}
			suffix   string
			selector = ssl.True
			sigma    ssl.Sigma
		)
		if def.Enum {
			d, err := tt.sapp(true, "disc", def.Discriminant())
			if err != nil {
				return nil, err
			}
			dv := d.Arg(ssl.DefaultParam())
			dval = ssl.Int{Val: uint64(vid)}
			suffix = "::" + v.Name
			selector = ssl.Eq(ssl.Var{Name: dv.Name}, dval)
			sigma = ssl.Sigma{d}
		} else if len(v.Fields) == 0 {
			switch v.Ctor {
			case ty.CtorFn:
				suffix = " ()"
			case ty.CtorFictive:
				suffix = " {}"
			}
		}
		for fi, f := range v.Fields {
			fty, err := def.FieldTy(t, vid, fi)
			if err != nil {
				return nil, invariantf("%v", err)
			}
			app, err := tt.sapp(f.Private, fieldIdent(vid, f.Name), fty)
			if err != nil {
				return nil, err
			}
			sigma = append(sigma, app)
		}
		clause := ssl.NewClause(selector).WithName(itemName + suffix)
		clause.Assn.Sigma = sigma
		clause.Assn.AddSeq(dval)
		clauses = append(clauses, clause)
	}
	pred.Clauses = clauses
	return selfArgs(lfts), nil
}

func (tt *typeTranslator) translateTuple(name string, t *ty.Ty) ([]ssl.Arg, error) {
	lfts, err := lifetimeParams(t)
	if err != nil {
		return nil, err
	}
	if pred, ok := tt.preds[name]; ok {
		return existingArgs(pred, lfts)
	}
	params := append(ssl.Params{}, lfts...)
	params = append(params, ssl.DefaultParam())
	pred := &ssl.Predicate{
		Copy:      t.IsCopy(),
		Ident:     name,
		CleanName: t.String(),
		Params:    params,
	}
	tt.preds[name] = pred

	var sigma ssl.Sigma
	for i, elem := range t.Elems {
		app, err := tt.sapp(false, fieldIdent(0, strconv.Itoa(i)), elem)
		if err != nil {
			return nil, err
		}
		sigma = append(sigma, app)
	}
	clause := ssl.NewClause(ssl.True).WithName("")
	clause.Assn.Sigma = sigma
	clause.Assn.AddSeq(ssl.Int{Val: 0})
	pred.Clauses = append(pred.Clauses, clause)
	return selfArgs(lfts), nil
}
