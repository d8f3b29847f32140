package translate

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/gnolang/ruslic/internal/ssl"
	"github.com/gnolang/ruslic/internal/ty"
	"github.com/gnolang/ruslic/internal/types"
)

// Sanitize turns a host type or path into an identifier the synthesizer
// accepts.
func Sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, c := range s {
		switch c {
		case ':', '<', ' ', ',', '-', '[', ']', '#', '=':
			b.WriteByte('_')
		case '>', '&', '*', '\'', '(', ')', '+':
		default:
			b.WriteRune(c)
		}
	}
	return b.String()
}

// PredName is the canonical predicate identifier of t. Reference layers
// contribute `R` or `Rmut`; ADTs are named by definition index and item
// name followed by the names of their type arguments.
func PredName(t *ty.Ty) string {
	var prefix strings.Builder
	for t.Kind == ty.Ref {
		if t.Mut {
			prefix.WriteString("Rmut")
		} else {
			prefix.WriteString("R")
		}
		t = t.Inner()
	}
	if t.Kind != ty.Adt {
		return "P" + prefix.String() + Sanitize(t.String())
	}
	var b strings.Builder
	b.WriteString("P")
	b.WriteString(prefix.String())
	b.WriteString(strconv.FormatUint(uint64(t.Adt.Index), 10))
	b.WriteString("_")
	b.WriteString(t.Adt.Name)
	for _, arg := range t.Elems {
		b.WriteString("_")
		b.WriteString(PredName(arg))
	}
	b.WriteString("_")
	return b.String()
}

// fieldIdent is the suffix of a field's chunk name: the variant index
// followed by the field name, separated by `_` when the name is numeric.
func fieldIdent(vid int, field string) string {
	v := strconv.Itoa(vid)
	if field != "" && unicode.IsDigit(rune(field[0])) {
		return v + "_" + field
	}
	return v + field
}

// regionName is the stable name of a lifetime, including its leading quote.
func regionName(r ty.Region) (string, error) {
	switch r.Kind {
	case ty.EarlyBound, ty.FreeNamed:
		return r.Name, nil
	case ty.FreeAnon:
		return "'anon" + strconv.Itoa(r.Index), nil
	case ty.Static:
		return "'static", nil
	case ty.LateBound:
		return "", unsupported(types.LateBoundRegion)
	default:
		return "", unsupported(types.OtherTy)
	}
}

// primKind is the parameter kind carrying values of a scalar type.
func primKind(t *ty.Ty) (ssl.ParamKind, error) {
	switch {
	case t.Kind == ty.Bool:
		return ssl.KindBool, nil
	case t.Kind == ty.Int, t.Kind == ty.Uint, t.IsUnit():
		return ssl.KindInt, nil
	case t.IsSet():
		return ssl.KindSet, nil
	case t.Kind == ty.Char, t.Kind == ty.Float:
		return 0, unsupported(types.CharFloat)
	}
	return 0, invariantf("%s is not a scalar type", t)
}

// projectionName is the raw name of field f of variant v of t: the declared
// name for ADTs, the position for tuples.
func projectionName(t *ty.Ty, v, f int) (string, error) {
	switch t.Kind {
	case ty.Tuple:
		if f < 0 || f >= len(t.Elems) {
			return "", invariantf("tuple %s has no field %d", t, f)
		}
		return strconv.Itoa(f), nil
	case ty.Adt:
		if v < 0 || v >= len(t.Adt.Variants) || f < 0 || f >= len(t.Adt.Variants[v].Fields) {
			return "", invariantf("%s has no field %d in variant %d", t, f, v)
		}
		return t.Adt.Variants[v].Fields[f].Name, nil
	}
	return "", contractf("field access on %s, which is neither a struct, an enum nor a tuple", t)
}
