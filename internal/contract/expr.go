// Package contract holds the typed contract expressions elaborated by the
// frontend: preconditions, postconditions and pure function bodies.
package contract

import (
	"strconv"
	"strings"

	"github.com/gnolang/ruslic/internal/ty"
)

// ResultName is the variable bound to a function's return value.
const ResultName = "result"

// Expr is a typed contract expression.
type Expr interface {
	isExpr()
	Type() *ty.Ty
	String() string
}

// Var references an argument or the result.
type Var struct {
	Name string
	Ty   *ty.Ty
}

func (Var) isExpr()          {}
func (e Var) Type() *ty.Ty   { return e.Ty }
func (e Var) String() string { return e.Name }

// IsResult reports whether e is the result variable.
func IsResult(e Expr) bool {
	v, ok := e.(Var)
	return ok && v.Name == ResultName
}

// LitKind distinguishes literal forms.
type LitKind int

const (
	LitInt LitKind = iota
	LitBool
	LitUnsupported
)

// Lit is an integer or boolean literal. Negative integers are written as a
// negation of a literal.
type Lit struct {
	Kind LitKind
	Int  uint64
	Bool bool
	Text string
	Ty   *ty.Ty
}

func (Lit) isExpr()        {}
func (e Lit) Type() *ty.Ty { return e.Ty }
func (e Lit) String() string {
	switch e.Kind {
	case LitInt:
		return strconv.FormatUint(e.Int, 10)
	case LitBool:
		return strconv.FormatBool(e.Bool)
	default:
		return e.Text
	}
}

func IntLit(v uint64, t *ty.Ty) Lit { return Lit{Kind: LitInt, Int: v, Ty: t} }

func BoolLit(v bool) Lit { return Lit{Kind: LitBool, Bool: v, Ty: ty.Prim("bool")} }

// IsTrue reports whether e is the literal `true`.
func IsTrue(e Expr) bool {
	l, ok := e.(Lit)
	return ok && l.Kind == LitBool && l.Bool
}

// BinOp is a host binary operator.
type BinOp int

const (
	_ BinOp = iota
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpRem
	OpAnd
	OpOr
	OpBitXor
	OpBitAnd
	OpBitOr
	OpShl
	OpShr
	OpEq
	OpLt
	OpLe
	OpNe
	OpGe
	OpGt
)

var binOpSymbols = [...]string{
	OpAdd:    "+",
	OpSub:    "-",
	OpMul:    "*",
	OpDiv:    "/",
	OpRem:    "%",
	OpAnd:    "&&",
	OpOr:     "||",
	OpBitXor: "^",
	OpBitAnd: "&",
	OpBitOr:  "|",
	OpShl:    "<<",
	OpShr:    ">>",
	OpEq:     "==",
	OpLt:     "<",
	OpLe:     "<=",
	OpNe:     "!=",
	OpGe:     ">=",
	OpGt:     ">",
}

func (op BinOp) String() string {
	if op <= 0 || int(op) >= len(binOpSymbols) {
		return "?"
	}
	return binOpSymbols[op]
}

// ParseBinOp maps an operator symbol back to its BinOp.
func ParseBinOp(s string) (BinOp, bool) {
	for i, sym := range binOpSymbols {
		if i > 0 && sym == s {
			return BinOp(i), true
		}
	}
	return 0, false
}

type Binary struct {
	Op    BinOp
	Left  Expr
	Right Expr
	Ty    *ty.Ty
}

func (Binary) isExpr()        {}
func (e Binary) Type() *ty.Ty { return e.Ty }
func (e Binary) String() string {
	return "(" + e.Left.String() + " " + e.Op.String() + " " + e.Right.String() + ")"
}

// UnOp is a unary operator. OpSnap takes a structural snapshot.
type UnOp int

const (
	OpNot UnOp = iota
	OpNeg
	OpSnap
)

func (op UnOp) String() string {
	switch op {
	case OpNot:
		return "!"
	case OpNeg:
		return "-"
	case OpSnap:
		return "@"
	default:
		return "?"
	}
}

type Unary struct {
	Op      UnOp
	Operand Expr
	Ty      *ty.Ty
}

func (Unary) isExpr()        {}
func (e Unary) Type() *ty.Ty { return e.Ty }
func (e Unary) String() string {
	return "(" + e.Op.String() + " " + e.Operand.String() + ")"
}

// Deref reads through a reference: the value at entry (`*e`) or, for a
// mutable reference, the value once the borrow expires (`^e`).
type Deref struct {
	Operand Expr
	Future  bool
	Ty      *ty.Ty
}

func (Deref) isExpr()        {}
func (e Deref) Type() *ty.Ty { return e.Ty }
func (e Deref) String() string {
	if e.Future {
		return "^" + e.Operand.String()
	}
	return "*" + e.Operand.String()
}

// Field projects field Field of variant Variant out of a struct, enum or
// tuple value.
type Field struct {
	Operand Expr
	Variant int
	Field   int
	Ty      *ty.Ty
}

func (Field) isExpr()        {}
func (e Field) Type() *ty.Ty { return e.Ty }
func (e Field) String() string {
	return e.Operand.String() + "." + FieldName(e.Operand.Type(), e.Variant, e.Field)
}

// Disc reads an enum's discriminant.
type Disc struct {
	Operand Expr
	Ty      *ty.Ty
}

func (Disc) isExpr()          {}
func (e Disc) Type() *ty.Ty   { return e.Ty }
func (e Disc) String() string { return e.Operand.String() + ".disc" }

// Borrow is the reference constructor `&e`.
type Borrow struct {
	Operand Expr
	Ty      *ty.Ty
}

func (Borrow) isExpr()          {}
func (e Borrow) Type() *ty.Ty   { return e.Ty }
func (e Borrow) String() string { return "&" + e.Operand.String() }

// Array is an array literal, only used to build sets.
type Array struct {
	Elems []Expr
	Ty    *ty.Ty
}

func (Array) isExpr()        {}
func (e Array) Type() *ty.Ty { return e.Ty }
func (e Array) String() string {
	parts := make([]string, len(e.Elems))
	for i, el := range e.Elems {
		parts[i] = el.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// IfElse is a conditional; pattern matches are lowered to chains of these
// with the first matching arm outermost.
type IfElse struct {
	Cond Expr
	Then Expr
	Else Expr
	Ty   *ty.Ty
}

func (IfElse) isExpr()        {}
func (e IfElse) Type() *ty.Ty { return e.Ty }
func (e IfElse) String() string {
	return "if " + e.Cond.String() + " { " + e.Then.String() + " } else { " + e.Else.String() + " }"
}

// Call invokes a pure function or a builtin. Subst instantiates the callee's
// generic parameters.
type Call struct {
	Path  string
	Op    Builtin
	Args  []Expr
	Subst map[string]*ty.Ty
	Ty    *ty.Ty
}

func (Call) isExpr()        {}
func (e Call) Type() *ty.Ty { return e.Ty }
func (e Call) String() string {
	parts := make([]string, len(e.Args))
	for i, a := range e.Args {
		parts[i] = a.String()
	}
	return "[" + e.Path + "](" + strings.Join(parts, ", ") + ")"
}

// FieldName names field f of variant v of t the way the host does: the
// declared field name, or `_<index>` for tuples.
func FieldName(t *ty.Ty, v, f int) string {
	t = t.PeelRefs()
	switch t.Kind {
	case ty.Adt:
		if v < len(t.Adt.Variants) && f < len(t.Adt.Variants[v].Fields) {
			return t.Adt.Variants[v].Fields[f].Name
		}
	case ty.Tuple:
		return "_" + strconv.Itoa(f)
	}
	return "?" + strconv.Itoa(f)
}
