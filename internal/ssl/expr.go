// Package ssl models the synthesizer's input language: heap predicates,
// pure formulas and function signatures. The String methods render the
// exact text the synthesizer parses.
package ssl

import (
	"strconv"
	"strings"
)

// Expr is a pure formula.
type Expr interface {
	isExpr()
	String() string
}

// Var is a logical variable.
type Var struct {
	Name string
}

func (Var) isExpr()          {}
func (e Var) String() string { return e.Name }

// Snap stands for the structural snapshot of heap chunk Field, observed
// through the selector stack Futs. Normalization replaces it with a tuple.
type Snap struct {
	Futs  []bool
	Field string
}

func (Snap) isExpr() {}
func (e Snap) String() string {
	return "snap(" + formatFuts(e.Futs) + ", " + e.Field + ")"
}

// OnExpiry stands for the value argument Arg of chunk Field takes once the
// borrows selected by Futs expire. Normalization resolves Arg to Index.
type OnExpiry struct {
	Futs     []bool
	Kind     ParamKind
	Field    string
	Arg      string
	Index    int
	Resolved bool
}

func (OnExpiry) isExpr() {}
func (e OnExpiry) String() string {
	var b strings.Builder
	param := Param{Kind: e.Kind, Name: e.Field}
	if e.Resolved {
		for _, f := range e.Futs {
			if f {
				b.WriteString("^ ")
			} else {
				b.WriteString("* ")
			}
		}
		b.WriteString("(" + param.String() + ")[" + strconv.Itoa(e.Index) + "]")
		return b.String()
	}
	for _, f := range e.Futs {
		if f {
			b.WriteString("^")
		} else {
			b.WriteString("*")
		}
	}
	b.WriteString("(" + param.String() + ")<:" + e.Arg + ":>")
	return b.String()
}

// Tuple is an ordered tuple, or an unordered set literal when Set is true.
type Tuple struct {
	Set   bool
	Elems []Expr
}

func (Tuple) isExpr() {}
func (e Tuple) String() string {
	parts := make([]string, len(e.Elems))
	for i, el := range e.Elems {
		parts[i] = el.String()
	}
	if e.Set {
		return "{" + strings.Join(parts, ", ") + "}"
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

type Int struct {
	Val uint64
}

func (Int) isExpr()          {}
func (e Int) String() string { return strconv.FormatUint(e.Val, 10) }

type Bool struct {
	Val bool
}

func (Bool) isExpr()          {}
func (e Bool) String() string { return strconv.FormatBool(e.Val) }

var (
	True  Expr = Bool{Val: true}
	False Expr = Bool{Val: false}
)

// BinOp is a binary operator of the pure logic.
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
	// OpIn is set membership.
	OpIn
)

var opSymbols = [...]string{
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
	OpIn:     "in",
}

func (op BinOp) String() string {
	if op <= 0 || int(op) >= len(opSymbols) {
		return "?"
	}
	return opSymbols[op]
}

// ParseOp maps a host operator symbol to its logic operator.
func ParseOp(sym string) (BinOp, bool) {
	for i, s := range opSymbols {
		if i > 0 && s == sym {
			return BinOp(i), true
		}
	}
	return 0, false
}

type Binary struct {
	Op    BinOp
	Left  Expr
	Right Expr
}

func (Binary) isExpr() {}
func (e Binary) String() string {
	return "(" + e.Left.String() + " " + e.Op.String() + " " + e.Right.String() + ")"
}

type UnOp int

const (
	OpNot UnOp = iota
	OpNeg
)

type Unary struct {
	Op      UnOp
	Operand Expr
}

func (Unary) isExpr() {}
func (e Unary) String() string {
	if e.Op == OpNot {
		return "(not " + e.Operand.String() + ")"
	}
	return "(- " + e.Operand.String() + ")"
}

type IfElse struct {
	Cond Expr
	Then Expr
	Else Expr
}

func (IfElse) isExpr() {}
func (e IfElse) String() string {
	return "(" + e.Cond.String() + " ? " + e.Then.String() + " : " + e.Else.String() + ")"
}

// formatFuts renders a selector stack as `[true, false]`.
func formatFuts(futs []bool) string {
	parts := make([]string, len(futs))
	for i, f := range futs {
		parts[i] = strconv.FormatBool(f)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// AllCurrent reports whether a selector stack selects no future value.
func AllCurrent(futs []bool) bool {
	for _, f := range futs {
		if f {
			return false
		}
	}
	return true
}

func IsTrue(e Expr) bool {
	b, ok := e.(Bool)
	return ok && b.Val
}

func isFalse(e Expr) bool {
	b, ok := e.(Bool)
	return ok && !b.Val
}

func Eq(l, r Expr) Expr { return Binary{Op: OpEq, Left: l, Right: r} }

// And conjoins two formulas, dropping literal `true` and absorbing `false`.
func And(l, r Expr) Expr {
	switch {
	case IsTrue(l), isFalse(r):
		return r
	case IsTrue(r), isFalse(l):
		return l
	}
	return Binary{Op: OpAnd, Left: l, Right: r}
}

// Or disjoins two formulas, dropping literal `false` and absorbing `true`.
func Or(l, r Expr) Expr {
	switch {
	case isFalse(l), IsTrue(r):
		return r
	case isFalse(r), IsTrue(l):
		return l
	}
	return Binary{Op: OpOr, Left: l, Right: r}
}

// Flatten splits a conjunction into its conjuncts.
func Flatten(e Expr) []Expr {
	if b, ok := e.(Binary); ok && b.Op == OpAnd {
		return append(Flatten(b.Left), Flatten(b.Right)...)
	}
	return []Expr{e}
}

// Map rebuilds e bottom-up, applying fn to every node.
func Map(e Expr, fn func(Expr) Expr) Expr {
	switch n := e.(type) {
	case Tuple:
		elems := make([]Expr, len(n.Elems))
		for i, el := range n.Elems {
			elems[i] = Map(el, fn)
		}
		return fn(Tuple{Set: n.Set, Elems: elems})
	case Binary:
		return fn(Binary{Op: n.Op, Left: Map(n.Left, fn), Right: Map(n.Right, fn)})
	case Unary:
		return fn(Unary{Op: n.Op, Operand: Map(n.Operand, fn)})
	case IfElse:
		return fn(IfElse{Cond: Map(n.Cond, fn), Then: Map(n.Then, fn), Else: Map(n.Else, fn)})
	}
	return fn(e)
}

// RenameVars applies fn to the name of every variable, snapshot and
// on-expiry field.
func RenameVars(e Expr, fn func(string) string) Expr {
	return Map(e, func(e Expr) Expr {
		switch n := e.(type) {
		case Var:
			return Var{Name: fn(n.Name)}
		case Snap:
			n.Field = fn(n.Field)
			return n
		case OnExpiry:
			n.Field = fn(n.Field)
			return n
		}
		return e
	})
}

// ResultChunk is the heap chunk holding a function's return value.
const ResultChunk = "fresult"

// ReplaceResult substitutes with for every reference to the result chunk.
func ReplaceResult(e, with Expr) Expr {
	return Map(e, func(e Expr) Expr {
		switch n := e.(type) {
		case Var:
			if n.Name == ResultChunk {
				return with
			}
		case Snap:
			if n.Field == ResultChunk {
				return with
			}
		case OnExpiry:
			if n.Field == ResultChunk {
				return with
			}
		}
		return e
	})
}
