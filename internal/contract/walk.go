package contract

import "github.com/gnolang/ruslic/internal/ty"

// Map rebuilds e bottom-up, applying fn to every rebuilt node.
func Map(e Expr, fn func(Expr) Expr) Expr {
	switch n := e.(type) {
	case Binary:
		n.Left = Map(n.Left, fn)
		n.Right = Map(n.Right, fn)
		return fn(n)
	case Unary:
		n.Operand = Map(n.Operand, fn)
		return fn(n)
	case Deref:
		n.Operand = Map(n.Operand, fn)
		return fn(n)
	case Field:
		n.Operand = Map(n.Operand, fn)
		return fn(n)
	case Disc:
		n.Operand = Map(n.Operand, fn)
		return fn(n)
	case Borrow:
		n.Operand = Map(n.Operand, fn)
		return fn(n)
	case Array:
		elems := make([]Expr, len(n.Elems))
		for i, el := range n.Elems {
			elems[i] = Map(el, fn)
		}
		n.Elems = elems
		return fn(n)
	case IfElse:
		n.Cond = Map(n.Cond, fn)
		n.Then = Map(n.Then, fn)
		n.Else = Map(n.Else, fn)
		return fn(n)
	case Call:
		args := make([]Expr, len(n.Args))
		for i, a := range n.Args {
			args[i] = Map(a, fn)
		}
		n.Args = args
		return fn(n)
	default:
		return fn(e)
	}
}

// Subst replaces generic parameters in every node's type and in the
// generic arguments of nested calls.
func Subst(e Expr, types map[string]*ty.Ty) Expr {
	if e == nil || len(types) == 0 {
		return e
	}
	return Map(e, func(e Expr) Expr {
		switch n := e.(type) {
		case Var:
			n.Ty = n.Ty.Subst(types, nil)
			return n
		case Lit:
			n.Ty = n.Ty.Subst(types, nil)
			return n
		case Binary:
			n.Ty = n.Ty.Subst(types, nil)
			return n
		case Unary:
			n.Ty = n.Ty.Subst(types, nil)
			return n
		case Deref:
			n.Ty = n.Ty.Subst(types, nil)
			return n
		case Field:
			n.Ty = n.Ty.Subst(types, nil)
			return n
		case Disc:
			n.Ty = n.Ty.Subst(types, nil)
			return n
		case Borrow:
			n.Ty = n.Ty.Subst(types, nil)
			return n
		case Array:
			n.Ty = n.Ty.Subst(types, nil)
			return n
		case IfElse:
			n.Ty = n.Ty.Subst(types, nil)
			return n
		case Call:
			n.Ty = n.Ty.Subst(types, nil)
			if len(n.Subst) > 0 {
				sub := make(map[string]*ty.Ty, len(n.Subst))
				for k, v := range n.Subst {
					sub[k] = v.Subst(types, nil)
				}
				n.Subst = sub
			}
			return n
		}
		return e
	})
}

// CountNodes returns the size of e, skipping borrows and derefs which the
// host inserts implicitly.
func CountNodes(e Expr) int {
	if e == nil {
		return 0
	}
	count := 0
	Map(e, func(e Expr) Expr {
		switch e.(type) {
		case Borrow, Deref:
		default:
			count++
		}
		return e
	})
	return count
}
