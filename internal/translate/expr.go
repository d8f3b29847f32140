package translate

import (
	"strings"

	"github.com/gnolang/ruslic/internal/contract"
	"github.com/gnolang/ruslic/internal/ssl"
	"github.com/gnolang/ruslic/internal/ty"
)

// request asks the translation of a variable to produce the argument its
// heap chunk passes for param, and to assert facts about it.
type request struct {
	param ssl.Param
	facts ssl.Expr
}

type branch struct {
	then bool
	cond ssl.Expr
}

// exprTranslator translates contract expressions against one signature's
// pre and post heaps, growing predicate parameter lists as it goes.
type exprTranslator struct {
	pre   *ssl.Assertion
	post  *ssl.Assertion
	preds ssl.PredMap
	pure  contract.PureFns

	// results is shared by every translator of one program.
	results map[string]string

	// fnBody is set while inlining a pure function: parameters are then
	// registered by the caller.
	fnBody    bool
	underCond []branch
	used      *[]*contract.PureFn
}

func (x *exprTranslator) translate(e contract.Expr, futs []bool, req *request) (ssl.Expr, error) {
	if e == nil {
		return ssl.True, nil
	}
	switch n := e.(type) {
	case contract.Var:
		return x.variable(n, futs, req)

	case contract.Lit:
		switch n.Kind {
		case contract.LitInt:
			return ssl.Int{Val: n.Int}, nil
		case contract.LitBool:
			return ssl.Bool{Val: n.Bool}, nil
		}
		return nil, contractf("unsupported literal %s", n.Text)

	case contract.Binary:
		if req != nil || len(futs) > 0 {
			return nil, contractf("operator %s used where a value is projected", n.Op)
		}
		op, ok := ssl.ParseOp(n.Op.String())
		if !ok {
			return nil, invariantf("unknown operator %d", n.Op)
		}
		l, err := x.translate(n.Left, nil, nil)
		if err != nil {
			return nil, err
		}
		r, err := x.translate(n.Right, nil, nil)
		if err != nil {
			return nil, err
		}
		switch op {
		case ssl.OpAnd:
			return ssl.And(l, r), nil
		case ssl.OpOr:
			return ssl.Or(l, r), nil
		}
		return ssl.Binary{Op: op, Left: l, Right: r}, nil

	case contract.Unary:
		if req != nil || len(futs) > 0 {
			return nil, contractf("operator %s used where a value is projected", n.Op)
		}
		operand, err := x.translate(n.Operand, nil, nil)
		if err != nil {
			return nil, err
		}
		switch n.Op {
		case contract.OpSnap:
			// Values are snapshotted implicitly.
			return operand, nil
		case contract.OpNot:
			return ssl.Unary{Op: ssl.OpNot, Operand: operand}, nil
		default:
			return ssl.Unary{Op: ssl.OpNeg, Operand: operand}, nil
		}

	case contract.Deref:
		rt := n.Operand.Type()
		if !rt.IsRef() {
			return nil, contractf("dereference of %s, which is not a reference", rt)
		}
		if n.Future && !rt.Mut {
			return nil, contractf("future value of shared reference %s: use `*` instead of `^`", n.Operand)
		}
		if rt.Mut {
			futs = append(cloneBools(futs), n.Future)
		}
		return x.translate(n.Operand, futs, req)

	case contract.Field:
		name, err := projectionName(n.Operand.Type(), n.Variant, n.Field)
		if err != nil {
			return nil, err
		}
		return x.project(n.Ty, n.Operand, n.Variant, name, false, futs, req)

	case contract.Disc:
		return x.project(n.Ty, n.Operand, 0, "disc", true, futs, req)

	case contract.IfElse:
		g, err := x.translate(n.Cond, nil, nil)
		if err != nil {
			return nil, err
		}
		x.underCond = append(x.underCond, branch{then: true, cond: g})
		t, err := x.translate(n.Then, cloneBools(futs), req)
		if err != nil {
			return nil, err
		}
		x.underCond[len(x.underCond)-1].then = false
		f, err := x.translate(n.Else, futs, req)
		if err != nil {
			return nil, err
		}
		x.underCond = x.underCond[:len(x.underCond)-1]
		return ssl.IfElse{Cond: g, Then: t, Else: f}, nil

	case contract.Call:
		return x.call(n, futs, req)

	case contract.Borrow, contract.Array:
		return nil, contractf("constructor %s outside of a call argument", e)
	}
	return nil, invariantf("unknown expression %T", e)
}

func (x *exprTranslator) variable(v contract.Var, futs []bool, req *request) (ssl.Expr, error) {
	field := "f" + v.Name
	if req == nil {
		return ssl.Snap{Futs: cloneBools(futs), Field: field}, nil
	}
	isResult := v.Name == contract.ResultName
	sigma := x.pre.Sigma
	if isResult {
		sigma = x.post.Sigma
	}
	// A value that exists at exit: the result's current value, or an
	// argument's future one.
	atExit := isResult == (len(futs) == 0 || !futs[0])
	phi := &x.pre.Phi
	if atExit {
		phi = &x.post.Phi
	}

	app := sigma.Find(field)
	if app == nil {
		return nil, invariantf("no heap chunk %s for %s", field, v.Name)
	}
	if !x.fnBody {
		pred, ok := x.preds[app.Ty.Pred]
		if !ok {
			return nil, invariantf("no predicate %s", app.Ty.Pred)
		}
		pred.Params.Add(req.param)
	}
	arg := app.Arg(req.param)

	var out ssl.Expr = ssl.Var{Name: arg.Name}
	if !ssl.AllCurrent(futs) {
		out = ssl.OnExpiry{Futs: cloneBools(futs), Kind: arg.Kind, Field: field, Arg: arg.Name}
	}
	facts := ssl.ReplaceResult(req.facts, out)
	if !ssl.IsTrue(facts) {
		*phi = append(*phi, facts)
	}
	return out, nil
}

// project translates field `name` of variant vid of base, whose value has
// type fieldTy. The requested parameter is registered on the field's
// predicate, then requested from base through the enclosing predicate.
func (x *exprTranslator) project(fieldTy *ty.Ty, base contract.Expr, vid int, name string, disc bool, futs []bool, req *request) (ssl.Expr, error) {
	param, facts := ssl.DefaultParam(), ssl.True
	if req != nil {
		param, facts = req.param, req.facts
	}

	leaf := fieldTy.PeelRefs()
	inner, ok := x.preds[PredName(leaf)]
	if !ok {
		return nil, invariantf("no predicate for field type %s", leaf)
	}
	if leaf.IsScalar() {
		kind, err := primKind(leaf)
		if err != nil {
			return nil, err
		}
		param.Kind = kind
	}
	inner.Params.Add(param)

	bt := base.Type()
	if bt.Kind != ty.Adt && bt.Kind != ty.Tuple {
		return nil, contractf("projection out of %s", bt)
	}
	outer, ok := x.preds[PredName(bt)]
	if !ok {
		return nil, invariantf("no predicate for %s", bt)
	}

	var next ssl.Param
	switch {
	case disc:
		if len(futs) > 0 {
			return nil, contractf("discriminant read through a mutable reference")
		}
		if len(outer.Clauses) == 0 {
			return nil, invariantf("enum %s has no variants", bt)
		}
		// The discriminant is read before the variant is known: every
		// clause passes the same argument.
		for _, c := range outer.Clauses {
			app := c.Assn.Sigma.Find("fdisc")
			if app == nil {
				return nil, invariantf("%s has no discriminant", bt)
			}
			next = app.Arg(param)
		}
	case bt.IsBox():
		if len(futs) > 0 {
			return nil, contractf("box content read through a mutable reference")
		}
		clause, err := clauseAt(outer, vid)
		if err != nil {
			return nil, err
		}
		arg := clause.Assn.Sigma[0].Arg(param)
		next = actualArg(arg, futs, "f_666", clause.Equalities)
	default:
		clause, err := clauseAt(outer, vid)
		if err != nil {
			return nil, err
		}
		fname := "f" + fieldIdent(vid, name)
		app := clause.Assn.Sigma.Find(fname)
		if app == nil {
			return nil, invariantf("%s has no field %s", bt, fname)
		}
		arg := app.Arg(param)
		next = actualArg(arg, futs, fname, clause.Equalities)
	}
	return x.translate(base, nil, &request{param: next, facts: facts})
}

func clauseAt(p *ssl.Predicate, vid int) (*ssl.Clause, error) {
	if vid < 0 || vid >= len(p.Clauses) {
		return nil, invariantf("%s has no clause %d", p.Ident, vid)
	}
	return p.Clauses[vid], nil
}

// actualArg names the value a field argument takes under the selector
// stack futs. Snapshots and future values get a fresh name bound by a
// clause equality; current scalars are used as is.
func actualArg(arg ssl.Param, futs []bool, field string, eqs map[string]ssl.Expr) ssl.Param {
	isSnap := arg.Kind == ssl.KindSnap
	if !isSnap && ssl.AllCurrent(futs) {
		return arg
	}
	var sel strings.Builder
	for _, f := range futs {
		if f {
			sel.WriteByte('f')
		} else {
			sel.WriteByte('c')
		}
	}
	if isSnap {
		name := arg.Name + "_snap" + sel.String()
		eqs[name] = ssl.Snap{Futs: cloneBools(futs), Field: field}
		return ssl.Param{Kind: ssl.KindInt, Name: name}
	}
	name := arg.Name + "_" + sel.String()
	eqs[name] = ssl.OnExpiry{Futs: cloneBools(futs), Kind: arg.Kind, Field: field, Arg: arg.Name}
	return ssl.Param{Kind: arg.Kind, Name: name}
}

func cloneBools(b []bool) []bool {
	return append([]bool(nil), b...)
}
