package translate

import (
	"strings"

	"github.com/gnolang/ruslic/internal/contract"
	"github.com/gnolang/ruslic/internal/ssl"
	"github.com/gnolang/ruslic/internal/ty"
	"github.com/gnolang/ruslic/internal/types"
)

func (x *exprTranslator) call(c contract.Call, futs []bool, req *request) (ssl.Expr, error) {
	switch c.Op {
	case contract.BuiltinNone:
		return x.pureCall(c, futs, req)

	case contract.BuiltinSnap:
		if len(c.Args) != 1 {
			return nil, invariantf("snap takes one argument, got %d", len(c.Args))
		}
		return x.translate(c.Args[0], futs, nil)

	case contract.BuiltinSetConstruct:
		if len(c.Args) != 1 {
			return nil, invariantf("set construction takes one argument, got %d", len(c.Args))
		}
		arr, ok := c.Args[0].(contract.Array)
		if !ok {
			return nil, contractf("sets can only be constructed from array literals")
		}
		elems := make([]ssl.Expr, len(arr.Elems))
		for i, el := range arr.Elems {
			b, ok := el.(contract.Borrow)
			if !ok {
				return nil, contractf("set element %s is not a reference", el)
			}
			e, err := x.translate(b.Operand, nil, nil)
			if err != nil {
				return nil, err
			}
			elems[i] = e
		}
		return ssl.Tuple{Set: true, Elems: elems}, nil

	case contract.BuiltinSetContains:
		if req != nil {
			return nil, contractf("set membership used where a value is projected")
		}
		if len(c.Args) != 2 {
			return nil, invariantf("set membership takes two arguments, got %d", len(c.Args))
		}
		set, err := x.translate(c.Args[0], nil, nil)
		if err != nil {
			return nil, err
		}
		elem, err := x.translate(c.Args[1], nil, nil)
		if err != nil {
			return nil, err
		}
		return ssl.Binary{Op: ssl.OpIn, Left: elem, Right: set}, nil
	}

	hostOp, ok := c.Op.BinOp()
	if !ok {
		return nil, contractf("no translation for %s", c.Path)
	}
	if len(c.Args) != 2 {
		return nil, invariantf("%s takes two arguments, got %d", c.Path, len(c.Args))
	}
	return x.translate(contract.Binary{Op: hostOp, Left: c.Args[0], Right: c.Args[1], Ty: c.Ty}, futs, req)
}

// pureCall inlines a pure function once per predicate: its body becomes a
// parameter `<fn>_result` of the argument's predicate, defined by a clause
// equality, and the call reads that parameter.
func (x *exprTranslator) pureCall(c contract.Call, futs []bool, req *request) (ssl.Expr, error) {
	if !c.Ty.IsScalar() {
		return nil, contractf("%s returns %s; pure calls must return a primitive", c.Path, c.Ty)
	}
	switch {
	case len(c.Args) == 0:
		return nil, contractf("%s has no arguments; inline it instead", c.Path)
	case len(c.Args) > 1:
		return nil, contractf("%s takes %d arguments; only a single receiver is supported", c.Path, len(c.Args))
	case req != nil || len(futs) > 0:
		return nil, contractf("result of %s used where a value is projected", c.Path)
	}
	fn, ok := x.pure[c.Path]
	if !ok {
		return nil, contractf("%s is not a pure function", c.Path)
	}
	if len(fn.ArgNames) != 1 {
		return nil, invariantf("%s declares %d arguments, called with 1", c.Path, len(fn.ArgNames))
	}
	borrow, ok := c.Args[0].(contract.Borrow)
	if !ok {
		return nil, contractf("argument of %s must be a reference", c.Path)
	}
	target := borrow.Operand
	argTy := borrow.Ty.PeelRefs()
	if argTy.Kind != ty.Adt {
		return nil, contractf("argument of %s has type %s; only structs and enums are supported", c.Path, argTy)
	}
	body, ensures := fn.Instantiate(c.Subst)

	predName := PredName(argTy)
	pred, ok := x.preds[predName]
	if !ok {
		return nil, invariantf("no predicate for %s", argTy)
	}
	resultName := fn.Name + "_result"
	selfName := "f" + fn.ArgNames[0]

	res := &ssl.SApp{Field: ssl.ResultChunk}
	resParam := res.Arg(ssl.DefaultParam())
	sub := &exprTranslator{
		pre:     &ssl.Assertion{Sigma: ssl.Sigma{{Field: selfName, Ty: ssl.STy{Pred: predName}}}},
		post:    &ssl.Assertion{Sigma: ssl.Sigma{res}},
		preds:   x.preds,
		pure:    x.pure,
		results: x.results,
		used:    x.used,

		fnBody: true,
	}

	callPost, err := sub.translate(ensures, nil, nil)
	if err != nil {
		return nil, err
	}
	if !ssl.IsTrue(callPost) {
		// Trusted postconditions only hold in the branch the call is in.
		for _, b := range x.underCond {
			if b.then {
				callPost = ssl.IfElse{Cond: b.cond, Then: callPost, Else: ssl.True}
			} else {
				callPost = ssl.IfElse{Cond: b.cond, Then: ssl.True, Else: callPost}
			}
		}
	}

	owner := predName + "." + resultName
	if path, ok := x.results[owner]; ok && path != fn.Path {
		// Two pure functions of the same name on one receiver type.
		return nil, unsupported(types.ReservedName)
	}
	param, ok := pred.Params.ByName(resultName)
	if !ok {
		x.results[owner] = fn.Path
		*x.used = append(*x.used, fn)
		kind, err := primKind(c.Ty)
		if err != nil {
			return nil, err
		}
		param = ssl.Param{Kind: kind, Name: resultName}
		pred.Params = append(pred.Params, param)

		bodyExpr, err := sub.translate(body, nil, nil)
		if err != nil {
			return nil, err
		}
		var renameErr error
		rename := func(v string) string {
			if v == resParam.Name {
				return resultName
			}
			if base, ok := strings.CutSuffix(v, "_"+selfName); ok {
				return base
			}
			if renameErr == nil {
				renameErr = contractf("%s: %s does not belong to the receiver", c.Path, v)
			}
			return v
		}
		bodyExpr = ssl.RenameVars(bodyExpr, rename)
		facts := make(ssl.Phi, len(sub.pre.Phi))
		for i, f := range sub.pre.Phi {
			facts[i] = ssl.RenameVars(f, rename)
		}
		if renameErr != nil {
			return nil, renameErr
		}
		for _, clause := range pred.Clauses {
			clause.Equalities[resultName] = bodyExpr
			clause.Assn.Phi = append(clause.Assn.Phi, facts...)
		}
	}
	return x.translate(target, nil, &request{param: param, facts: callPost})
}
