package frontend

import (
	"context"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/gnolang/ruslic/internal/contract"
	"github.com/gnolang/ruslic/internal/ty"
)

// decoder elaborates tagged expression nodes. Types of variables come from
// the enclosing signature; every other node's type follows from its
// operands, except calls and typed literals which state it.
type decoder struct {
	ctx    context.Context
	parser *ty.Parser
}

var boolTy = ty.Prim("bool")

func nodeErr(n *yaml.Node, format string, args ...any) error {
	return fmt.Errorf("%w: line %d: %s", ErrBundle, n.Line, fmt.Sprintf(format, args...))
}

func (d *decoder) expr(n *yaml.Node, env map[string]*ty.Ty) (contract.Expr, error) {
	switch n.ShortTag() {
	case "!!bool":
		v, err := strconv.ParseBool(n.Value)
		if err != nil {
			return nil, nodeErr(n, "bad boolean %q", n.Value)
		}
		return contract.BoolLit(v), nil
	case "!!int", "!int":
		return d.intLit(n)
	case "!bool":
		v, err := strconv.ParseBool(n.Value)
		if err != nil {
			return nil, nodeErr(n, "bad boolean %q", n.Value)
		}
		return contract.BoolLit(v), nil
	case "!!str", "!var":
		t, ok := env[n.Value]
		if !ok {
			return nil, nodeErr(n, "unknown variable %s", n.Value)
		}
		return contract.Var{Name: n.Value, Ty: t}, nil
	case "!bin":
		return d.binary(n, env)
	case "!not", "!neg", "!snap":
		operand, err := d.operand(n, env)
		if err != nil {
			return nil, err
		}
		switch n.Tag {
		case "!not":
			return contract.Unary{Op: contract.OpNot, Operand: operand, Ty: boolTy}, nil
		case "!neg":
			return contract.Unary{Op: contract.OpNeg, Operand: operand, Ty: operand.Type()}, nil
		}
		return contract.Unary{Op: contract.OpSnap, Operand: operand, Ty: operand.Type()}, nil
	case "!old", "!fut":
		operand, err := d.operand(n, env)
		if err != nil {
			return nil, err
		}
		rt := operand.Type()
		if !rt.IsRef() {
			return nil, nodeErr(n, "%s dereferences %s, which is not a reference", n.Tag, rt)
		}
		return contract.Deref{Operand: operand, Future: n.Tag == "!fut", Ty: rt.Inner()}, nil
	case "!ref":
		operand, err := d.operand(n, env)
		if err != nil {
			return nil, err
		}
		r := ty.Region{Kind: ty.FreeAnon}
		return contract.Borrow{Operand: operand, Ty: ty.RefTo(r, false, operand.Type())}, nil
	case "!disc":
		operand, err := d.operand(n, env)
		if err != nil {
			return nil, err
		}
		ot := operand.Type()
		if ot.Kind != ty.Adt || !ot.Adt.Enum {
			return nil, nodeErr(n, "discriminant of %s, which is not an enum", ot)
		}
		return contract.Disc{Operand: operand, Ty: ot.Adt.Discriminant()}, nil
	case "!field":
		return d.field(n, env)
	case "!if":
		return d.ifElse(n, env)
	case "!array":
		return d.array(n, env)
	case "!call":
		return d.call(n, env)
	}
	return nil, nodeErr(n, "unknown expression tag %q", n.Tag)
}

// operand decodes the single child of a unary tag, written either inline
// (`!old self`) or as a one-element sequence.
func (d *decoder) operand(n *yaml.Node, env map[string]*ty.Ty) (contract.Expr, error) {
	inner := *n
	switch n.Kind {
	case yaml.ScalarNode:
		inner.Tag = "!!str"
		if _, err := strconv.ParseBool(n.Value); err == nil {
			inner.Tag = "!!bool"
		}
		if _, err := strconv.ParseInt(n.Value, 10, 64); err == nil {
			inner.Tag = "!!int"
		}
		return d.expr(&inner, env)
	case yaml.SequenceNode:
		if len(n.Content) != 1 {
			return nil, nodeErr(n, "%s takes one operand, got %d", n.Tag, len(n.Content))
		}
		return d.expr(n.Content[0], env)
	case yaml.MappingNode:
		return nil, nodeErr(n, "%s takes an expression, not a mapping", n.Tag)
	}
	return nil, nodeErr(n, "%s has no operand", n.Tag)
}

// fields indexes the values of a mapping node.
func fields(n *yaml.Node) (map[string]*yaml.Node, error) {
	if n.Kind != yaml.MappingNode {
		return nil, nodeErr(n, "%s expects a mapping", n.Tag)
	}
	out := make(map[string]*yaml.Node, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		out[n.Content[i].Value] = n.Content[i+1]
	}
	return out, nil
}

func needKeys(n *yaml.Node, m map[string]*yaml.Node, keys ...string) error {
	for _, k := range keys {
		if _, ok := m[k]; !ok {
			return nodeErr(n, "%s needs %q", n.Tag, k)
		}
	}
	return nil
}

func (d *decoder) intLit(n *yaml.Node) (contract.Expr, error) {
	value, tyName := n, "i32"
	if n.Kind == yaml.MappingNode {
		m, err := fields(n)
		if err != nil {
			return nil, err
		}
		if err := needKeys(n, m, "val"); err != nil {
			return nil, err
		}
		value = m["val"]
		if t, ok := m["ty"]; ok {
			tyName = t.Value
		}
	}
	v, err := strconv.ParseUint(value.Value, 10, 64)
	if err != nil {
		return nil, nodeErr(value, "bad integer literal %q", value.Value)
	}
	return contract.IntLit(v, ty.Prim(tyName)), nil
}

func (d *decoder) binary(n *yaml.Node, env map[string]*ty.Ty) (contract.Expr, error) {
	m, err := fields(n)
	if err != nil {
		return nil, err
	}
	if err := needKeys(n, m, "op", "l", "r"); err != nil {
		return nil, err
	}
	op, ok := contract.ParseBinOp(m["op"].Value)
	if !ok {
		return nil, nodeErr(m["op"], "unknown operator %q", m["op"].Value)
	}
	l, err := d.expr(m["l"], env)
	if err != nil {
		return nil, err
	}
	r, err := d.expr(m["r"], env)
	if err != nil {
		return nil, err
	}
	t := l.Type()
	switch op {
	case contract.OpEq, contract.OpNe, contract.OpLt, contract.OpLe, contract.OpGt, contract.OpGe,
		contract.OpAnd, contract.OpOr:
		t = boolTy
	}
	return contract.Binary{Op: op, Left: l, Right: r, Ty: t}, nil
}

// field projects by name or position; a variant may also be named.
func (d *decoder) field(n *yaml.Node, env map[string]*ty.Ty) (contract.Expr, error) {
	m, err := fields(n)
	if err != nil {
		return nil, err
	}
	if err := needKeys(n, m, "of", "field"); err != nil {
		return nil, err
	}
	operand, err := d.expr(m["of"], env)
	if err != nil {
		return nil, err
	}
	ot := operand.Type()
	switch ot.Kind {
	case ty.Tuple:
		f, err := strconv.Atoi(m["field"].Value)
		if err != nil || f < 0 || f >= len(ot.Elems) {
			return nil, nodeErr(m["field"], "%s has no field %s", ot, m["field"].Value)
		}
		return contract.Field{Operand: operand, Field: f, Ty: ot.Elems[f]}, nil
	case ty.Adt:
	default:
		return nil, nodeErr(n, "field of %s, which is neither a struct, an enum nor a tuple", ot)
	}

	def := ot.Adt
	v := 0
	if vn, ok := m["variant"]; ok {
		v = variantIndex(def, vn.Value)
		if v < 0 {
			return nil, nodeErr(vn, "%s has no variant %s", def.Path, vn.Value)
		}
	}
	f := def.FieldIndex(v, m["field"].Value)
	if f < 0 {
		if i, err := strconv.Atoi(m["field"].Value); err == nil {
			f = i
		}
	}
	ft, err := def.FieldTy(ot, v, f)
	if err != nil {
		return nil, nodeErr(m["field"], "%s", err)
	}
	return contract.Field{Operand: operand, Variant: v, Field: f, Ty: ft}, nil
}

func variantIndex(def *ty.AdtDef, s string) int {
	for i, v := range def.Variants {
		if v.Name == s {
			return i
		}
	}
	if i, err := strconv.Atoi(s); err == nil && i >= 0 && i < len(def.Variants) {
		return i
	}
	return -1
}

func (d *decoder) ifElse(n *yaml.Node, env map[string]*ty.Ty) (contract.Expr, error) {
	m, err := fields(n)
	if err != nil {
		return nil, err
	}
	if err := needKeys(n, m, "cond", "then", "else"); err != nil {
		return nil, err
	}
	var parts [3]contract.Expr
	for i, k := range []string{"cond", "then", "else"} {
		if parts[i], err = d.expr(m[k], env); err != nil {
			return nil, err
		}
	}
	return contract.IfElse{Cond: parts[0], Then: parts[1], Else: parts[2], Ty: parts[1].Type()}, nil
}

func (d *decoder) array(n *yaml.Node, env map[string]*ty.Ty) (contract.Expr, error) {
	if n.Kind != yaml.SequenceNode {
		return nil, nodeErr(n, "!array expects a sequence")
	}
	elems := make([]contract.Expr, len(n.Content))
	for i, c := range n.Content {
		e, err := d.expr(c, env)
		if err != nil {
			return nil, err
		}
		elems[i] = e
	}
	elemTy := ty.Unit()
	if len(elems) > 0 {
		elemTy = elems[0].Type()
	}
	t := &ty.Ty{Kind: ty.Array, Name: strconv.Itoa(len(elems)), Elems: []*ty.Ty{elemTy}}
	return contract.Array{Elems: elems, Ty: t}, nil
}

func (d *decoder) call(n *yaml.Node, env map[string]*ty.Ty) (contract.Expr, error) {
	m, err := fields(n)
	if err != nil {
		return nil, err
	}
	if err := needKeys(n, m, "path", "ty"); err != nil {
		return nil, err
	}
	c := contract.Call{Path: m["path"].Value}
	if c.Ty, err = d.parser.Parse(d.ctx, m["ty"].Value); err != nil {
		return nil, nodeErr(m["ty"], "%s", err)
	}
	if args, ok := m["args"]; ok {
		if args.Kind != yaml.SequenceNode {
			return nil, nodeErr(args, "call arguments must be a sequence")
		}
		for _, a := range args.Content {
			e, err := d.expr(a, env)
			if err != nil {
				return nil, err
			}
			c.Args = append(c.Args, e)
		}
	}
	onContractType := false
	if subst, ok := m["subst"]; ok {
		sm, err := fields(subst)
		if err != nil {
			return nil, err
		}
		c.Subst = make(map[string]*ty.Ty, len(sm))
		for name, tn := range sm {
			t, err := d.parser.Parse(d.ctx, tn.Value)
			if err != nil {
				return nil, nodeErr(tn, "%s", err)
			}
			c.Subst[name] = t
			onContractType = onContractType || t.PeelRefs().IsSet()
		}
	}
	for _, a := range c.Args {
		onContractType = onContractType || a.Type().PeelRefs().IsSet()
	}
	c.Op = contract.Classify(c.Path, onContractType)
	return c, nil
}
