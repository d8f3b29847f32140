package translate

import (
	"sort"
	"strings"

	"github.com/gnolang/ruslic/internal/contract"
	"github.com/gnolang/ruslic/internal/ty"
)

// instance is one concrete instantiation of a generic supporting function.
type instance struct {
	// name is the sanitized substitution, appended to the unique name.
	name string
	sig  *contract.FnSig
}

// instantiations finds the substitutions of fn's generic parameters that
// make each of its argument and return types match some type reachable
// from the synthesis goal, and returns fn instantiated with each.
//
// A signature without parameters yields itself once, with an empty name.
func instantiations(fn *contract.FnSig, reachable []*ty.Ty) []instance {
	fnTys := make([]*ty.Ty, 0, len(fn.Args)+1)
	for _, a := range fn.Args {
		fnTys = append(fnTys, a.Ty)
	}
	fnTys = append(fnTys, fn.Ret)

	var order []string
	candidates := make(map[string][]*ty.Ty)
	for _, ft := range fnTys {
		params := ft.Params()
		if len(params) == 0 {
			continue
		}
		found := make(map[string]map[string]*ty.Ty, len(params))
		for _, p := range params {
			found[p] = make(map[string]*ty.Ty)
		}
		for _, rt := range reachable {
			l, r := ft, rt
			// An argument behind a reference can be created by borrowing.
			for l.Kind == ty.Ref {
				l = l.Inner()
				if r.Kind == ty.Ref {
					r = r.Inner()
				}
			}
			subs := make(map[string]*ty.Ty)
			if !unify(l, r, subs) {
				continue
			}
			for p, t := range subs {
				found[p][t.String()] = t
			}
		}
		for _, p := range params {
			prev, seen := candidates[p]
			if !seen {
				order = append(order, p)
				candidates[p] = sortedTys(found[p])
				continue
			}
			candidates[p] = intersectTys(prev, found[p])
		}
	}

	sizes := make([]int, len(order))
	for i, p := range order {
		sizes[i] = len(candidates[p])
	}
	var out []instance
	for _, combo := range product(sizes) {
		subst := make(map[string]*ty.Ty, len(order))
		names := make([]string, len(order))
		for i, p := range order {
			t := candidates[p][combo[i]]
			subst[p] = t
			names[i] = Sanitize(t.String())
		}
		inst := fn
		if len(subst) > 0 {
			inst = fn.Subst(subst)
		}
		out = append(out, instance{name: strings.Join(names, "_"), sig: inst})
	}
	return out
}

// unify matches pattern l against concrete r, binding l's parameters.
func unify(l, r *ty.Ty, subs map[string]*ty.Ty) bool {
	switch {
	case l.Kind == ty.Param:
		if prev, ok := subs[l.Name]; ok {
			return ty.Equal(prev, r)
		}
		subs[l.Name] = r
		return true
	case l.Kind == ty.Adt && r.Kind == ty.Adt && l.Adt.Path == r.Adt.Path:
		if len(l.Elems) != len(r.Elems) {
			return false
		}
		return unifyAll(l.Elems, r.Elems, subs)
	case l.Kind == ty.Ref && r.Kind == ty.Ref:
		return unify(l.Inner(), r.Inner(), subs)
	case l.Kind == ty.Tuple && r.Kind == ty.Tuple && len(l.Elems) == len(r.Elems):
		return unifyAll(l.Elems, r.Elems, subs)
	}
	return ty.Equal(l, r)
}

func unifyAll(ls, rs []*ty.Ty, subs map[string]*ty.Ty) bool {
	for i := range ls {
		if !unify(ls[i], rs[i], subs) {
			return false
		}
	}
	return true
}

func sortedTys(m map[string]*ty.Ty) []*ty.Ty {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]*ty.Ty, len(keys))
	for i, k := range keys {
		out[i] = m[k]
	}
	return out
}

func intersectTys(prev []*ty.Ty, m map[string]*ty.Ty) []*ty.Ty {
	var out []*ty.Ty
	for _, t := range prev {
		if _, ok := m[t.String()]; ok {
			out = append(out, t)
		}
	}
	return out
}

// product enumerates every index combination below sizes, first position
// fastest. No sizes yields one empty combination; a zero size yields none.
func product(sizes []int) [][]int {
	total := 1
	for _, s := range sizes {
		if s == 0 {
			return nil
		}
		total *= s
	}
	out := make([][]int, 0, total)
	cur := make([]int, len(sizes))
	for {
		out = append(out, append(make([]int, 0, len(cur)), cur...))
		i := 0
		for ; i < len(cur); i++ {
			if cur[i]+1 < sizes[i] {
				cur[i]++
				break
			}
			cur[i] = 0
		}
		if i == len(cur) {
			return out
		}
	}
}
