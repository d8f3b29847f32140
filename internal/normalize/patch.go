package normalize

import (
	"fmt"

	"github.com/gnolang/ruslic/internal/ssl"
)

// patcher resolves snapshots and named on-expiry references against the
// chunks of one assertion pair. The result chunk lives in post, every
// other chunk in pre.
type patcher struct {
	pre  ssl.Sigma
	post ssl.Sigma
}

func (p patcher) chunk(field string) (*ssl.SApp, error) {
	s := p.pre
	if field == ssl.ResultChunk {
		s = p.post
	}
	app := s.Find(field)
	if app == nil {
		return nil, fmt.Errorf("%w: no chunk %s in %s", ErrMalformed, field, s)
	}
	return app, nil
}

func (p patcher) patch(e ssl.Expr) (ssl.Expr, error) {
	var err error
	out := ssl.Map(e, func(e ssl.Expr) ssl.Expr {
		if err != nil {
			return e
		}
		var patched ssl.Expr
		switch n := e.(type) {
		case ssl.Snap:
			patched, err = p.snap(n)
		case ssl.OnExpiry:
			if n.Resolved {
				return e
			}
			patched, err = p.resolve(n)
		default:
			return e
		}
		if err != nil {
			return e
		}
		return patched
	})
	return out, err
}

// snap expands a snapshot into the tuple of the chunk's value arguments.
// Mutable borrows the selector stack leaves open are enumerated: the
// result then holds one tuple per way of filling them.
func (p patcher) snap(s ssl.Snap) (ssl.Expr, error) {
	app, err := p.chunk(s.Field)
	if err != nil {
		return nil, err
	}
	missing := app.Ty.MutBorrows() - len(s.Futs)
	if missing < 0 {
		return nil, fmt.Errorf("%w: %s selects %d borrows of %s, which has %d", ErrMalformed, s, len(s.Futs), s.Field, app.Ty.MutBorrows())
	}
	fills := futureFills(missing)
	tuples := make([]ssl.Expr, 0, len(fills))
	for _, fill := range fills {
		futs := append(append([]bool(nil), s.Futs...), fill...)
		var elems []ssl.Expr
		for idx, a := range app.Ty.Args {
			if a.Target.Kind == ssl.KindLft {
				continue
			}
			if ssl.AllCurrent(futs) {
				elems = append(elems, ssl.Var{Name: a.Name})
				continue
			}
			elems = append(elems, ssl.OnExpiry{
				Futs:     futs,
				Kind:     a.Target.Kind,
				Field:    s.Field,
				Arg:      a.Name,
				Index:    idx,
				Resolved: true,
			})
		}
		tuples = append(tuples, ssl.Tuple{Elems: elems})
	}
	if missing == 0 {
		return tuples[0], nil
	}
	return ssl.Tuple{Elems: tuples}, nil
}

// resolve replaces the argument name of an on-expiry reference with its
// position in the normalized chunk.
func (p patcher) resolve(o ssl.OnExpiry) (ssl.Expr, error) {
	if ssl.AllCurrent(o.Futs) {
		return nil, fmt.Errorf("%w: %s selects no future value", ErrMalformed, o)
	}
	app, err := p.chunk(o.Field)
	if err != nil {
		return nil, err
	}
	for idx, a := range app.Ty.Args {
		if a.Name == o.Arg {
			o.Index = idx
			o.Resolved = true
			return o, nil
		}
	}
	return nil, fmt.Errorf("%w: %s has no argument %s", ErrMalformed, o.Field, o.Arg)
}

// futureFills lists every selector stack of the given width, counting in
// binary with the first selector as the lowest bit.
func futureFills(width int) [][]bool {
	out := make([][]bool, 0, 1<<width)
	for n := 0; n < 1<<width; n++ {
		fill := make([]bool, width)
		for i := range fill {
			fill[i] = n>>i&1 == 1
		}
		out = append(out, fill)
	}
	return out
}
