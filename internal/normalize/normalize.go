// Package normalize finalizes a translated program. Predicate parameter
// lists grow while contracts are translated, so heap chunks created early
// pass too few arguments; normalization brings every chunk in line with its
// predicate and replaces snapshots with explicit argument tuples.
package normalize

import (
	"errors"
	"fmt"

	"github.com/gnolang/ruslic/internal/ssl"
)

// ErrMalformed reports a program that violates the translator's output
// invariants.
var ErrMalformed = errors.New("malformed program")

// env is the frozen parameter list of every predicate.
type env map[string]ssl.Params

// Program normalizes p in place.
func Program(p *ssl.Program) error {
	sigs := make(env, len(p.Preds))
	for name, pred := range p.Preds {
		sigs[name] = append(ssl.Params(nil), pred.Params...)
	}
	for _, name := range p.Preds.Names() {
		if err := predicate(p.Preds[name], sigs); err != nil {
			return fmt.Errorf("predicate %s: %w", name, err)
		}
	}
	if err := signature(p.Goal, sigs); err != nil {
		return fmt.Errorf("%s: %w", p.Goal.FnName, err)
	}
	for _, sig := range p.Externs {
		if err := signature(sig, sigs); err != nil {
			return fmt.Errorf("%s: %w", sig.FnName, err)
		}
	}
	return nil
}

func sigma(s ssl.Sigma, sigs env) error {
	for _, app := range s {
		params, ok := sigs[app.Ty.Pred]
		if !ok {
			return fmt.Errorf("%w: chunk %s uses unknown predicate %s", ErrMalformed, app.Field, app.Ty.Pred)
		}
		for _, a := range app.Ty.Args {
			if _, ok := params.ByName(a.Target.Name); !ok {
				return fmt.Errorf("%w: chunk %s passes %s, which %s does not declare", ErrMalformed, app.Field, a.Target.Name, app.Ty.Pred)
			}
		}
		app.Normalize(params)
	}
	return nil
}

func predicate(pred *ssl.Predicate, sigs env) error {
	for _, c := range pred.Clauses {
		if err := sigma(c.Assn.Sigma, sigs); err != nil {
			return err
		}
		p := patcher{pre: c.Assn.Sigma}
		for i, e := range c.Assn.Phi {
			patched, err := p.patch(e)
			if err != nil {
				return err
			}
			c.Assn.Phi[i] = patched
		}
		for name, e := range c.Equalities {
			patched, err := p.patch(e)
			if err != nil {
				return err
			}
			c.Equalities[name] = patched
		}
	}
	return nil
}

func signature(s *ssl.Signature, sigs env) error {
	s.Pre.Phi = s.Pre.Phi.WithoutTrue()
	if err := sigma(s.Pre.Sigma, sigs); err != nil {
		return err
	}
	s.Post.Phi = s.Post.Phi.WithoutTrue()
	switch {
	case len(s.Post.Sigma) > 1:
		return fmt.Errorf("%w: %d postcondition chunks", ErrMalformed, len(s.Post.Sigma))
	case len(s.Post.Sigma) == 1 && s.Post.Sigma[0].Field != ssl.ResultChunk:
		return fmt.Errorf("%w: postcondition chunk %s", ErrMalformed, s.Post.Sigma[0].Field)
	}
	if err := sigma(s.Post.Sigma, sigs); err != nil {
		return err
	}

	p := patcher{pre: s.Pre.Sigma, post: s.Post.Sigma}
	for _, phi := range []ssl.Phi{s.Pre.Phi, s.Post.Phi} {
		for i, e := range phi {
			patched, err := p.patch(e)
			if err != nil {
				return err
			}
			phi[i] = patched
		}
	}
	return nil
}
