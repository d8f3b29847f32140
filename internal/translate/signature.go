package translate

import (
	"strings"

	"github.com/gnolang/ruslic/internal/contract"
	"github.com/gnolang/ruslic/internal/ssl"
	"github.com/gnolang/ruslic/internal/ty"
	"github.com/gnolang/ruslic/internal/types"
)

// builder translates the signatures of one program into a shared
// predicate map.
type builder struct {
	opts  Options
	preds ssl.PredMap
	pure  contract.PureFns

	// results records which pure function owns each `<fn>_result`
	// parameter, keyed by predicate and parameter name.
	results map[string]string
}

func newBuilder(opts Options, pure contract.PureFns) *builder {
	return &builder{opts: opts, preds: make(ssl.PredMap), pure: pure, results: make(map[string]string)}
}

type translatedSig struct {
	sig *ssl.Signature
	// reachable lists every type the signature mentions.
	reachable []*ty.Ty
	used      []*contract.PureFn
}

// signature translates fn. Unsupported errors are tagged with inMain.
func (b *builder) signature(fn *contract.FnSig, inMain bool) (*translatedSig, error) {
	out, err := b.translateSig(fn, inMain)
	if err != nil {
		return nil, tagInMain(err, inMain)
	}
	return out, nil
}

func (b *builder) translateSig(fn *contract.FnSig, inMain bool) (*translatedSig, error) {
	for _, a := range fn.Args {
		if a.Name == "" {
			return nil, unsupported(types.UnnamedArgs)
		}
	}
	tt := newTypeTranslator(b.opts, b.preds)

	pre := &ssl.Assertion{}
	for _, a := range fn.Args {
		app, err := tt.sapp(false, a.Name, a.Ty)
		if err != nil {
			return nil, err
		}
		pre.Sigma = append(pre.Sigma, app)
	}

	var used []*contract.PureFn
	x := &exprTranslator{pre: pre, post: &ssl.Assertion{}, preds: b.preds, pure: b.pure, results: b.results, used: &used}
	requires, err := x.translate(fn.Requires, nil, nil)
	if err != nil {
		return nil, err
	}
	pre.Phi = append(pre.Phi, ssl.Flatten(requires)...)

	post := &ssl.Assertion{}
	if !fn.Ret.IsUnit() {
		res, err := tt.sapp(false, contract.ResultName, fn.Ret)
		if err != nil {
			return nil, err
		}
		post.Sigma = ssl.Sigma{res}
	}
	x = &exprTranslator{pre: pre, post: post, preds: b.preds, pure: b.pure, results: b.results, used: &used}
	ensures, err := x.translate(fn.Ensures, nil, nil)
	if err != nil {
		return nil, err
	}
	post.Phi = append(post.Phi, ssl.Flatten(ensures)...)

	return &translatedSig{
		sig: &ssl.Signature{
			Trivial:    fn.IsTrivial(),
			RegionRels: regionRels(fn),
			Pre:        *pre,
			Post:       *post,
			UniqueName: Sanitize(fn.Path),
			FnName:     displayName(fn, inMain),
		},
		reachable: tt.reachable,
		used:      used,
	}, nil
}

// displayName qualifies associated functions of a trait, which cannot be
// called by their bare name from the synthesized body.
func displayName(fn *contract.FnSig, inMain bool) string {
	if inMain || fn.Trait == "" || (len(fn.Args) > 0 && fn.Args[0].Name == "self") {
		return fn.Name
	}
	prefix := ""
	if strings.Contains(fn.Trait, "::") && fn.TraitLocal {
		prefix = "crate::"
	}
	trait, _, _ := strings.Cut(fn.Trait, "<")
	return prefix + trait + "::" + fn.Name
}

func regionRels(fn *contract.FnSig) []ssl.RegionRel {
	regions := fn.FreeRegions()
	var rels []ssl.RegionRel
	for _, l := range regions {
		for _, r := range regions {
			if l != r && fn.SubRegion(l, r) {
				rels = append(rels, ssl.RegionRel{Sub: l, Sup: r})
			}
		}
	}
	return rels
}
