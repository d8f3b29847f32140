package translate

import (
	"errors"

	"github.com/gnolang/ruslic/internal/contract"
	"github.com/gnolang/ruslic/internal/normalize"
	"github.com/gnolang/ruslic/internal/ssl"
	"github.com/gnolang/ruslic/internal/types"
)

// Program translates goal, the trait methods its types need and the
// supporting functions it may call into one normalized program.
//
// Generic supporting functions are instantiated for every substitution that
// matches types reachable from goal. Trait methods that cannot be
// represented are left out; any other failure rejects the goal.
func Program(goal *contract.FnSig, pure contract.PureFns, externs, traitFns []*contract.FnSig, opts Options) (*ssl.Program, error) {
	b := newBuilder(opts, pure)
	main, err := b.signature(goal, true)
	if err != nil {
		return nil, err
	}

	var sigs []*ssl.Signature
	for _, fn := range traitFns {
		t, err := b.signature(fn, false)
		if err != nil {
			var u *types.Unsupported
			if errors.As(err, &u) {
				continue
			}
			return nil, err
		}
		sigs = append(sigs, t.sig)
	}
	for _, fn := range externs {
		for _, inst := range instantiations(fn, main.reachable) {
			t, err := b.signature(inst.sig, false)
			if err != nil {
				return nil, err
			}
			t.sig.UniqueName += "_" + inst.name
			sigs = append(sigs, t.sig)
		}
	}

	prog := &ssl.Program{
		Preds:     b.preds,
		Externs:   sigs,
		Goal:      main.sig,
		ASTNodes:  goal.ASTNodes,
		PureFnAST: pureFnUsage(main.used),
	}
	if err := normalize.Program(prog); err != nil {
		return nil, err
	}
	return prog, nil
}

func pureFnUsage(used []*contract.PureFn) types.UsedPureFns {
	out := make(types.UsedPureFns, len(used))
	for _, fn := range used {
		out[fn.Path] = types.PureFnUse{Executable: fn.Executable, ASTNodes: fn.ASTNodes}
	}
	return out
}
