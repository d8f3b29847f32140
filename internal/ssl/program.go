package ssl

import (
	"strings"

	"github.com/gnolang/ruslic/internal/types"
)

// RegionRel states `Sub <= Sup`: Sub does not outlive Sup.
type RegionRel struct {
	Sub string
	Sup string
}

// Signature is a function specification: a synthesis goal or a trusted
// supporting function.
type Signature struct {
	Trivial    bool
	RegionRels []RegionRel
	Pre        Assertion
	Post       Assertion
	UniqueName string
	FnName     string
}

func (s *Signature) String() string {
	var b strings.Builder
	b.WriteString("{\n  ")
	if len(s.RegionRels) > 0 {
		for i, rel := range s.RegionRels {
			if i > 0 {
				b.WriteString("&& ")
			}
			b.WriteString("&" + trimQuote(rel.Sub) + " <= &" + trimQuote(rel.Sup) + " ")
		}
		if len(s.Pre.Phi) == 0 {
			b.WriteString(";\n  ")
		} else {
			b.WriteString("&&\n  ")
		}
	}
	b.WriteString(s.Pre.Phi.String() + " " + s.Pre.Sigma.String() + "\n}\n")
	b.WriteString(s.UniqueName + " \"" + s.FnName + "\"\n")
	b.WriteString("{\n  " + s.Post.Phi.String() + " " + s.Post.Sigma.String() + "\n}\n")
	return b.String()
}

// Program is everything the synthesizer needs for one goal.
type Program struct {
	Preds     PredMap
	Externs   []*Signature
	Goal      *Signature
	ASTNodes  int
	PureFnAST types.UsedPureFns
}

// String renders predicates in name order, then supporting signatures, then
// the goal, each followed by a blank line.
func (p *Program) String() string {
	var b strings.Builder
	for _, name := range p.Preds.Names() {
		b.WriteString(p.Preds[name].String())
		b.WriteString("\n")
	}
	for _, sig := range p.Externs {
		b.WriteString(sig.String())
		b.WriteString("\n")
	}
	b.WriteString(p.Goal.String())
	b.WriteString("\n")
	return b.String()
}
