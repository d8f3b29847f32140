package types

import (
	"fmt"
	"strings"
)

// Reason enumerates why a function was rejected before synthesis.
type Reason int

const (
	UnnamedArgs Reason = iota
	LateBoundRegion
	RequiresFlag
	PrivateType
	NonExhaustive
	Other
	CharFloat
	ArraySlice
	Closure
	Unsafe
	OtherTy
	ReservedName
)

var reasonNames = [...]string{
	UnnamedArgs:     "UnnamedArgs",
	LateBoundRegion: "LateBoundRegion",
	RequiresFlag:    "RequiresFlag",
	PrivateType:     "PrivateType",
	NonExhaustive:   "NonExhaustive",
	Other:           "Other",
	CharFloat:       "CharFloat",
	ArraySlice:      "ArraySlice",
	Closure:         "Closure",
	Unsafe:          "Unsafe",
	OtherTy:         "OtherTy",
	ReservedName:    "ReservedName",
}

func (r Reason) String() string {
	if r < 0 || int(r) >= len(reasonNames) {
		return "?"
	}
	return reasonNames[r]
}

func (r Reason) MarshalText() ([]byte, error) {
	if r < 0 || int(r) >= len(reasonNames) {
		return nil, fmt.Errorf("unknown reason %d", int(r))
	}
	return []byte(reasonNames[r]), nil
}

func (r *Reason) UnmarshalText(b []byte) error {
	for i, name := range reasonNames {
		if name == string(b) {
			*r = Reason(i)
			return nil
		}
	}
	return fmt.Errorf("unknown reason %q", string(b))
}

// Unsupported is a recoverable translation-time rejection. InMain reports
// whether it was raised by the function being synthesized rather than by a
// supporting signature.
type Unsupported struct {
	InMain bool   `json:"in_main"`
	Reason Reason `json:"reason"`
}

func (u *Unsupported) Error() string {
	where := "supporting signature"
	if u.InMain {
		where = "synthesized function"
	}
	return fmt.Sprintf("unsupported: %s (%s)", u.Reason, where)
}

// Kind is the kind of a synthesis outcome.
type Kind int

const (
	KindUnsupported Kind = iota
	KindUnsolvable
	KindTimeout
	KindSolved
)

func (k Kind) String() string {
	switch k {
	case KindUnsupported:
		return "Unsupported"
	case KindUnsolvable:
		return "Unsolvable"
	case KindTimeout:
		return "Timeout"
	case KindSolved:
		return "Solved"
	default:
		return "?"
	}
}

// SynthesisResult is the outcome for one top-level function.
type SynthesisResult struct {
	IsTrivial bool `json:"is_trivial"`
	Kind      Kind `json:"kind"`

	Unsupported  *Unsupported `json:"unsupported,omitempty"`  // valid for KindUnsupported
	UnsolvableMs uint64       `json:"unsolvable_ms,omitempty"` // valid for KindUnsolvable
	Solved       *Solved      `json:"solved,omitempty"`       // valid for KindSolved
}

func NewUnsupported(isTrivial bool, u *Unsupported) SynthesisResult {
	return SynthesisResult{IsTrivial: isTrivial, Kind: KindUnsupported, Unsupported: u}
}

func NewUnsolvable(isTrivial bool, ms uint64) SynthesisResult {
	return SynthesisResult{IsTrivial: isTrivial, Kind: KindUnsolvable, UnsolvableMs: ms}
}

func NewTimeout(isTrivial bool) SynthesisResult {
	return SynthesisResult{IsTrivial: isTrivial, Kind: KindTimeout}
}

func NewSolved(isTrivial bool, s *Solved) SynthesisResult {
	return SynthesisResult{IsTrivial: isTrivial, Kind: KindSolved, Solved: s}
}

func (r SynthesisResult) String() string {
	switch r.Kind {
	case KindUnsupported:
		return fmt.Sprintf("Unsupported(%s)", r.Unsupported.Reason)
	case KindUnsolvable:
		return fmt.Sprintf("Unsolvable(%dms)", r.UnsolvableMs)
	case KindSolved:
		return fmt.Sprintf("Solved(%d solutions, %dms)", len(r.Solved.Solutions), r.Solved.ExecTime)
	default:
		return r.Kind.String()
	}
}

// PureFnUse records whether a pure function used by a specification is
// executable and the size of its contract.
type PureFnUse struct {
	Executable bool `json:"executable"`
	ASTNodes   int  `json:"ast_nodes"`
}

// UsedPureFns maps a pure function path to its usage record.
type UsedPureFns map[string]PureFnUse

type Solved struct {
	ExecTime  uint64      `json:"exec_time"`
	SynthAST  int         `json:"synth_ast"`
	PureFnAST UsedPureFns `json:"pure_fn_ast"`
	Solutions []Solution  `json:"slns"`
}

type Solution struct {
	Code           string `json:"code"`
	Loc            int    `json:"loc"`
	SynthTime      uint64 `json:"synth_time"`
	ASTNodes       uint64 `json:"ast_nodes"`
	ASTNodesUnsimp uint64 `json:"ast_nodes_unsimp"`
	RuleApps       uint64 `json:"rule_apps"`
	Idx            int    `json:"idx"`
}

// Body returns the solution's function body: the lines following the
// signature line, without the trailing statistics.
func (s Solution) Body() string {
	lines := strings.Split(s.Code, "\n")
	var b strings.Builder
	b.WriteString("\n")
	for i := 1; i <= s.Loc && i < len(lines); i++ {
		b.WriteString(lines[i])
		b.WriteString("\n")
	}
	return b.String()
}
