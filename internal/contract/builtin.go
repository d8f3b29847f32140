package contract

import "strings"

// Builtin classifies a call site once, when the contract is elaborated.
type Builtin int

const (
	// BuiltinNone is a call to a user pure function.
	BuiltinNone Builtin = iota
	BuiltinSnap
	BuiltinSetConstruct
	BuiltinSetContains
	BuiltinAdd
	BuiltinSub
	BuiltinEq
	BuiltinGe
	BuiltinLe
	BuiltinGt
	BuiltinLt
	// BuiltinUnknown is a contract library function without a translation.
	BuiltinUnknown
)

func (b Builtin) String() string {
	switch b {
	case BuiltinNone:
		return "pure"
	case BuiltinSnap:
		return "snap"
	case BuiltinSetConstruct:
		return "set_construct"
	case BuiltinSetContains:
		return "set_contains"
	case BuiltinAdd:
		return "add"
	case BuiltinSub:
		return "sub"
	case BuiltinEq:
		return "eq"
	case BuiltinGe:
		return "ge"
	case BuiltinLe:
		return "le"
	case BuiltinGt:
		return "gt"
	case BuiltinLt:
		return "lt"
	default:
		return "unknown"
	}
}

const contractsCrate = "russol_contracts::"

var builtinPaths = map[string]Builtin{
	"russol_contracts::Snapshotable::snap": BuiltinSnap,
	"russol_contracts::Set::new":           BuiltinSetConstruct,
}

// Operator trait methods are builtins only when applied to contract library
// types (snapshots and sets).
var operatorPaths = map[string]Builtin{
	"std::ops::Add::add":       BuiltinAdd,
	"std::ops::Sub::sub":       BuiltinSub,
	"std::ops::Index::index":   BuiltinSetContains,
	"std::cmp::PartialEq::eq":  BuiltinEq,
	"std::cmp::PartialOrd::ge": BuiltinGe,
	"std::cmp::PartialOrd::le": BuiltinLe,
	"std::cmp::PartialOrd::gt": BuiltinGt,
	"std::cmp::PartialOrd::lt": BuiltinLt,
}

// Classify resolves a call path. onContractType reports whether any of the
// call's type arguments is a contract library type.
func Classify(path string, onContractType bool) Builtin {
	if b, ok := builtinPaths[path]; ok {
		return b
	}
	if strings.HasPrefix(path, "russol_contracts::Set::") && strings.HasSuffix(path, "::new") {
		return BuiltinSetConstruct
	}
	if strings.HasPrefix(path, contractsCrate) {
		return BuiltinUnknown
	}
	if onContractType {
		if b, ok := operatorPaths[path]; ok {
			return b
		}
		return BuiltinUnknown
	}
	return BuiltinNone
}

// BinOp returns the operator a comparison or arithmetic builtin lowers to.
func (b Builtin) BinOp() (BinOp, bool) {
	switch b {
	case BuiltinAdd:
		return OpAdd, true
	case BuiltinSub:
		return OpSub, true
	case BuiltinEq:
		return OpEq, true
	case BuiltinGe:
		return OpGe, true
	case BuiltinLe:
		return OpLe, true
	case BuiltinGt:
		return OpGt, true
	case BuiltinLt:
		return OpLt, true
	}
	return 0, false
}
