package translate

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnolang/ruslic/internal/contract"
	"github.com/gnolang/ruslic/internal/ssl"
	"github.com/gnolang/ruslic/internal/ty"
	"github.com/gnolang/ruslic/internal/types"
)

var (
	boolTy  = ty.Prim("bool")
	u32     = ty.Prim("u32")
	i32     = ty.Prim("i32")
	regionA = ty.Region{Kind: ty.EarlyBound, Name: "'a"}
	anon0   = ty.Region{Kind: ty.FreeAnon, Index: 0}
)

func accountTy() *ty.Ty {
	def := &ty.AdtDef{
		Index: 7,
		Name:  "Account",
		Path:  "Account",
		Local: true,
		Variants: []ty.Variant{{
			Name:   "Account",
			Ctor:   ty.CtorFictive,
			Fields: []ty.Field{{Name: "bal", Ty: u32}},
		}},
	}
	return ty.AdtOf(def, nil)
}

// listTy is `enum List { Nil, Cons(i32, Box<List>) }`.
func listTy() *ty.Ty {
	def := &ty.AdtDef{Index: 3, Name: "List", Path: "List", Local: true, Enum: true}
	list := ty.AdtOf(def, nil)
	def.Variants = []ty.Variant{
		{Name: "Nil", Ctor: ty.CtorConst},
		{Name: "Cons", Ctor: ty.CtorFn, Fields: []ty.Field{
			{Name: "0", Ty: i32},
			{Name: "1", Ty: ty.AdtOf(ty.BoxDef(), nil, list)},
		}},
	}
	return list
}

func wrapperOf(arg *ty.Ty) *ty.Ty {
	def := &ty.AdtDef{
		Index:    5,
		Name:     "Wrapper",
		Path:     "Wrapper",
		Local:    true,
		Generics: []string{"T"},
		Variants: []ty.Variant{{
			Name:   "Wrapper",
			Ctor:   ty.CtorFictive,
			Fields: []ty.Field{{Name: "inner", Ty: ty.ParamTy("T")}},
		}},
	}
	return ty.AdtOf(def, nil, arg)
}

// balanceFn is `Account::balance(&self) -> u32 { self.bal }` with the
// given trusted postcondition.
func balanceFn(account *ty.Ty, ensures contract.Expr) *contract.PureFn {
	shared := ty.RefTo(anon0, false, account)
	return &contract.PureFn{
		Name:     "balance",
		Path:     "Account::balance",
		ArgNames: []string{"self"},
		Body: contract.Field{
			Operand: contract.Deref{Operand: contract.Var{Name: "self", Ty: shared}, Ty: account},
			Ty:      u32,
		},
		Ensures:    ensures,
		Executable: true,
		ASTNodes:   3,
	}
}

// balanceOf calls Account::balance on the current or future value of self.
func balanceOf(self contract.Var, account *ty.Ty, future bool) contract.Expr {
	return contract.Call{
		Path: "Account::balance",
		Args: []contract.Expr{contract.Borrow{
			Operand: contract.Deref{Operand: self, Future: future, Ty: account},
			Ty:      ty.RefTo(anon0, false, account),
		}},
		Ty: u32,
	}
}

// bankProgram translates `Account::<name>(&mut self, amount: u32)` whose
// postcondition is `balance(^self) == balance(*self) <op> amount`. A
// withdrawal also requires `balance(*self) >= amount`.
func bankProgram(t *testing.T, name string, op contract.BinOp) *ssl.Program {
	t.Helper()
	account := accountTy()
	mut := ty.RefTo(regionA, true, account)
	pure := contract.PureFns{"Account::balance": balanceFn(account, nil)}

	self := contract.Var{Name: "self", Ty: mut}
	amount := contract.Var{Name: "amount", Ty: u32}
	goal := &contract.FnSig{
		Name: name,
		Path: "Account::" + name,
		Args: []contract.Arg{{Name: "self", Ty: mut}, {Name: "amount", Ty: u32}},
		Ret:  ty.Unit(),
		Ensures: contract.Binary{
			Op:    contract.OpEq,
			Left:  balanceOf(self, account, true),
			Right: contract.Binary{Op: op, Left: balanceOf(self, account, false), Right: amount, Ty: u32},
			Ty:    boolTy,
		},
		ASTNodes: 11,
	}
	if op == contract.OpSub {
		goal.Requires = contract.Binary{Op: contract.OpGe, Left: balanceOf(self, account, false), Right: amount, Ty: boolTy}
	}
	prog, err := Program(goal, pure, nil, nil, Options{})
	require.NoError(t, err)
	return prog
}

func withdrawProgram(t *testing.T) *ssl.Program {
	t.Helper()
	return bankProgram(t, "withdraw", contract.OpSub)
}

func TestProgramAccountWithdraw(t *testing.T) {
	t.Parallel()
	prog := withdrawProgram(t)
	goal := prog.Goal

	assert.Equal(t, "Account__withdraw", goal.UniqueName)
	assert.Equal(t, "withdraw", goal.FnName)
	assert.False(t, goal.Trivial)

	assert.Equal(t, "(balance_result_fself >= (snap_famount)) ;\n  ", goal.Pre.Phi.String())
	assert.Equal(t, "fself: &a mut P7_Account_(snap_fself, balance_result_fself) **\n   famount: Pu32(snap_famount)", goal.Pre.Sigma.String())
	assert.Equal(t, "(^ (int fself)[1] == (balance_result_fself - (snap_famount))) ;\n  ", goal.Post.Phi.String())
	assert.Equal(t, "emp", goal.Post.Sigma.String())

	want := "predicate P7_Account_(int snap, int balance_result) \"Account\" {\n" +
		"| true => \"Account\" {\n" +
		"  (balance_result == snap_f0bal) &&\n" +
		"  (snap == (0, (snap_f0bal))) ;\n" +
		"   f0bal: Pu32(snap_f0bal)\n" +
		" }\n" +
		"}\n"
	assert.Equal(t, want, prog.Preds["P7_Account_"].String())

	assert.Equal(t, 11, prog.ASTNodes)
	assert.Equal(t, types.UsedPureFns{"Account::balance": {Executable: true, ASTNodes: 3}}, prog.PureFnAST)
}

func TestProgramAccountDeposit(t *testing.T) {
	t.Parallel()
	goal := bankProgram(t, "deposit", contract.OpAdd).Goal

	assert.Equal(t, "Account__deposit", goal.UniqueName)
	assert.Equal(t, "deposit", goal.FnName)
	assert.Empty(t, goal.Pre.Phi)
	assert.Equal(t, "fself: &a mut P7_Account_(snap_fself, balance_result_fself) **\n   famount: Pu32(snap_famount)", goal.Pre.Sigma.String())
	assert.Equal(t, "(^ (int fself)[1] == (balance_result_fself + (snap_famount))) ;\n  ", goal.Post.Phi.String())
}

func TestPureCallPostconditionUnderBranch(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		inThen   bool
		wantPre  string
		wantPost string
	}{
		{
			name:     "then branch",
			inThen:   true,
			wantPre:  "((snap_fflag) ? (balance_result_fself > 0) : true) ;\n  ",
			wantPost: "((snap_fflag) ? (balance_result_fself == 1) : true) ;\n  ",
		},
		{
			name:     "else branch",
			inThen:   false,
			wantPre:  "((snap_fflag) ? true : (balance_result_fself > 0)) ;\n  ",
			wantPost: "((snap_fflag) ? true : (balance_result_fself == 1)) ;\n  ",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			account := accountTy()
			shared := ty.RefTo(anon0, false, account)
			positive := contract.Binary{
				Op:    contract.OpGt,
				Left:  contract.Var{Name: contract.ResultName, Ty: u32},
				Right: contract.IntLit(0, u32),
				Ty:    boolTy,
			}
			pure := contract.PureFns{"Account::balance": balanceFn(account, positive)}

			self := contract.Var{Name: "self", Ty: shared}
			isOne := contract.Binary{Op: contract.OpEq, Left: balanceOf(self, account, false), Right: contract.IntLit(1, u32), Ty: boolTy}
			cond := contract.IfElse{Cond: contract.Var{Name: "flag", Ty: boolTy}, Then: contract.BoolLit(true), Else: isOne, Ty: boolTy}
			if tt.inThen {
				cond.Then, cond.Else = isOne, contract.BoolLit(true)
			}
			goal := &contract.FnSig{
				Name:    "check",
				Path:    "check",
				Args:    []contract.Arg{{Name: "self", Ty: shared}, {Name: "flag", Ty: boolTy}},
				Ret:     ty.Unit(),
				Ensures: cond,
			}
			prog, err := Program(goal, pure, nil, nil, Options{})
			require.NoError(t, err)
			assert.Equal(t, tt.wantPre, prog.Goal.Pre.Phi.String())
			assert.Equal(t, tt.wantPost, prog.Goal.Post.Phi.String())
		})
	}
}

func TestProgramSetMembership(t *testing.T) {
	t.Parallel()
	account := accountTy()
	shared := ty.RefTo(anon0, false, account)
	setTy := ty.AdtOf(&ty.AdtDef{Index: 9, Name: "Set", Path: "russol_contracts::Set"}, nil)
	x := contract.Var{Name: "x", Ty: i32}
	y := contract.Var{Name: "y", Ty: i32}
	ref := func(v contract.Var) contract.Expr {
		return contract.Borrow{Operand: v, Ty: ty.RefTo(anon0, false, i32)}
	}
	newSet := func(arg contract.Expr) contract.Expr {
		return contract.Call{Path: "russol_contracts::Set::new", Op: contract.BuiltinSetConstruct, Args: []contract.Expr{arg}, Ty: setTy}
	}
	contains := func(set contract.Expr) contract.Call {
		return contract.Call{Path: "russol_contracts::Set::contains", Op: contract.BuiltinSetContains, Args: []contract.Expr{set, x}, Ty: boolTy}
	}

	tests := []struct {
		name    string
		ensures contract.Expr
		want    string
	}{
		{
			name:    "member of reference array",
			ensures: contains(newSet(contract.Array{Elems: []contract.Expr{ref(x), ref(y)}})),
			want:    "((snap_fx) in {(snap_fx), (snap_fy)})",
		},
		{
			name:    "element is not a reference",
			ensures: contains(newSet(contract.Array{Elems: []contract.Expr{ref(x), y}})),
		},
		{
			name:    "argument is not an array literal",
			ensures: contains(newSet(x)),
		},
		{
			name: "membership where a value is projected",
			ensures: contract.Binary{
				Op: contract.OpEq,
				Left: contract.Call{
					Path: "Account::balance",
					Args: []contract.Expr{contract.Borrow{Operand: contains(newSet(contract.Array{Elems: []contract.Expr{ref(x)}})), Ty: shared}},
					Ty:   u32,
				},
				Right: contract.IntLit(0, u32),
				Ty:    boolTy,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			goal := &contract.FnSig{
				Name:    "f",
				Path:    "f",
				Args:    []contract.Arg{{Name: "self", Ty: shared}, {Name: "x", Ty: i32}, {Name: "y", Ty: i32}},
				Ret:     ty.Unit(),
				Ensures: tt.ensures,
			}
			pure := contract.PureFns{"Account::balance": balanceFn(account, nil)}
			prog, err := Program(goal, pure, nil, nil, Options{})
			if tt.want == "" {
				assert.ErrorIs(t, err, ErrContract)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want+" ;\n  ", prog.Goal.Post.Phi.String())
		})
	}
}

func TestSameNamedPureFunctionsOnOneType(t *testing.T) {
	t.Parallel()
	account := accountTy()
	shared := ty.RefTo(anon0, false, account)
	audited := balanceFn(account, nil)
	audited.Path = "Audit::balance"
	pure := contract.PureFns{"Account::balance": balanceFn(account, nil), "Audit::balance": audited}

	self := contract.Var{Name: "self", Ty: shared}
	other := balanceOf(self, account, false).(contract.Call)
	other.Path = "Audit::balance"
	goal := &contract.FnSig{
		Name:    "f",
		Path:    "f",
		Args:    []contract.Arg{{Name: "self", Ty: shared}},
		Ret:     ty.Unit(),
		Ensures: contract.Binary{Op: contract.OpEq, Left: balanceOf(self, account, false), Right: other, Ty: boolTy},
	}
	_, err := Program(goal, pure, nil, nil, Options{})
	var u *types.Unsupported
	require.True(t, errors.As(err, &u))
	assert.Equal(t, types.Unsupported{InMain: true, Reason: types.ReservedName}, *u)
}

func TestFieldsNamedLikeInternalParameters(t *testing.T) {
	t.Parallel()
	def := &ty.AdtDef{
		Index: 4,
		Name:  "Tx",
		Path:  "Tx",
		Local: true,
		Variants: []ty.Variant{{
			Name:   "Tx",
			Ctor:   ty.CtorFictive,
			Fields: []ty.Field{{Name: "disc", Ty: u32}, {Name: "snap", Ty: u32}},
		}},
	}
	goal := &contract.FnSig{Name: "f", Path: "f", Args: []contract.Arg{{Name: "tx", Ty: ty.AdtOf(def, nil)}}, Ret: ty.Unit()}
	prog, err := Program(goal, nil, nil, nil, Options{})
	require.NoError(t, err)

	clause := prog.Preds["P4_Tx_"].Clauses[0]
	assert.NotNil(t, clause.Assn.Sigma.Find("f0disc"))
	assert.NotNil(t, clause.Assn.Sigma.Find("f0snap"))
}

func listLenGoal(list *ty.Ty, ensures contract.Expr, ret *ty.Ty) *contract.FnSig {
	return &contract.FnSig{
		Name:    "len",
		Path:    "List::len",
		Args:    []contract.Arg{{Name: "self", Ty: ty.RefTo(anon0, false, list)}},
		Ret:     ret,
		Ensures: ensures,
	}
}

func TestProgramRecursiveList(t *testing.T) {
	t.Parallel()
	prog, err := Program(listLenGoal(listTy(), nil, ty.Prim("usize")), nil, nil, nil, Options{})
	require.NoError(t, err)

	list := prog.Preds["P3_List_"]
	require.NotNil(t, list)
	require.Len(t, list.Clauses, 2)

	nilClause, cons := list.Clauses[0], list.Clauses[1]
	assert.Equal(t, "List::Nil", nilClause.Name)
	assert.Equal(t, "List::Cons", cons.Name)
	assert.Equal(t, "(snap_fdisc == 0)", nilClause.Selector.String())
	assert.Equal(t, "(snap_fdisc == 1)", cons.Selector.String())

	var fields []string
	for _, app := range cons.Assn.Sigma {
		fields = append(fields, app.Field)
	}
	assert.Equal(t, []string{"fdisc", "f1_0", "f1_1"}, fields)
	assert.True(t, cons.Assn.Sigma[0].Private)
	assert.Equal(t, "P1_Box_P3_List__", cons.Assn.Sigma[2].Ty.Pred)

	box := prog.Preds["P1_Box_P3_List__"]
	require.NotNil(t, box)
	require.Len(t, box.Clauses, 1)
	assert.Equal(t, "Box::new", box.Clauses[0].Name)
	assert.Equal(t, "P3_List_", box.Clauses[0].Assn.Sigma[0].Ty.Pred)

	assert.Equal(t, "fself: &anon0 P3_List_(snap_fself)", prog.Goal.Pre.Sigma.String())
	assert.Equal(t, "fresult: Pusize(snap_fresult)", prog.Goal.Post.Sigma.String())
	assert.True(t, prog.Goal.Trivial)
}

func TestProgramDiscriminantIsUniform(t *testing.T) {
	t.Parallel()
	list := listTy()
	self := contract.Var{Name: "self", Ty: ty.RefTo(anon0, false, list)}
	isize := ty.Prim("isize")
	ensures := contract.Binary{
		Op:   contract.OpEq,
		Left: contract.Var{Name: contract.ResultName, Ty: boolTy},
		Right: contract.Binary{
			Op:    contract.OpEq,
			Left:  contract.Disc{Operand: contract.Deref{Operand: self, Ty: list}, Ty: isize},
			Right: contract.IntLit(1, isize),
			Ty:    boolTy,
		},
		Ty: boolTy,
	}
	prog, err := Program(listLenGoal(list, ensures, boolTy), nil, nil, nil, Options{})
	require.NoError(t, err)

	pred := prog.Preds["P3_List_"]
	assert.True(t, pred.Params.Contains(ssl.Param{Kind: ssl.KindInt, Name: "snap_fdisc"}))
	for _, c := range pred.Clauses {
		disc := c.Assn.Sigma.Find("fdisc")
		require.NotNil(t, disc)
		assert.Equal(t, "snap_fdisc", disc.Ty.Args[0].Name)
	}
	assert.Equal(t, "((snap_fresult) == (snap_fdisc_fself == 1)) ;\n  ", prog.Goal.Post.Phi.String())
}

func TestProgramLiteralRoundTrip(t *testing.T) {
	t.Parallel()
	x := contract.Var{Name: "x", Ty: i32}
	goal := &contract.FnSig{
		Name:     "id",
		Path:     "id",
		Args:     []contract.Arg{{Name: "x", Ty: i32}},
		Ret:      ty.Unit(),
		Requires: contract.Binary{Op: contract.OpEq, Left: x, Right: contract.IntLit(5, i32), Ty: boolTy},
	}
	prog, err := Program(goal, nil, nil, nil, Options{})
	require.NoError(t, err)

	assert.Equal(t, "((snap_fx) == 5) ;\n  ", prog.Goal.Pre.Phi.String())
	assert.Equal(t, "fx: Pi32(snap_fx)", prog.Goal.Pre.Sigma.String())
	assert.Empty(t, prog.Goal.Post.Phi)
}

func TestProgramArgumentsMatchParameters(t *testing.T) {
	t.Parallel()
	listProg, err := Program(listLenGoal(listTy(), nil, ty.Prim("usize")), nil, nil, nil, Options{})
	require.NoError(t, err)

	for name, prog := range map[string]*ssl.Program{"account": withdrawProgram(t), "list": listProg} {
		var sigmas []ssl.Sigma
		for _, pred := range prog.Preds {
			for _, c := range pred.Clauses {
				sigmas = append(sigmas, c.Assn.Sigma)
			}
		}
		for _, sig := range append(prog.Externs, prog.Goal) {
			sigmas = append(sigmas, sig.Pre.Sigma, sig.Post.Sigma)
		}
		for _, s := range sigmas {
			for _, app := range s {
				params := prog.Preds[app.Ty.Pred].Params
				require.Len(t, app.Ty.Args, len(params), "%s: %s", name, app)
				for i, a := range app.Ty.Args {
					assert.Equal(t, params[i], a.Target, "%s: %s", name, app)
				}
			}
		}
	}
}

func TestTypeTranslationIsIdempotent(t *testing.T) {
	t.Parallel()
	preds := make(ssl.PredMap)
	tt := newTypeTranslator(Options{}, preds)
	in := ty.RefTo(regionA, true, listTy())

	first, err := tt.translate(in)
	require.NoError(t, err)
	snapshot := make(map[string]string, len(preds))
	for name, p := range preds {
		snapshot[name] = p.String()
	}

	second, err := tt.translate(in)
	require.NoError(t, err)
	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("second translation differs (-first +second):\n%s", diff)
	}
	after := make(map[string]string, len(preds))
	for name, p := range preds {
		after[name] = p.String()
	}
	if diff := cmp.Diff(snapshot, after); diff != "" {
		t.Errorf("predicate map changed (-before +after):\n%s", diff)
	}
	assert.Equal(t, "PRmut3_List_", PredName(in))
	assert.Equal(t, "P3_List_", first.Pred)
}

func TestUnsupportedCharTaggedWithLocation(t *testing.T) {
	t.Parallel()
	char := ty.Prim("char")
	x := contract.Arg{Name: "x", Ty: i32}

	t.Run("goal", func(t *testing.T) {
		t.Parallel()
		goal := &contract.FnSig{Name: "f", Path: "f", Args: []contract.Arg{{Name: "c", Ty: char}}, Ret: ty.Unit()}
		_, err := Program(goal, nil, nil, nil, Options{})
		var u *types.Unsupported
		require.True(t, errors.As(err, &u))
		assert.Equal(t, types.Unsupported{InMain: true, Reason: types.CharFloat}, *u)
	})

	t.Run("extern", func(t *testing.T) {
		t.Parallel()
		goal := &contract.FnSig{Name: "f", Path: "f", Args: []contract.Arg{x}, Ret: ty.Unit()}
		ext := &contract.FnSig{Name: "to_char", Path: "to_char", Args: []contract.Arg{x}, Ret: char}
		_, err := Program(goal, nil, []*contract.FnSig{ext}, nil, Options{})
		var u *types.Unsupported
		require.True(t, errors.As(err, &u))
		assert.Equal(t, types.Unsupported{InMain: false, Reason: types.CharFloat}, *u)
	})

	t.Run("trait method is skipped", func(t *testing.T) {
		t.Parallel()
		goal := &contract.FnSig{Name: "f", Path: "f", Args: []contract.Arg{x}, Ret: ty.Unit()}
		tf := &contract.FnSig{Name: "to_char", Path: "Conv::to_char", Trait: "Conv", Args: []contract.Arg{x}, Ret: char}
		prog, err := Program(goal, nil, nil, []*contract.FnSig{tf}, Options{})
		require.NoError(t, err)
		assert.Empty(t, prog.Externs)
	})
}

func TestProgramExternNaming(t *testing.T) {
	t.Parallel()
	x := contract.Arg{Name: "x", Ty: i32}
	goal := &contract.FnSig{Name: "f", Path: "f", Args: []contract.Arg{x}, Ret: ty.Unit()}
	ext := &contract.FnSig{Name: "default", Path: "Default::default", Trait: "core::default::Default", Args: nil, Ret: i32}
	prog, err := Program(goal, nil, []*contract.FnSig{ext}, nil, Options{})
	require.NoError(t, err)
	require.Len(t, prog.Externs, 1)
	assert.Equal(t, "Default__default_", prog.Externs[0].UniqueName)
	assert.Equal(t, "core::default::Default::default", prog.Externs[0].FnName)
}

func TestContractErrors(t *testing.T) {
	t.Parallel()
	account := accountTy()
	shared := ty.RefTo(anon0, false, account)
	self := contract.Var{Name: "self", Ty: shared}

	tests := []struct {
		name    string
		ensures contract.Expr
	}{
		{
			name:    "future of shared reference",
			ensures: contract.Binary{Op: contract.OpEq, Left: contract.Deref{Operand: self, Future: true, Ty: account}, Right: contract.Deref{Operand: self, Ty: account}, Ty: boolTy},
		},
		{
			name: "unknown pure function",
			ensures: contract.Binary{
				Op:    contract.OpEq,
				Left:  contract.Call{Path: "Account::missing", Args: []contract.Expr{contract.Borrow{Operand: contract.Deref{Operand: self, Ty: account}, Ty: shared}}, Ty: u32},
				Right: contract.IntLit(0, u32),
				Ty:    boolTy,
			},
		},
		{
			name: "pure call without arguments",
			ensures: contract.Binary{
				Op:    contract.OpEq,
				Left:  contract.Call{Path: "zero", Ty: u32},
				Right: contract.IntLit(0, u32),
				Ty:    boolTy,
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			goal := &contract.FnSig{Name: "f", Path: "f", Args: []contract.Arg{{Name: "self", Ty: shared}}, Ret: ty.Unit(), Ensures: tt.ensures}
			_, err := Program(goal, contract.PureFns{}, nil, nil, Options{})
			assert.ErrorIs(t, err, ErrContract)
		})
	}
}

func TestRegionRels(t *testing.T) {
	t.Parallel()
	fn := &contract.FnSig{Outlives: []contract.Outlives{{Sub: "'a", Sup: "'b"}, {Sub: "'b", Sup: "'c"}}}
	assert.Equal(t, []ssl.RegionRel{
		{Sub: "'a", Sup: "'b"},
		{Sub: "'a", Sup: "'c"},
		{Sub: "'b", Sup: "'c"},
	}, regionRels(fn))
}

func TestDisplayName(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		fn     contract.FnSig
		inMain bool
		want   string
	}{
		{"plain", contract.FnSig{Name: "push"}, false, "push"},
		{"method", contract.FnSig{Name: "clone", Trait: "Clone", Args: []contract.Arg{{Name: "self"}}}, false, "clone"},
		{"associated", contract.FnSig{Name: "new", Trait: "Make<T>"}, false, "Make::new"},
		{"local path", contract.FnSig{Name: "new", Trait: "shapes::Make", TraitLocal: true}, false, "crate::shapes::Make::new"},
		{"goal", contract.FnSig{Name: "new", Trait: "Make"}, true, "new"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, displayName(&tt.fn, tt.inMain))
		})
	}
}

func TestInstantiations(t *testing.T) {
	t.Parallel()
	reachable := []*ty.Ty{
		ty.RefTo(anon0, false, wrapperOf(i32)),
		wrapperOf(i32),
		i32,
		wrapperOf(boolTy),
		boolTy,
	}

	t.Run("single parameter", func(t *testing.T) {
		t.Parallel()
		peek := &contract.FnSig{
			Name:     "peek",
			Path:     "Wrapper::peek",
			Args:     []contract.Arg{{Name: "w", Ty: ty.RefTo(regionA, false, wrapperOf(ty.ParamTy("T")))}},
			Ret:      ty.ParamTy("T"),
			Generics: []string{"T"},
		}
		insts := instantiations(peek, reachable)
		require.Len(t, insts, 2)
		assert.Equal(t, "bool", insts[0].name)
		assert.Equal(t, "bool", insts[0].sig.Ret.String())
		assert.Equal(t, "i32", insts[1].name)
		assert.Equal(t, "Wrapper<i32>", insts[1].sig.Args[0].Ty.PeelRefs().String())
	})

	t.Run("two parameters", func(t *testing.T) {
		t.Parallel()
		pair := &contract.FnSig{
			Name: "pair",
			Path: "pair",
			Args: []contract.Arg{{Name: "a", Ty: ty.ParamTy("A")}, {Name: "b", Ty: ty.ParamTy("B")}},
			Ret:  ty.Unit(),
		}
		reachable := []*ty.Ty{i32, boolTy}
		var names []string
		for _, inst := range instantiations(pair, reachable) {
			names = append(names, inst.name)
		}
		assert.Equal(t, []string{"bool_bool", "i32_bool", "bool_i32", "i32_i32"}, names)
	})

	t.Run("no match", func(t *testing.T) {
		t.Parallel()
		vecDef := &ty.AdtDef{Index: 9, Name: "Vec", Path: "std::vec::Vec", Generics: []string{"T"}}
		f := &contract.FnSig{
			Name: "first",
			Path: "first",
			Args: []contract.Arg{{Name: "v", Ty: ty.AdtOf(vecDef, nil, ty.ParamTy("T"))}},
			Ret:  ty.Unit(),
		}
		assert.Empty(t, instantiations(f, reachable))
	})

	t.Run("not generic", func(t *testing.T) {
		t.Parallel()
		f := &contract.FnSig{Name: "g", Path: "g", Args: []contract.Arg{{Name: "x", Ty: i32}}, Ret: ty.Unit()}
		insts := instantiations(f, reachable)
		require.Len(t, insts, 1)
		assert.Equal(t, "", insts[0].name)
		assert.Same(t, f, insts[0].sig)
	})
}

func TestProduct(t *testing.T) {
	t.Parallel()
	assert.Equal(t, [][]int{{}}, product(nil))
	assert.Nil(t, product([]int{2, 0}))
	got := product([]int{2, 3})
	require.Len(t, got, 6)
	assert.Equal(t, []int{0, 0}, got[0])
	assert.Equal(t, []int{1, 0}, got[1])
	assert.Equal(t, []int{0, 1}, got[2])
	assert.Equal(t, []int{1, 2}, got[5])
}

func TestNaming(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "std__vec__Vec_i32", Sanitize("std::vec::Vec<i32>"))
	assert.Equal(t, "a__b", Sanitize("(&'a, b)"))
	assert.Equal(t, "Pi32", PredName(i32))
	assert.Equal(t, "PR5_Wrapper_Pbool_", PredName(ty.RefTo(anon0, false, wrapperOf(boolTy))))
	assert.Equal(t, "0bal", fieldIdent(0, "bal"))
	assert.Equal(t, "1_0", fieldIdent(1, "0"))
}
