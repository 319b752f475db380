package parser

import (
	"fmt"
	"strings"
)

// resolve is the §4.3 resolution/type-checking pass. It runs after a full
// parse: every procedure signature and every DATA literal is already
// known, so labels, calls, and forward array references resolve in one
// bottom-up walk per procedure. It panics with a *Error on the first
// problem found, matching the parser's own no-recovery behavior.
func resolve(prog *Program, procs *ProcTable) {
	r := &resolver{prog: prog, procs: procs}
	r.resolveProc(prog.Main)
	for _, proc := range prog.Procedures {
		r.resolveProc(proc)
	}
}

type resolver struct {
	prog  *Program
	procs *ProcTable
	proc  *Procedure // procedure currently being resolved
}

func (r *resolver) fail(pos Position, kind ErrorKind, format string, args ...interface{}) {
	panic(NewError(pos, kind, fmt.Sprintf(format, args...)))
}

func (r *resolver) resolveProc(proc *Procedure) {
	r.proc = proc
	for _, s := range proc.Body {
		r.resolveStmt(s)
	}
	r.checkLabelRefs(proc.Body, proc)
}

// scope returns the symbol table a bare variable occurrence resolves
// against: a procedure's own locals (which already holds its params), or
// the program's global table for the synthetic __main procedure. SUB and
// FUNCTION bodies get their own independent variable scope, separate from
// globals and from each other, matching the VarScope taxonomy in §4.3.
func (r *resolver) scope() *SymbolTable {
	if r.proc.Name == "__main" {
		return r.prog.SymbolTable
	}
	return r.proc.Locals
}

func (r *resolver) scopeKind() VarScope {
	if r.proc.Name == "__main" {
		return ScopeGlobal
	}
	return ScopeLocal
}

// define resolves or creates the symbol for a scalar/array occurrence,
// honoring first-mention-wins typing (§3.3).
func (r *resolver) define(name, suffix string, pos Position, isArray bool, dims int) *VarSymbol {
	st := r.scope()
	if sym, ok := st.Lookup(name, suffix); ok {
		if isArray && !sym.IsArray {
			r.fail(pos, ErrorType, "%s%s used as both a scalar and an array", name, suffix)
		}
		if !isArray && sym.IsArray {
			r.fail(pos, ErrorType, "%s%s used as both an array and a scalar", name, suffix)
		}
		return sym
	}
	sym := &VarSymbol{
		Name: name, Suffix: suffix, Type: TypeForSuffix(suffix),
		Scope: r.scopeKind(), IsArray: isArray, ArrayDims: dims, Pos: pos,
	}
	return st.Define(sym)
}

func (r *resolver) checkLabelRefs(body []Stmt, proc *Procedure) {
	for _, s := range body {
		r.checkLabelRefsStmt(s, proc)
	}
}

func (r *resolver) checkLabelRefsStmt(s Stmt, proc *Procedure) {
	switch v := s.(type) {
	case *GotoStmt:
		r.requireLabel(v.Label, v.Pos, proc)
	case *GosubStmt:
		r.requireLabel(v.Label, v.Pos, proc)
	case *OnGotoStmt:
		for _, l := range v.Labels {
			r.requireLabel(l, v.Pos, proc)
		}
	case *IfStmt:
		r.checkLabelRefs(v.Then, proc)
		for _, ei := range v.ElseIfs {
			r.checkLabelRefs(ei.Body, proc)
		}
		r.checkLabelRefs(v.Else, proc)
	case *SingleLineIfStmt:
		r.checkLabelRefs(v.Then, proc)
		r.checkLabelRefs(v.Else, proc)
	case *ForStmt:
		r.checkLabelRefs(v.Body, proc)
	case *WhileStmt:
		r.checkLabelRefs(v.Body, proc)
	case *DoStmt:
		r.checkLabelRefs(v.Body, proc)
	case *SelectCaseStmt:
		for _, arm := range v.Arms {
			r.checkLabelRefs(arm.Body, proc)
		}
		r.checkLabelRefs(v.Default, proc)
	}
}

func (r *resolver) requireLabel(label string, pos Position, proc *Procedure) {
	if _, ok := proc.Labels[label]; !ok {
		r.fail(pos, ErrorResolution, "undefined label %q in %s", label, procDisplayName(proc))
	}
}

func procDisplayName(proc *Procedure) string {
	if proc.Name == "__main" {
		return "the main program"
	}
	return proc.Name
}

// resolveStmt annotates expression types within one statement and walks
// into its nested statement lists, if any.
func (r *resolver) resolveStmt(s Stmt) {
	switch v := s.(type) {
	case *AssignStmt:
		r.resolveLValue(&v.Target)
		vt := r.exprType(v.Value)
		target := r.lvalueType(v.Target)
		v.Value = r.coerceTo(v.Value, vt, target)
		if r.proc.Kind == ProcFunction && strings.EqualFold(v.Target.Name, strings.ToLower(r.proc.Name)) && len(v.Target.Indices) == 0 {
			v.Target.IsFuncRet = true
		}

	case *PrintStmt:
		for i := range v.Items {
			r.exprType(v.Items[i].Value)
		}

	case *FilePrintStmt:
		for i := range v.Items {
			r.exprType(v.Items[i].Value)
		}

	case *InputStmt:
		for i := range v.Targets {
			r.resolveLValue(&v.Targets[i])
		}

	case *FileInputStmt:
		for i := range v.Targets {
			r.resolveLValue(&v.Targets[i])
		}

	case *LineInputStmt:
		r.resolveLValue(&v.Target)
		if r.lvalueType(v.Target) != TypeString {
			r.fail(v.Pos, ErrorType, "LINE INPUT target must be a string variable")
		}

	case *IfStmt:
		r.exprType(v.Cond)
		for _, s := range v.Then {
			r.resolveStmt(s)
		}
		for _, ei := range v.ElseIfs {
			r.exprType(ei.Cond)
			for _, s := range ei.Body {
				r.resolveStmt(s)
			}
		}
		for _, s := range v.Else {
			r.resolveStmt(s)
		}

	case *SingleLineIfStmt:
		r.exprType(v.Cond)
		for _, s := range v.Then {
			r.resolveStmt(s)
		}
		for _, s := range v.Else {
			r.resolveStmt(s)
		}

	case *ForStmt:
		r.resolveLValue(&v.Var)
		vt := r.lvalueType(v.Var)
		if vt == TypeString {
			r.fail(v.Pos, ErrorType, "FOR loop variable must be numeric")
		}
		v.Start = r.coerceTo(v.Start, r.exprType(v.Start), vt)
		v.End = r.coerceTo(v.End, r.exprType(v.End), vt)
		if v.Step != nil {
			v.Step = r.coerceTo(v.Step, r.exprType(v.Step), vt)
		}
		for _, s := range v.Body {
			r.resolveStmt(s)
		}

	case *WhileStmt:
		r.exprType(v.Cond)
		for _, s := range v.Body {
			r.resolveStmt(s)
		}

	case *DoStmt:
		if v.Cond != nil {
			r.exprType(v.Cond)
		}
		for _, s := range v.Body {
			r.resolveStmt(s)
		}

	case *OnGotoStmt:
		r.exprType(v.Selector)

	case *DimStmt:
		for _, decl := range v.Arrays {
			for _, d := range decl.Dims {
				r.exprType(d)
			}
			r.define(decl.Name, decl.Suffix, v.Pos, true, len(decl.Dims))
		}

	case *SubCallStmt:
		sig, ok := r.procs.Lookup(v.Name)
		if !ok {
			r.fail(v.Pos, ErrorResolution, "undefined procedure %q", v.Name)
		}
		if len(v.Args) != len(sig.Params) {
			r.fail(v.Pos, ErrorResolution, "%s expects %d argument(s), got %d", v.Name, len(sig.Params), len(v.Args))
		}
		for i, a := range v.Args {
			at := r.exprType(a)
			v.Args[i] = r.coerceTo(a, at, sig.Params[i].Type)
		}

	case *ReadStmt:
		for i := range v.Targets {
			r.resolveLValue(&v.Targets[i])
		}

	case *SelectCaseStmt:
		r.exprType(v.Scrutinee)
		for _, arm := range v.Arms {
			for _, e := range arm.Values {
				r.exprType(e)
			}
			for _, rg := range arm.Ranges {
				r.exprType(rg.Low)
				r.exprType(rg.High)
			}
			for _, t := range arm.Tests {
				r.exprType(t.Expr)
			}
			for _, s := range arm.Body {
				r.resolveStmt(s)
			}
		}
		for _, s := range v.Default {
			r.resolveStmt(s)
		}

	case *FileOpenStmt:
		if r.exprType(v.Path) != TypeString {
			r.fail(v.Pos, ErrorType, "OPEN path must be a string expression")
		}

	case *RestoreStmt:
		if v.HasLabel {
			if _, ok := r.prog.DataLabels[v.Label]; !ok {
				r.fail(v.Pos, ErrorResolution, "RESTORE label %q is never defined", v.Label)
			}
		}

	case *GotoStmt, *GosubStmt, *ReturnStmt, *FileCloseStmt, *ClsStmt, *EndStmt, *StopStmt:
		// No expressions to resolve; label existence is checked separately.
	}
}

func (r *resolver) resolveLValue(lv *LValue) {
	for i := range lv.Indices {
		r.exprType(lv.Indices[i])
	}
	r.define(lv.Name, lv.Suffix, lv.Pos, len(lv.Indices) > 0, len(lv.Indices))
}

func (r *resolver) lvalueType(lv LValue) Type {
	if sym, ok := r.scope().Lookup(lv.Name, lv.Suffix); ok {
		return sym.Type
	}
	return TypeForSuffix(lv.Suffix)
}

// exprType resolves and annotates e's type bottom-up, inserting CoerceExpr
// wrappers where an operator's operand needs promotion, and returns the
// resolved type. It mutates baseExpr.Typ in place via the concrete type's
// own field, since Expr is an interface.
func (r *resolver) exprType(e Expr) Type {
	switch v := e.(type) {
	case *NumLit:
		switch {
		case v.HasDeclared:
			v.Typ = v.DeclaredType
		case v.IsInt:
			v.Typ = TypeInteger
		default:
			v.Typ = TypeDouble
		}
		return v.Typ

	case *StrLit:
		v.Typ = TypeString
		return TypeString

	case *VarExpr:
		sym := r.define(v.Name, v.Suffix, v.Pos, false, 0)
		v.Typ = sym.Type
		return sym.Type

	case *ArrayRefExpr:
		for i := range v.Indices {
			r.exprType(v.Indices[i])
		}
		sym := r.define(v.Name, v.Suffix, v.Pos, true, len(v.Indices))
		v.Typ = sym.Type
		return sym.Type

	case *CallExpr:
		sig, ok := r.procs.Lookup(v.Name)
		if !ok || sig.Kind != ProcFunction {
			r.fail(v.Pos, ErrorResolution, "undefined function %q", v.Name)
		}
		if len(v.Args) != len(sig.Params) {
			r.fail(v.Pos, ErrorResolution, "%s expects %d argument(s), got %d", v.Name, len(sig.Params), len(v.Args))
		}
		for i, a := range v.Args {
			at := r.exprType(a)
			v.Args[i] = r.coerceTo(a, at, sig.Params[i].Type)
		}
		v.Typ = sig.ReturnType
		return sig.ReturnType

	case *BuiltinCallExpr:
		for i := range v.Args {
			r.exprType(v.Args[i])
		}
		v.Typ = builtinReturnType(v.ID)
		return v.Typ

	case *UnaryExpr:
		xt := r.exprType(v.X)
		if v.Op == OpNot {
			v.Typ = TypeInteger
		} else {
			if xt == TypeString {
				r.fail(v.Pos, ErrorType, "unary operator applied to a string")
			}
			v.Typ = xt
		}
		return v.Typ

	case *BinaryExpr:
		return r.resolveBinary(v)

	case *CoerceExpr:
		return r.exprType(v.X)
	}
	return TypeNone
}

func (r *resolver) resolveBinary(v *BinaryExpr) Type {
	lt := r.exprType(v.Left)
	rt := r.exprType(v.Right)

	switch v.Op {
	case OpAnd, OpOr, OpXor:
		if lt == TypeString || rt == TypeString {
			r.fail(v.Pos, ErrorType, "logical operator applied to a string")
		}
		v.Typ = TypeInteger
		return v.Typ

	case OpAdd:
		if lt == TypeString && rt == TypeString {
			v.Typ = TypeString
			return v.Typ
		}
		if lt == TypeString || rt == TypeString {
			r.fail(v.Pos, ErrorType, "cannot mix string and numeric operands to +")
		}
		return r.joinNumeric(v, lt, rt)

	case OpEq, OpNe, OpLt, OpGt, OpLe, OpGe:
		if lt == TypeString && rt == TypeString {
			v.Typ = TypeInteger
			return v.Typ
		}
		if lt == TypeString || rt == TypeString {
			r.fail(v.Pos, ErrorType, "cannot compare a string to a number")
		}
		v.Left = r.coerceTo(v.Left, lt, Join(lt, rt))
		v.Right = r.coerceTo(v.Right, rt, Join(lt, rt))
		v.Typ = TypeInteger
		return v.Typ

	case OpDiv, OpPow:
		if lt == TypeString || rt == TypeString {
			r.fail(v.Pos, ErrorType, "arithmetic operator applied to a string")
		}
		// "/" and "^" always yield Double regardless of operand width
		// (§4.3 item 4: "/" is never integer division, and "^" goes
		// through the runtime's libm pow, which takes doubles).
		v.Left = r.coerceTo(v.Left, lt, TypeDouble)
		v.Right = r.coerceTo(v.Right, rt, TypeDouble)
		v.Typ = TypeDouble
		return v.Typ

	case OpIntDiv, OpMod:
		if lt == TypeString || rt == TypeString {
			r.fail(v.Pos, ErrorType, "arithmetic operator applied to a string")
		}
		// "\" and MOD truncate both operands to Long before dividing
		// and always yield a Long result (§4.3 item 4), independent of
		// whatever a Single/Double operand would otherwise join to.
		v.Left = r.coerceTo(v.Left, lt, TypeLong)
		v.Right = r.coerceTo(v.Right, rt, TypeLong)
		v.Typ = TypeLong
		return v.Typ

	default: // Sub, Mul
		if lt == TypeString || rt == TypeString {
			r.fail(v.Pos, ErrorType, "arithmetic operator applied to a string")
		}
		return r.joinNumeric(v, lt, rt)
	}
}

func (r *resolver) joinNumeric(v *BinaryExpr, lt, rt Type) Type {
	jt := Join(lt, rt)
	if jt == TypeNone {
		r.fail(v.Pos, ErrorType, "invalid operand types")
	}
	v.Left = r.coerceTo(v.Left, lt, jt)
	v.Right = r.coerceTo(v.Right, rt, jt)
	v.Typ = jt
	return jt
}

// coerceTo wraps e in a CoerceExpr if its resolved type differs from want,
// per §4.3 item 5. String/numeric mismatches are caller-checked errors,
// not coercions.
func (r *resolver) coerceTo(e Expr, have, want Type) Expr {
	if have == want || want == TypeNone {
		return e
	}
	if have == TypeString || want == TypeString {
		r.fail(e.Position(), ErrorType, "cannot convert between string and numeric types")
	}
	return &CoerceExpr{baseExpr: baseExpr{Pos: e.Position(), Typ: want}, X: e}
}
