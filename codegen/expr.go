package codegen

import (
	"fmt"

	"github.com/lookbusy1344/basicc/parser"
)

// emitExprNumeric lowers a numeric expression, leaving an Integer/Long
// result sign-extended in %rax or a Single/Double result in %xmm0,
// matching §4.4's value-placement convention at every internal use site,
// not only at runtime-call boundaries.
func (g *Generator) emitExprNumeric(e parser.Expr) error {
	switch v := e.(type) {
	case *parser.NumLit:
		if v.IsInt {
			g.emitf("\tmovq $%d, %%rax", v.Int)
		} else {
			g.emitFloatImmediate(v.Value)
		}
		return nil

	case *parser.VarExpr:
		off := g.varOffset(v.Name, v.Suffix)
		if v.Typ == parser.TypeSingle || v.Typ == parser.TypeDouble {
			g.emitf("\tmovsd %d(%%rbp), %%xmm0", off)
		} else {
			g.emitf("\tmovq %d(%%rbp), %%rax", off)
		}
		return nil

	case *parser.ArrayRefExpr:
		if err := g.loadArrayAddr(v.Name, v.Suffix, v.Indices, v.Pos); err != nil {
			return err
		}
		if v.Typ == parser.TypeSingle || v.Typ == parser.TypeDouble {
			g.emitf("\tmovsd (%%rax), %%xmm0")
		} else {
			g.emitf("\tmovq (%%rax), %%rax")
		}
		return nil

	case *parser.UnaryExpr:
		return g.emitUnary(v)

	case *parser.BinaryExpr:
		return g.emitBinary(v)

	case *parser.CoerceExpr:
		return g.emitCoerce(v)

	case *parser.CallExpr:
		return g.emitCallExpr(v)

	case *parser.BuiltinCallExpr:
		return g.emitBuiltin(v)
	}
	return codegenError(e.Position(), "unhandled numeric expression kind %T", e)
}

// emitExprString lowers a String-typed expression, leaving its pointer in
// %rax and its length in %rdx.
func (g *Generator) emitExprString(e parser.Expr) error {
	switch v := e.(type) {
	case *parser.StrLit:
		label := g.internString(v.Value)
		g.emitf("\tleaq %s(%%rip), %%rax", label)
		g.emitf("\tmovq $%d, %%rdx", len(v.Value))
		return nil

	case *parser.VarExpr:
		off := g.varOffset(v.Name, v.Suffix)
		g.emitf("\tmovq %d(%%rbp), %%rax", off)
		g.emitf("\tmovq %d(%%rbp), %%rdx", off+8)
		return nil

	case *parser.ArrayRefExpr:
		if err := g.loadArrayAddr(v.Name, v.Suffix, v.Indices, v.Pos); err != nil {
			return err
		}
		g.emitf("\tmovq 8(%%rax), %%rdx")
		g.emitf("\tmovq (%%rax), %%rax")
		return nil

	case *parser.BinaryExpr: // string concatenation, the only string BinaryOp
		return g.emitStringConcat(v)

	case *parser.CallExpr:
		return g.emitCallExpr(v)

	case *parser.BuiltinCallExpr:
		return g.emitBuiltin(v)
	}
	return codegenError(e.Position(), "unhandled string expression kind %T", e)
}

// emitExpr lowers e according to its resolved type, dispatching to the
// numeric or string convention.
func (g *Generator) emitExpr(e parser.Expr) error {
	if e.ExprType() == parser.TypeString {
		return g.emitExprString(e)
	}
	return g.emitExprNumeric(e)
}

func (g *Generator) emitFloatImmediate(v float64) {
	label := fmt.Sprintf("_flt%d", g.labelN)
	g.labelN++
	fmt.Fprintf(&g.data, "%s:\n\t.double %g\n", label, v)
	g.emitf("\tmovsd %s(%%rip), %%xmm0", label)
}

func (g *Generator) varOffset(name, suffix string) int {
	return g.frame.offsets[frameKey(name, suffix)]
}

// pushNumeric spills the current numeric result (int in %rax, or double
// in %xmm0) onto the native stack, keeping 16-byte alignment so CALLs
// remain valid even mid-expression.
func (g *Generator) pushNumeric(isFloat bool) {
	if isFloat {
		g.emitf("\tsubq $8, %%rsp")
		g.emitf("\tmovsd %%xmm0, (%%rsp)")
	} else {
		g.emitf("\tpushq %%rax")
	}
}

func (g *Generator) popNumeric(isFloat bool, reg string) {
	if isFloat {
		g.emitf("\tmovsd (%%rsp), %%%s", reg)
		g.emitf("\taddq $8, %%rsp")
	} else {
		g.emitf("\tpopq %%%s", reg)
	}
}

func (g *Generator) emitUnary(v *parser.UnaryExpr) error {
	if v.Op == parser.OpNot {
		if err := g.emitExprNumeric(v.X); err != nil {
			return err
		}
		g.emitf("\tnotq %%rax")
		return nil
	}
	isFloat := v.X.ExprType() == parser.TypeSingle || v.X.ExprType() == parser.TypeDouble
	if err := g.emitExprNumeric(v.X); err != nil {
		return err
	}
	if v.Op == parser.OpPos {
		return nil
	}
	if isFloat {
		g.emitf("\txorpd %%xmm1, %%xmm1")
		g.emitf("\tsubsd %%xmm0, %%xmm1")
		g.emitf("\tmovapd %%xmm1, %%xmm0")
	} else {
		g.emitf("\tnegq %%rax")
	}
	return nil
}

func (g *Generator) emitCoerce(v *parser.CoerceExpr) error {
	srcFloat := v.X.ExprType() == parser.TypeSingle || v.X.ExprType() == parser.TypeDouble
	dstFloat := v.Typ == parser.TypeSingle || v.Typ == parser.TypeDouble
	if err := g.emitExprNumeric(v.X); err != nil {
		return err
	}
	switch {
	case srcFloat && dstFloat:
		// Both Single and Double are carried as a full double internally
		// (§9 simplification documented in DESIGN.md); no instruction needed.
	case !srcFloat && dstFloat:
		g.emitf("\tcvtsi2sdq %%rax, %%xmm0")
	case srcFloat && !dstFloat:
		g.emitf("\tcvttsd2siq %%xmm0, %%rax")
	default:
		// Integer <-> Long: both already 64-bit internally.
	}
	return nil
}

func (g *Generator) emitBinary(v *parser.BinaryExpr) error {
	if v.Left.ExprType() == parser.TypeString {
		return g.emitStringCompare(v)
	}
	// Comparisons and logical ops on numeric operands promote their
	// operands to the join type (done by the resolver) but always
	// produce an Integer: use the operand type, not v.Typ, to decide
	// which register convention to spill/reload.
	operandFloat := v.Left.ExprType() == parser.TypeSingle || v.Left.ExprType() == parser.TypeDouble

	if err := g.emitExprNumeric(v.Left); err != nil {
		return err
	}
	g.pushNumeric(operandFloat)
	if err := g.emitExprNumeric(v.Right); err != nil {
		return err
	}
	if operandFloat {
		g.emitf("\tmovapd %%xmm0, %%xmm1")
		g.popNumeric(true, "xmm0")
	} else {
		g.emitf("\tmovq %%rax, %%rcx")
		g.popNumeric(false, "rax")
	}

	switch v.Op {
	case parser.OpAdd:
		if operandFloat {
			g.emitf("\taddsd %%xmm1, %%xmm0")
		} else {
			g.emitf("\taddq %%rcx, %%rax")
		}
	case parser.OpSub:
		if operandFloat {
			g.emitf("\tsubsd %%xmm1, %%xmm0")
		} else {
			g.emitf("\tsubq %%rcx, %%rax")
		}
	case parser.OpMul:
		if operandFloat {
			g.emitf("\tmulsd %%xmm1, %%xmm0")
		} else {
			g.emitf("\timulq %%rcx, %%rax")
		}
	case parser.OpDiv:
		// The resolver forces both operands of "/" to Double (§4.3 item 4:
		// "/" always yields Double, unlike "\" and MOD), so operandFloat
		// is always true here.
		g.emitf("\tdivsd %%xmm1, %%xmm0")
	case parser.OpIntDiv:
		g.emitIntDivZeroCheck()
		g.emitf("\tcqto")
		g.emitf("\tidivq %%rcx")
	case parser.OpMod:
		g.emitIntDivZeroCheck()
		g.emitf("\tcqto")
		g.emitf("\tidivq %%rcx")
		g.emitf("\tmovq %%rdx, %%rax")
	case parser.OpAnd:
		g.emitf("\tandq %%rcx, %%rax")
	case parser.OpOr:
		g.emitf("\torq %%rcx, %%rax")
	case parser.OpXor:
		g.emitf("\txorq %%rcx, %%rax")
	case parser.OpPow:
		return g.emitPow(operandFloat)
	case parser.OpEq, parser.OpNe, parser.OpLt, parser.OpGt, parser.OpLe, parser.OpGe:
		g.emitCompareSet(v.Op, operandFloat)
	default:
		return codegenError(v.Pos, "unhandled binary operator %v", v.Op)
	}
	return nil
}

// emitIntDivZeroCheck traps before \ or MOD divides by a zero %rcx, per
// §7's "integer \/MOD should trap and exit" (unlike "/", which inherits
// IEEE semantics and is left to produce +-Inf/NaN on its float path).
func (g *Generator) emitIntDivZeroCheck() {
	ok := g.newLabel("divok")
	g.emitf("\ttestq %%rcx, %%rcx")
	g.emitf("\tjnz %s", ok)
	g.emitLibmCall("div_by_zero_error")
	g.emitf("%s:", ok)
}

// emitPow lowers ^ through the runtime's libm-backed pow entry point; no
// repeated-squaring path exists for integer exponents. The resolver
// coerces both operands of ^ to Double, so they are already in the float
// convention here.
func (g *Generator) emitPow(operandFloat bool) error {
	if !operandFloat {
		g.emitf("\tcvtsi2sdq %%rax, %%xmm0")
		g.emitf("\tcvtsi2sdq %%rcx, %%xmm1")
	}
	g.emitLibmCall("basic_pow")
	return nil
}

// emitCompareSet compares %rax/%xmm0 (left) against %rcx/%xmm1 (right)
// and leaves a 0/-1 Integer boolean in %rax, per GW-BASIC's convention
// that TRUE is all-ones.
func (g *Generator) emitCompareSet(op parser.BinaryOp, isFloat bool) {
	setcc := map[parser.BinaryOp]string{
		parser.OpEq: "sete", parser.OpNe: "setne",
		parser.OpLt: "setl", parser.OpGt: "setg",
		parser.OpLe: "setle", parser.OpGe: "setge",
	}[op]
	if isFloat {
		setccF := map[parser.BinaryOp]string{
			parser.OpEq: "sete", parser.OpNe: "setne",
			parser.OpLt: "setb", parser.OpGt: "seta",
			parser.OpLe: "setbe", parser.OpGe: "setae",
		}[op]
		g.emitf("\tucomisd %%xmm1, %%xmm0")
		g.emitf("\t%s %%al", setccF)
	} else {
		g.emitf("\tcmpq %%rcx, %%rax")
		g.emitf("\t%s %%al", setcc)
	}
	g.emitf("\tmovzbq %%al, %%rax")
	g.emitf("\tnegq %%rax")
}

// emitStringCompare lowers =, <>, <, >, <=, >= when both operands are
// String, via the runtime's lexicographic str_cmp(ptr1,len1,ptr2,len2)
// -> rax in {-1,0,1}, per §4.3's string comparison rule. The result is
// booleanized the same way emitCompareSet does for numeric operands.
func (g *Generator) emitStringCompare(v *parser.BinaryExpr) error {
	setcc := map[parser.BinaryOp]string{
		parser.OpEq: "sete", parser.OpNe: "setne",
		parser.OpLt: "setl", parser.OpGt: "setg",
		parser.OpLe: "setle", parser.OpGe: "setge",
	}[v.Op]
	if err := g.emitExprString(v.Left); err != nil {
		return err
	}
	g.emitf("\tpushq %%rax")
	g.emitf("\tpushq %%rdx")
	if err := g.emitExprString(v.Right); err != nil {
		return err
	}
	g.emitf("\tmovq %%rax, %%%s", g.abi.IntArgRegs[2])
	g.emitf("\tmovq %%rdx, %%%s", g.abi.IntArgRegs[3])
	g.emitf("\tpopq %%%s", g.abi.IntArgRegs[1])
	g.emitf("\tpopq %%%s", g.abi.IntArgRegs[0])
	g.emitLibmCall("str_cmp")
	g.emitf("\tcmpq $0, %%rax")
	g.emitf("\t%s %%al", setcc)
	g.emitf("\tmovzbq %%al, %%rax")
	g.emitf("\tnegq %%rax")
	return nil
}

// emitStringConcat lowers the "+" operator when both operands are
// String, via the runtime's str_cat(ptr1,len1,ptr2,len2) -> (ptr,len).
func (g *Generator) emitStringConcat(v *parser.BinaryExpr) error {
	if v.Op != parser.OpAdd {
		return codegenError(v.Pos, "only + is defined over strings")
	}
	if err := g.emitExprString(v.Left); err != nil {
		return err
	}
	g.emitf("\tpushq %%rax")
	g.emitf("\tpushq %%rdx")
	if err := g.emitExprString(v.Right); err != nil {
		return err
	}
	g.emitf("\tmovq %%rax, %%%s", g.abi.IntArgRegs[2])
	g.emitf("\tmovq %%rdx, %%%s", g.abi.IntArgRegs[3])
	g.emitf("\tpopq %%%s", g.abi.IntArgRegs[1])
	g.emitf("\tpopq %%%s", g.abi.IntArgRegs[0])
	g.emitLibmCall("str_cat")
	g.movRetString()
	return nil
}
