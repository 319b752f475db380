package codegen

import "github.com/lookbusy1344/basicc/parser"

// emitArgFloat evaluates a numeric argument and leaves it in %xmm0,
// converting from the integer convention if needed.
func (g *Generator) emitArgFloat(e parser.Expr) error {
	isFloat := e.ExprType() == parser.TypeSingle || e.ExprType() == parser.TypeDouble
	if err := g.emitExprNumeric(e); err != nil {
		return err
	}
	if !isFloat {
		g.emitf("\tcvtsi2sdq %%rax, %%xmm0")
	}
	return nil
}

// emitLibmCall calls an externally-linked routine (a runtime entry point
// or a libc/UCRT function) whose arguments are already in their ABI
// registers, wrapping the call in the ABI's shadow-space reservation.
func (g *Generator) emitLibmCall(name string) {
	g.emitCallPrologueEpilogue(func() {
		g.emitf("\tcall %s", name)
	})
}

// emitBuiltin lowers a call to a built-in function, per §4.5's routine
// table for the string builtins and direct instruction sequences or a
// libm call for the numeric ones.
func (g *Generator) emitBuiltin(v *parser.BuiltinCallExpr) error {
	switch v.ID {
	case parser.BuiltinLen:
		if err := g.emitExprString(v.Args[0]); err != nil {
			return err
		}
		g.emitf("\tmovq %%rdx, %%rax")
		return nil

	case parser.BuiltinMid:
		if err := g.emitExprString(v.Args[0]); err != nil {
			return err
		}
		g.emitf("\tpushq %%rax")
		g.emitf("\tpushq %%rdx")
		if err := g.emitArgAsInt(v.Args[1]); err != nil {
			return err
		}
		g.emitf("\tmovq %%rax, %%r10")
		if len(v.Args) > 2 {
			if err := g.emitArgAsInt(v.Args[2]); err != nil {
				return err
			}
		} else {
			g.emitf("\tmovq $-1, %%rax")
		}
		g.emitf("\tmovq %%rax, %%r11")
		g.emitf("\tpopq %%%s", g.abi.IntArgRegs[1])
		g.emitf("\tpopq %%%s", g.abi.IntArgRegs[0])
		g.emitf("\tmovq %%r10, %%%s", g.abi.IntArgRegs[2])
		g.emitf("\tmovq %%r11, %%%s", g.abi.IntArgRegs[3])
		g.emitLibmCall("str_mid")
		g.movRetString()
		return nil

	case parser.BuiltinLeft, parser.BuiltinRight:
		if err := g.emitExprString(v.Args[0]); err != nil {
			return err
		}
		g.emitf("\tpushq %%rax")
		g.emitf("\tpushq %%rdx")
		if err := g.emitArgAsInt(v.Args[1]); err != nil {
			return err
		}
		g.emitf("\tmovq %%rax, %%r10")
		g.emitf("\tpopq %%%s", g.abi.IntArgRegs[1])
		g.emitf("\tpopq %%%s", g.abi.IntArgRegs[0])
		g.emitf("\tmovq %%r10, %%%s", g.abi.IntArgRegs[2])
		name := "str_left"
		if v.ID == parser.BuiltinRight {
			name = "str_right"
		}
		g.emitLibmCall(name)
		g.movRetString()
		return nil

	case parser.BuiltinInstr:
		var startExpr, hayExpr, needleExpr parser.Expr
		if len(v.Args) == 3 {
			startExpr, hayExpr, needleExpr = v.Args[0], v.Args[1], v.Args[2]
		} else {
			hayExpr, needleExpr = v.Args[0], v.Args[1]
		}
		if err := g.emitExprString(hayExpr); err != nil {
			return err
		}
		g.emitf("\tpushq %%rax")
		g.emitf("\tpushq %%rdx")
		if err := g.emitExprString(needleExpr); err != nil {
			return err
		}
		g.emitf("\tpushq %%rax")
		g.emitf("\tpushq %%rdx")
		if startExpr != nil {
			if err := g.emitArgAsInt(startExpr); err != nil {
				return err
			}
		} else {
			g.emitf("\tmovq $1, %%rax")
		}
		g.emitf("\tmovq %%rax, %%r10")
		g.emitf("\tpopq %%%s", g.abi.IntArgRegs[3])
		g.emitf("\tpopq %%%s", g.abi.IntArgRegs[2])
		g.emitf("\tpopq %%%s", g.abi.IntArgRegs[1])
		g.emitf("\tpopq %%%s", g.abi.IntArgRegs[0])
		if len(g.abi.IntArgRegs) > 4 {
			g.emitf("\tmovq %%r10, %%%s", g.abi.IntArgRegs[4])
		} else {
			g.emitf("\tpushq %%r10")
		}
		g.emitLibmCall("str_instr")
		if g.abi.IntRet != "rax" {
			g.emitf("\tmovq %%%s, %%rax", g.abi.IntRet)
		}
		return nil

	case parser.BuiltinChr:
		if err := g.emitArgAsInt(v.Args[0]); err != nil {
			return err
		}
		g.emitf("\tmovq %%rax, %%%s", g.abi.IntArgRegs[0])
		g.emitLibmCall("str_chr")
		g.movRetString()
		return nil

	case parser.BuiltinStr:
		if err := g.emitArgFloat(v.Args[0]); err != nil {
			return err
		}
		g.emitLibmCall("str_str")
		g.movRetString()
		return nil

	case parser.BuiltinVal:
		if err := g.emitExprString(v.Args[0]); err != nil {
			return err
		}
		g.emitf("\tmovq %%rax, %%%s", g.abi.IntArgRegs[0])
		g.emitf("\tmovq %%rdx, %%%s", g.abi.IntArgRegs[1])
		g.emitLibmCall("str_val")
		if g.abi.FloatRet != "xmm0" {
			g.emitf("\tmovsd %%%s, %%xmm0", g.abi.FloatRet)
		}
		return nil

	case parser.BuiltinAsc:
		if err := g.emitExprString(v.Args[0]); err != nil {
			return err
		}
		g.emitf("\tmovzbq (%%rax), %%rax")
		return nil

	case parser.BuiltinInt, parser.BuiltinFix:
		if err := g.emitArgFloat(v.Args[0]); err != nil {
			return err
		}
		if v.ID == parser.BuiltinInt {
			g.emitf("\troundsd $1, %%xmm0, %%xmm0") // round toward -infinity (floor)
		} else {
			g.emitf("\troundsd $3, %%xmm0, %%xmm0") // round toward zero (truncate)
		}
		return nil

	case parser.BuiltinCInt, parser.BuiltinCLng:
		if err := g.emitArgFloat(v.Args[0]); err != nil {
			return err
		}
		g.emitf("\tcvttsd2siq %%xmm0, %%rax")
		return nil

	case parser.BuiltinCSng, parser.BuiltinCDbl:
		return g.emitArgFloat(v.Args[0])

	case parser.BuiltinAbs:
		if err := g.emitArgFloat(v.Args[0]); err != nil {
			return err
		}
		g.emitf("\tandpd _abs_mask(%%rip), %%xmm0")
		return nil

	case parser.BuiltinSgn:
		if err := g.emitArgFloat(v.Args[0]); err != nil {
			return err
		}
		g.emitf("\txorpd %%xmm1, %%xmm1")
		g.emitf("\tucomisd %%xmm1, %%xmm0")
		pos := g.newLabel("sgnpos")
		neg := g.newLabel("sgnneg")
		end := g.newLabel("sgnend")
		g.emitf("\tja %s", pos)
		g.emitf("\tjb %s", neg)
		g.emitf("\txorpd %%xmm0, %%xmm0")
		g.emitf("\tjmp %s", end)
		g.emitf("%s:", pos)
		g.emitFloatImmediate(1)
		g.emitf("\tjmp %s", end)
		g.emitf("%s:", neg)
		g.emitFloatImmediate(-1)
		g.emitf("%s:", end)
		return nil

	case parser.BuiltinSqr:
		if err := g.emitArgFloat(v.Args[0]); err != nil {
			return err
		}
		g.emitf("\tsqrtsd %%xmm0, %%xmm0")
		return nil

	case parser.BuiltinSin, parser.BuiltinCos, parser.BuiltinTan, parser.BuiltinAtn,
		parser.BuiltinExp, parser.BuiltinLog:
		if err := g.emitArgFloat(v.Args[0]); err != nil {
			return err
		}
		name := map[parser.BuiltinID]string{
			parser.BuiltinSin: "sin", parser.BuiltinCos: "cos", parser.BuiltinTan: "tan",
			parser.BuiltinAtn: "atan", parser.BuiltinExp: "exp", parser.BuiltinLog: "log",
		}[v.ID]
		g.emitLibmCall(name)
		if g.abi.FloatRet != "xmm0" {
			g.emitf("\tmovsd %%%s, %%xmm0", g.abi.FloatRet)
		}
		return nil

	case parser.BuiltinRnd:
		if len(v.Args) > 0 {
			if err := g.emitArgFloat(v.Args[0]); err != nil {
				return err
			}
		} else {
			g.emitf("\txorpd %%xmm0, %%xmm0")
		}
		g.emitLibmCall("rnd")
		if g.abi.FloatRet != "xmm0" {
			g.emitf("\tmovsd %%%s, %%xmm0", g.abi.FloatRet)
		}
		return nil

	case parser.BuiltinTimer:
		g.emitLibmCall("timer")
		if g.abi.FloatRet != "xmm0" {
			g.emitf("\tmovsd %%%s, %%xmm0", g.abi.FloatRet)
		}
		return nil
	}
	return codegenError(v.Pos, "unhandled builtin %v", v.ID)
}

// emitArgAsInt evaluates a numeric argument and leaves a sign-extended
// integer in %rax, truncating a Single/Double argument.
func (g *Generator) emitArgAsInt(e parser.Expr) error {
	isFloat := e.ExprType() == parser.TypeSingle || e.ExprType() == parser.TypeDouble
	if err := g.emitExprNumeric(e); err != nil {
		return err
	}
	if isFloat {
		g.emitf("\tcvttsd2siq %%xmm0, %%rax")
	}
	return nil
}

func (g *Generator) movRetString() {
	if g.abi.IntRet != "rax" {
		g.emitf("\tmovq %%%s, %%rax", g.abi.IntRet)
	}
	if g.abi.IntRet2 != "rdx" {
		g.emitf("\tmovq %%%s, %%rdx", g.abi.IntRet2)
	}
}
