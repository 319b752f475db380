package codegen

import "github.com/lookbusy1344/basicc/parser"

type argKind int

const (
	argInt argKind = iota
	argFloat
	argString
)

func argKindOf(t parser.Type) argKind {
	switch t {
	case parser.TypeSingle, parser.TypeDouble:
		return argFloat
	case parser.TypeString:
		return argString
	default:
		return argInt
	}
}

// emitArgs evaluates args right to left, spilling each onto the native
// stack, then pops them back off left to right into the ABI's argument
// registers. Evaluating right to left and popping left to right means a
// later argument's evaluation (which may itself contain a call) can never
// clobber an earlier argument still waiting in a register, since nothing
// is in a register until every argument has already been evaluated.
func (g *Generator) emitArgs(args []parser.Expr) error {
	kinds := make([]argKind, len(args))
	for i, a := range args {
		kinds[i] = argKindOf(a.ExprType())
	}

	for i := len(args) - 1; i >= 0; i-- {
		if err := g.emitExpr(args[i]); err != nil {
			return err
		}
		switch kinds[i] {
		case argString:
			g.emitf("\tpushq %%rdx")
			g.emitf("\tpushq %%rax")
		case argFloat:
			g.pushNumeric(true)
		default:
			g.pushNumeric(false)
		}
	}

	intN, fltN := 0, 0
	for i := 0; i < len(args); i++ {
		switch kinds[i] {
		case argString:
			if intN+1 >= len(g.abi.IntArgRegs) {
				g.emitf("\taddq $16, %%rsp")
				continue
			}
			g.emitf("\tpopq %%%s", g.abi.IntArgRegs[intN])
			g.emitf("\tpopq %%%s", g.abi.IntArgRegs[intN+1])
			intN += 2
		case argFloat:
			if fltN >= len(g.abi.FloatArgRegs) {
				g.emitf("\taddq $8, %%rsp")
				continue
			}
			g.emitf("\tmovsd (%%rsp), %%%s", g.abi.FloatArgRegs[fltN])
			g.emitf("\taddq $8, %%rsp")
			fltN++
		default:
			if intN >= len(g.abi.IntArgRegs) {
				g.emitf("\taddq $8, %%rsp")
				continue
			}
			g.emitf("\tpopq %%%s", g.abi.IntArgRegs[intN])
			intN++
		}
	}
	return nil
}

func (g *Generator) emitCallPrologueEpilogue(body func()) {
	if g.abi.ShadowSpace > 0 {
		g.emitf("\tsubq $%d, %%rsp", g.abi.ShadowSpace)
	}
	body()
	if g.abi.ShadowSpace > 0 {
		g.emitf("\taddq $%d, %%rsp", g.abi.ShadowSpace)
	}
}

// emitCallExpr lowers a call to a user FUNCTION, leaving its result in the
// register convention matching the call site's resolved type.
func (g *Generator) emitCallExpr(v *parser.CallExpr) error {
	if err := g.emitArgs(v.Args); err != nil {
		return err
	}
	g.emitCallPrologueEpilogue(func() {
		g.emitf("\tcall %s", procLabel(v.Name))
	})
	switch v.Typ {
	case parser.TypeString:
		g.emitf("\tmovq %%%s, %%rax", g.abi.IntRet)
		g.emitf("\tmovq %%%s, %%rdx", g.abi.IntRet2)
	case parser.TypeSingle, parser.TypeDouble:
		if g.abi.FloatRet != "xmm0" {
			g.emitf("\tmovsd %%%s, %%xmm0", g.abi.FloatRet)
		}
	default:
		if g.abi.IntRet != "rax" {
			g.emitf("\tmovq %%%s, %%rax", g.abi.IntRet)
		}
	}
	return nil
}

// emitSubCall lowers a call to a user SUB; its result, if any, is discarded.
func (g *Generator) emitSubCall(v *parser.SubCallStmt) error {
	if err := g.emitArgs(v.Args); err != nil {
		return err
	}
	g.emitCallPrologueEpilogue(func() {
		g.emitf("\tcall %s", procLabel(v.Name))
	})
	return nil
}
