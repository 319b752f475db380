package codegen

import "github.com/lookbusy1344/basicc/parser"

// emitAssign lowers a scalar or array-element assignment.
func (g *Generator) emitAssign(v *parser.AssignStmt) error {
	isFloat := v.Value.ExprType() == parser.TypeSingle || v.Value.ExprType() == parser.TypeDouble
	isString := v.Value.ExprType() == parser.TypeString

	if err := g.emitExpr(v.Value); err != nil {
		return err
	}
	return g.storeToLValue(v.Target, isString, isFloat)
}

// emitCond lowers a conditional expression and emits a conditional jump
// to falseLabel when the condition is false (zero).
func (g *Generator) emitCond(cond parser.Expr, falseLabel string) error {
	if err := g.emitExprNumeric(cond); err != nil {
		return err
	}
	g.emitf("\ttestq %%rax, %%rax")
	g.emitf("\tjz %s", falseLabel)
	return nil
}

func (g *Generator) emitIf(v *parser.IfStmt) error {
	endLabel := g.newLabel("ifend")
	nextLabel := g.newLabel("ifnext")

	if err := g.emitCond(v.Cond, nextLabel); err != nil {
		return err
	}
	if err := g.emitStmts(v.Then); err != nil {
		return err
	}
	g.emitf("\tjmp %s", endLabel)
	g.emitf("%s:", nextLabel)

	for _, ei := range v.ElseIfs {
		next2 := g.newLabel("ifnext")
		if err := g.emitCond(ei.Cond, next2); err != nil {
			return err
		}
		if err := g.emitStmts(ei.Body); err != nil {
			return err
		}
		g.emitf("\tjmp %s", endLabel)
		g.emitf("%s:", next2)
	}

	if v.Else != nil {
		if err := g.emitStmts(v.Else); err != nil {
			return err
		}
	}
	g.emitf("%s:", endLabel)
	return nil
}

func (g *Generator) emitSingleLineIf(v *parser.SingleLineIfStmt) error {
	elseLabel := g.newLabel("sifelse")
	endLabel := g.newLabel("sifend")
	if err := g.emitCond(v.Cond, elseLabel); err != nil {
		return err
	}
	if err := g.emitStmts(v.Then); err != nil {
		return err
	}
	g.emitf("\tjmp %s", endLabel)
	g.emitf("%s:", elseLabel)
	if v.Else != nil {
		if err := g.emitStmts(v.Else); err != nil {
			return err
		}
	}
	g.emitf("%s:", endLabel)
	return nil
}

// emitFor lowers FOR/NEXT as a pre-tested counting loop. The step value
// is evaluated once and cached in a stack temporary so a non-constant
// STEP expression is not re-evaluated each iteration.
func (g *Generator) emitFor(v *parser.ForStmt) error {
	off := g.varOffset(v.Var.Name, v.Var.Suffix)
	varType := parser.TypeForSuffix(v.Var.Suffix)
	isFloat := varType == parser.TypeSingle || varType == parser.TypeDouble

	if err := g.emitExprNumeric(v.Start); err != nil {
		return err
	}
	g.storeNum(off, isFloat)

	// Cache END and STEP in two reserved frame-adjacent stack temporaries.
	if err := g.emitExprNumeric(v.End); err != nil {
		return err
	}
	g.pushNumeric(isFloat)
	if v.Step != nil {
		if err := g.emitExprNumeric(v.Step); err != nil {
			return err
		}
	} else {
		if isFloat {
			g.emitFloatImmediate(1)
		} else {
			g.emitf("\tmovq $1, %%rax")
		}
	}
	g.pushNumeric(isFloat)

	top := g.newLabel("fortop")
	end := g.newLabel("forend")
	g.emitf("%s:", top)

	// Condition: step >= 0 ? var <= end : var >= end. Step sign is read
	// from the cached temporary each time; cheap and avoids a separate
	// up/down loop variant.
	g.loadNum(off, isFloat)
	if isFloat {
		g.emitf("\tmovsd (%%rsp), %%xmm1")   // step
		g.emitf("\tmovsd 8(%%rsp), %%xmm2")  // end
		g.emitf("\txorpd %%xmm3, %%xmm3")
		g.emitf("\tucomisd %%xmm3, %%xmm1")
		negStep := g.newLabel("fornegstep")
		cont := g.newLabel("forcont")
		g.emitf("\tjb %s", negStep)
		g.emitf("\tucomisd %%xmm2, %%xmm0")
		g.emitf("\tja %s", end)
		g.emitf("\tjmp %s", cont)
		g.emitf("%s:", negStep)
		g.emitf("\tucomisd %%xmm2, %%xmm0")
		g.emitf("\tjb %s", end)
		g.emitf("%s:", cont)
	} else {
		g.emitf("\tmovq (%%rsp), %%rcx")  // step
		g.emitf("\tmovq 8(%%rsp), %%rdx") // end
		negStep := g.newLabel("fornegstep")
		cont := g.newLabel("forcont")
		g.emitf("\ttestq %%rcx, %%rcx")
		g.emitf("\tjs %s", negStep)
		g.emitf("\tcmpq %%rdx, %%rax")
		g.emitf("\tjg %s", end)
		g.emitf("\tjmp %s", cont)
		g.emitf("%s:", negStep)
		g.emitf("\tcmpq %%rdx, %%rax")
		g.emitf("\tjl %s", end)
		g.emitf("%s:", cont)
	}

	if err := g.emitStmts(v.Body); err != nil {
		return err
	}

	g.loadNum(off, isFloat)
	if isFloat {
		g.emitf("\tmovsd (%%rsp), %%xmm1")
		g.emitf("\taddsd %%xmm1, %%xmm0")
	} else {
		g.emitf("\tmovq (%%rsp), %%rcx")
		g.emitf("\taddq %%rcx, %%rax")
	}
	g.storeNum(off, isFloat)
	g.emitf("\tjmp %s", top)
	g.emitf("%s:", end)
	if isFloat {
		g.emitf("\taddq $16, %%rsp")
	} else {
		g.emitf("\taddq $16, %%rsp")
	}
	return nil
}

func (g *Generator) storeNum(off int, isFloat bool) {
	if isFloat {
		g.emitf("\tmovsd %%xmm0, %d(%%rbp)", off)
	} else {
		g.emitf("\tmovq %%rax, %d(%%rbp)", off)
	}
}

func (g *Generator) loadNum(off int, isFloat bool) {
	if isFloat {
		g.emitf("\tmovsd %d(%%rbp), %%xmm0", off)
	} else {
		g.emitf("\tmovq %d(%%rbp), %%rax", off)
	}
}

func (g *Generator) emitWhile(v *parser.WhileStmt) error {
	top := g.newLabel("whiletop")
	end := g.newLabel("whileend")
	g.emitf("%s:", top)
	if err := g.emitCond(v.Cond, end); err != nil {
		return err
	}
	if err := g.emitStmts(v.Body); err != nil {
		return err
	}
	g.emitf("\tjmp %s", top)
	g.emitf("%s:", end)
	return nil
}

func (g *Generator) emitDo(v *parser.DoStmt) error {
	top := g.newLabel("dotop")
	end := g.newLabel("doend")
	g.emitf("%s:", top)

	switch v.Kind {
	case parser.DoPreWhile:
		if err := g.emitCond(v.Cond, end); err != nil {
			return err
		}
	case parser.DoPreUntil:
		if err := g.emitExprNumeric(v.Cond); err != nil {
			return err
		}
		g.emitf("\ttestq %%rax, %%rax")
		g.emitf("\tjnz %s", end)
	}

	if err := g.emitStmts(v.Body); err != nil {
		return err
	}

	switch v.Kind {
	case parser.DoPostWhile:
		if err := g.emitExprNumeric(v.Cond); err != nil {
			return err
		}
		g.emitf("\ttestq %%rax, %%rax")
		g.emitf("\tjnz %s", top)
	case parser.DoPostUntil:
		if err := g.emitExprNumeric(v.Cond); err != nil {
			return err
		}
		g.emitf("\ttestq %%rax, %%rax")
		g.emitf("\tjz %s", top)
	default:
		g.emitf("\tjmp %s", top)
	}
	g.emitf("%s:", end)
	return nil
}

// emitGosub pushes the return label onto the dedicated GOSUB stack
// (distinct from the native call stack) and jumps, per §4.5/§5.
func (g *Generator) emitGosub(v *parser.GosubStmt) error {
	ret := g.newLabel("gosubret")
	g.emitf("\tmovq _gosub_sp(%%rip), %%rax")
	g.emitf("\tcmpq $%d, %%rax", parser.GosubStackDepth)
	g.emitf("\tjl 1f")
	g.emitLibmCall("gosub_overflow")
	g.emitf("1:")
	g.emitf("\tleaq _gosub_stack(%%rip), %%rcx")
	g.emitf("\tleaq %s(%%rip), %%rdx", ret)
	g.emitf("\tmovq %%rdx, (%%rcx,%%rax,8)")
	g.emitf("\tincq %%rax")
	g.emitf("\tmovq %%rax, _gosub_sp(%%rip)")
	g.emitf("\tjmp %s", asmLabel(g.curProc.Name, v.Label))
	g.emitf("%s:", ret)
	return nil
}

func (g *Generator) emitReturn(v *parser.ReturnStmt) error {
	g.emitf("\tmovq _gosub_sp(%%rip), %%rax")
	g.emitf("\tdecq %%rax")
	g.emitf("\tmovq %%rax, _gosub_sp(%%rip)")
	g.emitf("\tleaq _gosub_stack(%%rip), %%rcx")
	g.emitf("\tmovq (%%rcx,%%rax,8), %%rdx")
	g.emitf("\tjmp *%%rdx")
	return nil
}

// emitOnGoto lowers ON expr GOTO/GOSUB l1,l2,... as a bounds-checked
// jump table built from ordinary compare-and-branch, since the label set
// is small and per-procedure scoped rather than a dense integer range.
func (g *Generator) emitOnGoto(v *parser.OnGotoStmt) error {
	if err := g.emitExprNumeric(v.Selector); err != nil {
		return err
	}
	g.emitf("\tmovq %%rax, %%r11")
	end := g.newLabel("ongotoend")
	for i, label := range v.Labels {
		next := g.newLabel("ongotonext")
		g.emitf("\tcmpq $%d, %%r11", i+1)
		g.emitf("\tjne %s", next)
		if v.IsGosub {
			gs := &parser.GosubStmt{Label: label}
			if err := g.emitGosub(gs); err != nil {
				return err
			}
		} else {
			g.emitf("\tjmp %s", asmLabel(g.curProc.Name, label))
		}
		g.emitf("\tjmp %s", end)
		g.emitf("%s:", next)
	}
	g.emitf("%s:", end)
	return nil
}

func (g *Generator) emitSelectCase(v *parser.SelectCaseStmt) error {
	isFloat := v.Scrutinee.ExprType() == parser.TypeSingle || v.Scrutinee.ExprType() == parser.TypeDouble
	isString := v.Scrutinee.ExprType() == parser.TypeString

	if err := g.emitExpr(v.Scrutinee); err != nil {
		return err
	}
	if isString {
		g.emitf("\tpushq %%rax")
		g.emitf("\tpushq %%rdx")
	} else if isFloat {
		g.pushNumeric(true)
	} else {
		g.pushNumeric(false)
	}

	end := g.newLabel("selend")
	for _, arm := range v.Arms {
		bodyLabel := g.newLabel("selbody")
		nextLabel := g.newLabel("selnext")

		for _, val := range arm.Values {
			if err := g.compareScrutinee(val, isFloat, isString, bodyLabel); err != nil {
				return err
			}
		}
		for _, rg := range arm.Ranges {
			if err := g.compareScrutineeRange(rg, isFloat, isString, bodyLabel); err != nil {
				return err
			}
		}
		for _, t := range arm.Tests {
			if err := g.compareScrutineeIs(t, isFloat, isString, bodyLabel); err != nil {
				return err
			}
		}
		g.emitf("\tjmp %s", nextLabel)

		g.emitf("%s:", bodyLabel)
		if err := g.emitStmts(arm.Body); err != nil {
			return err
		}
		g.emitf("\tjmp %s", end)
		g.emitf("%s:", nextLabel)
	}
	if v.Default != nil {
		if err := g.emitStmts(v.Default); err != nil {
			return err
		}
	}
	g.emitf("%s:", end)
	if isString {
		g.emitf("\taddq $16, %%rsp")
	} else {
		g.emitf("\taddq $8, %%rsp")
	}
	return nil
}

func (g *Generator) reloadScrutinee(isFloat, isString bool) {
	if isString {
		g.emitf("\tmovq 8(%%rsp), %%rax")
		g.emitf("\tmovq (%%rsp), %%rdx")
	} else if isFloat {
		g.emitf("\tmovsd (%%rsp), %%xmm0")
	} else {
		g.emitf("\tmovq (%%rsp), %%rax")
	}
}

func (g *Generator) compareScrutinee(val parser.Expr, isFloat, isString bool, target string) error {
	g.reloadScrutinee(isFloat, isString)
	if isString {
		g.emitf("\tpushq %%rax")
		g.emitf("\tpushq %%rdx")
		if err := g.emitExprString(val); err != nil {
			return err
		}
		g.emitf("\tmovq %%rax, %%%s", g.abi.IntArgRegs[2])
		g.emitf("\tmovq %%rdx, %%%s", g.abi.IntArgRegs[3])
		g.emitf("\tpopq %%%s", g.abi.IntArgRegs[1])
		g.emitf("\tpopq %%%s", g.abi.IntArgRegs[0])
		g.emitLibmCall("str_eq")
		g.emitf("\ttestq %%rax, %%rax")
		g.emitf("\tjnz %s", target)
		return nil
	}
	if isFloat {
		g.emitf("\tmovsd %%xmm0, %%xmm2")
		if err := g.emitExprNumeric(val); err != nil {
			return err
		}
		g.emitf("\tucomisd %%xmm0, %%xmm2")
		g.emitf("\tje %s", target)
		return nil
	}
	g.emitf("\tmovq %%rax, %%r10")
	if err := g.emitExprNumeric(val); err != nil {
		return err
	}
	g.emitf("\tcmpq %%rax, %%r10")
	g.emitf("\tje %s", target)
	return nil
}

func (g *Generator) compareScrutineeRange(rg parser.CaseRange, isFloat, isString bool, target string) error {
	skip := g.newLabel("selrangeskip")
	g.reloadScrutinee(isFloat, isString)
	if isFloat {
		g.emitf("\tmovsd %%xmm0, %%xmm2")
		if err := g.emitExprNumeric(rg.Low); err != nil {
			return err
		}
		g.emitf("\tucomisd %%xmm0, %%xmm2")
		g.emitf("\tjb %s", skip)
		g.reloadScrutinee(isFloat, isString)
		g.emitf("\tmovsd %%xmm0, %%xmm2")
		if err := g.emitExprNumeric(rg.High); err != nil {
			return err
		}
		g.emitf("\tucomisd %%xmm2, %%xmm0")
		g.emitf("\tjb %s", skip)
		g.emitf("\tjmp %s", target)
		g.emitf("%s:", skip)
		return nil
	}
	g.emitf("\tmovq %%rax, %%r10")
	if err := g.emitExprNumeric(rg.Low); err != nil {
		return err
	}
	g.emitf("\tcmpq %%rax, %%r10")
	g.emitf("\tjl %s", skip)
	if err := g.emitExprNumeric(rg.High); err != nil {
		return err
	}
	g.emitf("\tcmpq %%rax, %%r10")
	g.emitf("\tjg %s", skip)
	g.emitf("\tjmp %s", target)
	g.emitf("%s:", skip)
	return nil
}

// compareScrutineeIs lowers CASE IS op expr by comparing the scrutinee
// against expr with op and jumping to target when it holds. String
// scrutinees only support "=" and "<>", via the runtime's str_eq.
func (g *Generator) compareScrutineeIs(t parser.CaseIsTest, isFloat, isString bool, target string) error {
	if isString {
		if t.Op != "=" && t.Op != "<>" {
			return codegenError(t.Expr.Position(), "CASE IS %s is not defined over strings", t.Op)
		}
		g.reloadScrutinee(isFloat, isString)
		g.emitf("\tpushq %%rax")
		g.emitf("\tpushq %%rdx")
		if err := g.emitExprString(t.Expr); err != nil {
			return err
		}
		g.emitf("\tmovq %%rax, %%%s", g.abi.IntArgRegs[2])
		g.emitf("\tmovq %%rdx, %%%s", g.abi.IntArgRegs[3])
		g.emitf("\tpopq %%%s", g.abi.IntArgRegs[1])
		g.emitf("\tpopq %%%s", g.abi.IntArgRegs[0])
		g.emitLibmCall("str_eq")
		g.emitf("\ttestq %%rax, %%rax")
		if t.Op == "=" {
			g.emitf("\tjnz %s", target)
		} else {
			g.emitf("\tjz %s", target)
		}
		return nil
	}

	g.reloadScrutinee(isFloat, isString)
	if isFloat {
		g.emitf("\tmovsd %%xmm0, %%xmm2")
		if err := g.emitExprNumeric(t.Expr); err != nil {
			return err
		}
		g.emitf("\tucomisd %%xmm0, %%xmm2")
		jcc := map[string]string{
			"=": "je", "<>": "jne", "<": "jb", ">": "ja", "<=": "jbe", ">=": "jae",
		}[t.Op]
		g.emitf("\t%s %s", jcc, target)
		return nil
	}

	g.emitf("\tmovq %%rax, %%r10")
	if err := g.emitExprNumeric(t.Expr); err != nil {
		return err
	}
	g.emitf("\tcmpq %%rax, %%r10")
	jcc := map[string]string{
		"=": "je", "<>": "jne", "<": "jl", ">": "jg", "<=": "jle", ">=": "jge",
	}[t.Op]
	g.emitf("\t%s %s", jcc, target)
	return nil
}
