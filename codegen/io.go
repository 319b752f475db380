package codegen

import "github.com/lookbusy1344/basicc/parser"

// emitPrintValue lowers one PRINT value: a string argument is written via
// print_string, a numeric one is formatted via print_float.
func (g *Generator) emitPrintValue(e parser.Expr) error {
	if e.ExprType() == parser.TypeString {
		if err := g.emitExprString(e); err != nil {
			return err
		}
		g.emitf("\tmovq %%rax, %%%s", g.abi.IntArgRegs[0])
		g.emitf("\tmovq %%rdx, %%%s", g.abi.IntArgRegs[1])
		g.emitLibmCall("print_string")
		return nil
	}
	if err := g.emitArgFloat(e); err != nil {
		return err
	}
	g.emitLibmCall("print_float")
	return nil
}

// emitPrintSep lowers the separator that followed a PRINT item: ";" emits
// nothing, "," advances to the next print zone via a literal tab.
func (g *Generator) emitPrintSep(sep string) {
	if sep == "," {
		g.emitf("\tmovq $9, %%%s", g.abi.IntArgRegs[0])
		g.emitLibmCall("print_char")
	}
}

func (g *Generator) emitPrint(v *parser.PrintStmt) error {
	for _, item := range v.Items {
		if err := g.emitPrintValue(item.Value); err != nil {
			return err
		}
		g.emitPrintSep(item.Sep)
	}
	if len(v.Items) == 0 || v.Items[len(v.Items)-1].Sep == "" {
		g.emitLibmCall("print_newline")
	}
	return nil
}

func (g *Generator) emitFilePrint(v *parser.FilePrintStmt) error {
	for _, item := range v.Items {
		if item.Value.ExprType() == parser.TypeString {
			if err := g.emitExprString(item.Value); err != nil {
				return err
			}
			g.emitf("\tmovq %%rax, %%%s", g.abi.IntArgRegs[1])
			g.emitf("\tmovq %%rdx, %%%s", g.abi.IntArgRegs[2])
			g.emitf("\tmovq $%d, %%%s", v.FileNo, g.abi.IntArgRegs[0])
			g.emitLibmCall("file_print_string")
		} else {
			if err := g.emitArgFloat(item.Value); err != nil {
				return err
			}
			g.emitf("\tmovq $%d, %%%s", v.FileNo, g.abi.IntArgRegs[0])
			g.emitLibmCall("file_print_float")
		}
		g.emitPrintSep(item.Sep)
	}
	return nil
}

func (g *Generator) emitInput(v *parser.InputStmt) error {
	if v.HasPrompt {
		label := g.internString(v.Prompt)
		g.emitf("\tleaq %s(%%rip), %%%s", label, g.abi.IntArgRegs[0])
		g.emitf("\tmovq $%d, %%%s", len(v.Prompt), g.abi.IntArgRegs[1])
		g.emitLibmCall("print_string")
	}
	for _, target := range v.Targets {
		isString := target.Suffix == "$"
		if isString {
			g.emitLibmCall("input_string")
			g.movRetString()
			if err := g.storeToLValue(target, true, false); err != nil {
				return err
			}
			continue
		}
		g.emitLibmCall("input_number")
		if g.abi.FloatRet != "xmm0" {
			g.emitf("\tmovsd %%%s, %%xmm0", g.abi.FloatRet)
		}
		isFloat := true
		if target.Suffix == "%" || target.Suffix == "&" {
			g.emitf("\tcvttsd2siq %%xmm0, %%rax")
			isFloat = false
		}
		if err := g.storeToLValue(target, false, isFloat); err != nil {
			return err
		}
	}
	return nil
}

func (g *Generator) emitLineInput(v *parser.LineInputStmt) error {
	if v.HasPrompt {
		label := g.internString(v.Prompt)
		g.emitf("\tleaq %s(%%rip), %%%s", label, g.abi.IntArgRegs[0])
		g.emitf("\tmovq $%d, %%%s", len(v.Prompt), g.abi.IntArgRegs[1])
		g.emitLibmCall("print_string")
	}
	g.emitLibmCall("input_string")
	g.movRetString()
	return g.storeToLValue(v.Target, true, false)
}

func (g *Generator) emitFileInput(v *parser.FileInputStmt) error {
	for _, target := range v.Targets {
		g.emitf("\tmovq $%d, %%%s", v.FileNo, g.abi.IntArgRegs[0])
		if target.Suffix == "$" {
			g.emitLibmCall("file_input_string")
			g.movRetString()
			if err := g.storeToLValue(target, true, false); err != nil {
				return err
			}
			continue
		}
		g.emitLibmCall("file_input_number")
		if g.abi.FloatRet != "xmm0" {
			g.emitf("\tmovsd %%%s, %%xmm0", g.abi.FloatRet)
		}
		isFloat := true
		if target.Suffix == "%" || target.Suffix == "&" {
			g.emitf("\tcvttsd2siq %%xmm0, %%rax")
			isFloat = false
		}
		if err := g.storeToLValue(target, false, isFloat); err != nil {
			return err
		}
	}
	return nil
}

func (g *Generator) emitFileOpen(v *parser.FileOpenStmt) error {
	if err := g.emitExprString(v.Path); err != nil {
		return err
	}
	g.emitf("\tmovq %%rax, %%%s", g.abi.IntArgRegs[0])
	g.emitf("\tmovq %%rdx, %%%s", g.abi.IntArgRegs[1])
	g.emitf("\tmovq $%d, %%%s", int(v.Mode), g.abi.IntArgRegs[2])
	g.emitf("\tmovq $%d, %%%s", v.FileNo, g.abi.IntArgRegs[3])
	g.emitLibmCall("file_open")
	return nil
}

func (g *Generator) emitFileClose(v *parser.FileCloseStmt) error {
	if !v.HasFileNo {
		g.emitf("\tmovq $0, %%%s", g.abi.IntArgRegs[0])
	} else {
		g.emitf("\tmovq $%d, %%%s", v.FileNo, g.abi.IntArgRegs[0])
	}
	g.emitLibmCall("file_close")
	return nil
}
