package codegen

import (
	"fmt"
	"math"

	"github.com/lookbusy1344/basicc/parser"
)

// emitDataTable emits the module-wide DATA table as a sequence of 16-byte
// {tag, payload} entries, per §6's on-disk layout, followed by a
// terminating sentinel entry whose tag is all ones (-1) so
// read_number/read_string can detect "past end of DATA" without a
// separately tracked count.
func (g *Generator) emitDataTable() {
	fmt.Fprintf(&g.data, "\t.globl _data_table\n_data_table:\n")
	for _, lit := range g.prog.Data {
		switch lit.Tag {
		case parser.DataInteger:
			fmt.Fprintf(&g.data, "\t.quad 0\n\t.quad %d\n", lit.Int)
		case parser.DataDouble:
			fmt.Fprintf(&g.data, "\t.quad 1\n\t.quad %d\n", int64(math.Float64bits(lit.Float)))
		case parser.DataString:
			label := g.internString(lit.Str)
			fmt.Fprintf(&g.data, "\t.quad 2\n\t.quad %s\n", label)
		}
	}
	fmt.Fprintf(&g.data, "\t.quad -1\n\t.quad 0\n")
	fmt.Fprintf(&g.data, "_data_table_end:\n")
}

// emitRead lowers READ: each target pulls the next DATA item via
// read_number or read_string depending on the target's type, advancing
// _data_ptr as a side effect inside the runtime routine.
func (g *Generator) emitRead(v *parser.ReadStmt) error {
	for _, target := range v.Targets {
		isString := target.Suffix == "$"
		if isString {
			g.emitLibmCall("read_string")
			g.movRetString()
		} else {
			g.emitLibmCall("read_number")
			if g.abi.FloatRet != "xmm0" {
				g.emitf("\tmovsd %%%s, %%xmm0", g.abi.FloatRet)
			}
			if target.Suffix == "%" || target.Suffix == "&" {
				g.emitf("\tcvttsd2siq %%xmm0, %%rax")
			}
		}
		if err := g.storeToLValue(target, isString, !isString && target.Suffix != "%" && target.Suffix != "&"); err != nil {
			return err
		}
	}
	return nil
}

// storeToLValue stores a value already computed (string in rax/rdx, float
// in xmm0, or int in rax per isFloat/isString) into target.
func (g *Generator) storeToLValue(target parser.LValue, isString, isFloat bool) error {
	if len(target.Indices) > 0 {
		if isString {
			g.emitf("\tpushq %%rax")
			g.emitf("\tpushq %%rdx")
		} else if isFloat {
			g.emitf("\tsubq $8, %%rsp")
			g.emitf("\tmovsd %%xmm0, (%%rsp)")
		} else {
			g.emitf("\tpushq %%rax")
		}
		if err := g.loadArrayAddr(target.Name, target.Suffix, target.Indices, target.Pos); err != nil {
			return err
		}
		g.emitf("\tmovq %%rax, %%r10")
		if isString {
			g.emitf("\tpopq %%rdx")
			g.emitf("\tpopq %%rax")
			g.emitf("\tmovq %%rax, (%%r10)")
			g.emitf("\tmovq %%rdx, 8(%%r10)")
		} else if isFloat {
			g.emitf("\tmovsd (%%rsp), %%xmm0")
			g.emitf("\taddq $8, %%rsp")
			g.emitf("\tmovsd %%xmm0, (%%r10)")
		} else {
			g.emitf("\tpopq %%rax")
			g.emitf("\tmovq %%rax, (%%r10)")
		}
		return nil
	}
	off := g.varOffset(target.Name, target.Suffix)
	if isString {
		g.emitf("\tmovq %%rax, %d(%%rbp)", off)
		g.emitf("\tmovq %%rdx, %d(%%rbp)", off+8)
	} else if isFloat {
		g.emitf("\tmovsd %%xmm0, %d(%%rbp)", off)
	} else {
		g.emitf("\tmovq %%rax, %d(%%rbp)", off)
	}
	return nil
}

// emitRestore lowers RESTORE / RESTORE label by calling the runtime's
// restore(index) to reset _data_ptr.
func (g *Generator) emitRestore(v *parser.RestoreStmt) error {
	index := 0
	if v.HasLabel {
		idx, ok := g.prog.DataLabels[v.Label]
		if !ok {
			return codegenError(v.Pos, "RESTORE %s: undefined label", v.Label)
		}
		index = idx
	}
	g.emitf("\tmovq $%d, %%%s", index, g.abi.IntArgRegs[0])
	g.emitLibmCall("restore")
	return nil
}
