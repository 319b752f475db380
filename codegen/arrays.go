package codegen

import "github.com/lookbusy1344/basicc/parser"

// emitDim lowers DIM: it evaluates every dimension's bound expression,
// stores each dimension's inclusive extent (bound+1) into the array's
// header, heap-allocates element storage sized to their product, and
// stores the resulting pointer into the header too. Bounds need not be
// compile-time constants; a runtime expression like DIM A(N) allocates
// exactly as many elements as N+1 turns out to be at the moment DIM runs,
// per §3.4/§4.4.
func (g *Generator) emitDim(v *parser.DimStmt) error {
	for _, arr := range v.Arrays {
		key := frameKey(arr.Name, arr.Suffix)
		meta, ok := g.frame.arrays[key]
		if !ok {
			return codegenError(v.Pos, "internal: array %s%s has no frame header", arr.Name, arr.Suffix)
		}
		if len(arr.Dims) != len(meta.extentOffs) {
			return codegenError(v.Pos, "DIM %s%s: %d dimension(s) declared, %d resolved", arr.Name, arr.Suffix, len(arr.Dims), len(meta.extentOffs))
		}

		for i, dim := range arr.Dims {
			if err := g.emitArgAsInt(dim); err != nil {
				return err
			}
			g.emitf("\taddq $1, %%rax") // DIM bound is inclusive, per §3.4
			g.emitf("\tmovq %%rax, %d(%%rbp)", meta.extentOffs[i])
		}

		g.emitf("\tmovq $%d, %%r11", meta.elemSlots*8)
		for _, off := range meta.extentOffs {
			g.emitf("\timulq %d(%%rbp), %%r11", off)
		}
		g.emitf("\tmovq %%r11, %%%s", g.abi.IntArgRegs[0])
		g.emitCallPrologueEpilogue(func() {
			g.emitf("\tcall calloc_array")
		})
		g.emitf("\tmovq %%rax, %d(%%rbp)", meta.ptrOff)
	}
	return nil
}

// loadArrayAddr computes the address of one element of a (possibly
// multi-dimensional) array and leaves it in %rax. The base address is the
// heap block DIM allocated; indices are evaluated left to right against
// each dimension's own extent, recorded in the array's header at DIM
// time, per standard row-major addressing (§3.4).
func (g *Generator) loadArrayAddr(name, suffix string, indices []parser.Expr, pos parser.Position) error {
	key := frameKey(name, suffix)
	meta, ok := g.frame.arrays[key]
	if !ok {
		return codegenError(pos, "internal: array %s%s has no frame header", name, suffix)
	}

	// flat index accumulator lives in %r11; each dimension after the
	// first multiplies the running total by that dimension's own extent
	// before adding the new index.
	g.emitf("\tmovq $0, %%r11")
	for i, idx := range indices {
		if i > 0 {
			g.emitf("\timulq %d(%%rbp), %%r11", meta.extentOffs[i])
		}
		if err := g.emitArgAsInt(idx); err != nil {
			return err
		}
		if g.boundsCheck {
			g.emitf("\tcmpq $0, %%rax")
			g.emitf("\tjl .Lboundstrap")
			g.emitf("\tcmpq %d(%%rbp), %%rax", meta.extentOffs[i])
			g.emitf("\tjge .Lboundstrap")
		}
		g.emitf("\taddq %%rax, %%r11")
	}
	g.emitf("\timulq $%d, %%r11", 8*meta.elemSlots)
	g.emitf("\tmovq %d(%%rbp), %%rax", meta.ptrOff)
	g.emitf("\taddq %%r11, %%rax")
	return nil
}
