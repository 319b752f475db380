// Package codegen lowers a resolved parser.Program directly into x86-64
// assembly text: there is no IR, and the generator never calls an
// assembler or linker itself (that is package driver's job). Dispatch
// follows the teacher encoder's shape of one function per instruction
// family, except the family is a BASIC statement or expression kind and
// the output is assembly mnemonics instead of encoded machine words.
package codegen

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lookbusy1344/basicc/parser"
)

// Generator holds all state needed to lower one parser.Program.
type Generator struct {
	prog        *parser.Program
	abi         ABI
	boundsCheck bool

	text strings.Builder
	data strings.Builder
	bss  strings.Builder

	labelN int

	strLits map[string]string // literal content -> .data label, deduplicated

	frame   *frame            // frame of the procedure currently being lowered
	frames  map[string]*frame // procedure name -> frame, built up front
	curProc *parser.Procedure

	loopExit  []string // stack of labels "break" would target, for future use
	curLabels map[string]string
}

// frame is one procedure's stack layout: every scalar and array gets a
// fixed offset from %rbp, assigned once up front in declaration order.
// Every slot is 8 bytes regardless of BASIC type width: Integer/Long
// values are sign-extended into it, Single/Double values occupy it as a
// full double, and a String occupies two consecutive slots (pointer,
// then length). This uniform width trades a few bytes of stack per
// Integer for a single code path through every load/store site.
type frame struct {
	size    int
	offsets map[string]int       // symKey(name,suffix) -> offset from rbp (negative)
	arrays  map[string]arrayMeta // symKey -> its header layout, for DIM'd arrays
}

// arrayMeta locates one array's header: a pointer slot holding the heap
// block DIM allocates (§3.4: "arrays ... are allocated on the heap and
// hold a header storing each dimension's extent"), plus one slot per
// dimension holding that dimension's inclusive extent (d_i+1), filled in
// at DIM time and read back by every later element reference.
type arrayMeta struct {
	ptrOff     int
	extentOffs []int
	elemSlots  int // 1 for numeric elements, 2 (ptr,len) for String elements
}

func frameKey(name, suffix string) string { return name + "\x00" + suffix }

// Generate lowers prog into a complete assembly-text translation unit
// ready for the assembler named in config.Tools.Assembler.
func Generate(prog *parser.Program, abi ABI, boundsCheck bool) (string, error) {
	g := &Generator{
		prog:        prog,
		abi:         abi,
		boundsCheck: boundsCheck,
		strLits:     make(map[string]string),
		frames:      make(map[string]*frame),
	}

	g.buildFrame("__main", prog.SymbolTable)
	for _, proc := range prog.Procedures {
		g.buildFrame(proc.Name, proc.Locals)
	}

	g.emitDataSection()
	g.emitBSSSection()

	if err := g.emitProcedure(prog.Main); err != nil {
		return "", err
	}
	for _, proc := range prog.Procedures {
		if err := g.emitProcedure(proc); err != nil {
			return "", err
		}
	}

	if g.boundsCheck {
		g.emitf(".Lboundstrap:")
		g.emitLibmCall("array_bounds_error")
	}

	// Literals are interned while the procedures and the DATA table are
	// lowered, so the pool is written only once all of them are known.
	g.emitStringLiterals()

	var out strings.Builder
	out.WriteString(".data\n")
	out.WriteString(g.data.String())
	out.WriteString("\n.bss\n")
	out.WriteString(g.bss.String())
	out.WriteString("\n.text\n")
	out.WriteString(g.text.String())
	return out.String(), nil
}

// buildFrame assigns stack offsets to every symbol in st, in first-mention
// order, and records the frame under procName. A scalar or plain array
// header takes a small, fixed number of slots regardless of the array's
// declared size: DIM (arrays.go's emitDim) heap-allocates the actual
// element storage at run time and stores the pointer plus each
// dimension's extent into this header, per §3.4.
func (g *Generator) buildFrame(procName string, st *parser.SymbolTable) {
	f := &frame{offsets: make(map[string]int), arrays: make(map[string]arrayMeta)}
	off := 0
	for _, sym := range st.All() {
		slots := 1
		if sym.Type == parser.TypeString {
			slots = 2
		}
		if sym.IsArray {
			elemSlots := slots
			slots = 1 // the header's pointer slot
			off += 8 * slots
			ptrOff := -off
			extentOffs := make([]int, sym.ArrayDims)
			for i := 0; i < sym.ArrayDims; i++ {
				off += 8
				extentOffs[i] = -off
			}
			f.arrays[frameKey(sym.Name, sym.Suffix)] = arrayMeta{
				ptrOff: ptrOff, extentOffs: extentOffs, elemSlots: elemSlots,
			}
			f.offsets[frameKey(sym.Name, sym.Suffix)] = ptrOff
			continue
		}
		off += 8 * slots
		f.offsets[frameKey(sym.Name, sym.Suffix)] = -off
	}
	// Round the frame to a 16-byte multiple so that, combined with the
	// 8-byte return address already pushed by CALL, %rsp is 16-aligned
	// at every CALL this procedure makes after its prologue.
	if off%16 != 0 {
		off += 16 - off%16
	}
	f.size = off
	g.frames[procName] = f
}

func (g *Generator) newLabel(tag string) string {
	g.labelN++
	return fmt.Sprintf(".L%s%d", tag, g.labelN)
}

func (g *Generator) emitf(format string, args ...interface{}) {
	fmt.Fprintf(&g.text, format, args...)
	g.text.WriteByte('\n')
}

func (g *Generator) comment(s string) {
	g.emitf("\t# %s", s)
}

// procLabel mangles a BASIC procedure name into an assembler symbol.
func procLabel(name string) string {
	if name == "__main" {
		return "main"
	}
	return "basic_sub_" + strings.ToLower(name)
}

// asmLabel mangles a BASIC line-number/identifier label, scoped to its
// procedure, into a local assembler label.
func asmLabel(procName, label string) string {
	return fmt.Sprintf(".Llbl_%s_%s", sanitizeLabel(procName), sanitizeLabel(label))
}

func sanitizeLabel(s string) string {
	var sb strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		default:
			sb.WriteByte('_')
		}
	}
	return sb.String()
}

func (g *Generator) emitDataSection() {
	fmt.Fprintf(&g.data, "\t.globl _abs_mask\n\t.align 16\n_abs_mask:\n\t.quad 0x7fffffffffffffff\n\t.quad 0x7fffffffffffffff\n")
	g.emitDataTable()
}

func (g *Generator) emitBSSSection() {
	fmt.Fprintf(&g.bss, "\t.globl _data_ptr\n\t.globl _rnd_state\n\t.globl _rnd_prev\n\t.globl _rnd_has_prev\n")
	fmt.Fprintf(&g.bss, "_data_ptr:\n\t.quad 0\n")
	fmt.Fprintf(&g.bss, "_gosub_sp:\n\t.quad 0\n")
	fmt.Fprintf(&g.bss, "_gosub_stack:\n\t.zero %d\n", 8*parser.GosubStackDepth)
	fmt.Fprintf(&g.bss, "_rnd_state:\n\t.quad 0\n")
	fmt.Fprintf(&g.bss, "_rnd_prev:\n\t.quad 0\n")
	fmt.Fprintf(&g.bss, "_rnd_has_prev:\n\t.byte 0\n")
}

// internString interns s as a NUL-terminated .data literal and returns its
// assembler label, deduplicating identical content.
func (g *Generator) internString(s string) string {
	if label, ok := g.strLits[s]; ok {
		return label
	}
	label := fmt.Sprintf("_strlit%d", len(g.strLits))
	g.strLits[s] = label
	return label
}

func (g *Generator) emitStringLiterals() {
	// Deterministic order for reproducible output.
	keys := make([]string, 0, len(g.strLits))
	for k := range g.strLits {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return g.strLits[keys[i]] < g.strLits[keys[j]] })
	for _, k := range keys {
		fmt.Fprintf(&g.data, "%s:\n\t.asciz %s\n", g.strLits[k], AsmQuote(k))
	}
}

// emitProcedure lowers one procedure's prologue, body, and epilogue.
func (g *Generator) emitProcedure(proc *parser.Procedure) error {
	g.curProc = proc
	g.frame = g.frames[proc.Name]

	label := procLabel(proc.Name)
	g.emitf(".globl %s", label)
	g.emitf("%s:", label)
	g.emitf("\tpushq %%rbp")
	g.emitf("\tmovq %%rsp, %%rbp")
	if g.frame.size > 0 {
		g.emitf("\tsubq $%d, %%rsp", g.frame.size)
	}

	g.spillParams(proc)

	if proc.Name == "__main" {
		g.emitf("\tleaq _data_table(%%rip), %%rax")
		g.emitf("\tmovq %%rax, _data_ptr(%%rip)")
	}

	if err := g.emitStmts(proc.Body); err != nil {
		return err
	}

	g.emitf("%s_epilogue:", label)
	if proc.Kind == parser.ProcFunction {
		g.loadFuncReturn(proc)
	}
	g.emitf("\tleave")
	if proc.Name == "__main" {
		g.emitf("\tmovq $0, %%rax")
	}
	g.emitf("\tret")
	return nil
}

// spillParams copies each incoming argument register into its frame slot,
// per the ABI's argument register sequence, splitting int and float
// arguments into their own parallel register streams as SysV/Win64 both
// require.
func (g *Generator) spillParams(proc *parser.Procedure) {
	intN, fltN := 0, 0
	for _, param := range proc.Params {
		off, ok := g.frame.offsets[frameKey(strings.ToLower(param.Name), suffixOf(param.Type))]
		if !ok {
			// an unsuffixed parameter is a Double whose symbol has no suffix
			off = g.frame.offsets[frameKey(strings.ToLower(param.Name), "")]
		}
		if param.Type == parser.TypeString {
			if intN+1 >= len(g.abi.IntArgRegs) {
				continue
			}
			g.emitf("\tmovq %%%s, %d(%%rbp)", g.abi.IntArgRegs[intN], off)
			g.emitf("\tmovq %%%s, %d(%%rbp)", g.abi.IntArgRegs[intN+1], off+8)
			intN += 2
			continue
		}
		if param.Type == parser.TypeSingle || param.Type == parser.TypeDouble {
			if fltN >= len(g.abi.FloatArgRegs) {
				continue
			}
			g.emitf("\tmovsd %%%s, %d(%%rbp)", g.abi.FloatArgRegs[fltN], off)
			fltN++
			continue
		}
		if intN >= len(g.abi.IntArgRegs) {
			continue
		}
		g.emitf("\tmovq %%%s, %d(%%rbp)", g.abi.IntArgRegs[intN], off)
		intN++
	}
}

func suffixOf(t parser.Type) string {
	switch t {
	case parser.TypeInteger:
		return "%"
	case parser.TypeLong:
		return "&"
	case parser.TypeSingle:
		return "!"
	case parser.TypeDouble:
		return "#"
	case parser.TypeString:
		return "$"
	default:
		return ""
	}
}

// loadFuncReturn moves a FUNCTION's return-value slot into the ABI's
// return register(s) immediately before LEAVE, per §4.4's value-placement
// convention.
func (g *Generator) loadFuncReturn(proc *parser.Procedure) {
	off, ok := g.frame.offsets[frameKey(strings.ToLower(proc.Name), suffixOf(proc.ReturnType))]
	if !ok {
		// an unsuffixed FUNCTION name is a Double whose symbol has no suffix
		off, ok = g.frame.offsets[frameKey(strings.ToLower(proc.Name), "")]
	}
	if !ok {
		return
	}
	switch proc.ReturnType {
	case parser.TypeString:
		g.emitf("\tmovq %d(%%rbp), %%%s", off, g.abi.IntRet)
		g.emitf("\tmovq %d(%%rbp), %%%s", off+8, g.abi.IntRet2)
	case parser.TypeSingle, parser.TypeDouble:
		g.emitf("\tmovsd %d(%%rbp), %%%s", off, g.abi.FloatRet)
	default:
		g.emitf("\tmovq %d(%%rbp), %%%s", off, g.abi.IntRet)
	}
}

// emitStmts lowers a statement list, emitting an assembler label first for
// any statement carrying one.
func (g *Generator) emitStmts(stmts []parser.Stmt) error {
	for _, s := range stmts {
		if lbl := stmtLabel(s); lbl != "" {
			g.emitf("%s:", asmLabel(g.curProc.Name, lbl))
		}
		if err := g.emitStmt(s); err != nil {
			return err
		}
	}
	return nil
}

func stmtLabel(s parser.Stmt) string {
	switch v := s.(type) {
	case *parser.AssignStmt:
		return v.Label
	case *parser.PrintStmt:
		return v.Label
	case *parser.InputStmt:
		return v.Label
	case *parser.LineInputStmt:
		return v.Label
	case *parser.IfStmt:
		return v.Label
	case *parser.SingleLineIfStmt:
		return v.Label
	case *parser.ForStmt:
		return v.Label
	case *parser.WhileStmt:
		return v.Label
	case *parser.DoStmt:
		return v.Label
	case *parser.GotoStmt:
		return v.Label
	case *parser.GosubStmt:
		return v.Label
	case *parser.ReturnStmt:
		return v.Label
	case *parser.OnGotoStmt:
		return v.Label
	case *parser.DimStmt:
		return v.Label
	case *parser.SubCallStmt:
		return v.Label
	case *parser.ReadStmt:
		return v.Label
	case *parser.RestoreStmt:
		return v.Label
	case *parser.SelectCaseStmt:
		return v.Label
	case *parser.FileOpenStmt:
		return v.Label
	case *parser.FileCloseStmt:
		return v.Label
	case *parser.FilePrintStmt:
		return v.Label
	case *parser.FileInputStmt:
		return v.Label
	case *parser.ClsStmt:
		return v.Label
	case *parser.EndStmt:
		return v.Label
	case *parser.StopStmt:
		return v.Label
	}
	return ""
}

// emitStmt dispatches one statement to its lowering function, mirroring
// the teacher encoder's one-switch-per-family shape.
func (g *Generator) emitStmt(s parser.Stmt) error {
	switch v := s.(type) {
	case *parser.AssignStmt:
		return g.emitAssign(v)
	case *parser.PrintStmt:
		return g.emitPrint(v)
	case *parser.FilePrintStmt:
		return g.emitFilePrint(v)
	case *parser.InputStmt:
		return g.emitInput(v)
	case *parser.FileInputStmt:
		return g.emitFileInput(v)
	case *parser.LineInputStmt:
		return g.emitLineInput(v)
	case *parser.IfStmt:
		return g.emitIf(v)
	case *parser.SingleLineIfStmt:
		return g.emitSingleLineIf(v)
	case *parser.ForStmt:
		return g.emitFor(v)
	case *parser.WhileStmt:
		return g.emitWhile(v)
	case *parser.DoStmt:
		return g.emitDo(v)
	case *parser.GotoStmt:
		g.emitf("\tjmp %s", asmLabel(g.curProc.Name, v.Label))
		return nil
	case *parser.GosubStmt:
		return g.emitGosub(v)
	case *parser.ReturnStmt:
		return g.emitReturn(v)
	case *parser.OnGotoStmt:
		return g.emitOnGoto(v)
	case *parser.DimStmt:
		return g.emitDim(v)
	case *parser.SubCallStmt:
		return g.emitSubCall(v)
	case *parser.ReadStmt:
		return g.emitRead(v)
	case *parser.RestoreStmt:
		return g.emitRestore(v)
	case *parser.SelectCaseStmt:
		return g.emitSelectCase(v)
	case *parser.FileOpenStmt:
		return g.emitFileOpen(v)
	case *parser.FileCloseStmt:
		return g.emitFileClose(v)
	case *parser.ClsStmt:
		g.emitLibmCall("cls")
		return nil
	case *parser.EndStmt:
		g.emitf("\tjmp %s_epilogue", procLabel(g.curProc.Name))
		return nil
	case *parser.StopStmt:
		g.emitf("\tmovq $60, %%rax")
		g.emitf("\tmovq $0, %%rdi")
		g.emitf("\tsyscall")
		return nil
	}
	return codegenError(s.Position(), "unhandled statement kind %T", s)
}
