package codegen

// ABI parameterizes the generator over the two calling-convention flavors
// the runtime supports, per §4.5: a SysV/libc flavor for Linux and a
// Win64/UCRT flavor for Windows. The generator itself never forks on
// target OS; every OS-specific decision reduces to a lookup in one of
// these tables.
type ABI struct {
	Name string

	// IntArgRegs is the integer/pointer argument register sequence, in
	// order. Strings occupy one slot for the pointer and a second for
	// the length, exactly as any other two-word argument would.
	IntArgRegs []string
	// FloatArgRegs is the SSE argument register sequence for Single/Double
	// arguments.
	FloatArgRegs []string

	// ShadowSpace is the caller-reserved scratch area below the return
	// address that Win64 requires even when unused (0 under SysV).
	ShadowSpace int

	// StackAlign is the required %rsp alignment, in bytes, at the point
	// of a CALL instruction.
	StackAlign int

	// IntRet/FloatRet are the return-value registers. Int/Long/Integer
	// results land in IntRet (narrowed to eax/ax as appropriate); String
	// results use IntRet for the pointer and IntRet2 for the length;
	// Single/Double results land in FloatRet, per §4.4's value-placement
	// convention.
	IntRet     string
	IntRet2    string
	FloatRet   string
	CalleeSave []string
}

// SysVABI is the default target: Linux/System V AMD64, assembled and
// linked against libc via "cc".
var SysVABI = ABI{
	Name:         "sysv",
	IntArgRegs:   []string{"rdi", "rsi", "rdx", "rcx", "r8", "r9"},
	FloatArgRegs: []string{"xmm0", "xmm1", "xmm2", "xmm3", "xmm4", "xmm5", "xmm6", "xmm7"},
	ShadowSpace:  0,
	StackAlign:   16,
	IntRet:       "rax",
	IntRet2:      "rdx",
	FloatRet:     "xmm0",
	CalleeSave:   []string{"rbx", "r12", "r13", "r14", "r15"},
}

// Win64ABI targets native Windows/UCRT: four argument registers, a
// mandatory 32-byte shadow space, and xmm0-3 for floats.
var Win64ABI = ABI{
	Name:         "win64",
	IntArgRegs:   []string{"rcx", "rdx", "r8", "r9"},
	FloatArgRegs: []string{"xmm0", "xmm1", "xmm2", "xmm3"},
	ShadowSpace:  32,
	StackAlign:   16,
	IntRet:       "rax",
	IntRet2:      "rdx",
	FloatRet:     "xmm0",
	CalleeSave:   []string{"rbx", "rdi", "rsi", "r12", "r13", "r14", "r15"},
}

// ABIByName resolves a configuration target string ("sysv" or "win64") to
// an ABI table, defaulting to SysVABI.
func ABIByName(name string) ABI {
	if name == "win64" {
		return Win64ABI
	}
	return SysVABI
}
