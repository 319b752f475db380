package parser

// Control-flow nesting limits enforced by the parser, per §4.2's
// "the parser enforces structural correctness."
const (
	// MaxBlockNestingDepth bounds how deeply IF/FOR/WHILE/DO/SELECT CASE
	// blocks may nest within one procedure body. Prevents runaway
	// recursion in the recursive-descent statement parser on malformed
	// input that never closes a block.
	MaxBlockNestingDepth = 64
)

// GosubStackDepth is the fixed depth of the GOSUB return-address stack
// the code generator emits, per §4.5/§5 ("fixed depth >= 256").
const GosubStackDepth = 256
