package codegen

import (
	"fmt"

	"github.com/lookbusy1344/basicc/parser"
)

// codegenError reports an internal-invariant failure: something the
// resolver should already have ruled out (an unresolved type, an unknown
// statement kind reaching the dispatcher). It carries ErrorType since
// every such failure is, at bottom, a typing problem the generator
// cannot lower.
func codegenError(pos parser.Position, format string, args ...interface{}) error {
	return parser.NewError(pos, parser.ErrorType, fmt.Sprintf(format, args...))
}
