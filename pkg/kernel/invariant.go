package kernel

import "fmt"

// Assert reports a programmer error: an invariant the caller was required to
// uphold does not hold. When built with -tags clawzdebug it panics; release
// builds let the caller carry on with its documented no-op behaviour.
func Assert(cond bool, format string, args ...any) {
	if cond || !InvariantChecks {
		return
	}
	panic(fmt.Sprintf("clawz invariant violated: "+format, args...))
}
