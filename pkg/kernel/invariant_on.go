//go:build clawzdebug

package kernel

// InvariantChecks is true in development builds (-tags clawzdebug). Slicer
// input validation and double-dispose detection panic instead of being ignored.
const InvariantChecks = true
