//go:build !clawzdebug

package kernel

// InvariantChecks is false unless built with -tags clawzdebug.
const InvariantChecks = false
