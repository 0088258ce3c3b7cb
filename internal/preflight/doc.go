// Package preflight provides readiness checks for the external tools and
// filesystem paths that subgen depends on.
//
// These checks run in two contexts:
//   - The workflow runner calls RunAll before transcribing. A failed check
//     aborts the run before any audio is extracted.
//   - The "subgen doctor" command prints every check, including optional
//     dependencies and the resolved model for this machine.
package preflight
