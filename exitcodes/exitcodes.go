// Package exitcodes defines the standard exit codes used by runwatch.
package exitcodes

// Exit code constants used by runwatch:
//
// * Success (0): every observed test's final attempt passed or was skipped
// * TestFailure (1): at least one test's final attempt failed or timed out
// * RuntimeErr (2): runtime errors such as unreadable input or panics
const (
	Success     = 0
	TestFailure = 1
	RuntimeErr  = 2
)
