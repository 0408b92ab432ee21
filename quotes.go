package runwatch

import (
	"fmt"
	"math/rand"
)

// Consolation quotes printed after a failing run. Purely decorative.
var failureQuotes = []string{
	"It's not a bug, it's an undocumented feature.",
	"Fast, good, cheap: pick any two.",
	"A test that never fails tells you nothing.",
	"Hofstadter's Law: it always takes longer than you expect, even when you take into account Hofstadter's Law.",
	"Deleted code is debugged code.",
	"First, solve the problem. Then, write the code.",
	"The most effective debugging tool is still careful thought, coupled with judiciously placed print statements.",
}

// pickQuote selects a random quote from pool, falling back to the built-in
// set when pool is empty.
func pickQuote(pool []string) string {
	if len(pool) == 0 {
		pool = failureQuotes
	}
	return pool[rand.Intn(len(pool))]
}

// printFailureQuote prints a consolation quote to stdout.
func printFailureQuote(pool []string) {
	fmt.Printf("\n  %q\n\n", pickQuote(pool))
}
