// Guardctl is a small CLI for a running guardd instance.
//
// Usage:
//
//	guardctl list
//	guardctl health
//	guardctl validate --guardrails word,pii "some content"
//	guardctl transform --guardrails word --options '{"word":{"word_list":["foo"]}}' "foo bar"
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
