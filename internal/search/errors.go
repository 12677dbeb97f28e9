package search

import (
	"errors"
	"fmt"
)

// errArenaExhausted is spec.md §7's fatal arena-exhaustion condition:
// the arena has no more Node slots. It propagates out of the worker
// errgroup and aborts the search without a best-move response.
var errArenaExhausted = errors.New("search: node arena exhausted")

func errConfigRange(name string, got, lo, hi int) error {
	return fmt.Errorf("search: %s = %d out of range [%d,%d]", name, got, lo, hi)
}

// debugAssert panics when built with the kestrel_debug tag; it is a
// no-op otherwise, an opt-in that costs nothing in a release build.
// See debug_off.go / debug_on.go for the two build-tagged
// implementations.
