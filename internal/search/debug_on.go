//go:build kestrel_debug

package search

func debugAssert(cond bool, msg string) {
	if !cond {
		panic("search: invariant violated: " + msg)
	}
}
