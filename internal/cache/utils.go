package cache

import (
	"github.com/wkillerud/some-sass-sub003/internal/symbols"
)

// targets returns the distinct document URIs doc links to. Built-in modules
// and unresolved links have no document and are left out.
func targets(doc *symbols.Document) []string {
	if doc == nil {
		return nil
	}
	seen := make(map[string]struct{})
	var out []string
	for _, l := range doc.Links(true) {
		if l.Target == "" || l.Builtin() {
			continue
		}
		if _, ok := seen[l.Target]; ok {
			continue
		}
		seen[l.Target] = struct{}{}
		out = append(out, l.Target)
	}
	return out
}

// diff computes the link targets only in a and only in b.
func diff(a, b *symbols.Document) (onlyA, onlyB []string) {
	fromA := targets(a)
	fromB := targets(b)
	inA := make(map[string]struct{}, len(fromA))
	for _, t := range fromA {
		inA[t] = struct{}{}
	}
	inB := make(map[string]struct{}, len(fromB))
	for _, t := range fromB {
		inB[t] = struct{}{}
	}
	for _, t := range fromA {
		if _, found := inB[t]; !found {
			onlyA = append(onlyA, t)
		}
	}
	for _, t := range fromB {
		if _, found := inA[t]; !found {
			onlyB = append(onlyB, t)
		}
	}
	return onlyA, onlyB
}
