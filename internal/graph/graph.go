// Package graph resolves metric dependency graphs into a deterministic
// evaluation order.
package graph

import (
	"fmt"
	"strings"

	"fitengine/internal/catalog"
)

// CycleError reports a dependency cycle. A correctly authored metric set
// never contains one; resolution aborts with no partial result.
type CycleError struct {
	Metrics []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle among metrics: %s", strings.Join(e.Metrics, ", "))
}

// Order computes the transitive closure of the requested definitions over
// hard and weak dependencies and returns a topological evaluation order:
// every dependency strictly precedes its dependents, ties broken by the
// order in which definitions entered the closure. Duplicate requests are
// deduplicated by definition identity.
func Order(requested []*catalog.Definition) ([]*catalog.Definition, error) {
	var closure []*catalog.Definition
	seen := make(map[*catalog.Definition]bool)

	add := func(d *catalog.Definition) {
		if !seen[d] {
			seen[d] = true
			closure = append(closure, d)
		}
	}
	for _, d := range requested {
		add(d)
	}
	for i := 0; i < len(closure); i++ {
		for _, dep := range closure[i].AllDeps() {
			add(dep)
		}
	}

	ordered := make([]*catalog.Definition, 0, len(closure))
	emitted := make(map[*catalog.Definition]bool, len(closure))

	for len(ordered) < len(closure) {
		progressed := false
		for _, d := range closure {
			if emitted[d] {
				continue
			}
			ready := true
			for _, dep := range d.AllDeps() {
				if !emitted[dep] {
					ready = false
					break
				}
			}
			if ready {
				emitted[d] = true
				ordered = append(ordered, d)
				progressed = true
			}
		}
		if !progressed {
			var stuck []string
			for _, d := range closure {
				if !emitted[d] {
					stuck = append(stuck, d.Name)
				}
			}
			return nil, &CycleError{Metrics: stuck}
		}
	}

	return ordered, nil
}
