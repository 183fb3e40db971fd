package kinds

import (
	"fmt"
	"slices"

	"github.com/vk/tvtaskgraph/internal/dag"
	"github.com/vk/tvtaskgraph/internal/taskbuilder"
	"github.com/vk/tvtaskgraph/internal/taskdef"
	"github.com/vk/tvtaskgraph/internal/trust"
)

// ReleaseTypeLAT marks releases that are built and signed but never pushed.
const ReleaseTypeLAT = "lat"

// Target selects the declarations a run schedules.
type Target struct {
	TasksFor    string
	ReleaseType string
}

func (t Target) matches(def Definition) bool {
	if len(def.RunOn) > 0 && !slices.Contains(def.RunOn, t.TasksFor) {
		return false
	}
	return def.ReleaseType == "" || def.ReleaseType == t.ReleaseType
}

// Select returns the declarations matching target together with everything
// they depend on, in input order. For LAT releases email tasks lose
// their "push" dependency first, so the push task is only kept when
// something else needs it.
func Select(defs []Definition, target Target) []Definition {
	prepared := make([]Definition, len(defs))
	byLabel := make(map[string]int, len(defs))
	for i, def := range defs {
		if _, ok := def.Worker.(*EmailWorker); ok && target.ReleaseType == ReleaseTypeLAT {
			def = withoutDependency(def, "push")
		}
		prepared[i] = def
		byLabel[def.Label] = i
	}

	keep := make([]bool, len(prepared))
	var visit func(i int)
	visit = func(i int) {
		if keep[i] {
			return
		}
		keep[i] = true
		for _, label := range prepared[i].Dependencies {
			// Unknown labels are reported by Order.
			if j, ok := byLabel[label]; ok {
				visit(j)
			}
		}
	}
	for i, def := range prepared {
		if target.matches(def) {
			visit(i)
		}
	}

	var selected []Definition
	for i, def := range prepared {
		if keep[i] {
			selected = append(selected, def)
		}
	}
	return selected
}

func withoutDependency(def Definition, name string) Definition {
	deps := make(map[string]string, len(def.Dependencies))
	for k, v := range def.Dependencies {
		if k != name {
			deps[k] = v
		}
	}
	def.Dependencies = deps
	return def
}

// Transform builds the entry of every declaration. All entries share level
// and carry the trust-level and kind attributes.
func Transform(b taskbuilder.Builder, defs []Definition, level trust.Level) ([]taskdef.Entry, error) {
	entries := make([]taskdef.Entry, 0, len(defs))
	for _, def := range defs {
		entry, err := def.Worker.build(b, def, level)
		if err != nil {
			return nil, fmt.Errorf("task %q: %w", def.Label, err)
		}
		entry.Label = def.Label
		for name, label := range def.Dependencies {
			entry.Dependencies[name] = label
		}
		entry.Attributes[taskdef.AttrKind] = def.Worker.Kind()
		entry.Attributes[taskdef.AttrTrustLevel] = level.String()
		if def.ReleaseType != "" {
			entry.Attributes[taskdef.AttrReleaseType] = def.ReleaseType
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Order sorts entries so that every entry follows its dependencies. Ties
// keep the input order. Unknown dependency labels and cycles are errors.
func Order(entries []taskdef.Entry) ([]taskdef.Entry, error) {
	g := dag.New()
	byLabel := make(map[string]taskdef.Entry, len(entries))
	for _, e := range entries {
		if _, dup := byLabel[e.Label]; dup {
			return nil, fmt.Errorf("duplicate task label %q", e.Label)
		}
		byLabel[e.Label] = e
		g.AddNode(e.Label)
	}

	for _, e := range entries {
		names := make([]string, 0, len(e.Dependencies))
		for name := range e.Dependencies {
			names = append(names, name)
		}
		slices.Sort(names)
		for _, name := range names {
			label := e.Dependencies[name]
			if !g.HasNode(label) {
				return nil, fmt.Errorf("task %q: dependency %q refers to unknown task %q", e.Label, name, label)
			}
			if err := g.AddEdge(label, e.Label); err != nil {
				return nil, fmt.Errorf("task %q: %w", e.Label, err)
			}
		}
	}

	labels, err := g.TopologicalOrder()
	if err != nil {
		return nil, err
	}
	ordered := make([]taskdef.Entry, len(labels))
	for i, label := range labels {
		ordered[i] = byLabel[label]
	}
	return ordered, nil
}
