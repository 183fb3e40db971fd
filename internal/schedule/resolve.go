package schedule

import (
	"errors"
	"fmt"
	"slices"

	"github.com/vk/tvtaskgraph/internal/dag"
	"github.com/vk/tvtaskgraph/internal/taskdef"
)

// Scheduled is an entry paired with the task id it will be created under.
type Scheduled struct {
	ID    string
	Entry taskdef.Entry
}

// Assign pairs each entry with a fresh id from newID.
func Assign(entries []taskdef.Entry, newID func() string) []Scheduled {
	batch := make([]Scheduled, len(entries))
	for i, e := range entries {
		batch[i] = Scheduled{ID: newID(), Entry: e}
	}
	return batch
}

// Validate checks that batch can be submitted in order.
func Validate(batch []Scheduled) error {
	g := dag.New()
	labelAt := make(map[string]int, len(batch))
	idAt := make(map[string]int, len(batch))

	for i, s := range batch {
		if s.ID == "" {
			return fmt.Errorf("entry %q has no task id", s.Entry.Label)
		}
		if s.Entry.Label == "" {
			return fmt.Errorf("task %s has no label", s.ID)
		}
		if _, dup := labelAt[s.Entry.Label]; dup {
			return fmt.Errorf("duplicate label %q", s.Entry.Label)
		}
		if _, dup := idAt[s.ID]; dup {
			return fmt.Errorf("duplicate task id %s", s.ID)
		}
		labelAt[s.Entry.Label] = i
		idAt[s.ID] = i
		g.AddNode(s.Entry.Label)
	}

	for _, s := range batch {
		for name, label := range s.Entry.Dependencies {
			if !g.HasNode(label) {
				return fmt.Errorf("entry %q: dependency %q refers to unknown label %q", s.Entry.Label, name, label)
			}
			if err := g.AddEdge(label, s.Entry.Label); err != nil {
				return fmt.Errorf("entry %q: %w", s.Entry.Label, err)
			}
		}
		for _, dep := range s.Entry.Task.Dependencies {
			// Ids outside the batch are tasks that already exist.
			if j, ok := idAt[dep]; ok {
				if err := g.AddEdge(batch[j].Entry.Label, s.Entry.Label); err != nil {
					return fmt.Errorf("entry %q: %w", s.Entry.Label, err)
				}
			}
		}
		for _, ref := range refsOf(s.Entry.Task) {
			name, _, _ := taskdef.ParseRef(ref)
			if _, ok := s.Entry.Dependencies[name]; !ok {
				return fmt.Errorf("entry %q: reference %s does not name a dependency", s.Entry.Label, ref)
			}
		}
	}

	if err := g.DetectCycles(); err != nil {
		return err
	}

	for i, s := range batch {
		deps, err := g.Dependencies(s.Entry.Label)
		if err != nil {
			return err
		}
		for _, dep := range deps {
			if labelAt[dep] > i {
				return fmt.Errorf("entry %q depends on %q, which comes later in the batch", s.Entry.Label, dep)
			}
		}
	}
	return nil
}

// Resolve rewrites each entry's task so that it refers to concrete task ids:
// label dependencies are appended to task.dependencies in batch order and "<name>" and
// "<name/path>" references are replaced by the dependency's id or the public
// URL of its artifact under queueRootURL. batch must have passed Validate.
func Resolve(batch []Scheduled, queueRootURL string) ([]Scheduled, error) {
	idOf := make(map[string]string, len(batch))
	position := make(map[string]int, len(batch))
	for i, s := range batch {
		idOf[s.Entry.Label] = s.ID
		position[s.ID] = i
	}

	out := make([]Scheduled, len(batch))
	for i, s := range batch {
		r := resolver{deps: make(map[string]string, len(s.Entry.Dependencies)), queueRootURL: queueRootURL}
		for name, label := range s.Entry.Dependencies {
			r.deps[name] = idOf[label]
			r.ordered = append(r.ordered, idOf[label])
		}
		slices.SortFunc(r.ordered, func(a, b string) int { return position[a] - position[b] })

		task, err := r.task(s.Entry.Task)
		if err != nil {
			return nil, fmt.Errorf("entry %q: %w", s.Entry.Label, err)
		}

		entry := s.Entry
		entry.Task = task
		out[i] = Scheduled{ID: s.ID, Entry: entry}
	}
	return out, nil
}

var errUnresolved = errors.New("unresolved reference")

type resolver struct {
	deps         map[string]string
	queueRootURL string

	// ordered holds the dependency ids in batch order.
	ordered []string
}

func (r resolver) value(s string) (string, error) {
	name, artifactPath, ok := taskdef.ParseRef(s)
	if !ok {
		return s, nil
	}
	id, ok := r.deps[name]
	if !ok {
		return "", fmt.Errorf("%w %s", errUnresolved, s)
	}
	if artifactPath == "" {
		return id, nil
	}
	return fmt.Sprintf("%s/task/%s/artifacts/%s", r.queueRootURL, id, artifactPath), nil
}

func (r resolver) task(t taskdef.Task) (taskdef.Task, error) {
	var deps []string
	for _, d := range t.Dependencies {
		v, err := r.value(d)
		if err != nil {
			return t, err
		}
		deps = appendUnique(deps, v)
	}
	for _, id := range r.ordered {
		deps = appendUnique(deps, id)
	}
	t.Dependencies = deps

	if len(t.Payload.UpstreamArtifacts) > 0 {
		upstream := make([]taskdef.UpstreamArtifact, len(t.Payload.UpstreamArtifacts))
		for i, u := range t.Payload.UpstreamArtifacts {
			v, err := r.value(u.TaskID)
			if err != nil {
				return t, err
			}
			u.TaskID = v
			upstream[i] = u
		}
		t.Payload.UpstreamArtifacts = upstream
	}

	if t.Extra != nil && t.Extra.Notify != nil && t.Extra.Notify.Email.Link != nil {
		link := *t.Extra.Notify.Email.Link
		href, err := r.value(link.Href)
		if err != nil {
			return t, err
		}
		link.Href = href
		notify := *t.Extra.Notify
		notify.Email.Link = &link
		extra := *t.Extra
		extra.Notify = &notify
		t.Extra = &extra
	}
	return t, nil
}

// refsOf lists every placeholder a task carries.
func refsOf(t taskdef.Task) []string {
	var refs []string
	add := func(s string) {
		if _, _, ok := taskdef.ParseRef(s); ok {
			refs = append(refs, s)
		}
	}
	for _, d := range t.Dependencies {
		add(d)
	}
	for _, u := range t.Payload.UpstreamArtifacts {
		add(u.TaskID)
	}
	if t.Extra != nil && t.Extra.Notify != nil && t.Extra.Notify.Email.Link != nil {
		add(t.Extra.Notify.Email.Link.Href)
	}
	return refs
}

func appendUnique(list []string, v string) []string {
	if slices.Contains(list, v) {
		return list
	}
	return append(list, v)
}
