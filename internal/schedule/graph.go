package schedule

import (
	"bytes"
	"encoding/json"
)

// Graph maps task ids to the canonical definitions read back from the
// queue. It marshals as {"<id>": {"task": {...}}, ...} in submission order.
type Graph struct {
	order []string
	tasks map[string]json.RawMessage
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{tasks: make(map[string]json.RawMessage)}
}

// Add records the definition of id. Re-adding an id replaces its definition
// without changing its position.
func (g *Graph) Add(id string, def json.RawMessage) {
	if _, ok := g.tasks[id]; !ok {
		g.order = append(g.order, id)
	}
	g.tasks[id] = def
}

// IDs returns the task ids in submission order.
func (g *Graph) IDs() []string {
	return append([]string(nil), g.order...)
}

// Task returns the recorded definition of id.
func (g *Graph) Task(id string) (json.RawMessage, bool) {
	def, ok := g.tasks[id]
	return def, ok
}

// Len returns the number of recorded tasks.
func (g *Graph) Len() int {
	return len(g.order)
}

// MarshalJSON implements json.Marshaler.
func (g *Graph) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, id := range g.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(id)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteString(`:{"task":`)
		buf.Write(g.tasks[id])
		buf.WriteByte('}')
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
