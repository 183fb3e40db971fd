package taskdef

// Attribute keys set on entries.
const (
	AttrTrustLevel  = "trust-level"
	AttrReleaseType = "release-type"
	AttrKind        = "kind"
)

// Entry is one element of an ordered decision batch.
type Entry struct {
	Label      string            `json:"label"`
	Attributes map[string]string `json:"attributes"`
	// Dependencies maps a local dependency name (e.g. "build") to the label of
	// another entry in the same batch.
	Dependencies map[string]string `json:"dependencies"`
	Task         Task              `json:"task"`
}
