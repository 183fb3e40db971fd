package kinds

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/zclconf/go-cty/cty"
)

// Variables are the run values visible to expressions in task files.
type Variables struct {
	HeadRepository string
	HeadRev        string
	HeadRef        string
	HeadTag        string
	Owner          string
	ReleaseType    string
	TasksFor       string
	Level          int
}

func (v Variables) evalContext() *hcl.EvalContext {
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"head_repository": cty.StringVal(v.HeadRepository),
			"head_rev":        cty.StringVal(v.HeadRev),
			"head_ref":        cty.StringVal(v.HeadRef),
			"head_tag":        cty.StringVal(v.HeadTag),
			"owner":           cty.StringVal(v.Owner),
			"release_type":    cty.StringVal(v.ReleaseType),
			"tasks_for":       cty.StringVal(v.TasksFor),
			"level":           cty.NumberIntVal(int64(v.Level)),
		},
	}
}
