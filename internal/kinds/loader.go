package kinds

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/tvtaskgraph/internal/ctxlog"
	"github.com/vk/tvtaskgraph/internal/fsutil"
)

// Definition is one decoded task declaration.
type Definition struct {
	Label        string
	Description  string
	RunOn        []string
	ReleaseType  string
	Dependencies map[string]string
	Worker       Worker
	// File is the path the declaration was read from.
	File string
}

// fileRoot decodes the top level of a task file.
type fileRoot struct {
	Tasks []*taskBlock `hcl:"task,block"`
}

type taskBlock struct {
	Label        string            `hcl:"label,label"`
	Description  string            `hcl:"description,optional"`
	RunOn        []string          `hcl:"run_on,optional"`
	ReleaseType  string            `hcl:"release_type,optional"`
	Dependencies map[string]string `hcl:"dependencies,optional"`
	Workers      []*workerBlock    `hcl:"worker,block"`
}

type workerBlock struct {
	Type string   `hcl:"type,label"`
	Body hcl.Body `hcl:",remain"`
}

// Load reads every .hcl file under paths and decodes its task blocks with
// vars in scope. Declarations are returned in file order, then block order.
func Load(ctx context.Context, vars Variables, paths ...string) ([]Definition, error) {
	logger := ctxlog.FromContext(ctx)

	files, err := fsutil.FindFilesByExtension(".hcl", paths...)
	if err != nil {
		return nil, fmt.Errorf("failed to find task files: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .hcl task files found in %v", paths)
	}
	logger.Debug("Discovered task files.", "count", len(files))

	evalCtx := vars.evalContext()
	parser := hclparse.NewParser()
	seen := make(map[string]string)
	var defs []Definition

	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", file, diags)
		}

		var root fileRoot
		if diags := gohcl.DecodeBody(hclFile.Body, evalCtx, &root); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", file, diags)
		}

		for _, block := range root.Tasks {
			if prev, dup := seen[block.Label]; dup {
				return nil, fmt.Errorf("%s: task %q already declared in %s", file, block.Label, prev)
			}
			seen[block.Label] = file

			def, err := translate(block, evalCtx)
			if err != nil {
				return nil, fmt.Errorf("%s: task %q: %w", file, block.Label, err)
			}
			def.File = file
			defs = append(defs, def)
		}
	}

	logger.Debug("Task files loaded.", "tasks", len(defs))
	return defs, nil
}

func translate(block *taskBlock, evalCtx *hcl.EvalContext) (Definition, error) {
	if len(block.Workers) != 1 {
		return Definition{}, fmt.Errorf("expected exactly one worker block, found %d", len(block.Workers))
	}
	worker, err := decodeWorker(block.Workers[0], evalCtx)
	if err != nil {
		return Definition{}, err
	}

	deps := make(map[string]string, len(block.Dependencies))
	for name, label := range block.Dependencies {
		deps[name] = label
	}
	def := Definition{
		Label:        block.Label,
		Description:  block.Description,
		RunOn:        block.RunOn,
		ReleaseType:  block.ReleaseType,
		Dependencies: deps,
		Worker:       worker,
	}
	if err := worker.validate(def); err != nil {
		return Definition{}, err
	}
	return def, nil
}

func decodeWorker(block *workerBlock, evalCtx *hcl.EvalContext) (Worker, error) {
	var w Worker
	switch block.Type {
	case "docker":
		w = &DockerWorker{}
	case "signing":
		w = &SigningWorker{}
	case "pushapk":
		w = &PushWorker{}
	case "email":
		w = &EmailWorker{}
	default:
		return nil, fmt.Errorf("unknown worker type %q", block.Type)
	}
	if diags := gohcl.DecodeBody(block.Body, evalCtx, w); diags.HasErrors() {
		return nil, fmt.Errorf("worker %q: %w", block.Type, diags)
	}
	return w, nil
}
