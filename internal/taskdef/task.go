package taskdef

// Task is the task definition accepted by the queue's createTask endpoint.
type Task struct {
	ProvisionerID string   `json:"provisionerId"`
	WorkerType    string   `json:"workerType"`
	TaskGroupID   string   `json:"taskGroupId,omitempty"`
	SchedulerID   string   `json:"schedulerId,omitempty"`
	Created       string   `json:"created"`
	Deadline      string   `json:"deadline"`
	Dependencies  []string `json:"dependencies,omitempty"`
	Routes        []string `json:"routes,omitempty"`
	Scopes        []string `json:"scopes"`
	Payload       Payload  `json:"payload"`
	Metadata      Metadata `json:"metadata"`
	Extra         *Extra   `json:"extra,omitempty"`
}

// Payload is the union of the payload shapes used by the pipeline. Shell
// tasks fill the docker-worker fields, scriptworker tasks the upstream
// artifact fields, and the notification task leaves it empty.
type Payload struct {
	MaxRunTime int                 `json:"maxRunTime,omitempty"`
	Image      string              `json:"image,omitempty"`
	Command    []string            `json:"command,omitempty"`
	Artifacts  map[string]Artifact `json:"artifacts,omitempty"`
	Features   *Features           `json:"features,omitempty"`

	UpstreamArtifacts []UpstreamArtifact `json:"upstreamArtifacts,omitempty"`
	Channel           string             `json:"channel,omitempty"`
	TargetStore       string             `json:"target_store,omitempty"`
}

// Features toggles docker-worker features.
type Features struct {
	TaskclusterProxy bool `json:"taskclusterProxy"`
	ChainOfTrust     bool `json:"chainOfTrust"`
}

// UpstreamArtifact points a scriptworker task at artifacts of a dependency.
type UpstreamArtifact struct {
	TaskID   string   `json:"taskId"`
	TaskType string   `json:"taskType"`
	Paths    []string `json:"paths"`
	Formats  []string `json:"formats,omitempty"`
}

// Metadata is the human-facing part of a task definition.
type Metadata struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Owner       string `json:"owner"`
	Source      string `json:"source"`
}

// Extra carries data consumed by services other than the worker.
type Extra struct {
	Notify *Notify `json:"notify,omitempty"`
}

// Notify is read by the notification service once the task resolves.
type Notify struct {
	Email EmailNotice `json:"email"`
}

// EmailNotice is the templated message sent to release management.
type EmailNotice struct {
	Subject string     `json:"subject"`
	Content string     `json:"content"`
	Link    *EmailLink `json:"link,omitempty"`
}

// EmailLink is the call to action rendered under the email content.
type EmailLink struct {
	Text string `json:"text"`
	Href string `json:"href"`
}
