package taskbuilder

import (
	"fmt"
	"time"

	"github.com/vk/tvtaskgraph/internal/trust"
)

// Defaults applied by New when the corresponding Context field is empty.
const (
	DefaultNotifyAddress = "firefox-tv@mozilla.com"
	DefaultQueueRootURL  = "https://queue.taskcluster.net/v1"
	DefaultStoreChannel  = "production"
)

// Context is the fixed build context every descriptor is derived from. It is
// copied into the Builder and never modified afterwards.
type Context struct {
	Owner         string
	RepoURL       string
	Commit        string
	TaskGroupID   string
	NotifyAddress string
	QueueRootURL  string
	StoreChannel  string

	// Now stamps created/deadline/expiry times. Defaults to time.Now.
	Now func() time.Time
}

func (c Context) withDefaults() Context {
	if c.NotifyAddress == "" {
		c.NotifyAddress = DefaultNotifyAddress
	}
	if c.QueueRootURL == "" {
		c.QueueRootURL = DefaultQueueRootURL
	}
	if c.StoreChannel == "" {
		c.StoreChannel = DefaultStoreChannel
	}
	if c.Now == nil {
		c.Now = time.Now
	}
	return c
}

// Trust derives the run's trust level from the repository URL.
func (c Context) Trust() trust.Level {
	return trust.FromRepoURL(c.RepoURL)
}

// source is the metadata.source link for every task of the run.
func (c Context) source() string {
	return fmt.Sprintf("%s/raw/%s/.taskcluster.yml", c.RepoURL, c.Commit)
}
