// Package trust decides whether a decision run may use production signing
// and store credentials, and owns every worker pool and scope string that
// depends on that decision. Keeping them together stops the signing and
// push-to-store policies from drifting apart.
package trust

import (
	"fmt"
	"slices"
)

// UpstreamRepository is the canonical repository. Only runs for it are
// trusted with production credentials.
const UpstreamRepository = "https://github.com/mozilla-mobile/firefox-tv"

// ProductionLevel is the taskgraph level granted to the upstream repository.
const ProductionLevel = 3

// ScopePrefix prefixes every releng scope used by the pipeline.
const ScopePrefix = "project:mobile:firefox-tv:releng"

// ScriptworkerProvisioner hosts the signing and push workers.
const ScriptworkerProvisioner = "scriptworker-prov-v1"

// Level is the trust level of a decision run.
type Level int

const (
	Staging Level = iota
	Production
)

// FromRepoURL returns Production only for an exact match of the upstream
// repository URL.
func FromRepoURL(repoURL string) Level {
	if repoURL == UpstreamRepository {
		return Production
	}
	return Staging
}

// FromLevel maps a taskgraph level to a trust level.
func FromLevel(level int) Level {
	if level == ProductionLevel {
		return Production
	}
	return Staging
}

// IsStaging reports whether non-production credentials must be used.
func (l Level) IsStaging() bool {
	return l != Production
}

func (l Level) String() string {
	if l == Production {
		return "production"
	}
	return "staging"
}

// SigningWorkerType is the signing pool for this level.
func (l Level) SigningWorkerType() string {
	if l.IsStaging() {
		return "mobile-signing-dep-v1"
	}
	return "mobile-signing-v1"
}

// SigningType is the certificate used to sign.
func (l Level) SigningType() string {
	if l.IsStaging() {
		return "dep-signing"
	}
	return "release-signing"
}

// SigningScopes returns the cert scope followed by one format scope per
// requested format, sorted and de-duplicated.
func (l Level) SigningScopes(formats ...string) []string {
	scopes := []string{fmt.Sprintf("%s:signing:cert:%s", ScopePrefix, l.SigningType())}
	seen := make(map[string]bool, len(formats))
	sorted := make([]string, 0, len(formats))
	for _, f := range formats {
		if !seen[f] {
			seen[f] = true
			sorted = append(sorted, f)
		}
	}
	slices.Sort(sorted)
	for _, f := range sorted {
		scopes = append(scopes, fmt.Sprintf("%s:signing:format:%s", ScopePrefix, f))
	}
	return scopes
}

// PushWorkerType is the push-to-store pool for this level.
func (l Level) PushWorkerType() string {
	if l.IsStaging() {
		return "mobile-pushapk-dep-v1"
	}
	return "mobile-pushapk-v1"
}

// PushScopes returns the store product scope for product.
func (l Level) PushScopes(product string) []string {
	suffix := ""
	if l.IsStaging() {
		suffix = ":dep"
	}
	return []string{fmt.Sprintf("%s:googleplay:product:%s%s", ScopePrefix, product, suffix)}
}
