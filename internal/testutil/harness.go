package testutil

import (
	"bytes"
	"context"
	"os"
	"sync"
	"testing"

	"github.com/vk/tvtaskgraph/internal/app"
)

// SafeBuffer is a thread-safe buffer for capturing log output in tests.
type SafeBuffer struct {
	b  bytes.Buffer
	mu sync.Mutex
}

// Write implements the io.Writer interface for SafeBuffer.
func (b *SafeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.Write(p)
}

// String implements the fmt.Stringer interface for SafeBuffer.
func (b *SafeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.b.String()
}

// HarnessResult holds the outcome of a decision run.
type HarnessResult struct {
	Output    string
	Logs      string
	Err       error
	OutputDir string
	Fake      *FakeTaskcluster
}

// RunDecision runs the app for cfg against a fresh FakeTaskcluster, writing
// into a temporary output directory. Logs default to debug level unless
// cfg.LogLevel is set. cfg is validated with app.NewConfig first; validation
// errors fail the test.
func RunDecision(t *testing.T, cfg app.Config, prepare func(*FakeTaskcluster), opts ...app.Option) *HarnessResult {
	t.Helper()

	fake := NewFakeTaskcluster(t)
	if prepare != nil {
		prepare(fake)
	}

	cfg.ProxyURL = fake.URL()
	cfg.OutputDir = t.TempDir()
	if cfg.LogLevel == "" {
		cfg.LogLevel = "debug"
	}
	validated, err := app.NewConfig(cfg)
	if err != nil {
		t.Fatalf("invalid test configuration: %v", err)
	}

	out, logs := &SafeBuffer{}, &SafeBuffer{}
	runErr := app.NewApp(out, logs, validated, opts...).Run(context.Background())

	t.Cleanup(func() {
		if os.Getenv("TVTG_TEST_LOGS") == "true" {
			t.Logf("--- Full Logs for %s ---\n%s", t.Name(), logs.String())
		}
	})

	return &HarnessResult{
		Output:    out.String(),
		Logs:      logs.String(),
		Err:       runErr,
		OutputDir: validated.OutputDir,
		Fake:      fake,
	}
}
