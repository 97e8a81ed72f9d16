// Package testutil runs the whole application against scene files written
// by a test, for the integration test suites.
package testutil

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vk/evalgraph/internal/app"
	"github.com/vk/evalgraph/internal/hcl"
)

// HarnessResult holds the outcomes of an integration test run.
type HarnessResult struct {
	LogOutput string
	Err       error
	App       *app.App
	Notices   *Recorder
}

// RunIntegrationTest provides a standardized harness for running integration tests
// using a default background context.
func RunIntegrationTest(t *testing.T, files map[string]string, configure ...func(*app.Config)) *HarnessResult {
	t.Helper()
	return RunIntegrationTestWithContext(context.Background(), t, files, configure...)
}

// RunIntegrationTestWithContext writes files (relative paths) below a fresh
// scene directory, runs the app over it once and collects the outcome. Runs
// are strict unless configure says otherwise.
func RunIntegrationTestWithContext(ctx context.Context, t *testing.T, files map[string]string, configure ...func(*app.Config)) *HarnessResult {
	t.Helper()

	sceneDir := filepath.Join(t.TempDir(), "scenes")
	require.NoError(t, os.Mkdir(sceneDir, 0o755))
	for name, content := range files {
		filePath := filepath.Join(sceneDir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(filePath), 0o755))
		require.NoError(t, os.WriteFile(filePath, []byte(content), 0o644))
	}

	cfg := app.Config{
		ScenePaths: []string{sceneDir},
		Strict:     true,
		LogLevel:   "debug",
		LogFormat:  "text",
	}
	for _, fn := range configure {
		fn(&cfg)
	}
	appConfig, err := app.NewConfig(cfg)
	require.NoError(t, err)

	logBuffer := &app.SafeBuffer{}
	rec := &Recorder{}
	testApp := app.NewApp(logBuffer, appConfig, hcl.NewLoader(), app.WithPublisher(rec))
	runErr := testApp.Run(ctx)

	if os.Getenv("EVALGRAPH_TEST_LOGS") == "true" {
		t.Logf("--- Full Log Output for %s ---\n%s", t.Name(), logBuffer.String())
	}

	return &HarnessResult{
		LogOutput: logBuffer.String(),
		Err:       runErr,
		App:       testApp,
		Notices:   rec,
	}
}
