package rendervideo

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trendflow/trendflow/internal/utils"
)

// TestMain restores the real exec functions after the run
func TestMain(m *testing.M) {
	result := m.Run()
	execCommand = exec.CommandContext
	utils.ExecLookPath = exec.LookPath
	os.Exit(result)
}

// fakeExecCommand routes the invocation to TestHelperProcess
func fakeExecCommand(ctx context.Context, command string, args ...string) *exec.Cmd {
	cs := []string{"-test.run=TestHelperProcess", "--", command}
	cs = append(cs, args...)
	cmd := exec.CommandContext(ctx, os.Args[0], cs...)
	cmd.Env = []string{"GO_WANT_HELPER_PROCESS=1"}
	return cmd
}

// fakeLookPath always returns success
func fakeLookPath(file string) (string, error) {
	return file, nil
}

// TestHelperProcess stands in for ffmpeg: it creates the output file named by
// the last argument and exits cleanly
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	args := os.Args
	out := args[len(args)-1]
	_ = os.WriteFile(out, []byte("fake video"), 0644)
	os.Exit(0)
}

func writeAudio(t *testing.T, dir string) string {
	t.Helper()
	audioPath := filepath.Join(dir, "narration.mp3")
	require.NoError(t, os.WriteFile(audioPath, []byte("fake audio"), 0644))
	return audioPath
}

func TestModule_Execute(t *testing.T) {
	execCommand = fakeExecCommand
	utils.ExecLookPath = fakeLookPath
	defer func() {
		execCommand = exec.CommandContext
		utils.ExecLookPath = exec.LookPath
	}()

	module := New()
	tempDir := t.TempDir()
	audioPath := writeAudio(t, tempDir)

	out, err := module.Execute(context.Background(), map[string]any{
		"audioFile": audioPath,
		"output":    tempDir,
	})
	require.NoError(t, err)

	videoFile := out["videoFile"].(string)
	assert.Equal(t, filepath.Join(tempDir, "short.mp4"), videoFile)
	assert.FileExists(t, videoFile)
}

func TestModule_ExecuteWithBackground(t *testing.T) {
	execCommand = fakeExecCommand
	utils.ExecLookPath = fakeLookPath
	defer func() {
		execCommand = exec.CommandContext
		utils.ExecLookPath = exec.LookPath
	}()

	module := New()
	tempDir := t.TempDir()
	audioPath := writeAudio(t, tempDir)
	backgroundPath := filepath.Join(tempDir, "backdrop.png")
	require.NoError(t, os.WriteFile(backgroundPath, []byte("fake png"), 0644))

	out, err := module.Execute(context.Background(), map[string]any{
		"audioFile":  audioPath,
		"background": backgroundPath,
		"resolution": "720x1280",
		"output":     tempDir,
		"outputName": "with-backdrop.mp4",
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tempDir, "with-backdrop.mp4"), out["videoFile"])
}

func TestModule_ExecuteValidation(t *testing.T) {
	execCommand = fakeExecCommand
	utils.ExecLookPath = fakeLookPath
	defer func() {
		execCommand = exec.CommandContext
		utils.ExecLookPath = exec.LookPath
	}()

	module := New()
	tempDir := t.TempDir()
	audioPath := writeAudio(t, tempDir)

	tests := []struct {
		name  string
		input map[string]any
	}{
		{
			name:  "missing audio file",
			input: map[string]any{"audioFile": filepath.Join(tempDir, "nope.mp3"), "output": tempDir},
		},
		{
			name:  "missing output dir",
			input: map[string]any{"audioFile": audioPath},
		},
		{
			name: "background with bad extension",
			input: map[string]any{
				"audioFile":  audioPath,
				"background": audioPath,
				"output":     tempDir,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := module.Execute(context.Background(), tt.input)
			assert.Error(t, err)
		})
	}
}

func TestModule_ExecuteMissingFFmpeg(t *testing.T) {
	execCommand = fakeExecCommand
	utils.ExecLookPath = func(file string) (string, error) {
		return "", exec.ErrNotFound
	}
	defer func() {
		execCommand = exec.CommandContext
		utils.ExecLookPath = exec.LookPath
	}()

	module := New()
	tempDir := t.TempDir()
	audioPath := writeAudio(t, tempDir)

	_, err := module.Execute(context.Background(), map[string]any{
		"audioFile": audioPath,
		"output":    tempDir,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ffmpeg not found")
}
