package tts

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	ttssvc "github.com/trendflow/trendflow/internal/services/tts"
)

// mockSynthesizer records the request and returns fixed audio bytes
type mockSynthesizer struct {
	audio []byte
	err   error
	req   ttssvc.SpeechRequest
}

func (m *mockSynthesizer) Synthesize(ctx context.Context, req ttssvc.SpeechRequest) ([]byte, error) {
	m.req = req
	return m.audio, m.err
}

func TestModule_Execute(t *testing.T) {
	mock := &mockSynthesizer{audio: []byte("fake mp3 bytes")}
	module := NewWithService(mock)
	tempDir := t.TempDir()

	out, err := module.Execute(context.Background(), map[string]any{
		"text":   "Hello world",
		"voice":  "nova",
		"output": tempDir,
	})
	require.NoError(t, err)

	audioFile := out["audioFile"].(string)
	assert.Equal(t, filepath.Join(tempDir, "narration.mp3"), audioFile)
	assert.Equal(t, "nova", out["voice"])

	written, err := os.ReadFile(audioFile)
	require.NoError(t, err)
	assert.Equal(t, []byte("fake mp3 bytes"), written)

	// Defaults reach the service request.
	assert.Equal(t, "Hello world", mock.req.Input)
	assert.Equal(t, "nova", mock.req.Voice)
	assert.Equal(t, 1.0, mock.req.Speed)
	assert.Equal(t, "mp3", mock.req.ResponseFormat)
}

func TestModule_ExecuteCustomName(t *testing.T) {
	module := NewWithService(&mockSynthesizer{audio: []byte("x")})
	tempDir := t.TempDir()

	out, err := module.Execute(context.Background(), map[string]any{
		"text":       "hi",
		"voice":      "alloy",
		"speed":      1.25,
		"output":     tempDir,
		"outputName": "voiceover.mp3",
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(tempDir, "voiceover.mp3"), out["audioFile"])
}

func TestModule_ExecuteServiceError(t *testing.T) {
	module := NewWithService(&mockSynthesizer{err: errors.New("quota exceeded")})
	_, err := module.Execute(context.Background(), map[string]any{
		"text":   "hi",
		"voice":  "echo",
		"output": t.TempDir(),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestModule_ConcurrentRunsShareAdapter(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	module := New()
	tempDir := t.TempDir()

	start := make(chan struct{})
	errs := make(chan error, 8)
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := module.Execute(context.Background(), map[string]any{
				"text":   "hi",
				"voice":  "nova",
				"output": tempDir,
			})
			errs <- err
		}()
	}
	close(start)
	wg.Wait()
	close(errs)

	// Every run sees the same initialization outcome.
	for err := range errs {
		require.Error(t, err)
		assert.Contains(t, err.Error(), "OPENAI_API_KEY")
	}
}

func TestModule_ExecuteMissingOutputDir(t *testing.T) {
	module := NewWithService(&mockSynthesizer{audio: []byte("x")})
	_, err := module.Execute(context.Background(), map[string]any{
		"text":  "hi",
		"voice": "echo",
	})
	assert.Error(t, err)
}
