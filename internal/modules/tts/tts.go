// Package tts narrates a script into an audio file via OpenAI speech.
package tts

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/trendflow/trendflow/internal/contract"
	"github.com/trendflow/trendflow/internal/modules"
	ttssvc "github.com/trendflow/trendflow/internal/services/tts"
	"github.com/trendflow/trendflow/internal/utils"
)

// Module implements the narration functionality
type Module struct {
	initOnce      sync.Once
	initErr       error
	speechService ttssvc.Synthesizer
}

// Input contains the parameters for narration
type Input struct {
	Text       string  `json:"text"`
	Voice      string  `json:"voice"`
	Speed      float64 `json:"speed"`      // Playback speed (default: 1.0)
	Output     string  `json:"output"`     // Path to output directory
	OutputName string  `json:"outputName"` // Custom output filename (default: narration.mp3)
}

// Output carries the rendered audio location
type Output struct {
	AudioFile string `json:"audioFile"`
	Voice     string `json:"voice"`
}

// New creates a narration module backed by the real OpenAI speech service
func New() modules.Adapter {
	return &Module{}
}

// NewWithService creates a narration module with a custom synthesizer
func NewWithService(svc ttssvc.Synthesizer) modules.Adapter {
	return &Module{speechService: svc}
}

// Name returns the module name
func (m *Module) Name() string {
	return "tts"
}

// Contract returns the module's published contract
func (m *Module) Contract() *contract.Contract {
	input := contract.Object(map[string]*contract.Schema{
		"text":       contract.String(),
		"voice":      contract.Enum("alloy", "echo", "fable", "onyx", "nova", "shimmer"),
		"speed":      contract.NumberRange(0.25, 4.0),
		"output":     contract.String(),
		"outputName": contract.String(),
	}, "text", "voice", "output")

	output := contract.Object(map[string]*contract.Schema{
		"audioFile": contract.String(),
		"voice":     contract.String(),
	}, "audioFile", "voice")

	return contract.MustNew("tts", "1.0.0", input, output, "OPENAI_API_KEY")
}

// Execute synthesizes the text and writes the audio next to the run output
func (m *Module) Execute(ctx context.Context, input map[string]any) (map[string]any, error) {
	var in Input
	if err := modules.ParseInput(input, &in); err != nil {
		return nil, err
	}

	// Set default values
	if in.Speed == 0 {
		in.Speed = 1.0
	}
	if in.OutputName == "" {
		in.OutputName = "narration.mp3"
	}

	if err := utils.ValidateOutputPath(in.Output); err != nil {
		return nil, err
	}

	svc, err := m.service()
	if err != nil {
		return nil, err
	}

	audio, err := svc.Synthesize(ctx, ttssvc.SpeechRequest{
		Input:          in.Text,
		Voice:          in.Voice,
		Speed:          in.Speed,
		ResponseFormat: "mp3",
	})
	if err != nil {
		return nil, fmt.Errorf("failed to synthesize speech: %w", err)
	}

	audioPath := filepath.Join(in.Output, in.OutputName)
	if err := os.WriteFile(audioPath, audio, 0644); err != nil {
		return nil, fmt.Errorf("failed to write audio file: %w", err)
	}

	utils.LogVerbose("Wrote narration to %s (%d bytes)", audioPath, len(audio))

	return modules.Output(Output{AudioFile: audioPath, Voice: in.Voice})
}

// service returns the synthesizer, creating the real one on first use. One
// adapter serves concurrent runs, so the first initialization outcome is
// cached for the adapter's lifetime.
func (m *Module) service() (ttssvc.Synthesizer, error) {
	m.initOnce.Do(func() {
		if m.speechService != nil {
			return
		}
		svc, err := ttssvc.New()
		if err != nil {
			m.initErr = err
			return
		}
		m.speechService = svc
	})
	return m.speechService, m.initErr
}
