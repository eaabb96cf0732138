// Package rendervideo composes narration audio and a backdrop into a short
// vertical video with FFmpeg.
package rendervideo

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/trendflow/trendflow/internal/contract"
	"github.com/trendflow/trendflow/internal/modules"
	"github.com/trendflow/trendflow/internal/utils"
)

// execCommand allows us to mock exec.Command in tests
var execCommand = exec.CommandContext

// Module implements the video rendering functionality
type Module struct{}

// Input contains the parameters for video rendering
type Input struct {
	AudioFile  string `json:"audioFile"`  // Path to the narration audio
	Background string `json:"background"` // Path to a backdrop image (optional)
	Color      string `json:"color"`      // Solid backdrop color when no image (default: black)
	Resolution string `json:"resolution"` // Output resolution (default: 1080x1920)
	Output     string `json:"output"`     // Path to output directory
	OutputName string `json:"outputName"` // Custom output filename (default: short.mp4)
}

// Output carries the rendered video location
type Output struct {
	VideoFile string `json:"videoFile"`
}

// New creates a new video rendering module
func New() modules.Adapter {
	return &Module{}
}

// Name returns the module name
func (m *Module) Name() string {
	return "rendervideo"
}

// Contract returns the module's published contract
func (m *Module) Contract() *contract.Contract {
	input := contract.Object(map[string]*contract.Schema{
		"audioFile":  contract.String(),
		"background": contract.String(),
		"color":      contract.String(),
		"resolution": contract.Enum("1080x1920", "720x1280"),
		"output":     contract.String(),
		"outputName": contract.String(),
	}, "audioFile", "output")

	output := contract.Object(map[string]*contract.Schema{
		"videoFile": contract.String(),
	}, "videoFile")

	return contract.MustNew("rendervideo", "1.0.0", input, output, "ffmpeg")
}

// Execute renders the video, looping the backdrop for the audio's duration
func (m *Module) Execute(ctx context.Context, input map[string]any) (map[string]any, error) {
	var in Input
	if err := modules.ParseInput(input, &in); err != nil {
		return nil, err
	}

	// Set default values
	if in.Resolution == "" {
		in.Resolution = "1080x1920"
	}
	if in.Color == "" {
		in.Color = "black"
	}
	if in.OutputName == "" {
		in.OutputName = "short.mp4"
	}

	if err := utils.ValidateFileExists("audioFile", in.AudioFile); err != nil {
		return nil, err
	}
	if err := utils.ValidateOutputPath(in.Output); err != nil {
		return nil, err
	}
	if err := utils.ValidateRequiredDependency("ffmpeg"); err != nil {
		return nil, err
	}

	videoPath := filepath.Join(in.Output, in.OutputName)

	var args []string
	if in.Background != "" {
		if err := utils.ValidateFileExtension(in.Background, []string{".png", ".jpg", ".jpeg"}); err != nil {
			return nil, err
		}
		args = []string{
			"-loop", "1",
			"-i", in.Background,
			"-i", in.AudioFile,
			"-vf", fmt.Sprintf("scale=%s,format=yuv420p", in.Resolution),
		}
	} else {
		args = []string{
			"-f", "lavfi",
			"-i", fmt.Sprintf("color=c=%s:s=%s", in.Color, in.Resolution),
			"-i", in.AudioFile,
		}
	}
	args = append(args,
		"-c:v", "libx264",
		"-c:a", "aac",
		"-shortest",
		"-y",
		videoPath,
	)

	cmd := execCommand(ctx, "ffmpeg", args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("ffmpeg failed: %w: %s", err, string(out))
	}

	if _, err := os.Stat(videoPath); err != nil {
		return nil, fmt.Errorf("ffmpeg reported success but produced no file: %w", err)
	}

	utils.LogVerbose("Rendered video at %s", videoPath)

	return modules.Output(Output{VideoFile: videoPath})
}
