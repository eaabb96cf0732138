// Package publish uploads a rendered short to YouTube.
package publish

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/trendflow/trendflow/internal/contract"
	"github.com/trendflow/trendflow/internal/modules"
	youtubesvc "github.com/trendflow/trendflow/internal/services/youtube"
	"github.com/trendflow/trendflow/internal/utils"
)

// Module implements the publish functionality
type Module struct {
	initOnce sync.Once
	initErr  error
	uploader youtubesvc.Uploader
}

// Input contains the parameters for publishing
type Input struct {
	VideoFile   string `json:"videoFile"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Tags        string `json:"tags"`        // Comma-separated tags
	Privacy     string `json:"privacy"`     // Video privacy status
	Credentials string `json:"credentials"` // Path to Google credentials file
	PlaylistID  string `json:"playlistId"`  // Optional: YouTube playlist ID
}

// Output carries the published video identity
type Output struct {
	VideoID string `json:"videoId"`
	URL     string `json:"url"`
}

// New creates a publish module that authenticates on first use
func New() modules.Adapter {
	return &Module{}
}

// NewWithUploader creates a publish module with a custom uploader
func NewWithUploader(u youtubesvc.Uploader) modules.Adapter {
	return &Module{uploader: u}
}

// Name returns the module name
func (m *Module) Name() string {
	return "publish"
}

// Contract returns the module's published contract
func (m *Module) Contract() *contract.Contract {
	input := contract.Object(map[string]*contract.Schema{
		"videoFile":   contract.String(),
		"title":       contract.String(),
		"description": contract.String(),
		"tags":        contract.String(),
		"privacy":     contract.Enum("public", "unlisted", "private"),
		"credentials": contract.String(),
		"playlistId":  contract.String(),
	}, "videoFile", "title", "privacy")

	output := contract.Object(map[string]*contract.Schema{
		"videoId": contract.String(),
		"url":     contract.String(),
	}, "videoId", "url")

	return contract.MustNew("publish", "1.0.0", input, output, "GOOGLE_APPLICATION_CREDENTIALS")
}

// Execute uploads the video and returns its published identity
func (m *Module) Execute(ctx context.Context, input map[string]any) (map[string]any, error) {
	var in Input
	if err := modules.ParseInput(input, &in); err != nil {
		return nil, err
	}

	if err := utils.ValidateFileExists("videoFile", in.VideoFile); err != nil {
		return nil, err
	}

	uploader, err := m.service(ctx, in.Credentials)
	if err != nil {
		return nil, err
	}

	result, err := uploader.Upload(ctx, youtubesvc.UploadRequest{
		FilePath:    in.VideoFile,
		Title:       in.Title,
		Description: in.Description,
		Tags:        in.Tags,
		Privacy:     in.Privacy,
		PlaylistID:  in.PlaylistID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to publish video: %w", err)
	}

	return modules.Output(Output{VideoID: result.VideoID, URL: result.URL})
}

// service returns the uploader, running the OAuth flow on first use. One
// adapter serves concurrent runs, so the first initialization outcome is
// cached for the adapter's lifetime.
func (m *Module) service(ctx context.Context, credentials string) (youtubesvc.Uploader, error) {
	m.initOnce.Do(func() {
		if m.uploader != nil {
			return
		}
		if credentials == "" {
			credentials = os.Getenv("GOOGLE_APPLICATION_CREDENTIALS")
		}
		if credentials == "" {
			m.initErr = fmt.Errorf("credentials file path is required")
			return
		}
		svc, err := youtubesvc.New(ctx, credentials)
		if err != nil {
			m.initErr = fmt.Errorf("failed to initialize YouTube service: %w", err)
			return
		}
		m.uploader = svc
	})
	return m.uploader, m.initErr
}
