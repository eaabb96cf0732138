package youtube

import (
	"context"
)

// Uploader defines the interface for publishing videos to YouTube
type Uploader interface {
	// Upload publishes a single video and returns its published identity
	Upload(ctx context.Context, req UploadRequest) (*UploadResult, error)
}

// UploadRequest represents the information needed to upload a video
type UploadRequest struct {
	FilePath    string // Path to the rendered video file
	Title       string // The title of the video
	Description string // The description of the video
	Tags        string // Comma-separated tags
	Privacy     string // public, unlisted or private
	CategoryID  string // YouTube category, defaults to 22 (People & Blogs)
	PlaylistID  string // Optional playlist to add the video to
}

// UploadResult represents the published video identity
type UploadResult struct {
	VideoID string
	URL     string
}
