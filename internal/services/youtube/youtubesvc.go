// Package youtube wraps the YouTube Data API behind the Uploader interface
package youtube

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/trendflow/trendflow/internal/utils"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	youtubeapi "google.golang.org/api/youtube/v3"

	"google.golang.org/api/option"
)

// Required OAuth scopes for YouTube API
var requiredScopes = []string{
	"https://www.googleapis.com/auth/youtube.upload",
	"https://www.googleapis.com/auth/youtube.force-ssl",
}

// Service implements Uploader against the real YouTube Data API
type Service struct {
	api *youtubeapi.Service
}

// New authenticates against YouTube using the OAuth credentials file and
// returns a ready uploader. Tokens are cached under the user config dir, so
// the browser flow only runs when no valid token is stored.
func New(ctx context.Context, credentialsPath string) (*Service, error) {
	credentials, err := os.ReadFile(credentialsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}

	config, err := google.ConfigFromJSON(credentials, requiredScopes...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OAuth config: %w", err)
	}

	tokenStorage, err := utils.NewTokenStorage()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize token storage: %w", err)
	}

	token, err := tokenStorage.LoadToken("youtube")
	if err != nil {
		return nil, fmt.Errorf("failed to load token: %w", err)
	}

	if token == nil || !token.Valid() {
		callbackServer := utils.NewOAuthCallbackServer()
		if err := callbackServer.Start(8080); err != nil {
			return nil, fmt.Errorf("failed to start callback server: %w", err)
		}
		defer func() {
			if err := callbackServer.Stop(); err != nil {
				utils.LogWarning("Failed to stop callback server: %v", err)
			}
		}()

		config.RedirectURL = "http://localhost:8080"

		authURL := config.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
		if err := callbackServer.OpenURL(authURL); err != nil {
			return nil, fmt.Errorf("failed to open auth URL: %w", err)
		}

		code := callbackServer.WaitForCode()

		token, err = config.Exchange(ctx, code)
		if err != nil {
			return nil, fmt.Errorf("failed to exchange authorization code: %w", err)
		}

		if err := tokenStorage.SaveToken("youtube", token); err != nil {
			utils.LogWarning("Failed to save token: %v", err)
		}
	} else {
		utils.LogInfo("Using existing authorization token")
	}

	api, err := youtubeapi.NewService(ctx, option.WithTokenSource(config.TokenSource(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}

	return &Service{api: api}, nil
}

// cleanTag removes special characters and converts to lowercase
func cleanTag(tag string) string {
	tag = strings.TrimSpace(tag)
	tag = strings.ToLower(tag)
	replacements := map[string]string{
		"á": "a", "é": "e", "í": "i", "ó": "o", "ú": "u",
		"ñ": "n", "ü": "u",
	}
	for old, new := range replacements {
		tag = strings.ReplaceAll(tag, old, new)
	}
	return tag
}

// processTags splits and cleans tags, ensuring YouTube compatibility
func processTags(tags string) []string {
	rawTags := strings.Split(tags, ",")
	seenTags := make(map[string]bool)
	var cleanedTags []string

	for _, tag := range rawTags {
		cleaned := cleanTag(tag)
		// Skip empty tags or tags that are too long (YouTube has a limit)
		if cleaned != "" && len(cleaned) <= 30 && !seenTags[cleaned] {
			seenTags[cleaned] = true
			cleanedTags = append(cleanedTags, cleaned)
		}
	}

	// YouTube caps the number of tags per video
	if len(cleanedTags) > 30 {
		cleanedTags = cleanedTags[:30]
	}

	return cleanedTags
}

// Upload publishes a single video and returns its published identity
func (s *Service) Upload(ctx context.Context, req UploadRequest) (*UploadResult, error) {
	file, err := os.Open(req.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open video file: %w", err)
	}
	defer func() {
		if err := file.Close(); err != nil {
			utils.LogWarning("Failed to close video file: %v", err)
		}
	}()

	categoryID := req.CategoryID
	if categoryID == "" {
		categoryID = "22"
	}

	video := &youtubeapi.Video{
		Snippet: &youtubeapi.VideoSnippet{
			Title:       req.Title,
			Description: req.Description,
			CategoryId:  categoryID,
			Tags:        processTags(req.Tags),
		},
		Status: &youtubeapi.VideoStatus{
			PrivacyStatus: req.Privacy,
			MadeForKids:   false,
		},
	}

	call := s.api.Videos.Insert([]string{"snippet", "status"}, video)
	call.NotifySubscribers(false)
	response, err := call.Media(file).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to upload video: %w", err)
	}

	utils.LogInfo("Successfully uploaded video: %s", response.Id)

	if req.PlaylistID != "" {
		playlistItem := &youtubeapi.PlaylistItem{
			Snippet: &youtubeapi.PlaylistItemSnippet{
				PlaylistId: req.PlaylistID,
				ResourceId: &youtubeapi.ResourceId{
					Kind:    "youtube#video",
					VideoId: response.Id,
				},
			},
		}

		if _, err := s.api.PlaylistItems.Insert([]string{"snippet"}, playlistItem).Do(); err != nil {
			utils.LogWarning("Failed to add video to playlist: %v", err)
		} else {
			utils.LogInfo("Added video to playlist: %s", req.PlaylistID)
		}
	}

	return &UploadResult{
		VideoID: response.Id,
		URL:     "https://www.youtube.com/watch?v=" + response.Id,
	}, nil
}
