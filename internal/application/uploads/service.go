package uploads

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DefaultBucket holds listing images.
const DefaultBucket = "property-images"

// ErrUnsupportedImage is returned for file names without an image extension.
var ErrUnsupportedImage = errors.New("unsupported image type")

var imageExts = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true, ".gif": true}

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// StorageClient issues signed upload URLs.
type StorageClient interface {
	CreateSignedUploadURL(ctx context.Context, bucket, path string) (string, error)
}

// SupabaseClient is a StorageClient backed by the Supabase storage HTTP API.
type SupabaseClient struct {
	BaseURL   string
	SecretKey string
	Client    *http.Client
}

type signedUploadResponse struct {
	SignedURL      string `json:"signedUrl"`
	SignedURLSnake string `json:"signed_url"`
	URL            string `json:"url"` // relative, from upload/sign
}

func (c *SupabaseClient) CreateSignedUploadURL(ctx context.Context, bucket, objectPath string) (string, error) {
	if c.Client == nil {
		c.Client = &http.Client{Timeout: 10 * time.Second}
	}
	if c.BaseURL == "" {
		return "", fmt.Errorf("supabase: SUPABASE_URL is not set")
	}
	if c.SecretKey == "" {
		return "", fmt.Errorf("supabase: SUPABASE_SECRET_KEY is not set")
	}
	base := strings.TrimRight(c.BaseURL, "/")
	url := fmt.Sprintf("%s/storage/v1/object/upload/sign/%s/%s", base, bucket, objectPath)

	bodyBytes, _ := json.Marshal(map[string]interface{}{
		"expiresIn": 3600,
		"upsert":    false,
	})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", err
	}
	req.Header.Set("apikey", c.SecretKey)
	req.Header.Set("Authorization", "Bearer "+c.SecretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return "", fmt.Errorf("supabase request: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("supabase error: status %d body: %s", resp.StatusCode, string(respBody))
	}

	var data signedUploadResponse
	if err := json.Unmarshal(respBody, &data); err != nil {
		return "", fmt.Errorf("supabase response decode: %w", err)
	}
	switch {
	case data.SignedURL != "":
		return data.SignedURL, nil
	case data.SignedURLSnake != "":
		return data.SignedURLSnake, nil
	case data.URL != "":
		u := data.URL
		if u[0] != '/' {
			u = "/" + u
		}
		return base + u, nil
	}
	return "", fmt.Errorf("supabase returned no signed URL, body: %s", string(respBody))
}

// Service hands out upload slots for listing images. The public URL it
// returns is what goes into a listing's image field.
type Service struct {
	Client      StorageClient
	SupabaseURL string
	Bucket      string
}

type UploadResult struct {
	UploadURL string `json:"uploadUrl"`
	PublicURL string `json:"publicUrl"`
	Path      string `json:"path"`
}

// ImageUploadURL reserves a unique object path for fileName and signs it.
func (s *Service) ImageUploadURL(ctx context.Context, fileName string) (*UploadResult, error) {
	name, err := imageObjectName(fileName)
	if err != nil {
		return nil, err
	}
	bucket := s.bucket()
	objectPath := uuid.New().String() + "-" + name

	signedURL, err := s.Client.CreateSignedUploadURL(ctx, bucket, objectPath)
	if err != nil {
		return nil, err
	}
	publicBase := strings.TrimRight(s.SupabaseURL, "/")
	return &UploadResult{
		UploadURL: signedURL,
		PublicURL: fmt.Sprintf("%s/storage/v1/object/public/%s/%s", publicBase, bucket, objectPath),
		Path:      objectPath,
	}, nil
}

func (s *Service) bucket() string {
	if s.Bucket != "" {
		return s.Bucket
	}
	return DefaultBucket
}

// imageObjectName strips directories and unsafe characters and checks the
// extension.
func imageObjectName(fileName string) (string, error) {
	name := path.Base(strings.ReplaceAll(strings.TrimSpace(fileName), "\\", "/"))
	ext := strings.ToLower(path.Ext(name))
	if !imageExts[ext] {
		return "", ErrUnsupportedImage
	}
	name = strings.Trim(unsafeChars.ReplaceAllString(name, "-"), "-")
	if strings.HasPrefix(name, ".") {
		name = "image" + ext
	}
	return name, nil
}
