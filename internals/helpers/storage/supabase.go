// file: internals/helpers/storage/supabase.go
package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"

	"missionhub_backend/internals/configs"
)

// SupabaseStorage talks to the Supabase Storage REST API (/storage/v1).
type SupabaseStorage struct {
	ProjectURL string
	ServiceKey string
	HTTP       *http.Client
}

func NewSupabaseStorageFromEnv() (*SupabaseStorage, error) {
	projectURL := strings.TrimRight(configs.GetEnv("SUPABASE_PROJECT_URL"), "/")
	serviceKey := configs.GetEnv("SUPABASE_SERVICE_ROLE_KEY")
	if projectURL == "" || serviceKey == "" {
		return nil, fmt.Errorf("SUPABASE_PROJECT_URL or SUPABASE_SERVICE_ROLE_KEY not set")
	}
	return &SupabaseStorage{
		ProjectURL: projectURL,
		ServiceKey: serviceKey,
		HTTP:       &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// EnsureBucket creates the bucket if it does not exist. An already-exists
// response is success; anything else is reported to the caller, who logs
// and continues (the bucket may exist from a prior run).
func (s *SupabaseStorage) EnsureBucket(ctx context.Context, spec BucketSpec) error {
	payload, err := sonic.Marshal(map[string]interface{}{
		"id":                 spec.Name,
		"name":               spec.Name,
		"public":             spec.Public,
		"file_size_limit":    spec.FileSizeLimit,
		"allowed_mime_types": spec.AllowedMimeTypes,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		s.ProjectURL+"/storage/v1/bucket", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	s.authorize(req)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("create bucket %s: %w", spec.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(resp.Body)
	if alreadyExists(resp.StatusCode, body) {
		return nil
	}
	return fmt.Errorf("create bucket %s: status %d: %s", spec.Name, resp.StatusCode, string(body))
}

// Upload PUTs an object. With upsert=false an existing object at the same
// path yields ErrObjectExists.
func (s *SupabaseStorage) Upload(ctx context.Context, bucket, path string, data []byte, contentType string, upsert bool) error {
	endpoint := fmt.Sprintf("%s/storage/v1/object/%s/%s", s.ProjectURL, bucket, escapePath(path))

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, endpoint, bytes.NewReader(data))
	if err != nil {
		return err
	}
	s.authorize(req)
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("x-upsert", strconv.FormatBool(upsert))
	req.Header.Set("Cache-Control", "public, max-age=31536000, immutable")

	resp, err := s.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("upload %s/%s: %w", bucket, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(resp.Body)
	if alreadyExists(resp.StatusCode, body) {
		return fmt.Errorf("upload %s/%s: %w", bucket, path, ErrObjectExists)
	}
	return fmt.Errorf("upload %s/%s: status %d: %s", bucket, path, resp.StatusCode, string(body))
}

// Delete removes an object. A missing object reports success, matching the
// store's own semantics.
func (s *SupabaseStorage) Delete(ctx context.Context, bucket, path string) error {
	endpoint := fmt.Sprintf("%s/storage/v1/object/%s/%s", s.ProjectURL, bucket, escapePath(path))

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, endpoint, nil)
	if err != nil {
		return err
	}
	s.authorize(req)

	resp, err := s.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", bucket, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 300 || resp.StatusCode == http.StatusNotFound {
		return nil
	}
	body, _ := io.ReadAll(resp.Body)
	return fmt.Errorf("delete %s/%s: status %d: %s", bucket, path, resp.StatusCode, string(body))
}

func (s *SupabaseStorage) PublicURL(bucket, path string) string {
	return fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.ProjectURL, bucket, escapePath(path))
}

func (s *SupabaseStorage) authorize(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+s.ServiceKey)
}

// escapePath escapes each segment but keeps the separators.
func escapePath(p string) string {
	parts := strings.Split(p, "/")
	for i, part := range parts {
		parts[i] = url.PathEscape(part)
	}
	return strings.Join(parts, "/")
}

func alreadyExists(status int, body []byte) bool {
	if status != http.StatusBadRequest && status != http.StatusConflict {
		return false
	}
	low := strings.ToLower(string(body))
	return strings.Contains(low, "already exists") || strings.Contains(low, "duplicate")
}

// ExtractPublicURLPath splits a Supabase public URL back into bucket and
// object path. Used when the editor reports a replaced asset by URL.
func ExtractPublicURLPath(fullURL string) (bucket string, path string, err error) {
	u, err := url.Parse(fullURL)
	if err != nil {
		return "", "", err
	}
	parts := strings.SplitN(u.Path, "/object/public/", 2)
	if len(parts) < 2 {
		return "", "", fmt.Errorf("not a public object URL: %s", fullURL)
	}
	pathParts := strings.SplitN(parts[1], "/", 2)
	if len(pathParts) < 2 {
		return "", "", fmt.Errorf("cannot extract bucket and path from %s", fullURL)
	}
	unescaped, err := url.PathUnescape(pathParts[1])
	if err != nil {
		unescaped = pathParts[1]
	}
	return pathParts[0], unescaped, nil
}
