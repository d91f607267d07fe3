package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aliyun/aliyun-oss-go-sdk/oss"
	"github.com/launchdeck/launchdeck/backend/internal/config"
	"github.com/launchdeck/launchdeck/backend/pkg/logger"
)

// BlobStore keeps uploaded project files.
type BlobStore interface {
	Put(ctx context.Context, key string, r io.Reader, contentType string) (string, error)
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	DeletePrefix(ctx context.Context, prefix string) (int, error)
}

// NewBlobStore picks the store named by cfg.Driver.
func NewBlobStore(cfg *config.StorageConfig) (BlobStore, error) {
	switch cfg.Driver {
	case "oss":
		return NewOSSStore(cfg)
	case "local", "":
		return NewLocalStore(cfg.LocalDir, cfg.PublicBaseURL), nil
	default:
		return nil, fmt.Errorf("unsupported storage driver: %s", cfg.Driver)
	}
}

// ProjectPrefix is the key prefix holding every file of a project.
func ProjectPrefix(projectID string) string {
	return "projects/" + projectID + "/"
}

// ContentKey is the object key of an uploaded document.
func ContentKey(projectID, contentID, filename string) string {
	return ProjectPrefix(projectID) + "contents/" + contentID + "/" + sanitizeFilename(filename)
}

func sanitizeFilename(name string) string {
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "file"
	}
	return name
}

// OSSStore stores objects in an Aliyun OSS bucket.
type OSSStore struct {
	bucket  *oss.Bucket
	baseURL string
}

func NewOSSStore(cfg *config.StorageConfig) (*OSSStore, error) {
	// endpoint http://oss-cn-hangzhou.aliyuncs.com
	cli, err := oss.New(cfg.OSSEndpoint, cfg.OSSAccessKey, cfg.OSSSecretKey)
	if err != nil {
		return nil, err
	}
	bucket, err := cli.Bucket(cfg.OSSBucket)
	if err != nil {
		return nil, err
	}

	baseURL := cfg.PublicBaseURL
	if baseURL == "" {
		baseURL = "https://" + cfg.OSSBucket + "." + strings.TrimPrefix(strings.TrimPrefix(cfg.OSSEndpoint, "https://"), "http://")
	}
	return &OSSStore{bucket: bucket, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

func (s *OSSStore) Put(ctx context.Context, key string, r io.Reader, contentType string) (string, error) {
	var opts []oss.Option
	if contentType != "" {
		opts = append(opts, oss.ContentType(contentType))
	}
	if err := s.bucket.PutObject(key, r, opts...); err != nil {
		return "", err
	}
	return s.baseURL + "/" + key, nil
}

func (s *OSSStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	return s.bucket.GetObject(key)
}

func (s *OSSStore) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	deleted := 0
	marker := oss.Marker("")
	pre := oss.Prefix(prefix)
	for {
		if err := ctx.Err(); err != nil {
			return deleted, err
		}
		// default page size is 100
		r, err := s.bucket.ListObjects(marker, pre)
		if err != nil {
			return deleted, err
		}
		keys := make([]string, 0, len(r.Objects))
		for _, o := range r.Objects {
			keys = append(keys, o.Key)
		}
		if len(keys) > 0 {
			res, err := s.bucket.DeleteObjects(keys)
			if err != nil {
				return deleted, err
			}
			deleted += len(res.DeletedObjects)
		}
		if !r.IsTruncated {
			break
		}
		pre = oss.Prefix(r.Prefix)
		marker = oss.Marker(r.NextMarker)
	}
	return deleted, nil
}

// LocalStore keeps objects under a directory on disk.
type LocalStore struct {
	root    string
	baseURL string
}

func NewLocalStore(root, baseURL string) *LocalStore {
	if root == "" {
		root = "uploads"
	}
	if baseURL == "" {
		baseURL = "/uploads"
	}
	return &LocalStore{root: root, baseURL: strings.TrimSuffix(baseURL, "/")}
}

var errInvalidKey = errors.New("invalid object key")

// cleanKey normalizes key and rejects it when any segment walks upward.
func cleanKey(key string) (string, error) {
	for _, seg := range strings.FieldsFunc(key, func(r rune) bool { return r == '/' || r == '\\' }) {
		if seg == ".." {
			return "", errInvalidKey
		}
	}
	clean := strings.TrimPrefix(path.Clean("/"+key), "/")
	if clean == "" {
		return "", errInvalidKey
	}
	return clean, nil
}

func (s *LocalStore) pathFor(key string) (string, error) {
	clean, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.root, filepath.FromSlash(clean)), nil
}

func (s *LocalStore) Put(ctx context.Context, key string, r io.Reader, contentType string) (string, error) {
	clean, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	p := filepath.Join(s.root, filepath.FromSlash(clean))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return "", err
	}
	f, err := os.Create(p)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", err
	}

	segments := strings.Split(clean, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return s.baseURL + "/" + strings.Join(segments, "/"), nil
}

func (s *LocalStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	p, err := s.pathFor(key)
	if err != nil {
		return nil, err
	}
	return os.Open(p)
}

func (s *LocalStore) DeletePrefix(ctx context.Context, prefix string) (int, error) {
	p, err := s.pathFor(prefix)
	if err != nil {
		return 0, err
	}
	count := 0
	_ = filepath.Walk(p, func(_ string, info os.FileInfo, err error) error {
		if err == nil && !info.IsDir() {
			count++
		}
		return nil
	})
	if err := os.RemoveAll(p); err != nil {
		return 0, err
	}
	logger.Debug().Str("prefix", prefix).Int("files", count).Msg("[Storage] removed local files")
	return count, nil
}
