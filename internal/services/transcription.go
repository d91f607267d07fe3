package services

import (
	"context"
	"errors"
	"io"
	"path"
	"strings"
	"unicode/utf8"

	"github.com/launchdeck/launchdeck/backend/internal/models"
	"github.com/launchdeck/launchdeck/backend/pkg/logger"
	"gorm.io/gorm"
)

// maxTranscriptBytes bounds how much of a file is read into content.
const maxTranscriptBytes = 1 << 20

var textualMimeTypes = map[string]bool{
	"application/json":   true,
	"application/xml":    true,
	"application/yaml":   true,
	"application/x-yaml": true,
	"application/csv":    true,
}

var textualExtensions = map[string]bool{
	".txt": true, ".md": true, ".markdown": true, ".csv": true,
	".json": true, ".yaml": true, ".yml": true, ".xml": true,
}

// IsTextual reports whether the file's text can be read directly.
func IsTextual(mimeType, filename string) bool {
	mt := strings.ToLower(strings.TrimSpace(strings.SplitN(mimeType, ";", 2)[0]))
	if strings.HasPrefix(mt, "text/") || textualMimeTypes[mt] {
		return true
	}
	return textualExtensions[strings.ToLower(path.Ext(filename))]
}

// TranscriptionService fills ProjectContent.Content from uploaded files.
type TranscriptionService struct {
	db    *gorm.DB
	blobs BlobStore
}

func NewTranscriptionService(db *gorm.DB, blobs BlobStore) *TranscriptionService {
	return &TranscriptionService{db: db, blobs: blobs}
}

func (s *TranscriptionService) setStatus(ctx context.Context, id, status string, extra map[string]interface{}) error {
	updates := map[string]interface{}{"transcription_status": status}
	for k, v := range extra {
		updates[k] = v
	}
	return s.db.WithContext(ctx).Model(&models.ProjectContent{}).Where("id = ?", id).Updates(updates).Error
}

// Process extracts text for one document. Binary formats are marked skipped.
func (s *TranscriptionService) Process(ctx context.Context, task *TranscriptionTask) error {
	var content models.ProjectContent
	if err := s.db.WithContext(ctx).Where("id = ?", task.ContentID).First(&content).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warnf("[Transcription] content %s no longer exists", task.ContentID)
			return nil
		}
		return err
	}
	if content.StorageKey == "" {
		return s.setStatus(ctx, content.ID, models.TranscriptionSkipped, nil)
	}
	if !IsTextual(content.MimeType, content.StorageKey) {
		logger.Infof("[Transcription] %s (%s) is not textual, skipping", content.ID, content.MimeType)
		return s.setStatus(ctx, content.ID, models.TranscriptionSkipped, nil)
	}

	if err := s.setStatus(ctx, content.ID, models.TranscriptionProcessing, nil); err != nil {
		return err
	}

	text, err := s.readText(ctx, content.StorageKey)
	if err != nil {
		logger.Warnf("[Transcription] %s failed: %v", content.ID, err)
		if serr := s.setStatus(ctx, content.ID, models.TranscriptionFailed, nil); serr != nil {
			logger.Errorf("[Transcription] could not mark %s failed: %v", content.ID, serr)
		}
		return err
	}

	logger.Infof("[Transcription] %s extracted %d chars", content.ID, len(text))
	return s.setStatus(ctx, content.ID, models.TranscriptionCompleted, map[string]interface{}{"content": text})
}

func (s *TranscriptionService) readText(ctx context.Context, key string) (string, error) {
	if s.blobs == nil {
		return "", errors.New("file storage is not configured")
	}
	rc, err := s.blobs.Get(ctx, key)
	if err != nil {
		return "", err
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, maxTranscriptBytes))
	if err != nil {
		return "", err
	}
	if !utf8.Valid(data) {
		data = []byte(strings.ToValidUTF8(string(data), ""))
	}
	return string(data), nil
}
