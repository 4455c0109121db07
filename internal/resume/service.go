package resume

import (
	"context"
	"log/slog"
	"time"
)

// Service parses uploads, keeps the parsed text and optionally archives the
// original file.
type Service struct {
	store  Store
	blobs  BlobStore
	logger *slog.Logger
	now    func() time.Time
}

func NewService(store Store, blobs BlobStore, logger *slog.Logger) *Service {
	return &Service{store: store, blobs: blobs, logger: logger, now: time.Now}
}

// Upload extracts the text of data and stores it for userID. Archive
// failures are logged and do not fail the upload.
func (s *Service) Upload(ctx context.Context, userID, fileName, contentType string, data []byte) (*Resume, error) {
	ct, err := DetectType(contentType, fileName)
	if err != nil {
		return nil, err
	}
	text, err := Extract(data, ct)
	if err != nil {
		return nil, err
	}

	r := &Resume{Content: text, FileName: fileName, UploadedAt: s.now()}
	if s.blobs != nil {
		url, err := s.blobs.Put(ctx, ObjectKey(userID, fileName, r.UploadedAt), ct, data)
		if err != nil {
			s.logger.Warn("failed to archive resume", "user_id", userID, "error", err)
		} else {
			r.BlobURL = url
		}
	}

	if err := s.store.Save(ctx, userID, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Service) Get(ctx context.Context, userID string) (*Resume, error) {
	return s.store.Get(ctx, userID)
}

func (s *Service) Delete(ctx context.Context, userID string) (bool, error) {
	return s.store.Delete(ctx, userID)
}
