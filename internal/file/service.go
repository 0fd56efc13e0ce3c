package file

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nekogravitycat/mentorship-backend/internal/pkg/storage"
)

const (
	thumbnailSize = 200
	avatarSize    = 512
)

// UploadInput describes one uploaded form file and the rules it must satisfy.
type UploadInput struct {
	FileHeader   *multipart.FileHeader
	UserID       string
	MaxSizeBytes int64    // 0 = no limit
	AllowedTypes []string // empty = allow all
	ResizeImage  bool     // square-crop to an avatar-sized JPEG
}

type Service interface {
	Upload(ctx context.Context, in UploadInput) (*File, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*File, error)
	Download(ctx context.Context, id string) (io.ReadCloser, *File, error)
	DownloadThumbnail(ctx context.Context, id string) (io.ReadCloser, *File, error)
}

type service struct {
	repo    Repository
	storage storage.Storage
	imgProc *storage.ImageProcessor
	logger  *zap.Logger
	now     func() time.Time
}

func NewService(repo Repository, store storage.Storage, logger *zap.Logger) Service {
	return &service{
		repo:    repo,
		storage: store,
		imgProc: storage.NewImageProcessor(),
		logger:  logger,
		now:     time.Now,
	}
}

func (s *service) Upload(ctx context.Context, in UploadInput) (*File, error) {
	if in.MaxSizeBytes > 0 && in.FileHeader.Size > in.MaxSizeBytes {
		return nil, ErrFileTooLarge
	}

	src, err := in.FileHeader.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	defer src.Close()

	// The header size is client supplied; enforce the limit on what is read.
	reader := io.Reader(src)
	if in.MaxSizeBytes > 0 {
		reader = io.LimitReader(src, in.MaxSizeBytes+1)
	}
	content, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read file content: %w", err)
	}
	if len(content) == 0 {
		return nil, ErrEmptyFile
	}
	if in.MaxSizeBytes > 0 && int64(len(content)) > in.MaxSizeBytes {
		return nil, ErrFileTooLarge
	}

	// Trust the sniffed type over the client's Content-Type header.
	mtype := mimetype.Detect(content)
	contentType := mtype.String()
	if i := strings.IndexByte(contentType, ';'); i >= 0 {
		contentType = contentType[:i]
	}
	if len(in.AllowedTypes) > 0 && !slices.ContainsFunc(in.AllowedTypes, mtype.Is) {
		return nil, ErrUnsupportedType
	}

	isImage := strings.HasPrefix(contentType, "image/")
	if in.ResizeImage {
		if !isImage {
			return nil, ErrUnsupportedType
		}
		resized, err := s.imgProc.SquareCrop(bytes.NewReader(content), avatarSize)
		if err != nil {
			return nil, ErrUnsupportedType
		}
		if content, err = io.ReadAll(resized); err != nil {
			return nil, fmt.Errorf("failed to read resized image: %w", err)
		}
		contentType = "image/jpeg"
	}

	fileID := uuid.NewString()
	ext := strings.ToLower(filepath.Ext(in.FileHeader.Filename))
	if in.ResizeImage {
		ext = ".jpg"
	}

	// Sharding path: upload/ab/UUID.ext
	shard := fileID[:2]
	storagePath := fmt.Sprintf("upload/%s/%s%s", shard, fileID, ext)

	if err := s.storage.Save(ctx, storagePath, bytes.NewReader(content)); err != nil {
		return nil, fmt.Errorf("failed to save file to storage: %w", err)
	}

	var thumbnailPath *string
	if isImage && !in.ResizeImage {
		if thumb, err := s.imgProc.GenerateThumbnail(bytes.NewReader(content), thumbnailSize, thumbnailSize); err != nil {
			s.logger.Warn("thumbnail generation failed", zap.String("file_id", fileID), zap.Error(err))
		} else {
			tPath := fmt.Sprintf("upload/%s/%s_thumb.jpg", shard, fileID)
			if err := s.storage.Save(ctx, tPath, thumb); err != nil {
				s.logger.Warn("thumbnail save failed", zap.String("file_id", fileID), zap.Error(err))
			} else {
				thumbnailPath = &tPath
			}
		}
	}

	f := &File{
		ID:            fileID,
		UserID:        in.UserID,
		Filename:      filepath.Base(in.FileHeader.Filename),
		StoragePath:   storagePath,
		ThumbnailPath: thumbnailPath,
		ContentType:   contentType,
		Size:          int64(len(content)),
		CreatedAt:     s.now().UTC(),
	}

	if err := s.repo.Create(ctx, f); err != nil {
		s.removeObjects(ctx, f)
		return nil, err
	}

	return f, nil
}

func (s *service) Delete(ctx context.Context, id string) error {
	f, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.removeObjects(ctx, f)
	return nil
}

// removeObjects deletes the stored blobs of f. Failures leave orphans, which
// are logged rather than surfaced.
func (s *service) removeObjects(ctx context.Context, f *File) {
	if err := s.storage.Delete(ctx, f.StoragePath); err != nil {
		s.logger.Warn("failed to delete stored file", zap.String("path", f.StoragePath), zap.Error(err))
	}
	if f.ThumbnailPath != nil {
		if err := s.storage.Delete(ctx, *f.ThumbnailPath); err != nil {
			s.logger.Warn("failed to delete stored thumbnail", zap.String("path", *f.ThumbnailPath), zap.Error(err))
		}
	}
}

func (s *service) Get(ctx context.Context, id string) (*File, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) Download(ctx context.Context, id string) (io.ReadCloser, *File, error) {
	f, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	stream, err := s.storage.Get(ctx, f.StoragePath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to retrieve file from storage: %w", err)
	}

	return stream, f, nil
}

func (s *service) DownloadThumbnail(ctx context.Context, id string) (io.ReadCloser, *File, error) {
	f, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	if f.ThumbnailPath == nil {
		return nil, nil, ErrNoThumbnail
	}

	stream, err := s.storage.Get(ctx, *f.ThumbnailPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to retrieve thumbnail from storage: %w", err)
	}

	return stream, f, nil
}
