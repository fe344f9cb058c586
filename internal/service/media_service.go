package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	"github.com/maheshrc27/igscheduler/internal/models"
	"github.com/maheshrc27/igscheduler/internal/transfer"
	gonanoid "github.com/matoous/go-nanoid/v2"
)

// Instagram only fetches JPEG images and MP4/MOV videos.
var allowedUploadTypes = map[string]models.MediaKind{
	"jpg": models.MediaKindImage,
	"mp4": models.MediaKindVideo,
	"mov": models.MediaKindVideo,
}

type MediaService interface {
	Upload(ctx context.Context, userID int64, file []byte) (*transfer.UploadedMedia, error)
}

type mediaService struct {
	storage ObjectStorage
}

func NewMediaService(storage ObjectStorage) MediaService {
	return &mediaService{storage: storage}
}

func (s *mediaService) Upload(ctx context.Context, userID int64, file []byte) (*transfer.UploadedMedia, error) {
	if len(file) == 0 {
		return nil, fmt.Errorf("%w: empty file", ErrValidation)
	}

	fileType, err := filetype.Match(file)
	if err != nil || fileType == types.Unknown {
		return nil, fmt.Errorf("%w: unsupported file type", ErrValidation)
	}
	kind, ok := allowedUploadTypes[fileType.Extension]
	if !ok {
		return nil, fmt.Errorf("%w: file type %s is not allowed", ErrValidation, fileType.Extension)
	}

	id, err := gonanoid.New()
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}
	key := fmt.Sprintf("%d/%s.%s", userID, id, fileType.Extension)

	url, err := s.storage.Put(ctx, key, file, fileType.MIME.Value)
	if err != nil {
		return nil, fmt.Errorf("error uploading file: %w", err)
	}

	return &transfer.UploadedMedia{URL: url, MediaKind: string(kind)}, nil
}
