package service

import (
	"context"
	"errors"
	"strings"
	"testing"
)

type fakeStorage struct {
	keys         []string
	contentTypes []string
	err          error
}

func (s *fakeStorage) Put(_ context.Context, key string, _ []byte, contentType string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.keys = append(s.keys, key)
	s.contentTypes = append(s.contentTypes, contentType)
	return "https://media.example.com/" + key, nil
}

var (
	jpegBytes = []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00}
	pngBytes  = []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A, 0x00, 0x00, 0x00, 0x0D}
)

func TestUploadJPEG(t *testing.T) {
	storage := &fakeStorage{}
	s := NewMediaService(storage)

	uploaded, err := s.Upload(context.Background(), 42, jpegBytes)
	if err != nil {
		t.Fatalf("Upload error: %v", err)
	}
	if uploaded.MediaKind != "IMAGE" {
		t.Errorf("expected IMAGE, got %q", uploaded.MediaKind)
	}
	if len(storage.keys) != 1 {
		t.Fatalf("expected one stored object, got %d", len(storage.keys))
	}

	key := storage.keys[0]
	if !strings.HasPrefix(key, "42/") || !strings.HasSuffix(key, ".jpg") {
		t.Errorf("unexpected object key %q", key)
	}
	if storage.contentTypes[0] != "image/jpeg" {
		t.Errorf("unexpected content type %q", storage.contentTypes[0])
	}
	if uploaded.URL != "https://media.example.com/"+key {
		t.Errorf("unexpected url %q", uploaded.URL)
	}
}

func TestUploadRejects(t *testing.T) {
	tests := []struct {
		name string
		file []byte
	}{
		{"empty", nil},
		{"unknown", []byte("just some text")},
		{"png", pngBytes},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage := &fakeStorage{}
			_, err := NewMediaService(storage).Upload(context.Background(), 1, tt.file)
			if !errors.Is(err, ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
			if len(storage.keys) != 0 {
				t.Errorf("rejected file was stored")
			}
		})
	}
}

func TestUploadStorageFailure(t *testing.T) {
	storage := &fakeStorage{err: errors.New("bucket unavailable")}

	_, err := NewMediaService(storage).Upload(context.Background(), 1, jpegBytes)
	if err == nil || !strings.Contains(err.Error(), "bucket unavailable") {
		t.Errorf("expected storage error, got %v", err)
	}
}
