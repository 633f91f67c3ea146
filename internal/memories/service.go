// Package memories turns guest submissions into stored Memory records and
// serves them back to the admin gallery.
package memories

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/petermazzocco/memory-wall/internal/blob"
	"github.com/petermazzocco/memory-wall/internal/imaging"
	"github.com/petermazzocco/memory-wall/internal/logging"
	"github.com/petermazzocco/memory-wall/internal/store"
	"github.com/petermazzocco/memory-wall/models"
)

// MaxImageSize is the per-file upload limit.
const MaxImageSize int64 = 5 << 20

var (
	ErrNoImages        = errors.New("no images uploaded")
	ErrTooManyImages   = fmt.Errorf("more than %d images", models.MaxImagesPerMemory)
	ErrImageTooLarge   = errors.New("image too large")
	ErrUnsupportedType = errors.New("unsupported content type")
	ErrInvalidImage    = errors.New("invalid image")
)

// File is one uploaded image as received from the client.
type File struct {
	Filename    string
	ContentType string // as declared by the client; may be empty
	Size        int64
	Open        func() (io.ReadCloser, error)
}

type Submission struct {
	Name    string
	Message string
	Files   []File
}

type Service struct {
	memories store.MemoryStore
	blobs    blob.Store
	images   imaging.Processor
	now      func() time.Time
}

func NewService(memories store.MemoryStore, blobs blob.Store, images imaging.Processor) *Service {
	if images == nil {
		images = imaging.Noop{}
	}
	return &Service{
		memories: memories,
		blobs:    blobs,
		images:   images,
		now:      time.Now,
	}
}

// Create validates sub, stores every file and persists the memory. Blobs
// written before a failure are removed again.
func (s *Service) Create(ctx context.Context, sub Submission) (*models.Memory, error) {
	if err := validateFiles(sub.Files); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	mem := &models.Memory{
		Name:      strings.TrimSpace(sub.Name),
		Message:   strings.TrimSpace(sub.Message),
		Images:    make([]models.Image, 0, len(sub.Files)),
		CreatedAt: now,
	}
	if mem.Name == "" {
		mem.Name = models.DefaultName
	}

	for _, f := range sub.Files {
		img, err := s.storeFile(ctx, f, now)
		if err != nil {
			s.discard(ctx, mem.Images)
			return nil, err
		}
		mem.Images = append(mem.Images, img)
	}

	if err := s.memories.CreateMemory(ctx, mem); err != nil {
		s.discard(ctx, mem.Images)
		return nil, fmt.Errorf("saving memory: %w", err)
	}

	logging.FromContext(ctx).Info("memory saved", "memory_id", mem.ID, "images", len(mem.Images))
	return mem, nil
}

// List returns every memory, newest first.
func (s *Service) List(ctx context.Context) ([]models.Memory, error) {
	list, err := s.memories.ListMemories(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing memories: %w", err)
	}
	if list == nil {
		list = []models.Memory{}
	}
	return list, nil
}

func validateFiles(files []File) error {
	switch {
	case len(files) == 0:
		return ErrNoImages
	case len(files) > models.MaxImagesPerMemory:
		return ErrTooManyImages
	}
	for _, f := range files {
		if f.Size > MaxImageSize {
			return fmt.Errorf("%w: %s", ErrImageTooLarge, f.Filename)
		}
	}
	return nil
}

func (s *Service) storeFile(ctx context.Context, f File, now time.Time) (models.Image, error) {
	rc, err := f.Open()
	if err != nil {
		return models.Image{}, fmt.Errorf("opening %s: %w", f.Filename, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, MaxImageSize+1))
	if err != nil {
		return models.Image{}, fmt.Errorf("reading %s: %w", f.Filename, err)
	}
	if int64(len(data)) > MaxImageSize {
		return models.Image{}, fmt.Errorf("%w: %s", ErrImageTooLarge, f.Filename)
	}

	contentType, err := imageContentType(f.ContentType, data)
	if err != nil {
		return models.Image{}, fmt.Errorf("%s: %w", f.Filename, err)
	}

	data, contentType, err = s.images.Process(data, contentType)
	if err != nil {
		return models.Image{}, fmt.Errorf("%w: %s: %v", ErrInvalidImage, f.Filename, err)
	}

	ext, ok := rasterExt[contentType]
	if !ok {
		return models.Image{}, fmt.Errorf("%s: %w: processed to %q", f.Filename, ErrUnsupportedType, contentType)
	}
	key := blob.NewKey(storedName(f.Filename, ext), now)
	url, err := s.blobs.Put(ctx, key, contentType, bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return models.Image{}, fmt.Errorf("storing %s: %w", f.Filename, err)
	}

	return models.Image{Key: key, Data: url, ContentType: contentType}, nil
}

func (s *Service) discard(ctx context.Context, images []models.Image) {
	ctx = context.WithoutCancel(ctx)
	for _, img := range images {
		if err := s.blobs.Delete(ctx, img.Key); err != nil {
			logging.FromContext(ctx).Warn("removing orphaned blob", "key", img.Key, "err", err)
		}
	}
}
