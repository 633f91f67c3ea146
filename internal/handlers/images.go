package handlers

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/petermazzocco/memory-wall/internal/logging"
	"github.com/petermazzocco/memory-wall/internal/memories"
	"github.com/petermazzocco/memory-wall/models"
)

// MaxUploadBytes caps the whole multipart body of POST /upload.
const MaxUploadBytes = models.MaxImagesPerMemory*memories.MaxImageSize + 1<<20

// Parts above this size spill to temp files instead of memory.
const multipartMemory = 8 << 20

type MemoryService interface {
	Create(ctx context.Context, sub memories.Submission) (*models.Memory, error)
	List(ctx context.Context) ([]models.Memory, error)
}

type imageResponse struct {
	Data        string `json:"data"`
	ContentType string `json:"contentType"`
}

type memoryResponse struct {
	ID        string          `json:"_id"`
	Name      string          `json:"name"`
	Message   string          `json:"message"`
	Images    []imageResponse `json:"images"`
	CreatedAt time.Time       `json:"createdAt"`
}

func toMemoryResponse(m models.Memory) memoryResponse {
	images := make([]imageResponse, 0, len(m.Images))
	for _, img := range m.Images {
		images = append(images, imageResponse{Data: img.Data, ContentType: img.ContentType})
	}
	return memoryResponse{
		ID:        m.ID,
		Name:      m.Name,
		Message:   m.Message,
		Images:    images,
		CreatedAt: m.CreatedAt,
	}
}

// UploadMemoryHandler accepts a multipart form with optional "name" and
// "message" fields and up to ten "images" files.
func UploadMemoryHandler(w http.ResponseWriter, r *http.Request, svc MemoryService) {
	log := logging.FromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			writeMessage(w, http.StatusRequestEntityTooLarge, "Upload too large")
		case errors.Is(err, http.ErrNotMultipart):
			writeMessage(w, http.StatusBadRequest, "No files uploaded")
		default:
			log.Info("bad multipart form", "err", err)
			writeMessage(w, http.StatusBadRequest, "Invalid form data")
		}
		return
	}
	defer r.MultipartForm.RemoveAll()

	headers := r.MultipartForm.File["images"]
	files := make([]memories.File, 0, len(headers))
	for _, fh := range headers {
		files = append(files, fileFromHeader(fh))
	}

	_, err := svc.Create(r.Context(), memories.Submission{
		Name:    r.PostFormValue("name"),
		Message: r.PostFormValue("message"),
		Files:   files,
	})
	switch {
	case err == nil:
		writeMessage(w, http.StatusCreated, "Memory saved!")
	case errors.Is(err, memories.ErrNoImages):
		writeMessage(w, http.StatusBadRequest, "No files uploaded")
	case errors.Is(err, memories.ErrTooManyImages):
		writeMessage(w, http.StatusBadRequest, "Too many files")
	case errors.Is(err, memories.ErrImageTooLarge):
		writeMessage(w, http.StatusRequestEntityTooLarge, "File too large")
	case errors.Is(err, memories.ErrUnsupportedType):
		writeMessage(w, http.StatusBadRequest, "Only image files are allowed")
	case errors.Is(err, memories.ErrInvalidImage):
		log.Info("rejected image", "err", err)
		writeMessage(w, http.StatusBadRequest, "Invalid image")
	default:
		log.Error("upload failed", "err", err)
		writeMessage(w, http.StatusInternalServerError, "Upload failed")
	}
}

func fileFromHeader(fh *multipart.FileHeader) memories.File {
	return memories.File{
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Open: func() (io.ReadCloser, error) {
			f, err := fh.Open()
			if err != nil {
				return nil, err
			}
			return f, nil
		},
	}
}

// GetMemoriesHandler lists every memory, newest first.
func GetMemoriesHandler(w http.ResponseWriter, r *http.Request, svc MemoryService) {
	list, err := svc.List(r.Context())
	if err != nil {
		logging.FromContext(r.Context()).Error("fetching memories", "err", err)
		writeMessage(w, http.StatusInternalServerError, "Error fetching memories")
		return
	}

	resp := make([]memoryResponse, 0, len(list))
	for _, m := range list {
		resp = append(resp, toMemoryResponse(m))
	}
	writeJSON(w, http.StatusOK, resp)
}
