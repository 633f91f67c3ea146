package blob

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedRequest struct {
	method      string
	path        string
	contentType string
	body        string
}

func fakeBucket(t *testing.T) (*httptest.Server, func() []recordedRequest) {
	t.Helper()
	var (
		mu   sync.Mutex
		reqs []recordedRequest
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		reqs = append(reqs, recordedRequest{r.Method, r.URL.Path, r.Header.Get("Content-Type"), string(body)})
		mu.Unlock()

		switch r.Method {
		case http.MethodPut:
			w.Header().Set("ETag", `"etag"`)
			w.WriteHeader(http.StatusOK)
		case http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))
	t.Cleanup(srv.Close)

	return srv, func() []recordedRequest {
		mu.Lock()
		defer mu.Unlock()
		return append([]recordedRequest(nil), reqs...)
	}
}

func newTestS3(srvURL string) *S3 {
	client := s3.New(s3.Options{
		Region:                     "auto",
		BaseEndpoint:               aws.String(srvURL),
		UsePathStyle:               true,
		Credentials:                credentials.NewStaticCredentialsProvider("key", "secret", ""),
		RequestChecksumCalculation: aws.RequestChecksumCalculationWhenRequired,
	})
	return NewS3FromClient(client, "memories", "https://pub.example.r2.dev/%s")
}

func TestS3_PutAndDelete(t *testing.T) {
	srv, requests := fakeBucket(t)
	store := newTestS3(srv.URL)
	ctx := context.Background()

	data := []byte("jpeg-bytes")
	url, err := store.Put(ctx, "1-2-photo.jpg", "image/jpeg", bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	assert.Equal(t, "https://pub.example.r2.dev/1-2-photo.jpg", url)

	require.NoError(t, store.Delete(ctx, "1-2-photo.jpg"))

	got := requests()
	require.Len(t, got, 2)
	assert.Equal(t, http.MethodPut, got[0].method)
	assert.Equal(t, "/memories/1-2-photo.jpg", got[0].path)
	assert.Equal(t, "image/jpeg", got[0].contentType)
	assert.Contains(t, got[0].body, "jpeg-bytes")
	assert.Equal(t, http.MethodDelete, got[1].method)
	assert.Equal(t, "/memories/1-2-photo.jpg", got[1].path)
}

func TestS3_PutFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	store := newTestS3(srv.URL)
	_, err := store.Put(context.Background(), "k.jpg", "image/jpeg", bytes.NewReader([]byte("x")), 1)
	assert.Error(t, err)
}
