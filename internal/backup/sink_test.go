package backup

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSink(t *testing.T) {
	sink, err := NewFileSink(t.TempDir())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, sink.Put(ctx, "nightly.json", []byte(`{"version":"1"}`)))
	require.NoError(t, sink.Put(ctx, "nightly.json", []byte(`{"version":"1","servers":[]}`)))

	data, err := sink.Get(ctx, "nightly.json")
	require.NoError(t, err)
	assert.Equal(t, `{"version":"1","servers":[]}`, string(data), "put replaces")

	_, err = sink.Get(ctx, "missing.json")
	assert.ErrorIs(t, err, ErrNotFound)

	for _, key := range []string{"", "..", "../escape.json", `a\b`} {
		assert.Error(t, sink.Put(ctx, key, nil), "key %q", key)
	}
}

// memoryS3 is an in-memory S3 endpoint for PutObject and GetObject with
// path-style addressing.
type memoryS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func (m *memoryS3) RoundTrip(req *http.Request) (*http.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := strings.TrimPrefix(req.URL.Path, "/")
	switch req.Method {
	case http.MethodPut:
		body, _ := io.ReadAll(req.Body)
		if dec, ok := decodeChunked(body); ok {
			body = dec
		}
		m.objects[key] = body
		return response(http.StatusOK, nil), nil
	case http.MethodGet:
		body, ok := m.objects[key]
		if !ok {
			return response(http.StatusNotFound,
				[]byte(`<?xml version="1.0"?><Error><Code>NoSuchKey</Code><Message>missing</Message></Error>`)), nil
		}
		resp := response(http.StatusOK, body)
		resp.Header.Set("Content-Length", strconv.Itoa(len(body)))
		return resp, nil
	}
	return response(http.StatusNotImplemented, nil), nil
}

func response(status int, body []byte) *http.Response {
	h := http.Header{}
	if status >= 300 {
		h.Set("Content-Type", "application/xml")
	}
	return &http.Response{
		StatusCode:    status,
		Body:          io.NopCloser(bytes.NewReader(body)),
		ContentLength: int64(len(body)),
		Header:        h,
	}
}

// decodeChunked unwraps a single-chunk aws-chunked payload.
func decodeChunked(b []byte) ([]byte, bool) {
	parts := strings.Split(string(b), "\r\n")
	if len(parts) < 3 || parts[2] != "0" {
		return nil, false
	}
	size, err := strconv.ParseInt(parts[0], 16, 64)
	if err != nil || int64(len(parts[1])) != size {
		return nil, false
	}
	return []byte(parts[1]), true
}

func newTestS3Sink(t *testing.T, backend *memoryS3) *S3Sink {
	t.Helper()
	sink, err := NewS3Sink(context.Background(), S3Config{
		Bucket:          "plan-backups",
		Prefix:          "network-a",
		Endpoint:        "https://s3.test.local",
		AccessKeyID:     "AKIA",
		SecretAccessKey: "SECRET",
		PathStyle:       true,
	}, func(o *s3.Options) {
		o.HTTPClient = &http.Client{Transport: backend}
		o.RequestChecksumCalculation = aws.RequestChecksumCalculationWhenRequired
	})
	require.NoError(t, err)
	return sink
}

func TestS3Sink(t *testing.T) {
	backend := &memoryS3{objects: map[string][]byte{}}
	sink := newTestS3Sink(t, backend)
	ctx := context.Background()

	require.NoError(t, sink.Put(ctx, "nightly.json", []byte(`{"version":"1"}`)))
	assert.Contains(t, backend.objects, "plan-backups/network-a/nightly.json")

	data, err := sink.Get(ctx, "nightly.json")
	require.NoError(t, err)
	assert.Equal(t, `{"version":"1"}`, string(data))

	_, err = sink.Get(ctx, "missing.json")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestS3Sink_RequiresBucket(t *testing.T) {
	_, err := NewS3Sink(context.Background(), S3Config{})
	assert.Error(t, err)
}

func TestSnapshotThroughS3(t *testing.T) {
	snap := exportSeeded(t)
	sink := newTestS3Sink(t, &memoryS3{objects: map[string][]byte{}})
	ctx := context.Background()

	var buf bytes.Buffer
	require.NoError(t, snap.Encode(&buf))
	require.NoError(t, sink.Put(ctx, "seeded.json", buf.Bytes()))

	data, err := sink.Get(ctx, "seeded.json")
	require.NoError(t, err)
	got, err := Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, snap, got)
}
