package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vmgen/internal/config"
)

func testHandler(t *testing.T) *GenerateHandler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	metrics := NewMetrics(prometheus.NewRegistry())
	return NewGenerateHandler(config.GeneratorConfig{
		DefaultFrequency: "30T",
		DefaultFiles:     2,
		MaxFiles:         50,
		MaxUploadBytes:   1 << 20,
		SampleThreshold:  500,
	}, logger, metrics)
}

type uploadOptions struct {
	omitFile bool
	fields   map[string]string
}

func uploadRequest(t *testing.T, path string, opts uploadOptions) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	if !opts.omitFile {
		fw, err := mw.CreateFormFile("file", "meters.csv")
		require.NoError(t, err)
		_, err = fw.Write([]byte("M1\nM2\n"))
		require.NoError(t, err)
	}

	fields := map[string]string{
		"start":     "2024-01-01",
		"end":       "2024-01-01 01:00",
		"frequency": "30T",
		"files":     "2",
	}
	for k, v := range opts.fields {
		fields[k] = v
	}
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

type errorBody struct {
	Success bool `json:"success"`
	Error   struct {
		ErrorCode string `json:"error_code"`
		Message   string `json:"message"`
	} `json:"error"`
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestGenerateReturnsArchive(t *testing.T) {
	h := testHandler(t)
	rec := httptest.NewRecorder()

	h.Routes().ServeHTTP(rec, uploadRequest(t, "/generate", uploadOptions{}))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/zip", rec.Header().Get("Content-Type"))
	assert.Regexp(t, `attachment; filename="virtual_meters_data_\d{8}_\d{4}\.zip"`,
		rec.Header().Get("Content-Disposition"))
	assert.NotEmpty(t, rec.Body.Bytes())
}

func TestGenerateMissingUpload(t *testing.T) {
	h := testHandler(t)
	rec := httptest.NewRecorder()

	h.Routes().ServeHTTP(rec, uploadRequest(t, "/generate", uploadOptions{omitFile: true}))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "MISSING_UPLOAD", decodeError(t, rec).Error.ErrorCode)
}

func TestGenerateUnsupportedFrequency(t *testing.T) {
	h := testHandler(t)
	rec := httptest.NewRecorder()

	h.Routes().ServeHTTP(rec, uploadRequest(t, "/generate", uploadOptions{
		fields: map[string]string{"frequency": "5T"},
	}))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "UNSUPPORTED_FREQUENCY", decodeError(t, rec).Error.ErrorCode)
}

func TestGenerateInvalidRangeRejected(t *testing.T) {
	h := testHandler(t)
	rec := httptest.NewRecorder()

	h.Routes().ServeHTTP(rec, uploadRequest(t, "/generate", uploadOptions{
		fields: map[string]string{"start": "2024-06-01", "end": "2024-01-01"},
	}))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_RANGE", decodeError(t, rec).Error.ErrorCode)
}

func TestGenerateFilesAboveMax(t *testing.T) {
	h := testHandler(t)
	rec := httptest.NewRecorder()

	h.Routes().ServeHTTP(rec, uploadRequest(t, "/generate", uploadOptions{
		fields: map[string]string{"files": "100"},
	}))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_FAILED", decodeError(t, rec).Error.ErrorCode)
}

func TestGenerateBadDate(t *testing.T) {
	h := testHandler(t)
	rec := httptest.NewRecorder()

	h.Routes().ServeHTTP(rec, uploadRequest(t, "/generate", uploadOptions{
		fields: map[string]string{"start": "01-01-2024"},
	}))

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "VALIDATION_FAILED", decodeError(t, rec).Error.ErrorCode)
}

func TestGenerateDefaultsApplied(t *testing.T) {
	h := testHandler(t)
	rec := httptest.NewRecorder()

	// Frequency and files omitted fall back to generator defaults.
	h.Routes().ServeHTTP(rec, uploadRequest(t, "/generate", uploadOptions{
		fields: map[string]string{"frequency": "", "files": ""},
	}))

	require.Equal(t, http.StatusOK, rec.Code)
}

func TestPreviewReturnsSummary(t *testing.T) {
	h := testHandler(t)
	rec := httptest.NewRecorder()

	h.Routes().ServeHTTP(rec, uploadRequest(t, "/preview", uploadOptions{}))

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Success bool `json:"success"`
		Preview struct {
			TotalRows  int `json:"total_rows"`
			Meters     int `json:"meters"`
			Timestamps int `json:"timestamps"`
		} `json:"preview"`
		Extraction struct {
			Meters []string `json:"meters"`
		} `json:"extraction"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	assert.True(t, body.Success)
	assert.Equal(t, []string{"M1", "M2"}, body.Extraction.Meters)
	assert.Equal(t, 3, body.Preview.Timestamps)
	assert.Equal(t, 6, body.Preview.TotalRows)
}

func TestPreviewNoValidMeters(t *testing.T) {
	h := testHandler(t)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "meters.csv")
	require.NoError(t, err)
	_, err = fw.Write([]byte("  \n"))
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("start", "2024-01-01"))
	require.NoError(t, mw.WriteField("end", "2024-01-01 01:00"))
	require.NoError(t, mw.WriteField("frequency", "30T"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/preview", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "NO_VALID_METERS", decodeError(t, rec).Error.ErrorCode)
}
