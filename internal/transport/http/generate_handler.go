// Package http provides the chi handlers of the generation API: the
// generate/preview endpoints, health, and prometheus metrics. It is a
// thin presentation boundary over the pipeline.
package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"

	"vmgen/internal/config"
	apierrors "vmgen/internal/errors"
	"vmgen/internal/exporter"
	"vmgen/internal/meterlist"
	"vmgen/internal/pipeline"
)

// GenerateHandler handles dataset generation requests.
type GenerateHandler struct {
	cfg      config.GeneratorConfig
	logger   *slog.Logger
	validate *validator.Validate
	metrics  *Metrics
}

// NewGenerateHandler creates a generate handler.
func NewGenerateHandler(cfg config.GeneratorConfig, logger *slog.Logger, metrics *Metrics) *GenerateHandler {
	return &GenerateHandler{
		cfg:      cfg,
		logger:   logger.With(slog.String("component", "generate_handler")),
		validate: validator.New(),
		metrics:  metrics,
	}
}

// Routes returns the generation routes
func (h *GenerateHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/generate", h.Generate)
	r.Post("/preview", h.Preview)
	return r
}

// generateRequest carries the form parameters of a generation request.
type generateRequest struct {
	Start      string `validate:"required"`
	End        string `validate:"required"`
	Frequency  string `validate:"required"`
	Files      int    `validate:"min=1"`
	SkipHeader bool
	Format     string `validate:"omitempty,oneof=xlsx csv"`
}

// previewResponse is the JSON body of a preview request.
type previewResponse struct {
	Success    bool                   `json:"success"`
	Extraction *meterlist.Extraction  `json:"extraction"`
	Preview    pipeline.Preview       `json:"preview"`
	Report     interface{}            `json:"report"`
	Warnings   int                    `json:"warnings"`
	Config     map[string]interface{} `json:"config"`
}

// Generate handles POST /api/generate: multipart upload in, zip out.
func (h *GenerateHandler) Generate(w http.ResponseWriter, r *http.Request) {
	table, cfg, apiErr := h.parseRequest(r)
	if apiErr != nil {
		h.fail(w, r, apiErr)
		return
	}

	result, err := pipeline.Generate(r.Context(), table, cfg)
	if err != nil {
		h.fail(w, r, apierrors.FromPipelineError(err))
		return
	}

	h.metrics.GenerationsTotal.Inc()
	h.metrics.RowsGenerated.Add(float64(result.Dataset.Len()))
	h.metrics.ArchiveBytes.Add(float64(len(result.Archive)))

	h.logger.InfoContext(r.Context(), "archive generated",
		slog.String("archive_name", result.ArchiveName),
		slog.Int("rows", result.Dataset.Len()),
		slog.Int("chunks", result.Chunks))

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", result.ArchiveName))
	w.Header().Set("Content-Length", strconv.Itoa(len(result.Archive)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(result.Archive); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to write archive response",
			slog.String("error", err.Error()))
	}
}

// Preview handles POST /api/preview: runs every stage except
// packaging and returns extraction and dataset summaries.
func (h *GenerateHandler) Preview(w http.ResponseWriter, r *http.Request) {
	table, cfg, apiErr := h.parseRequest(r)
	if apiErr != nil {
		h.fail(w, r, apiErr)
		return
	}

	result, err := pipeline.DryRun(r.Context(), table, cfg)
	if err != nil {
		h.fail(w, r, apierrors.FromPipelineError(err))
		return
	}

	render.Status(r, http.StatusOK)
	render.JSON(w, r, previewResponse{
		Success:    true,
		Extraction: result.Extraction,
		Preview:    result.Preview,
		Report:     result.Report,
		Warnings:   len(result.Report.Warnings()),
		Config: map[string]interface{}{
			"frequency": cfg.Frequency,
			"files":     cfg.Files,
			"start":     cfg.Start.Format(time.RFC3339),
			"end":       cfg.End.Format(time.RFC3339),
		},
	})
}

// parseRequest reads the multipart upload and form parameters into a
// pipeline config.
func (h *GenerateHandler) parseRequest(r *http.Request) ([][]string, pipeline.Config, *apierrors.APIError) {
	var zero pipeline.Config

	r.Body = http.MaxBytesReader(nil, r.Body, h.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(h.cfg.MaxUploadBytes); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return nil, zero, apierrors.ErrUploadTooLarge
		}
		return nil, zero, apierrors.InvalidRequestWithError(err)
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, zero, apierrors.ErrMissingUpload
	}
	defer file.Close()

	req := generateRequest{
		Start:      r.FormValue("start"),
		End:        r.FormValue("end"),
		Frequency:  r.FormValue("frequency"),
		Files:      h.cfg.DefaultFiles,
		SkipHeader: r.FormValue("skip_header") == "true",
		Format:     r.FormValue("format"),
	}
	if req.Frequency == "" {
		req.Frequency = h.cfg.DefaultFrequency
	}
	if v := r.FormValue("files"); v != "" {
		files, err := strconv.Atoi(v)
		if err != nil {
			return nil, zero, apierrors.ErrValidation("files", "must be an integer")
		}
		req.Files = files
	}

	if err := h.validate.Struct(req); err != nil {
		return nil, zero, apierrors.InvalidRequestWithError(err)
	}
	if req.Files > h.cfg.MaxFiles {
		return nil, zero, apierrors.ErrValidation("files",
			fmt.Sprintf("must be at most %d", h.cfg.MaxFiles))
	}

	start, err := parseInstant(req.Start, false)
	if err != nil {
		return nil, zero, apierrors.ErrValidation("start", err.Error())
	}
	end, err := parseInstant(req.End, true)
	if err != nil {
		return nil, zero, apierrors.ErrValidation("end", err.Error())
	}

	table, err := meterlist.ReadTable(file, header.Filename)
	if err != nil {
		return nil, zero, apierrors.InvalidRequestWithError(err)
	}

	return table, pipeline.Config{
		Start:           start,
		End:             end,
		Frequency:       req.Frequency,
		Files:           req.Files,
		SkipHeader:      req.SkipHeader,
		Format:          exporter.Format(req.Format),
		SampleThreshold: h.cfg.SampleThreshold,
	}, nil
}

func (h *GenerateHandler) fail(w http.ResponseWriter, r *http.Request, apiErr *apierrors.APIError) {
	h.metrics.GenerationFailures.WithLabelValues(apiErr.ErrorCode).Inc()
	h.logger.WarnContext(r.Context(), "request failed",
		slog.String("error_code", apiErr.ErrorCode),
		slog.String("message", apiErr.Message))
	apierrors.WriteError(w, apiErr)
}

// instantLayouts are accepted timestamp formats, most specific first.
var instantLayouts = []string{
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// parseInstant parses a caller-supplied instant. A date-only end value
// is expanded to the last minute of that day so the range covers the
// whole end date.
func parseInstant(value string, endOfDay bool) (time.Time, error) {
	for _, layout := range instantLayouts {
		t, err := time.ParseInLocation(layout, value, time.UTC)
		if err != nil {
			continue
		}
		if layout == "2006-01-02" && endOfDay {
			t = t.Add(23*time.Hour + 59*time.Minute)
		}
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q (use YYYY-MM-DD or YYYY-MM-DD HH:MM)", value)
}
