package handler

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ledongthuc/pdf"
	"github.com/rs/zerolog/log"

	"github.com/yourusername/clarity-api/internal/model"
)

type UploadHandler struct{}

func NewUploadHandler() *UploadHandler {
	return &UploadHandler{}
}

// Upload handles POST /api/resume-upload
// Accepts a PDF file via multipart form, extracts text, returns it
func (h *UploadHandler) Upload(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		respondFieldError(c, http.StatusBadRequest, "No file uploaded.", map[string]string{"file": "required"})
		return
	}
	defer file.Close()

	// Validate file type
	if !strings.HasSuffix(strings.ToLower(header.Filename), ".pdf") {
		respondFieldError(c, http.StatusBadRequest, "Only PDF files are supported.", map[string]string{"file": "must be .pdf"})
		return
	}

	// Limit to 10MB
	if header.Size > 10*1024*1024 {
		respondFieldError(c, http.StatusBadRequest, "File too large. Maximum size is 10MB.", map[string]string{"file": "too large"})
		return
	}

	fileBytes, err := io.ReadAll(file)
	if err != nil {
		log.Error().Err(err).Msg("Failed to read uploaded file")
		respondError(c, http.StatusInternalServerError, model.ErrCodeInternal, "Failed to read file.")
		return
	}

	// Validate PDF magic bytes (header must start with %PDF)
	if len(fileBytes) < 4 || string(fileBytes[:4]) != "%PDF" {
		respondFieldError(c, http.StatusBadRequest, "Invalid PDF file.", map[string]string{"file": "not a PDF"})
		return
	}

	text, err := extractPDFText(fileBytes)
	if err != nil {
		log.Error().Err(err).Msg("Failed to extract text from PDF")
		respondError(c, http.StatusUnprocessableEntity, model.ErrCodeValidation,
			"Could not extract text from this PDF. It may be image-based or corrupted.")
		return
	}

	text = strings.TrimSpace(text)
	if len(text) < 50 {
		respondError(c, http.StatusUnprocessableEntity, model.ErrCodeValidation,
			"Very little text was extracted. This PDF may be image-based (scanned). Try a text-based PDF.")
		return
	}

	log.Info().
		Str("filename", header.Filename).
		Int("bytes", len(fileBytes)).
		Int("textLen", len(text)).
		Msg("Resume PDF text extracted")

	c.JSON(http.StatusOK, gin.H{
		"ok":       true,
		"text":     text,
		"filename": header.Filename,
	})
}

func extractPDFText(data []byte) (string, error) {
	// Write to temp file — ledongthuc/pdf requires a file reader
	tmpFile, err := os.CreateTemp("", "resume-*.pdf")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmpFile.Name())
	defer tmpFile.Close()

	if _, err := tmpFile.Write(data); err != nil {
		return "", fmt.Errorf("writing temp file: %w", err)
	}

	f, reader, err := pdf.Open(tmpFile.Name())
	if err != nil {
		return "", fmt.Errorf("opening PDF: %w", err)
	}
	defer f.Close()

	var sb strings.Builder
	numPages := reader.NumPage()

	for i := 1; i <= numPages; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			log.Warn().Int("page", i).Err(err).Msg("Failed to extract text from PDF page")
			continue
		}

		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(text)
	}

	return sb.String(), nil
}
