package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/yourusername/clarity-api/internal/model"
	"github.com/yourusername/clarity-api/internal/service"
)

type ExportHandler struct {
	exporter *service.PDFExporter
}

func NewExportHandler(exporter *service.PDFExporter) *ExportHandler {
	return &ExportHandler{exporter: exporter}
}

// Export handles POST /api/export-pdf
// Forwards {report} to the external renderer and streams the PDF back.
func (h *ExportHandler) Export(c *gin.Context) {
	if !h.exporter.Configured() {
		respondError(c, http.StatusServiceUnavailable, model.ErrCodeInternal, "PDF export isn't available right now.")
		return
	}

	var req struct {
		Report json.RawMessage `json:"report" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFieldError(c, http.StatusBadRequest, "Send the report as JSON.", map[string]string{"report": "required"})
		return
	}

	pdfBytes, err := h.exporter.Export(c.Request.Context(), req.Report)
	if err != nil {
		log.Error().Err(err).Msg("PDF export failed")
		respondError(c, http.StatusBadGateway, model.ErrCodeInternal, "PDF export failed. Try again.")
		return
	}

	c.Header("Content-Disposition", `attachment; filename="resume-report.pdf"`)
	c.Data(http.StatusOK, "application/pdf", pdfBytes)
}
