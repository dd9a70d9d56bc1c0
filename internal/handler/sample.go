package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/clarity-api/internal/report"
)

// SampleReport handles GET /sample-report.json — the static fixture the
// frontend falls back to when it can't reach the feedback endpoint.
func SampleReport(c *gin.Context) {
	c.Header("Cache-Control", "public, max-age=3600")
	c.JSON(http.StatusOK, report.SampleReport)
}

// SampleResume handles GET /sample-resume.txt — the canned resume text
// that drives the sample flow.
func SampleResume(c *gin.Context) {
	c.Header("Cache-Control", "public, max-age=3600")
	c.String(http.StatusOK, report.SampleResumeText)
}
