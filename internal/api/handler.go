// Package api is the JSON service: cohort queries, analysis runs, and
// report downloads over gin.
package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"immunostat/adapters/report"
	"immunostat/domain/cohort"
	domstats "immunostat/domain/stats"
	"immunostat/internal"
	apperrors "immunostat/internal/errors"
	"immunostat/internal/service"
)

// Handler serves the analysis API.
type Handler struct {
	svc *service.AnalysisService
	log *internal.Logger
}

// NewHandler creates the API handler.
func NewHandler(svc *service.AnalysisService, log *internal.Logger) *Handler {
	if log == nil {
		log = internal.NewDefaultLogger()
	}
	return &Handler{svc: svc, log: log}
}

// Register mounts all routes under /api/v1.
func (h *Handler) Register(router *gin.Engine) {
	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", h.Health)
		v1.GET("/options", h.Options)
		v1.GET("/frequencies", h.Frequencies)
		v1.GET("/subset-stats", h.SubsetStats)
		v1.GET("/cohort-flow", h.CohortFlow)
		v1.POST("/analysis", h.RunAnalysis)
		v1.POST("/report/html", h.ReportHTML)
		v1.POST("/report/xlsx", h.ReportExcel)
	}
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Options returns the default analysis options and the default cohort
// filter, so clients can render their forms.
func (h *Handler) Options(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"defaults": h.svc.Defaults(),
		"filter":   cohort.DefaultFilter(),
	})
}

func (h *Handler) Frequencies(c *gin.Context) {
	filter := filterFromQuery(c)
	result, err := h.svc.FrequencyTable(c.Request.Context(), filter)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) SubsetStats(c *gin.Context) {
	filter := filterFromQuery(c)
	stats, err := h.svc.SubsetStats(c.Request.Context(), filter)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) CohortFlow(c *gin.Context) {
	filter := filterFromQuery(c)
	flow, err := h.svc.CohortFlow(c.Request.Context(), filter)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"flow": flow})
}

// AnalysisRequest is the POST /analysis body. Omitted option fields fall
// back to the configured defaults.
type AnalysisRequest struct {
	Filter  cohort.Filter            `json:"filter"`
	Options domstats.AnalysisOptions `json:"options"`
}

func (h *Handler) RunAnalysis(c *gin.Context) {
	req, ok := h.bindAnalysisRequest(c)
	if !ok {
		return
	}
	result, err := h.svc.RunAnalysis(c.Request.Context(), req.Filter, req.Options)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) ReportHTML(c *gin.Context) {
	in, ok := h.buildReportInput(c)
	if !ok {
		return
	}
	page, err := report.HTML(*in)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="analysis_report.html"`)
	c.Data(http.StatusOK, "text/html; charset=utf-8", page)
}

func (h *Handler) ReportExcel(c *gin.Context) {
	in, ok := h.buildReportInput(c)
	if !ok {
		return
	}
	workbook, err := report.Excel(*in)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="analysis_report.xlsx"`)
	c.Data(http.StatusOK,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", workbook)
}

func (h *Handler) bindAnalysisRequest(c *gin.Context) (*AnalysisRequest, bool) {
	var req AnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return nil, false
	}
	if req.Filter == (cohort.Filter{}) {
		req.Filter = cohort.DefaultFilter()
	}
	return &req, true
}

// buildReportInput runs the analysis and gathers the supporting tables
// the report needs.
func (h *Handler) buildReportInput(c *gin.Context) (*report.Input, bool) {
	req, ok := h.bindAnalysisRequest(c)
	if !ok {
		return nil, false
	}
	ctx := c.Request.Context()

	result, err := h.svc.RunAnalysis(ctx, req.Filter, req.Options)
	if err != nil {
		h.renderError(c, err)
		return nil, false
	}
	stats, err := h.svc.SubsetStats(ctx, req.Filter)
	if err != nil {
		h.renderError(c, err)
		return nil, false
	}
	flow, err := h.svc.CohortFlow(ctx, req.Filter)
	if err != nil {
		h.renderError(c, err)
		return nil, false
	}
	freqs, err := h.svc.FrequencyTable(ctx, req.Filter)
	if err != nil {
		h.renderError(c, err)
		return nil, false
	}

	return &report.Input{
		Filter:      req.Filter,
		Counts:      stats.Counts,
		Run:         result.Run,
		Flow:        flow,
		Frequencies: freqs.Rows,
	}, true
}

// filterFromQuery reads the cohort filter from query parameters, falling
// back to the trial's primary cohort when none are given.
func filterFromQuery(c *gin.Context) cohort.Filter {
	filter := cohort.DefaultFilter()
	if v, ok := c.GetQuery("condition"); ok {
		filter.Condition = v
	}
	if v, ok := c.GetQuery("treatment"); ok {
		filter.Treatment = v
	}
	if v, ok := c.GetQuery("sample_type"); ok {
		filter.SampleType = v
	}
	if v, ok := c.GetQuery("time"); ok {
		filter.Time = cohort.TimeFilter(v)
	}
	return filter
}

// renderError maps application error codes to HTTP statuses.
func (h *Handler) renderError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	status := http.StatusInternalServerError
	if errors.As(err, &appErr) {
		switch appErr.Code {
		case apperrors.CodeNotFound:
			status = http.StatusNotFound
		case apperrors.CodeInvalidInput, apperrors.CodeConfigInvalid:
			status = http.StatusBadRequest
		case apperrors.CodeMissingData, apperrors.CodeInsufficientData, apperrors.CodeUndefinedResult:
			status = http.StatusUnprocessableEntity
		}
	}
	if status == http.StatusInternalServerError {
		h.log.Error("api request failed: %v", err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
