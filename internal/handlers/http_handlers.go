package handlers

import (
	"encoding/csv"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"commentlottery/internal/bilibili"
	"commentlottery/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/google/logger"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// TenantHeader carries the session a request belongs to.
const TenantHeader = "X-Session-ID"

const tenantKey = "tenantID"

// HTTPHandler holds the dependencies for the HTTP handlers, like the lottery service.
type HTTPHandler struct {
	service        *services.LotteryService
	defaultWinners int
}

// NewHTTPHandler creates a new HTTPHandler.
func NewHTTPHandler(service *services.LotteryService, defaultWinners int) *HTTPHandler {
	return &HTTPHandler{
		service:        service,
		defaultWinners: defaultWinners,
	}
}

// NewRouter builds the gin engine with every route registered.
func NewRouter(h *HTTPHandler) *gin.Engine {
	r := gin.Default()
	r.Use(PrometheusMiddleware())

	h.RegisterPublicRoutes(r)

	tenantRoutes := r.Group("/")
	tenantRoutes.Use(h.TenantMiddleware())
	h.RegisterTenantRoutes(tenantRoutes)
	return r
}

// RegisterPublicRoutes registers routes that need no session.
func (h *HTTPHandler) RegisterPublicRoutes(router *gin.Engine) {
	router.GET("/healthz", h.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// RegisterTenantRoutes registers the session scoped routes.
func (h *HTTPHandler) RegisterTenantRoutes(router *gin.RouterGroup) {
	router.POST("/draw", h.PerformDraw)
	router.GET("/results", h.ListResults)
	router.DELETE("/results", h.ClearResults)
	router.GET("/export-results-csv", h.ExportResultsCSV)
}

// TenantMiddleware reads the session id from the request, generating one
// when it is missing, and echoes it back on the response.
func (h *HTTPHandler) TenantMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenantID := c.GetHeader(TenantHeader)
		if tenantID == "" {
			tenantID = uuid.NewString()
		}
		c.Set(tenantKey, tenantID)
		c.Header(TenantHeader, tenantID)
		c.Next()
	}
}

func tenantID(c *gin.Context) string {
	return c.GetString(tenantKey)
}

// Health reports liveness.
func (h *HTTPHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

type drawRequest struct {
	Code    string `json:"code" binding:"required"`
	Winners *int   `json:"winners"`
}

// PerformDraw handles the request to run a lottery over a video's comments.
func (h *HTTPHandler) PerformDraw(c *gin.Context) {
	var req drawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "request body must carry a video code"})
		return
	}

	winners := h.defaultWinners
	if req.Winners != nil {
		winners = *req.Winners
	}

	result, err := h.service.Draw(c.Request.Context(), tenantID(c), req.Code, winners)
	if err != nil {
		logger.Infof("Draw for %s failed: %v", req.Code, err)
		status, body := errorResponse(err)
		c.JSON(status, body)
		return
	}
	c.JSON(http.StatusOK, result)
}

// errorResponse maps a lottery error onto an HTTP status and body.
func errorResponse(err error) (int, gin.H) {
	body := gin.H{"error": err.Error()}

	var resErr *bilibili.ResolutionError
	var aborted *services.AbortedFetchError
	var transport *services.TransportError
	var statusErr *bilibili.StatusError
	var netErr net.Error
	switch {
	case errors.Is(err, services.ErrInvalidWinnerCount):
		return http.StatusBadRequest, body
	case errors.As(err, &resErr):
		// Only a rejected code is the caller's fault; an unreachable or
		// failing upstream is not.
		if errors.As(err, &netErr) || errors.As(err, &statusErr) {
			return http.StatusBadGateway, body
		}
		return http.StatusBadRequest, body
	case errors.As(err, &aborted):
		body["status"] = aborted.Status.Code
		if aborted.IsRateLimited() {
			return http.StatusTooManyRequests, body
		}
		return http.StatusBadGateway, body
	case errors.As(err, &transport):
		return http.StatusBadGateway, body
	}
	return http.StatusInternalServerError, body
}

// ListResults returns the draw results of the session.
func (h *HTTPHandler) ListResults(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"results": h.service.GetLotteryResults(tenantID(c))})
}

// ClearResults drops the session and its results.
func (h *HTTPHandler) ClearResults(c *gin.Context) {
	h.service.ClearSession(tenantID(c))
	c.Status(http.StatusNoContent)
}

// ExportResultsCSV handles the request to download the lottery results as a CSV file.
func (h *HTTPHandler) ExportResultsCSV(c *gin.Context) {
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment;filename=lottery_results.csv")

	// Add BOM to ensure UTF-8 compatibility in Excel
	c.Writer.Write([]byte("\xef\xbb\xbf"))

	w := csv.NewWriter(c.Writer)

	// Write header
	if err := w.Write([]string{"影片代碼", "影片編號", "抽獎時間", "名次", "中獎用戶"}); err != nil {
		logger.Infof("Error writing CSV header: %v", err)
		c.String(http.StatusInternalServerError, "Error writing CSV")
		return
	}

	// Write data
	for _, result := range h.service.GetLotteryResults(tenantID(c)) {
		for i, winner := range result.Winners {
			row := []string{
				result.Code,
				strconv.FormatInt(int64(result.ResourceID), 10),
				result.DrawnAt.Format(time.RFC3339),
				strconv.Itoa(i + 1),
				winner,
			}
			if err := w.Write(row); err != nil {
				logger.Infof("Error writing CSV row: %v", err)
				c.String(http.StatusInternalServerError, "Error writing CSV")
				return
			}
		}
	}

	w.Flush()

	if err := w.Error(); err != nil {
		logger.Infof("Error flushing CSV writer: %v", err)
		c.String(http.StatusInternalServerError, "Error writing CSV")
	}
}
