package http

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nurpe/tontine/internal/http/middleware"
	"github.com/nurpe/tontine/internal/installment"
	"github.com/nurpe/tontine/internal/service"
)

type Services struct {
	Members  *service.MemberService
	Payments *service.PaymentService
	Lots     *service.LotService
	Settings *service.SettingsService
	Reports  *service.ReportService
	Imports  *service.ImportService
}

type Handler struct {
	svc           Services
	maxUploadSize int64
	log           zerolog.Logger
}

func NewHandler(svc Services, maxUploadSize int64, log zerolog.Logger) *Handler {
	return &Handler{svc: svc, maxUploadSize: maxUploadSize, log: log}
}

func (h *Handler) Register(router *gin.Engine, authMiddleware gin.HandlerFunc) {
	api := router.Group("/api/v1")
	api.Use(authMiddleware)
	admin := api.Group("/")
	admin.Use(middleware.RequireAdmin())

	api.GET("/dashboard", h.dashboard)

	api.GET("/members", h.listMembers)
	api.GET("/members/:id", h.getMember)
	admin.POST("/members", h.createMember)
	admin.PATCH("/members/:id", h.updateMember)
	admin.DELETE("/members/:id", h.deleteMember)

	api.GET("/members/:id/payments", h.listPayments)
	admin.POST("/members/:id/payments", h.recordPayment)
	admin.POST("/payments/bulk", h.bulkPayments)
	api.GET("/payments/monthly", h.monthlyCollections)

	api.GET("/members/:id/statement", h.memberStatement)
	api.GET("/members/:id/receipt", h.paymentReceipt)
	api.GET("/export/members", h.exportMembers)
	admin.POST("/import/members", h.importMembers)

	api.GET("/lots", h.listLots)
	api.GET("/lots/:id", h.getLot)
	admin.POST("/lots", h.createLot)
	admin.PUT("/lots/:id", h.updateLot)
	admin.DELETE("/lots/:id", h.deleteLot)
	admin.POST("/lots/:id/photos", h.uploadLotPhoto)

	api.GET("/settings", h.getSettings)
	admin.PUT("/settings/unit-price", h.setUnitPrice)
}

func (h *Handler) handleError(c *gin.Context, err error) {
	var balanceErr *installment.BalanceError
	switch {
	case errors.As(err, &balanceErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":       err.Error(),
			"max_allowed": balanceErr.MaxAllowed,
		})
	case errors.Is(err, installment.ErrIllFormedContract),
		errors.Is(err, installment.ErrAllocationResidual):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, installment.ErrContractAlreadyComplete):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, installment.ErrInvalidAmount),
		errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrStorageDisabled):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": message})
}

func parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		badRequest(c, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, service.ErrInvalidInput
	}
	layouts := []string{
		time.RFC3339,
		"2006-01-02",
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed, nil
		}
	}
	return time.Time{}, service.ErrInvalidInput
}

// optionalDate parses raw when present; the zero time means "not given".
func optionalDate(raw string) (time.Time, error) {
	if strings.TrimSpace(raw) == "" {
		return time.Time{}, nil
	}
	return parseDate(raw)
}

func sendFile(c *gin.Context, file *service.ReportFile) {
	c.Header("Content-Disposition", "attachment; filename=\""+file.FileName+"\"")
	c.Data(http.StatusOK, file.ContentType, file.Content)
}
