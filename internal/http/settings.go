package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type unitPriceRequest struct {
	// UnitPrice null clears the global price.
	UnitPrice *decimal.Decimal `json:"unit_price"`
}

func (h *Handler) getSettings(c *gin.Context) {
	view, err := h.svc.Settings.Get(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSettingsResponse(*view))
}

func (h *Handler) setUnitPrice(c *gin.Context) {
	var req unitPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	change, err := h.svc.Settings.SetUnitPrice(c.Request.Context(), req.UnitPrice)
	if err != nil {
		h.handleError(c, err)
		return
	}
	resp := toSettingsResponse(change.SettingsView)
	resp.Recomputed = &change.Recomputed
	c.JSON(http.StatusOK, resp)
}
