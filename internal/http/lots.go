package http

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/nurpe/tontine/internal/service"
)

type lotRequest struct {
	Name        string          `json:"name" binding:"required"`
	Price       decimal.Decimal `json:"price"`
	Location    string          `json:"location"`
	Description string          `json:"description"`
}

func (r lotRequest) input() service.LotInput {
	return service.LotInput{
		Name:        r.Name,
		Price:       r.Price,
		Location:    r.Location,
		Description: r.Description,
	}
}

func (h *Handler) listLots(c *gin.Context) {
	lots, err := h.svc.Lots.List(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	result := make([]lotResponse, 0, len(lots))
	for _, l := range lots {
		result = append(result, toLotResponse(l))
	}
	c.JSON(http.StatusOK, gin.H{"lots": result})
}

func (h *Handler) getLot(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	lot, err := h.svc.Lots.Get(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, toLotResponse(*lot))
}

func (h *Handler) createLot(c *gin.Context) {
	var req lotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	lot, err := h.svc.Lots.Create(c.Request.Context(), req.input())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toLotResponse(*lot))
}

func (h *Handler) updateLot(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req lotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	lot, err := h.svc.Lots.Update(c.Request.Context(), id, req.input())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, toLotResponse(*lot))
}

func (h *Handler) deleteLot(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.svc.Lots.Delete(c.Request.Context(), id); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) uploadLotPhoto(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	header, err := c.FormFile("photo")
	if err != nil {
		badRequest(c, "photo file is required")
		return
	}
	if h.maxUploadSize > 0 && header.Size > h.maxUploadSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "photo is too large"})
		return
	}
	file, err := header.Open()
	if err != nil {
		h.handleError(c, err)
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		h.handleError(c, err)
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}

	lot, err := h.svc.Lots.AddPhoto(c.Request.Context(), id, service.PhotoUpload{
		ContentType: contentType,
		Data:        data,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toLotResponse(*lot))
}
