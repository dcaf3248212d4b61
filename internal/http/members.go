package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/nurpe/tontine/internal/service"
)

type createMemberRequest struct {
	Name            string           `json:"name" binding:"required"`
	Email           string           `json:"email"`
	Phone           string           `json:"phone"`
	NumberOfLots    int              `json:"number_of_lots" binding:"required"`
	PaymentDuration int              `json:"payment_duration" binding:"required"`
	StartDate       string           `json:"start_date" binding:"required"`
	UnitPrice       *decimal.Decimal `json:"unit_price"`
}

type updateMemberRequest struct {
	Name            *string `json:"name"`
	Email           *string `json:"email"`
	Phone           *string `json:"phone"`
	NumberOfLots    *int    `json:"number_of_lots"`
	PaymentDuration *int    `json:"payment_duration"`
	StartDate       *string `json:"start_date"`
	Version         *int64  `json:"version" binding:"required"`
}

func (h *Handler) listMembers(c *gin.Context) {
	overviews, err := h.svc.Members.List(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	result := make([]overviewResponse, 0, len(overviews))
	for _, o := range overviews {
		result = append(result, toOverviewResponse(o))
	}
	c.JSON(http.StatusOK, gin.H{"members": result})
}

func (h *Handler) getMember(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	detail, err := h.svc.Members.Get(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, toMemberDetailResponse(detail))
}

func (h *Handler) createMember(c *gin.Context) {
	var req createMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	start, err := parseDate(req.StartDate)
	if err != nil {
		badRequest(c, "invalid start_date")
		return
	}

	member, err := h.svc.Members.Create(c.Request.Context(), service.CreateMemberInput{
		Name:            req.Name,
		Email:           req.Email,
		Phone:           req.Phone,
		NumberOfLots:    req.NumberOfLots,
		PaymentDuration: req.PaymentDuration,
		StartDate:       start,
		UnitPrice:       req.UnitPrice,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toMemberResponse(*member))
}

func (h *Handler) updateMember(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req updateMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	input := service.UpdateMemberInput{
		Name:            req.Name,
		Email:           req.Email,
		Phone:           req.Phone,
		NumberOfLots:    req.NumberOfLots,
		PaymentDuration: req.PaymentDuration,
		Version:         *req.Version,
	}
	if req.StartDate != nil {
		start, err := parseDate(*req.StartDate)
		if err != nil {
			badRequest(c, "invalid start_date")
			return
		}
		input.StartDate = &start
	}

	member, err := h.svc.Members.Update(c.Request.Context(), id, input)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, toMemberResponse(*member))
}

func (h *Handler) deleteMember(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.svc.Members.Delete(c.Request.Context(), id); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) dashboard(c *gin.Context) {
	summary, err := h.svc.Members.Dashboard(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, dashboardResponse{
		Members:              summary.Members,
		FullyPaidMembers:     summary.FullyPaidMembers,
		TotalExpected:        summary.TotalExpected,
		TotalCollected:       summary.TotalCollected,
		TotalOutstanding:     summary.TotalOutstanding,
		CompletionPercentage: summary.CompletionPercentage,
	})
}
