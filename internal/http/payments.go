package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nurpe/tontine/internal/installment"
	"github.com/nurpe/tontine/internal/model"
	"github.com/nurpe/tontine/internal/service"
)

type recordPaymentRequest struct {
	Amount decimal.Decimal `json:"amount"`
	Date   string          `json:"date"`
}

type recordPaymentResponse struct {
	Payments             []paymentResponse `json:"payments"`
	Months               []string          `json:"months"`
	TotalPaid            decimal.Decimal   `json:"total_paid"`
	RemainingBalance     decimal.Decimal   `json:"remaining_balance"`
	CompletionPercentage int               `json:"completion_percentage"`
	NextUnpaidMonth      *model.Month      `json:"next_unpaid_month"`
}

type bulkPaymentRequest struct {
	MemberIDs []uuid.UUID     `json:"member_ids" binding:"required"`
	Months    []model.Month   `json:"months" binding:"required"`
	Amount    decimal.Decimal `json:"amount"`
	Date      string          `json:"date"`
	Policy    string          `json:"conflict_policy"`
}

type bulkSkipResponse struct {
	MemberID uuid.UUID   `json:"member_id"`
	Month    model.Month `json:"month"`
	Reason   string      `json:"reason"`
}

func (h *Handler) listPayments(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	payments, err := h.svc.Payments.ListByMember(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": toPaymentResponses(payments)})
}

func (h *Handler) recordPayment(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req recordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	date, err := optionalDate(req.Date)
	if err != nil {
		badRequest(c, "invalid date")
		return
	}

	result, err := h.svc.Payments.Record(c.Request.Context(), service.RecordPaymentInput{
		MemberID: id,
		Amount:   req.Amount,
		Date:     date,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, recordPaymentResponse{
		Payments:             toPaymentResponses(result.Payments),
		Months:               result.MonthLabels,
		TotalPaid:            result.Overview.TotalPaid,
		RemainingBalance:     result.Overview.RemainingBalance,
		CompletionPercentage: result.Overview.CompletionPercentage,
		NextUnpaidMonth:      result.Overview.NextUnpaidMonth,
	})
}

func (h *Handler) bulkPayments(c *gin.Context) {
	var req bulkPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	policy, err := installment.ParseConflictPolicy(req.Policy)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	date, err := optionalDate(req.Date)
	if err != nil {
		badRequest(c, "invalid date")
		return
	}

	result, err := h.svc.Payments.Bulk(c.Request.Context(), service.BulkPaymentInput{
		MemberIDs: req.MemberIDs,
		Months:    req.Months,
		Amount:    req.Amount,
		Date:      date,
		Policy:    policy,
	})
	if err != nil {
		h.handleError(c, err)
		return
	}

	skipped := make([]bulkSkipResponse, 0, len(result.Skipped))
	for _, s := range result.Skipped {
		skipped = append(skipped, bulkSkipResponse{MemberID: s.MemberID, Month: s.Month, Reason: s.Reason})
	}
	c.JSON(http.StatusOK, gin.H{
		"created": toPaymentResponses(result.Created),
		"updated": result.Updated,
		"deleted": result.Deleted,
		"skipped": skipped,
	})
}

func (h *Handler) monthlyCollections(c *gin.Context) {
	collections, err := h.svc.Payments.MonthlyCollections(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	result := make([]monthlyResponse, 0, len(collections))
	for _, m := range collections {
		result = append(result, monthlyResponse{
			Month:    m.Month,
			Expected: m.Expected,
			Received: m.Received,
			Payments: m.Payments,
		})
	}
	c.JSON(http.StatusOK, gin.H{"months": result})
}
