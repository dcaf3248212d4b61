package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *Handler) memberStatement(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	file, err := h.svc.Reports.Statement(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	sendFile(c, file)
}

func (h *Handler) paymentReceipt(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	date, err := parseDate(c.Query("date"))
	if err != nil {
		badRequest(c, "invalid date")
		return
	}
	file, err := h.svc.Reports.Receipt(c.Request.Context(), id, date)
	if err != nil {
		h.handleError(c, err)
		return
	}
	sendFile(c, file)
}

func (h *Handler) exportMembers(c *gin.Context) {
	file, err := h.svc.Reports.MembersWorkbook(c.Request.Context())
	if err != nil {
		h.handleError(c, err)
		return
	}
	sendFile(c, file)
}

func (h *Handler) importMembers(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "file is required")
		return
	}
	if h.maxUploadSize > 0 && header.Size > h.maxUploadSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file is too large"})
		return
	}
	file, err := header.Open()
	if err != nil {
		h.handleError(c, err)
		return
	}
	defer file.Close()

	result, err := h.svc.Imports.Import(c.Request.Context(), header.Filename, file)
	if err != nil {
		h.handleError(c, err)
		return
	}

	created := make([]memberResponse, 0, len(result.Created))
	for _, m := range result.Created {
		created = append(created, toMemberResponse(m))
	}
	c.JSON(http.StatusOK, gin.H{
		"created":           created,
		"issues":            toIssueResponses(result.Issues),
		"months":            result.Months,
		"ignored_columns":   result.IgnoredColumns,
		"imported_payments": result.ImportedPayments,
		"discarded_amount":  result.Discarded,
	})
}
