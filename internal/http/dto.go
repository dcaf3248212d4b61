package http

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nurpe/tontine/internal/excel"
	"github.com/nurpe/tontine/internal/installment"
	"github.com/nurpe/tontine/internal/model"
	"github.com/nurpe/tontine/internal/service"
)

const dateLayout = "2006-01-02"

type memberResponse struct {
	ID              uuid.UUID       `json:"id"`
	Name            string          `json:"name"`
	Email           string          `json:"email"`
	Phone           string          `json:"phone"`
	NumberOfLots    int             `json:"number_of_lots"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	TotalLotAmount  decimal.Decimal `json:"total_lot_amount"`
	PaymentDuration int             `json:"payment_duration"`
	MonthlyQuota    decimal.Decimal `json:"monthly_quota"`
	StartDate       string          `json:"start_date"`
	EndDate         string          `json:"end_date"`
	Version         int64           `json:"version"`
	CreatedAt       time.Time       `json:"created_at"`
}

func toMemberResponse(m model.Member) memberResponse {
	return memberResponse{
		ID:              m.ID,
		Name:            m.Name,
		Email:           m.Email,
		Phone:           m.Phone,
		NumberOfLots:    m.NumberOfLots,
		UnitPrice:       m.UnitPrice,
		TotalLotAmount:  m.TotalLotAmount,
		PaymentDuration: m.PaymentDuration,
		MonthlyQuota:    m.MonthlyQuota,
		StartDate:       m.StartDate.Format(dateLayout),
		EndDate:         m.EndDate.Format(dateLayout),
		Version:         m.Version,
		CreatedAt:       m.CreatedAt,
	}
}

type overviewResponse struct {
	memberResponse
	TotalPaid            decimal.Decimal `json:"total_paid"`
	RemainingBalance     decimal.Decimal `json:"remaining_balance"`
	CompletionPercentage int             `json:"completion_percentage"`
	NextUnpaidMonth      *model.Month    `json:"next_unpaid_month"`
}

func toOverviewResponse(o model.MemberOverview) overviewResponse {
	return overviewResponse{
		memberResponse:       toMemberResponse(o.Member),
		TotalPaid:            o.TotalPaid,
		RemainingBalance:     o.RemainingBalance,
		CompletionPercentage: o.CompletionPercentage,
		NextUnpaidMonth:      o.NextUnpaidMonth,
	}
}

type paymentResponse struct {
	ID        uuid.UUID       `json:"id"`
	MemberID  uuid.UUID       `json:"member_id"`
	Amount    decimal.Decimal `json:"amount"`
	Date      string          `json:"date"`
	MonthKey  model.Month     `json:"month_key"`
	CreatedAt time.Time       `json:"created_at"`
}

func toPaymentResponses(payments []model.Payment) []paymentResponse {
	result := make([]paymentResponse, 0, len(payments))
	for _, p := range payments {
		result = append(result, paymentResponse{
			ID:        p.ID,
			MemberID:  p.MemberID,
			Amount:    p.Amount,
			Date:      p.Date.Format(dateLayout),
			MonthKey:  p.MonthKey,
			CreatedAt: p.CreatedAt,
		})
	}
	return result
}

type coverageResponse struct {
	Month      model.Month          `json:"month"`
	Label      string               `json:"label"`
	Due        decimal.Decimal      `json:"due"`
	Applied    decimal.Decimal      `json:"applied"`
	Percentage int                  `json:"percentage"`
	Status     model.CoverageStatus `json:"status"`
}

type memberDetailResponse struct {
	overviewResponse
	Schedule []coverageResponse `json:"schedule"`
	Payments []paymentResponse  `json:"payments"`
}

func toMemberDetailResponse(d *service.MemberDetail) memberDetailResponse {
	schedule := make([]coverageResponse, 0, len(d.Allocation.Months))
	for _, c := range d.Allocation.Months {
		schedule = append(schedule, coverageResponse{
			Month:      c.Month,
			Label:      c.Month.Label(),
			Due:        c.Due,
			Applied:    c.Applied,
			Percentage: c.Percentage,
			Status:     c.Status,
		})
	}
	return memberDetailResponse{
		overviewResponse: toOverviewResponse(installment.Overview(d.Member, d.Payments)),
		Schedule:         schedule,
		Payments:         toPaymentResponses(d.Payments),
	}
}

type dashboardResponse struct {
	Members              int             `json:"members"`
	FullyPaidMembers     int             `json:"fully_paid_members"`
	TotalExpected        decimal.Decimal `json:"total_expected"`
	TotalCollected       decimal.Decimal `json:"total_collected"`
	TotalOutstanding     decimal.Decimal `json:"total_outstanding"`
	CompletionPercentage int             `json:"completion_percentage"`
}

type monthlyResponse struct {
	Month    model.Month     `json:"month"`
	Expected decimal.Decimal `json:"expected"`
	Received decimal.Decimal `json:"received"`
	Payments int             `json:"payments"`
}

type lotResponse struct {
	ID          uuid.UUID       `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Location    string          `json:"location"`
	Description string          `json:"description"`
	Photos      []string        `json:"photos"`
	CreatedAt   time.Time       `json:"created_at"`
}

func toLotResponse(l model.Lot) lotResponse {
	photos := l.Photos
	if photos == nil {
		photos = []string{}
	}
	return lotResponse{
		ID:          l.ID,
		Name:        l.Name,
		Price:       l.Price,
		Location:    l.Location,
		Description: l.Description,
		Photos:      photos,
		CreatedAt:   l.CreatedAt,
	}
}

type settingsResponse struct {
	UnitPrice          *decimal.Decimal `json:"unit_price"`
	EffectiveUnitPrice decimal.Decimal  `json:"effective_unit_price"`
	UpdatedAt          *time.Time       `json:"updated_at,omitempty"`
	Recomputed         *int             `json:"recomputed_members,omitempty"`
}

func toSettingsResponse(v service.SettingsView) settingsResponse {
	resp := settingsResponse{
		UnitPrice:          v.Settings.UnitPrice,
		EffectiveUnitPrice: v.EffectiveUnitPrice,
	}
	if !v.Settings.UpdatedAt.IsZero() {
		updated := v.Settings.UpdatedAt
		resp.UpdatedAt = &updated
	}
	return resp
}

type rowIssueResponse struct {
	Line   int    `json:"line"`
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

func toIssueResponses(issues []excel.RowIssue) []rowIssueResponse {
	result := make([]rowIssueResponse, 0, len(issues))
	for _, i := range issues {
		result = append(result, rowIssueResponse{Line: i.Line, Name: i.Name, Reason: i.Reason})
	}
	return result
}
