package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nurpe/tontine/internal/installment"
	"github.com/nurpe/tontine/internal/model"
)

type DocumentRenderer interface {
	Statement(doc model.MemberStatement) ([]byte, error)
	Receipt(receipt model.PaymentReceipt) ([]byte, error)
}

type WorkbookRenderer interface {
	Members(wb model.MembersWorkbook) ([]byte, error)
}

type ReportFile struct {
	FileName    string
	ContentType string
	Content     []byte
}

const (
	contentTypePDF  = "application/pdf"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type ReportService struct {
	members   *MemberService
	payments  *PaymentService
	documents DocumentRenderer
	workbooks WorkbookRenderer
	currency  string
	now       func() time.Time
}

func NewReportService(
	members *MemberService,
	payments *PaymentService,
	documents DocumentRenderer,
	workbooks WorkbookRenderer,
	currency string,
) *ReportService {
	return &ReportService{
		members:   members,
		payments:  payments,
		documents: documents,
		workbooks: workbooks,
		currency:  currency,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *ReportService) Statement(ctx context.Context, memberID uuid.UUID) (*ReportFile, error) {
	detail, err := s.members.Get(ctx, memberID)
	if err != nil {
		return nil, err
	}

	content, err := s.documents.Statement(model.MemberStatement{
		Overview:    installment.Overview(detail.Member, detail.Payments),
		Rows:        installment.StatementRows(detail.Allocation),
		Payments:    detail.Payments,
		Currency:    s.currency,
		GeneratedAt: s.now(),
	})
	if err != nil {
		return nil, err
	}
	return &ReportFile{
		FileName:    fmt.Sprintf("statement_%s.pdf", fileSlug(detail.Member.Name)),
		ContentType: contentTypePDF,
		Content:     content,
	}, nil
}

// Receipt renders the payments recorded for the member on the given day.
// The remaining balance is the one right after those payments.
func (s *ReportService) Receipt(ctx context.Context, memberID uuid.UUID, date time.Time) (*ReportFile, error) {
	detail, err := s.members.Get(ctx, memberID)
	if err != nil {
		return nil, err
	}

	day := model.DateOnly(date)
	var selected []model.Payment
	var lastCreated time.Time
	for _, p := range detail.Payments {
		if model.DateOnly(p.Date).Equal(day) {
			selected = append(selected, p)
			if p.CreatedAt.After(lastCreated) {
				lastCreated = p.CreatedAt
			}
		}
	}
	if len(selected) == 0 {
		return nil, fmt.Errorf("%w: no payment on %s", ErrNotFound, day.Format("2006-01-02"))
	}

	var upToReceipt []model.Payment
	for _, p := range detail.Payments {
		if !p.CreatedAt.After(lastCreated) {
			upToReceipt = append(upToReceipt, p)
		}
	}

	labels := make([]string, 0, len(selected))
	seen := make(map[model.Month]bool)
	for _, p := range selected {
		if !seen[p.MonthKey] {
			seen[p.MonthKey] = true
			labels = append(labels, p.MonthKey.Label())
		}
	}

	content, err := s.documents.Receipt(model.PaymentReceipt{
		Member:           detail.Member,
		Payments:         selected,
		MonthLabels:      labels,
		Amount:           model.SumPayments(selected),
		Date:             day,
		RemainingBalance: installment.RemainingBalance(detail.Member, upToReceipt),
		Currency:         s.currency,
	})
	if err != nil {
		return nil, err
	}
	return &ReportFile{
		FileName:    fmt.Sprintf("receipt_%s_%s.pdf", fileSlug(detail.Member.Name), day.Format("20060102")),
		ContentType: contentTypePDF,
		Content:     content,
	}, nil
}

func (s *ReportService) MembersWorkbook(ctx context.Context) (*ReportFile, error) {
	overviews, err := s.members.List(ctx)
	if err != nil {
		return nil, err
	}
	monthly, err := s.payments.MonthlyCollections(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	content, err := s.workbooks.Members(model.MembersWorkbook{
		Members:     overviews,
		Summary:     summarize(overviews),
		Monthly:     monthly,
		Currency:    s.currency,
		GeneratedAt: now,
	})
	if err != nil {
		return nil, err
	}
	return &ReportFile{
		FileName:    fmt.Sprintf("members_%s.xlsx", now.Format("20060102")),
		ContentType: contentTypeXLSX,
		Content:     content,
	}, nil
}

func fileSlug(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_':
			b.WriteByte('_')
		}
	}
	if b.Len() == 0 {
		return "member"
	}
	return b.String()
}
