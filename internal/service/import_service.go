package service

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/nurpe/tontine/internal/excel"
	"github.com/nurpe/tontine/internal/installment"
	"github.com/nurpe/tontine/internal/model"
)

type ImportService struct {
	members *MemberService
	window  excel.MonthWindow
	log     zerolog.Logger
}

func NewImportService(members *MemberService, window excel.MonthWindow, log zerolog.Logger) *ImportService {
	return &ImportService{members: members, window: window, log: log}
}

type ImportResult struct {
	Created          []model.Member
	Issues           []excel.RowIssue
	Months           []model.Month
	IgnoredColumns   []string
	ImportedPayments int
	// Discarded is the imported amount dropped because it exceeded a
	// member's total lot amount.
	Discarded decimal.Decimal
}

// Import creates one member per valid spreadsheet row together with the
// historical payments found in its month columns. Historical payments are
// inserted as they are, capped at the member's total lot amount. Each row is
// saved in its own transaction; a row that fails to save is reported as an
// issue and the rest of the sheet is still imported.
func (s *ImportService) Import(ctx context.Context, filename string, r io.Reader) (*ImportResult, error) {
	sheet, err := excel.ParseMembers(filename, r, s.window)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidInput, err.Error())
	}

	result := &ImportResult{
		Issues:         sheet.Issues,
		Months:         sheet.Months,
		IgnoredColumns: sheet.IgnoredColumns,
		Discarded:      decimal.Zero,
	}

	for _, row := range sheet.Rows {
		member, err := s.members.buildMember(ctx, CreateMemberInput{
			Name:            row.Name,
			Email:           row.Email,
			Phone:           row.Phone,
			NumberOfLots:    row.NumberOfLots,
			PaymentDuration: row.PaymentDuration,
			StartDate:       row.StartDate,
		})
		if err != nil {
			result.Issues = append(result.Issues, excel.RowIssue{Line: row.Line, Name: row.Name, Reason: err.Error()})
			continue
		}

		imported := make([]model.Payment, 0, len(row.Payments))
		for _, p := range row.Payments {
			imported = append(imported, model.Payment{
				Amount:   p.Amount,
				Date:     p.Month.FirstDay(),
				MonthKey: p.Month,
			})
		}
		kept, dropped := installment.CapImported(member, nil, imported)

		created, err := s.members.members.Create(ctx, member, kept...)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.log.Error().Err(err).Int("line", row.Line).Msg("failed to import member row")
			result.Issues = append(result.Issues, excel.RowIssue{Line: row.Line, Name: row.Name, Reason: "could not be saved"})
			continue
		}
		if dropped.IsPositive() {
			s.log.Warn().
				Str("member_id", created.ID.String()).
				Str("dropped", dropped.String()).
				Msg("imported payments exceed total lot amount")
		}
		result.Created = append(result.Created, *created)
		result.ImportedPayments += len(kept)
		result.Discarded = result.Discarded.Add(dropped)
	}

	s.log.Info().
		Int("created", len(result.Created)).
		Int("issues", len(result.Issues)).
		Int("payments", result.ImportedPayments).
		Msg("member import finished")
	return result, nil
}
