package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type CoverageStatus string

const (
	CoverageFull      CoverageStatus = "PAID"
	CoveragePartial   CoverageStatus = "PARTIAL"
	CoverageUncovered CoverageStatus = "UNPAID"
)

type StatementRow struct {
	Month      Month
	Due        decimal.Decimal
	Applied    decimal.Decimal
	Percentage int
	Status     CoverageStatus
}

// MemberOverview is one member with the totals of its allocation.
type MemberOverview struct {
	Member               Member
	TotalPaid            decimal.Decimal
	RemainingBalance     decimal.Decimal
	CompletionPercentage int
	NextUnpaidMonth      *Month
}

type MemberStatement struct {
	Overview    MemberOverview
	Rows        []StatementRow
	Payments    []Payment
	Currency    string
	GeneratedAt time.Time
}

type PaymentReceipt struct {
	Member           Member
	Payments         []Payment
	MonthLabels      []string
	Amount           decimal.Decimal
	Date             time.Time
	RemainingBalance decimal.Decimal
	Currency         string
}

type DashboardSummary struct {
	Members              int
	FullyPaidMembers     int
	TotalExpected        decimal.Decimal
	TotalCollected       decimal.Decimal
	TotalOutstanding     decimal.Decimal
	CompletionPercentage int
}

type MonthlyCollection struct {
	Month    Month
	Expected decimal.Decimal
	Received decimal.Decimal
	Payments int
}

type MembersWorkbook struct {
	Members     []MemberOverview
	Summary     DashboardSummary
	Monthly     []MonthlyCollection
	Currency    string
	GeneratedAt time.Time
}
