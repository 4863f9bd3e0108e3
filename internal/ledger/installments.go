package ledger

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ashmitsharp/erp-api/internal/apperr"
)

// DefaultMaxInstallments is the installment cap used when none is configured.
const DefaultMaxInstallments = 24

// CardTerms are the billing days of a card.
type CardTerms struct {
	ClosingDay int
	DueDay     int
}

// Installment is one slice of a purchase, billed in Cycle.
type Installment struct {
	Index       int // 1-based
	Count       int
	Cycle       Cycle
	Amount      decimal.Decimal
	ClosingDate time.Time
	DueDate     time.Time
}

// SplitInstallments divides total into n amounts with two decimal places.
// All but the last are floor(total/n); the last absorbs the remainder, so the
// parts always sum to total exactly.
func SplitInstallments(total decimal.Decimal, n int) []decimal.Decimal {
	if n < 1 {
		return nil
	}

	share := total.Div(decimal.NewFromInt(int64(n))).RoundFloor(2)
	parts := make([]decimal.Decimal, n)
	allocated := decimal.Zero
	for i := 0; i < n-1; i++ {
		parts[i] = share
		allocated = allocated.Add(share)
	}
	parts[n-1] = total.Sub(allocated)

	return parts
}

// PlanPurchase validates a purchase and lays its installments out over n
// consecutive cycles starting at the purchase's natural cycle.
func PlanPurchase(terms CardTerms, purchaseDate time.Time, total decimal.Decimal, n, maxInstallments int) ([]Installment, error) {
	const op = "PlanPurchase"

	if maxInstallments < 1 {
		maxInstallments = DefaultMaxInstallments
	}
	if n < 1 || n > maxInstallments {
		return nil, apperr.Validation(op, "installments must be between 1 and %d", maxInstallments)
	}
	if !total.IsPositive() {
		return nil, apperr.Validation(op, "purchase amount must be greater than zero")
	}
	if !total.Equal(total.Round(2)) {
		return nil, apperr.Validation(op, "purchase amount must have at most two decimal places")
	}
	if err := ValidateCardDays(terms.ClosingDay, terms.DueDay); err != nil {
		return nil, err
	}

	start := NaturalCycle(purchaseDate, terms.ClosingDay)
	amounts := SplitInstallments(total, n)

	plan := make([]Installment, n)
	for i := range plan {
		cycle := start.AddMonths(i)
		closing, due := InvoiceDates(cycle, terms.ClosingDay, terms.DueDay)
		plan[i] = Installment{
			Index:       i + 1,
			Count:       n,
			Cycle:       cycle,
			Amount:      amounts[i],
			ClosingDate: closing,
			DueDate:     due,
		}
	}

	return plan, nil
}

// ValidateCardDays checks closing and due days are valid days of month.
// Whether due must come after closing is a card-creation rule, not a billing
// one: existing cards with due <= closing still bill, rolling the due date.
func ValidateCardDays(closingDay, dueDay int) error {
	if closingDay < 1 || closingDay > 31 {
		return apperr.Validation("ValidateCardDays", "closing day must be between 1 and 31")
	}
	if dueDay < 1 || dueDay > 31 {
		return apperr.Validation("ValidateCardDays", "due day must be between 1 and 31")
	}
	return nil
}
