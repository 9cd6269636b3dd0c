// Package ledger holds the money and calendar arithmetic behind group
// expense splitting, balance aggregation and recurring schedules. It has no
// storage dependencies; services feed it rows and persist what it returns.
package ledger

import (
	"errors"

	"github.com/shopspring/decimal"
)

// CurrencyPlaces is the number of decimal places amounts are kept at.
const CurrencyPlaces = 2

var (
	// ErrNonPositiveAmount is returned for zero or negative amounts.
	ErrNonPositiveAmount = errors.New("amount must be greater than zero")
	// ErrTooPrecise is returned for amounts finer than one cent.
	ErrTooPrecise = errors.New("amount must have at most two decimal places")
	// ErrNoParticipants is returned when a split has nobody to split between.
	ErrNoParticipants = errors.New("at least one participant is required")
)

// Share is one participant's portion of a split amount.
type Share struct {
	UserID string
	Amount decimal.Decimal
}

// ValidateAmount checks that amount is a positive value in whole cents.
func ValidateAmount(amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return ErrNonPositiveAmount
	}
	if !amount.Equal(amount.Round(CurrencyPlaces)) {
		return ErrTooPrecise
	}
	return nil
}

// SplitEqually divides amount between participants, in the order given.
//
// Each share is amount/n rounded half away from zero to the cent. The
// difference between amount and the rounded total goes to the payer when the
// payer participates, otherwise to the first participant, so the shares
// always sum to amount exactly. If absorbing a negative remainder would push
// that share below zero, shares are truncated to the cent instead and the
// (then positive) remainder is absorbed the same way.
func SplitEqually(amount decimal.Decimal, participants []string, payerID string) ([]Share, error) {
	if err := ValidateAmount(amount); err != nil {
		return nil, err
	}
	if len(participants) == 0 {
		return nil, ErrNoParticipants
	}

	n := decimal.NewFromInt(int64(len(participants)))
	share := amount.DivRound(n, CurrencyPlaces)
	remainder := amount.Sub(share.Mul(n))

	target := 0
	for i, id := range participants {
		if id == payerID {
			target = i
			break
		}
	}

	if share.Add(remainder).IsNegative() {
		share = amount.Div(n).Truncate(CurrencyPlaces)
		remainder = amount.Sub(share.Mul(n))
	}

	shares := make([]Share, len(participants))
	for i, id := range participants {
		shares[i] = Share{UserID: id, Amount: share}
	}
	shares[target].Amount = share.Add(remainder)
	return shares, nil
}

// SumShares returns the total of all share amounts.
func SumShares(shares []Share) decimal.Decimal {
	total := decimal.Zero
	for _, s := range shares {
		total = total.Add(s.Amount)
	}
	return total
}
