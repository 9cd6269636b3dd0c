package ledger

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Payment credits a user with money they put into the group.
type Payment struct {
	UserID string
	Amount decimal.Decimal
}

// Obligation debits a user with money they owe the group.
type Obligation struct {
	UserID string
	Amount decimal.Decimal
}

// Balance is a user's position in a group. A positive Net means the group
// owes the user; negative means the user owes the group.
type Balance struct {
	UserID string
	Paid   decimal.Decimal
	Owed   decimal.Decimal
	Net    decimal.Decimal
}

// Balances aggregates payments and obligations per user.
//
// Every id in members gets an entry even with no activity. Users that only
// appear in payments or obligations are included too, so history stays
// balanced after someone leaves the group. The result is ordered by user id.
func Balances(members []string, payments []Payment, obligations []Obligation) []Balance {
	byUser := make(map[string]*Balance, len(members))
	get := func(id string) *Balance {
		b, ok := byUser[id]
		if !ok {
			b = &Balance{UserID: id, Paid: decimal.Zero, Owed: decimal.Zero}
			byUser[id] = b
		}
		return b
	}

	for _, id := range members {
		get(id)
	}
	for _, p := range payments {
		b := get(p.UserID)
		b.Paid = b.Paid.Add(p.Amount)
	}
	for _, o := range obligations {
		b := get(o.UserID)
		b.Owed = b.Owed.Add(o.Amount)
	}

	out := make([]Balance, 0, len(byUser))
	for _, b := range byUser {
		b.Net = b.Paid.Sub(b.Owed)
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UserID < out[j].UserID })
	return out
}

// NetTotal sums Net over all balances. For a consistent ledger it is zero.
func NetTotal(balances []Balance) decimal.Decimal {
	total := decimal.Zero
	for _, b := range balances {
		total = total.Add(b.Net)
	}
	return total
}
