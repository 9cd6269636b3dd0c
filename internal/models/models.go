// Package models defines the GORM entities persisted by Budgeteer.
package models

// All returns every model in dependency order, for auto-migration.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Income{},
		&Expense{},
		&RecurringTransaction{},
		&Group{},
		&GroupMember{},
		&SharedExpense{},
		&ExpenseShare{},
		&Settlement{},
		&AuditLog{},
	}
}
