package dto

import "freight-quote-service/internal/platform/budget"

type BudgetsResponse struct {
	Budgets         []budget.Usage   `json:"budgets"`
	Caches          map[string]int   `json:"caches"`
	CacheTTLSeconds map[string]int64 `json:"cacheTtlSeconds"`
}
