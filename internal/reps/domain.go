package reps

import "time"

// Classification buckets a sales rep identity by payout rule.
type Classification string

const (
	// ClassCommissioned reps earn commission on every sale.
	ClassCommissioned Classification = "COMMISSIONED"
	// ClassSalaryBonus reps are salaried and earn commission only above a
	// monthly sales threshold.
	ClassSalaryBonus Classification = "SALARY_BONUS"
	// ClassWholesaler identities are trade accounts, not payable reps.
	ClassWholesaler Classification = "WHOLESALER"
	// ClassUnknown marks names absent from the registry.
	ClassUnknown Classification = "UNKNOWN"
)

// Identity is one canonical rep or wholesaler with its registered aliases.
// Aliases are matched case/whitespace/punctuation-insensitively; spaceless
// variants must be registered explicitly, never inferred.
type Identity struct {
	Name    string         `json:"name"`
	Class   Classification `json:"class"`
	Aliases []string       `json:"aliases,omitempty"`
}

// RepCode is the parsed form of the raw QBO "Sales Rep" field. A slash
// separates the commission-earning primary from an optional bonus-eligible
// assistant.
type RepCode struct {
	PrimaryRep   string `json:"primary_rep"`
	AssistantRep string `json:"assistant_rep,omitempty"`
}

// HasAssistant reports whether the code carried an assistant token.
func (c RepCode) HasAssistant() bool {
	return c.AssistantRep != ""
}

// RepRate is a stored commission rate for a canonical rep name.
type RepRate struct {
	RepName   string    `json:"rep_name" db:"rep_name"`
	Rate      float64   `json:"rate" db:"rate"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// UpsertRateRequest sets a rep's commission rate.
type UpsertRateRequest struct {
	Rate float64 `json:"rate" validate:"gte=0,lte=1"`
}
