package qbo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvoiceRepCodeFromCustomField(t *testing.T) {
	inv := Invoice{CustomFields: []CustomField{
		{Name: "Crew", Value: "7"},
		{Name: "Sales Rep", Value: " KLH/SC "},
	}}

	code, ok := inv.RepCode()
	require.True(t, ok)
	assert.Equal(t, "KLH/SC", code)
}

func TestInvoiceRepCodeFieldNamePriority(t *testing.T) {
	inv := Invoice{CustomFields: []CustomField{
		{Name: "Rep", Value: "DM"},
		{Name: "SalesRep", Value: "KLH"},
	}}

	// "SalesRep" outranks "Rep" regardless of field order.
	code, ok := inv.RepCode()
	require.True(t, ok)
	assert.Equal(t, "KLH", code)
}

func TestInvoiceRepCodeFromMemo(t *testing.T) {
	inv := Invoice{Memo: "Delivered 3/4. Rep: KLH/SC"}

	code, ok := inv.RepCode()
	require.True(t, ok)
	assert.Equal(t, "KLH/SC", code)
}

func TestInvoiceRepCodeBlankFieldFallsThrough(t *testing.T) {
	inv := Invoice{
		CustomFields: []CustomField{{Name: "Sales Rep", Value: "   "}},
		Memo:         "Rep: DM",
	}

	code, ok := inv.RepCode()
	require.True(t, ok)
	assert.Equal(t, "DM", code)
}

func TestInvoiceRepCodeMissing(t *testing.T) {
	inv := Invoice{Memo: "ship week of the 12th"}

	_, ok := inv.RepCode()
	assert.False(t, ok)
}

func TestInvoicePaid(t *testing.T) {
	assert.True(t, Invoice{Balance: 0}.Paid())
	assert.False(t, Invoice{Balance: 0.01}.Paid())
}
