package reps

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseRepCode(t *testing.T) {
	tests := []struct {
		name string
		code string
		want RepCode
	}{
		{"primary with assistant", "KLH/SC", RepCode{PrimaryRep: "KLH", AssistantRep: "SC"}},
		{"primary only", "KLH", RepCode{PrimaryRep: "KLH"}},
		{"whitespace trimmed", " KLH / SC ", RepCode{PrimaryRep: "KLH", AssistantRep: "SC"}},
		{"only first slash splits", "A/B/C", RepCode{PrimaryRep: "A", AssistantRep: "B/C"}},
		{"unknown tokens pass through", "Somebody/Else", RepCode{PrimaryRep: "Somebody", AssistantRep: "Else"}},
		{"empty", "", RepCode{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseRepCode(tt.code)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRepCodeHasAssistant(t *testing.T) {
	assert.True(t, ParseRepCode("KLH/SC").HasAssistant())
	assert.False(t, ParseRepCode("KLH").HasAssistant())
	assert.False(t, ParseRepCode("KLH/").HasAssistant())
}
