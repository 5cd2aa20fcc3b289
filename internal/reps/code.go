package reps

import "strings"

// ParseRepCode splits a raw sales-rep field on the first slash into a
// primary rep and an optional assistant rep. Both sides are trimmed; neither
// is validated against the registry, since canonicalization happens
// downstream per rep.
func ParseRepCode(code string) RepCode {
	primary, assistant, found := strings.Cut(code, "/")
	parsed := RepCode{PrimaryRep: strings.TrimSpace(primary)}
	if found {
		parsed.AssistantRep = strings.TrimSpace(assistant)
	}
	return parsed
}
