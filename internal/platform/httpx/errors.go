// Package httpx provides HTTP response utilities.
package httpx

import "net/http"

// RespondError reports an unexpected failure as an RFC7807 internal error.
// Handlers map their own domain sentinels (not-found and the like) to
// specific statuses before falling back here; the detail is withheld so
// internals never leak to clients.
func RespondError(w http.ResponseWriter, _ error) {
	Problem(w, http.StatusInternalServerError, "Internal Error", "")
}
