package promohandlers

import "net/http"

// Handlers defines the promo HTTP handlers.
type Handlers interface {
	HandleEligibility(w http.ResponseWriter, r *http.Request)
	HandleShown(w http.ResponseWriter, r *http.Request)
}
