package userhandlers

import "net/http"

// Handlers serves the profile endpoints.
type Handlers interface {
	HandleGetMe(w http.ResponseWriter, r *http.Request)
	HandleUpdateMe(w http.ResponseWriter, r *http.Request)
}
