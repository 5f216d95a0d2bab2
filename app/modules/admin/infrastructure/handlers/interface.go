package adminhandlers

import "net/http"

// Handlers defines the admin HTTP handlers.
type Handlers interface {
	HandleSummary(w http.ResponseWriter, r *http.Request)
	HandleGamesChart(w http.ResponseWriter, r *http.Request)
	HandleExport(w http.ResponseWriter, r *http.Request)
	HandleImportQuestions(w http.ResponseWriter, r *http.Request)
}
