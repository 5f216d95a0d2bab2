package gamehandlers

import "net/http"

// Handlers defines the quiz HTTP handlers.
type Handlers interface {
	HandleStartGame(w http.ResponseWriter, r *http.Request)
	HandleGetGame(w http.ResponseWriter, r *http.Request)
	HandleAnswer(w http.ResponseWriter, r *http.Request)
	HandleAbandon(w http.ResponseWriter, r *http.Request)
	HandleListCategories(w http.ResponseWriter, r *http.Request)
}
