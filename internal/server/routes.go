package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

func (s Server) RegisterRoutes(r chi.Router) { //nolint:funlen
	r.Route("/", func(r chi.Router) {
		r.Route("/v1", func(r chi.Router) {
			r.Route("/deals/{counterpartyId}", func(r chi.Router) {
				r.Post("/", handler(s.postV1Deal))
				r.Get("/", handler(s.getV1Deal))
				r.Delete("/", handler(s.deleteV1Deal))
				r.Post("/lines", handler(s.postV1DealLine))
				r.Post("/confirm", handler(s.postV1DealConfirm))
			})

			r.Route("/counterparties/{counterpartyId}", func(r chi.Router) {
				r.Get("/trades", handler(s.getV1Trades))
				r.Get("/standings", handler(s.getV1Standings))
			})
		})
	})
}

func handler(f func(http.ResponseWriter, *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := f(w, r); err != nil {
			replyError(r.Context(), w, err)
		}
	}
}
