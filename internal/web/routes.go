package web

import (
	"github.com/go-chi/chi/v5"

	"github.com/kozaktomas/face-registry/internal/web/handlers"
)

func (s *Server) setupRoutes() {
	tenantsHandler := handlers.NewTenantsHandler(s.manager)
	personsHandler := handlers.NewPersonsHandler(s.manager)
	recognizeHandler := handlers.NewRecognizeHandler(s.manager, s.engine)

	s.router.Get("/api/v1/health", handlers.HealthCheck)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/tenants", tenantsHandler.List)

		r.Route("/{tenant}", func(r chi.Router) {
			r.Get("/persons", personsHandler.List)
			r.Post("/persons", personsHandler.Create)
			r.Get("/persons/{id}", personsHandler.Get)
			r.Put("/persons/{id}", personsHandler.Update)
			r.Delete("/persons/{id}", personsHandler.Delete)

			r.Post("/recognize", recognizeHandler.Recognize)

			r.Get("/faces/{filename}", personsHandler.Face)
		})
	})
}
