package web

import (
	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/voice-attendance/internal/web/handlers"
)

func (s *Server) setupRoutes() {
	studentsHandler := handlers.NewStudentsHandler(s.roster, s.matcher, s.embedder)
	attendanceHandler := handlers.NewAttendanceHandler(s.ledger, s.roster)
	recognizeHandler := handlers.NewRecognizeHandler(s.embedder, s.matcher, s.ledger, s.roster)

	// Health check
	s.router.Get("/api/v1/health", handlers.HealthCheck)

	// API routes
	s.router.Route("/api/v1", func(r chi.Router) {
		// Students
		r.Get("/students", studentsHandler.List)
		r.Post("/students", studentsHandler.Enroll)
		r.Get("/students/export", studentsHandler.Export)
		r.Get("/students/{id}", studentsHandler.Get)
		r.Delete("/students/{id}", studentsHandler.Remove)

		// Recognition
		r.Post("/recognize", recognizeHandler.Recognize)

		// Attendance
		r.Get("/attendance", attendanceHandler.Report)
		r.Get("/attendance/export", attendanceHandler.Export)
		r.Get("/attendance/{date}", attendanceHandler.ByDate)
	})
}
