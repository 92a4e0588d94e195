package handlers

import "net/http"

// Routes registers every HTTP route on mux
func Routes(mux *http.ServeMux, m *Middleware, db Pinger, users *UserHandler, lessons *LessonHandler) {
	mux.HandleFunc("GET /healthz", Health(db, m.logger))

	// Profile and statistics
	mux.HandleFunc("GET /api/user/profile", m.RequireAuth(users.GetProfile))
	mux.HandleFunc("PUT /api/user/profile", m.RequireAuth(m.RateLimit(users.UpdateProfile)))
	mux.HandleFunc("POST /api/user/track-time", m.RequireAuth(m.RateLimit(users.TrackTime)))
	mux.HandleFunc("GET /api/user/stats", m.RequireAuth(users.GetStats))

	// Lessons
	mux.HandleFunc("GET /api/lessons", m.RequireAuth(lessons.ListLessons))
	mux.HandleFunc("POST /api/lessons/{lessonId}/sessions", m.RequireAuth(m.RateLimit(lessons.StartSession)))
	mux.HandleFunc("GET /api/sessions/{sessionId}", m.RequireAuth(lessons.GetSession))
	mux.HandleFunc("POST /api/sessions/{sessionId}/answer", m.RequireAuth(m.RateLimit(lessons.SubmitAnswer)))
	mux.HandleFunc("POST /api/sessions/{sessionId}/advance", m.RequireAuth(m.RateLimit(lessons.Advance)))
	mux.HandleFunc("POST /api/sessions/{sessionId}/abort", m.RequireAuth(m.RateLimit(lessons.Abort)))
}
