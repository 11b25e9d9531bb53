package handlers

import (
	"bytes"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/voice-attendance/internal/attendance"
	"github.com/kozaktomas/voice-attendance/internal/database"
	"github.com/kozaktomas/voice-attendance/internal/roster"
)

// AttendanceHandler serves the attendance ledger endpoints.
type AttendanceHandler struct {
	ledger *attendance.Ledger
	roster *roster.Roster
}

// NewAttendanceHandler creates a new attendance handler.
func NewAttendanceHandler(l *attendance.Ledger, r *roster.Roster) *AttendanceHandler {
	return &AttendanceHandler{ledger: l, roster: r}
}

// ByDate handles GET /attendance/{date} and returns the IDs of students
// marked present on that day. Unknown dates return an empty list.
func (h *AttendanceHandler) ByDate(w http.ResponseWriter, r *http.Request) {
	date := chi.URLParam(r, "date")
	if !database.ValidDay(date) {
		respondError(w, http.StatusBadRequest, "invalid date, expected YYYY-MM-DD")
		return
	}

	ids, err := h.ledger.PresentOn(r.Context(), date)
	if err != nil {
		respondStorageError(w, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"date":    date,
		"present": ids,
		"count":   len(ids),
	})
}

// Report handles GET /attendance and returns attendance joined with student
// metadata, grouped by class and date.
func (h *AttendanceHandler) Report(w http.ResponseWriter, r *http.Request) {
	groups, err := attendance.GroupedReport(r.Context(), h.ledger, h.roster)
	if err != nil {
		respondStorageError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"report": groups})
}

// Export handles GET /attendance/export and streams the full ledger as CSV.
func (h *AttendanceHandler) Export(w http.ResponseWriter, r *http.Request) {
	groups, err := attendance.GroupedReport(r.Context(), h.ledger, h.roster)
	if err != nil {
		respondStorageError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := attendance.ExportCSV(&buf, groups); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="attendance.csv"`)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
