package handlers

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/kozaktomas/voice-attendance/internal/audio"
	"github.com/kozaktomas/voice-attendance/internal/database"
	"github.com/kozaktomas/voice-attendance/internal/matcher"
	"github.com/kozaktomas/voice-attendance/internal/roster"
	"github.com/kozaktomas/voice-attendance/internal/voiceprint"
)

// maxUploadSize bounds enrollment audio uploads (3 s of 16 kHz PCM16 is
// well under 1 MB; leave headroom for higher sample rates).
const maxUploadSize = 16 << 20

// StudentsHandler serves the student directory endpoints.
type StudentsHandler struct {
	roster   *roster.Roster
	matcher  *matcher.Matcher
	embedder voiceprint.Embedder
}

// NewStudentsHandler creates a new students handler.
func NewStudentsHandler(r *roster.Roster, m *matcher.Matcher, embedder voiceprint.Embedder) *StudentsHandler {
	return &StudentsHandler{roster: r, matcher: m, embedder: embedder}
}

// List handles GET /students. Supports ?q= substring search and ?grouped=1
// for the class-grouped view.
func (h *StudentsHandler) List(w http.ResponseWriter, r *http.Request) {
	students, err := h.roster.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		respondStorageError(w, err)
		return
	}
	if students == nil {
		students = []database.Student{}
	}

	if r.URL.Query().Get("grouped") != "" {
		respondJSON(w, http.StatusOK, map[string]any{
			"groups": roster.GroupStudents(students),
		})
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"students": students,
		"count":    len(students),
	})
}

// Get handles GET /students/{id}.
func (h *StudentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	student, err := h.roster.Find(r.Context(), id)
	if err != nil {
		respondStorageError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, student)
}

// enrollRequest is the JSON enrollment body for clients that precompute
// embeddings.
type enrollRequest struct {
	database.Student
	Embedding []float32 `json:"embedding"`
}

// Enroll handles POST /students. Accepts either a JSON body with a
// precomputed embedding, or a multipart form with student fields and a WAV
// sample that is sent to the embedding server.
func (h *StudentsHandler) Enroll(w http.ResponseWriter, r *http.Request) {
	var student database.Student
	var embedding []float32

	if isMultipart(r) {
		var err error
		student, embedding, err = h.enrollFromMultipart(r)
		if err != nil {
			respondError(w, http.StatusBadRequest, err.Error())
			return
		}
	} else {
		var req enrollRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, errInvalidRequestBody)
			return
		}
		student = req.Student
		embedding = req.Embedding
	}

	stored, err := h.roster.Register(r.Context(), student, embedding)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	h.matcher.IndexAdd(&database.StoredVoiceprint{
		StudentID: stored.ID,
		Embedding: embedding,
		Dim:       len(embedding),
	})
	respondJSON(w, http.StatusCreated, stored)
}

func isMultipart(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	return ct != "" && len(ct) >= 19 && ct[:19] == "multipart/form-data"
}

func (h *StudentsHandler) enrollFromMultipart(r *http.Request) (database.Student, []float32, error) {
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		return database.Student{}, nil, err
	}
	student := database.Student{
		ID:               r.FormValue("id"),
		Name:             r.FormValue("name"),
		Standard:         r.FormValue("standard"),
		Division:         r.FormValue("division"),
		Year:             r.FormValue("year"),
		RollNo:           r.FormValue("roll_no"),
		EmergencyContact: r.FormValue("emergency_contact"),
	}

	file, _, err := r.FormFile("audio")
	if err != nil {
		return database.Student{}, nil, err
	}
	defer file.Close()

	wavData, err := io.ReadAll(file)
	if err != nil {
		return database.Student{}, nil, err
	}
	// Validate the upload is a WAV clip we understand before shipping it off.
	if _, err := audio.DecodeWAV(wavData); err != nil {
		return database.Student{}, nil, err
	}

	embedding, err := h.embedder.Embed(r.Context(), wavData)
	if err != nil {
		return database.Student{}, nil, err
	}
	return student, embedding, nil
}

// Remove handles DELETE /students/{id}.
func (h *StudentsHandler) Remove(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.roster.Remove(r.Context(), id); err != nil {
		respondStorageError(w, err)
		return
	}
	h.matcher.IndexRemove(id)
	respondJSON(w, http.StatusOK, map[string]string{"status": "removed", "id": id})
}

// Export handles GET /students/export and streams the directory as CSV.
func (h *StudentsHandler) Export(w http.ResponseWriter, r *http.Request) {
	students, err := h.roster.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		respondStorageError(w, err)
		return
	}

	var buf bytes.Buffer
	if err := roster.ExportCSV(&buf, students); err != nil {
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="students.csv"`)
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
