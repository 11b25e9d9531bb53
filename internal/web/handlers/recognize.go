package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/kozaktomas/voice-attendance/internal/attendance"
	"github.com/kozaktomas/voice-attendance/internal/audio"
	"github.com/kozaktomas/voice-attendance/internal/database"
	"github.com/kozaktomas/voice-attendance/internal/matcher"
	"github.com/kozaktomas/voice-attendance/internal/roster"
	"github.com/kozaktomas/voice-attendance/internal/voiceprint"
)

// RecognizeHandler serves one-shot identification requests. A successful
// match marks the student present for today unless the request asks for a
// dry run.
type RecognizeHandler struct {
	embedder voiceprint.Embedder
	matcher  *matcher.Matcher
	ledger   *attendance.Ledger
	roster   *roster.Roster
}

// NewRecognizeHandler creates a new recognize handler.
func NewRecognizeHandler(embedder voiceprint.Embedder, m *matcher.Matcher, l *attendance.Ledger, r *roster.Roster) *RecognizeHandler {
	return &RecognizeHandler{embedder: embedder, matcher: m, ledger: l, roster: r}
}

// recognizeRequest is the JSON body for clients that precompute embeddings.
type recognizeRequest struct {
	Embedding []float32 `json:"embedding"`
}

// recognizeResponse reports the outcome of one identification attempt.
type recognizeResponse struct {
	matcher.Result
	Student *database.Student `json:"student,omitempty"`
	Marked  bool              `json:"marked"`
	Date    string            `json:"date,omitempty"`
}

// Recognize handles POST /recognize. Accepts either a multipart WAV sample
// or a JSON body with a precomputed embedding.
func (h *RecognizeHandler) Recognize(w http.ResponseWriter, r *http.Request) {
	embedding, err := h.embedding(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.matcher.Identify(r.Context(), embedding)
	if err != nil {
		var dimErr *database.ErrDimensionMismatch
		if errors.As(err, &dimErr) {
			respondError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		respondStorageError(w, err)
		return
	}

	resp := recognizeResponse{Result: result}
	if !result.Matched {
		respondJSON(w, http.StatusOK, resp)
		return
	}

	if r.URL.Query().Get("dry_run") == "" {
		now := time.Now()
		if err := h.ledger.MarkPresent(r.Context(), result.StudentID, now); err != nil {
			respondStorageError(w, err)
			return
		}
		resp.Marked = true
		resp.Date = database.Day(now)
	}

	// Identification stands even if the metadata lookup fails; the directory
	// may lag behind the voiceprint store.
	if student, err := h.roster.Find(r.Context(), result.StudentID); err == nil {
		resp.Student = student
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *RecognizeHandler) embedding(r *http.Request) ([]float32, error) {
	if !isMultipart(r) {
		var req recognizeRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, errors.New(errInvalidRequestBody)
		}
		return req.Embedding, nil
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		return nil, err
	}
	file, _, err := r.FormFile("audio")
	if err != nil {
		return nil, err
	}
	defer file.Close()

	wavData, err := io.ReadAll(file)
	if err != nil {
		return nil, err
	}
	if _, err := audio.DecodeWAV(wavData); err != nil {
		return nil, err
	}
	return h.embedder.Embed(r.Context(), wavData)
}
