package web

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kozaktomas/voice-attendance/internal/attendance"
	"github.com/kozaktomas/voice-attendance/internal/config"
	"github.com/kozaktomas/voice-attendance/internal/database"
	"github.com/kozaktomas/voice-attendance/internal/database/mock"
	"github.com/kozaktomas/voice-attendance/internal/matcher"
	"github.com/kozaktomas/voice-attendance/internal/roster"
)

// staticEmbedder returns a canned embedding for any audio input.
type staticEmbedder struct {
	embedding []float32
	err       error
}

func (s *staticEmbedder) Embed(ctx context.Context, wavData []byte) ([]float32, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.embedding, nil
}

type testEnv struct {
	server      *Server
	roster      *roster.Roster
	ledger      *attendance.Ledger
	attendance  *mock.AttendanceStore
	voiceprints *mock.VoiceprintStore
	embedder    *staticEmbedder
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	students := mock.NewStudentStore()
	voiceprints := mock.NewVoiceprintStore()
	att := mock.NewAttendanceStore()

	r := roster.New(students, voiceprints, nil)
	m := matcher.New(voiceprints, 0.75)
	ledger := attendance.NewLedger(att)
	embedder := &staticEmbedder{embedding: []float32{1, 0, 0}}

	cfg := config.Load()
	server := NewServer(cfg, 0, "127.0.0.1", r, m, ledger, embedder)

	return &testEnv{
		server:      server,
		roster:      r,
		ledger:      ledger,
		attendance:  att,
		voiceprints: voiceprints,
		embedder:    embedder,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encoding request body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.server.Router().ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) enroll(t *testing.T, student database.Student, embedding []float32) {
	t.Helper()
	if _, err := e.roster.Register(context.Background(), student, embedding); err != nil {
		t.Fatalf("Register %s: %v", student.ID, err)
	}
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), dst); err != nil {
		t.Fatalf("decoding response %q: %v", rec.Body.String(), err)
	}
}

func TestHealthCheck(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestEnrollJSON(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/students", map[string]any{
		"id":        "s1",
		"name":      "Mia Novak",
		"roll_no":   "12",
		"embedding": []float32{1, 0, 0},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var stored database.Student
	decodeBody(t, rec, &stored)
	if stored.ID != "s1" || stored.Name != "Mia Novak" {
		t.Errorf("stored = %+v", stored)
	}

	if _, err := env.voiceprints.Get(context.Background(), "s1"); err != nil {
		t.Errorf("voiceprint not stored: %v", err)
	}
}

func TestEnrollJSONValidation(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/students", map[string]any{
		"name": "No Embedding",
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestEnrollMultipart(t *testing.T) {
	env := newTestEnv(t)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	w.WriteField("id", "s1")
	w.WriteField("name", "Mia Novak")
	part, err := w.CreateFormFile("audio", "sample.wav")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	part.Write(wavFixture())
	w.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/students", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	env.server.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if _, err := env.voiceprints.Get(context.Background(), "s1"); err != nil {
		t.Errorf("voiceprint not stored: %v", err)
	}
}

// wavFixture builds a minimal valid PCM16 mono WAV file.
func wavFixture() []byte {
	samples := 160
	dataSize := samples * 2
	var buf bytes.Buffer
	buf.WriteString("RIFF")
	writeLE32 := func(v int) {
		buf.Write([]byte{byte(v), byte(v >> 8), byte(v >> 16), byte(v >> 24)})
	}
	writeLE16 := func(v int) {
		buf.Write([]byte{byte(v), byte(v >> 8)})
	}
	writeLE32(36 + dataSize)
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	writeLE32(16)
	writeLE16(1)
	writeLE16(1)
	writeLE32(16000)
	writeLE32(32000)
	writeLE16(2)
	writeLE16(16)
	buf.WriteString("data")
	writeLE32(dataSize)
	buf.Write(make([]byte, dataSize))
	return buf.Bytes()
}

func TestListStudents(t *testing.T) {
	env := newTestEnv(t)
	env.enroll(t, database.Student{ID: "s1", Name: "Mia"}, []float32{1, 0, 0})
	env.enroll(t, database.Student{ID: "s2", Name: "Ben"}, []float32{0, 1, 0})

	rec := env.do(t, http.MethodGet, "/api/v1/students", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp struct {
		Students []database.Student `json:"students"`
		Count    int                `json:"count"`
	}
	decodeBody(t, rec, &resp)
	if resp.Count != 2 || len(resp.Students) != 2 {
		t.Errorf("list = %+v", resp)
	}
}

func TestSearchStudents(t *testing.T) {
	env := newTestEnv(t)
	env.enroll(t, database.Student{ID: "s1", Name: "Jiří Svoboda"}, []float32{1})

	rec := env.do(t, http.MethodGet, "/api/v1/students?q=jiri", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Count int `json:"count"`
	}
	decodeBody(t, rec, &resp)
	if resp.Count != 1 {
		t.Errorf("search count = %d, want 1", resp.Count)
	}
}

func TestGetStudentNotFound(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/students/ghost", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestRemoveStudent(t *testing.T) {
	env := newTestEnv(t)
	env.enroll(t, database.Student{ID: "s1", Name: "Mia"}, []float32{1})

	rec := env.do(t, http.MethodDelete, "/api/v1/students/s1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodGet, "/api/v1/students/s1", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("student still present after delete: %d", rec.Code)
	}
}

func TestExportStudentsCSV(t *testing.T) {
	env := newTestEnv(t)
	env.enroll(t, database.Student{ID: "s1", Name: "Mia Novak", RollNo: "12"}, []float32{1})

	rec := env.do(t, http.MethodGet, "/api/v1/students/export", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("Content-Type = %q, want text/csv", ct)
	}
	if !strings.Contains(rec.Body.String(), "Mia Novak") {
		t.Errorf("CSV missing student: %q", rec.Body.String())
	}
}

func TestRecognizeMarksAttendance(t *testing.T) {
	env := newTestEnv(t)
	env.enroll(t, database.Student{ID: "s1", Name: "Mia"}, []float32{1, 0, 0})

	rec := env.do(t, http.MethodPost, "/api/v1/recognize", map[string]any{
		"embedding": []float32{1, 0, 0},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Matched   bool              `json:"matched"`
		StudentID string            `json:"student_id"`
		Marked    bool              `json:"marked"`
		Date      string            `json:"date"`
		Student   *database.Student `json:"student"`
	}
	decodeBody(t, rec, &resp)
	if !resp.Matched || resp.StudentID != "s1" {
		t.Fatalf("response = %+v", resp)
	}
	if !resp.Marked || resp.Date != database.Today() {
		t.Errorf("attendance not marked: %+v", resp)
	}
	if resp.Student == nil || resp.Student.Name != "Mia" {
		t.Errorf("student metadata missing: %+v", resp.Student)
	}

	ids, err := env.attendance.Present(context.Background(), database.Today())
	if err != nil {
		t.Fatalf("Present: %v", err)
	}
	if len(ids) != 1 || ids[0] != "s1" {
		t.Errorf("ledger = %v, want [s1]", ids)
	}
}

func TestRecognizeDryRun(t *testing.T) {
	env := newTestEnv(t)
	env.enroll(t, database.Student{ID: "s1", Name: "Mia"}, []float32{1, 0, 0})

	rec := env.do(t, http.MethodPost, "/api/v1/recognize?dry_run=1", map[string]any{
		"embedding": []float32{1, 0, 0},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	ids, err := env.attendance.Present(context.Background(), database.Today())
	if err != nil {
		t.Fatalf("Present: %v", err)
	}
	if len(ids) != 0 {
		t.Errorf("dry run marked attendance: %v", ids)
	}
}

func TestRecognizeNoMatch(t *testing.T) {
	env := newTestEnv(t)
	env.enroll(t, database.Student{ID: "s1", Name: "Mia"}, []float32{1, 0, 0})

	rec := env.do(t, http.MethodPost, "/api/v1/recognize", map[string]any{
		"embedding": []float32{0, 1, 0},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Matched bool `json:"matched"`
		Marked  bool `json:"marked"`
	}
	decodeBody(t, rec, &resp)
	if resp.Matched || resp.Marked {
		t.Errorf("no-match response = %+v", resp)
	}
}

func TestRecognizeDimensionMismatch(t *testing.T) {
	env := newTestEnv(t)
	env.enroll(t, database.Student{ID: "s1", Name: "Mia"}, []float32{1, 0, 0})

	rec := env.do(t, http.MethodPost, "/api/v1/recognize", map[string]any{
		"embedding": []float32{1, 0},
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("status = %d, want 422", rec.Code)
	}
}

func TestAttendanceByDate(t *testing.T) {
	env := newTestEnv(t)
	env.enroll(t, database.Student{ID: "s1", Name: "Mia"}, []float32{1})
	day := time.Date(2024, 3, 7, 9, 0, 0, 0, time.UTC)
	if err := env.ledger.MarkPresent(context.Background(), "s1", day); err != nil {
		t.Fatalf("MarkPresent: %v", err)
	}

	rec := env.do(t, http.MethodGet, "/api/v1/attendance/2024-03-07", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var resp struct {
		Date    string   `json:"date"`
		Present []string `json:"present"`
		Count   int      `json:"count"`
	}
	decodeBody(t, rec, &resp)
	if resp.Count != 1 || resp.Present[0] != "s1" {
		t.Errorf("response = %+v", resp)
	}
}

func TestAttendanceUnknownDateIsEmpty(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/attendance/1999-01-01", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp struct {
		Present []string `json:"present"`
	}
	decodeBody(t, rec, &resp)
	if len(resp.Present) != 0 {
		t.Errorf("present = %v, want empty", resp.Present)
	}
}

func TestAttendanceBadDate(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/attendance/yesterday", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestAttendanceExportCSV(t *testing.T) {
	env := newTestEnv(t)
	env.enroll(t, database.Student{ID: "s1", Name: "Mia", RollNo: "12", Year: "2024", Standard: "5", Division: "A"}, []float32{1})
	day := time.Date(2024, 3, 7, 9, 0, 0, 0, time.UTC)
	if err := env.ledger.MarkPresent(context.Background(), "s1", day); err != nil {
		t.Fatalf("MarkPresent: %v", err)
	}

	rec := env.do(t, http.MethodGet, "/api/v1/attendance/export", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "2024-03-07") || !strings.Contains(body, "Mia") {
		t.Errorf("CSV = %q", body)
	}
}

func TestCORSPreflightAllowed(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/students", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	env.server.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want 204", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got == "" {
		t.Error("missing Access-Control-Allow-Origin for localhost origin")
	}
}
