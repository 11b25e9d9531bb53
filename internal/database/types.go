package database

import (
	"time"
)

// Student represents an enrolled student and their directory metadata.
type Student struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Standard         string    `json:"standard"`
	Division         string    `json:"division"`
	Year             string    `json:"year"`
	RollNo           string    `json:"roll_no"`
	EmergencyContact string    `json:"emergency_contact"`
	CreatedAt        time.Time `json:"created_at"`
}

// StoredVoiceprint represents a voice embedding stored for a student.
// Each student has exactly one voiceprint; re-enrollment overwrites it.
type StoredVoiceprint struct {
	StudentID string    `json:"student_id"`
	Embedding []float32 `json:"embedding"`
	Dim       int       `json:"dim"`
	CreatedAt time.Time `json:"created_at"`
}

// DateFormat is the canonical layout for attendance dates.
const DateFormat = "2006-01-02"

// Day converts a timestamp to its canonical attendance date string.
func Day(t time.Time) string {
	return t.Format(DateFormat)
}

// Today returns the attendance date string for the current day.
func Today() string {
	return Day(time.Now())
}

// ValidDay reports whether s is a well-formed attendance date.
func ValidDay(s string) bool {
	_, err := time.Parse(DateFormat, s)
	return err == nil
}
