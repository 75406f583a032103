package model

import "time"

const (
	DefaultSubjectColor = "#6366f1"
	UnknownSubjectName  = "Unknown Subject"
)

// Timestamp is nanoseconds since the Unix epoch, the wire format for every
// instant exchanged with the store.
type Timestamp int64

func FromTime(t time.Time) Timestamp {
	if t.IsZero() {
		return 0
	}
	return Timestamp(t.UnixNano())
}

func (ts Timestamp) Time() time.Time {
	return time.Unix(0, int64(ts))
}

func (ts Timestamp) IsZero() bool {
	return ts == 0
}

// Midnight truncates t to 00:00 of its own location.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

type Subject struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Color        string    `json:"color"`
	CreationDate Timestamp `json:"creationDate"`
}

// StudySession is immutable once recorded. Duration is whole minutes; Date is
// the local-midnight bucket of the session.
type StudySession struct {
	SubjectID string    `json:"subjectId"`
	StartTime Timestamp `json:"startTime"`
	EndTime   Timestamp `json:"endTime"`
	Duration  int64     `json:"duration"`
	Date      Timestamp `json:"date"`
}
