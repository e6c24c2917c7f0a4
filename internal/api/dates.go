package api

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02T15:04:05"
)

// LocalDate is a calendar date without zone, serialized as "YYYY-MM-DD"
// in JSON and stored as the same string in every database.
type LocalDate struct {
	time.Time
}

// LocalDateTime is a wall-clock timestamp without zone, "YYYY-MM-DDTHH:MM:SS".
type LocalDateTime struct {
	time.Time
}

func NewLocalDate(y int, m time.Month, d int) LocalDate {
	return LocalDate{time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day.
func DateOf(t time.Time) LocalDate {
	y, m, d := t.Date()
	return NewLocalDate(y, m, d)
}

func DateTimeOf(t time.Time) LocalDateTime {
	return LocalDateTime{time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.UTC)}
}

func Now() LocalDateTime { return DateTimeOf(time.Now()) }

func ParseLocalDate(s string) (LocalDate, error) {
	s = strings.TrimSpace(s)
	// some clients send a full timestamp for date-only fields
	if len(s) > len(DateLayout) {
		s = s[:len(DateLayout)]
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return LocalDate{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return LocalDate{t}, nil
}

func ParseLocalDateTime(s string) (LocalDateTime, error) {
	s = strings.TrimSpace(s)
	if len(s) == len(DateLayout) {
		d, err := ParseLocalDate(s)
		if err != nil {
			return LocalDateTime{}, err
		}
		return LocalDateTime{d.Time}, nil
	}
	// drop fractional seconds and zone suffixes
	if len(s) > len(DateTimeLayout) {
		s = s[:len(DateTimeLayout)]
	}
	t, err := time.Parse(DateTimeLayout, s)
	if err != nil {
		return LocalDateTime{}, fmt.Errorf("invalid date-time %q: %w", s, err)
	}
	return LocalDateTime{t}, nil
}

func (d LocalDate) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d LocalDate) Before(o LocalDate) bool { return d.Time.Before(o.Time) }

func (d LocalDate) AddDays(n int) LocalDate { return LocalDate{d.AddDate(0, 0, n)} }

func (d LocalDate) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

func (d *LocalDate) UnmarshalJSON(b []byte) error {
	var s *string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == nil || *s == "" {
		*d = LocalDate{}
		return nil
	}
	v, err := ParseLocalDate(*s)
	if err != nil {
		return err
	}
	*d = v
	return nil
}

func (d LocalDate) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.String(), nil
}

func (LocalDate) GormDataType() string { return "string" }

func (d *LocalDate) Scan(src any) error {
	s, err := scanString(src)
	if err != nil {
		return err
	}
	if s == "" {
		*d = LocalDate{}
		return nil
	}
	v, err := ParseLocalDate(s)
	if err != nil {
		return err
	}
	*d = v
	return nil
}

func (t LocalDateTime) String() string {
	if t.IsZero() {
		return ""
	}
	return t.Format(DateTimeLayout)
}

// Date returns the calendar day of t.
func (t LocalDateTime) Date() LocalDate { return DateOf(t.Time) }

func (t LocalDateTime) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.String())
}

func (t *LocalDateTime) UnmarshalJSON(b []byte) error {
	var s *string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == nil || *s == "" {
		*t = LocalDateTime{}
		return nil
	}
	v, err := ParseLocalDateTime(*s)
	if err != nil {
		return err
	}
	*t = v
	return nil
}

func (t LocalDateTime) Value() (driver.Value, error) {
	if t.IsZero() {
		return nil, nil
	}
	return t.String(), nil
}

func (LocalDateTime) GormDataType() string { return "string" }

func (t *LocalDateTime) Scan(src any) error {
	s, err := scanString(src)
	if err != nil {
		return err
	}
	if s == "" {
		*t = LocalDateTime{}
		return nil
	}
	v, err := ParseLocalDateTime(s)
	if err != nil {
		return err
	}
	*t = v
	return nil
}

func scanString(src any) (string, error) {
	switch v := src.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case time.Time:
		return v.UTC().Format(DateTimeLayout), nil
	default:
		return "", fmt.Errorf("unsupported date source %T", src)
	}
}
