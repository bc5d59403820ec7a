package storage

import (
	"fmt"
	"time"
)

var timeLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02T15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05.999999999",
	time.RFC3339Nano,
	"2006-01-02",
}

// Time reads timestamps that drivers return either as time.Time or as
// text (SQLite).
type Time struct {
	time.Time
}

func (t *Time) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		t.Time = time.Time{}
		return nil
	case time.Time:
		t.Time = v.UTC()
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	case int64:
		t.Time = time.Unix(v, 0).UTC()
		return nil
	default:
		return fmt.Errorf("storage: cannot scan %T into Time", src)
	}
}

func (t *Time) parse(s string) error {
	for _, layout := range timeLayouts {
		parsed, err := time.Parse(layout, s)
		if err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("storage: unrecognized time %q", s)
}

// Date reads a calendar date and normalizes it to UTC midnight.
type Date struct {
	time.Time
}

func (d *Date) Scan(src any) error {
	var t Time
	if err := t.Scan(src); err != nil {
		return err
	}
	if t.IsZero() {
		d.Time = time.Time{}
		return nil
	}
	y, m, day := t.Date()
	d.Time = time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
	return nil
}

// FormatDate renders a date the way every dialect accepts it for a DATE
// column.
func FormatDate(t time.Time) string {
	return t.Format("2006-01-02")
}
