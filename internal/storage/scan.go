package storage

import (
	"fmt"
	"time"

	"moneybook/internal/core"
)

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// dbTime scans DATE, DATETIME and TIMESTAMPTZ columns regardless of whether
// the driver hands back a time.Time or its text form. NULL leaves valid false.
type dbTime struct {
	t     time.Time
	valid bool
}

func (d *dbTime) Scan(v any) error {
	switch x := v.(type) {
	case nil:
		d.t, d.valid = time.Time{}, false
		return nil
	case time.Time:
		d.t, d.valid = x, true
		return nil
	case string:
		return d.parse(x)
	case []byte:
		return d.parse(string(x))
	default:
		return fmt.Errorf("unsupported time value %T", v)
	}
}

func (d *dbTime) parse(s string) error {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			d.t, d.valid = t, true
			return nil
		}
	}
	return fmt.Errorf("unrecognised time %q", s)
}

func (d dbTime) date() core.Date {
	if !d.valid {
		return core.Date{}
	}
	return core.NewDate(d.t.Year(), int(d.t.Month()), d.t.Day())
}
