package helpers

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Layouts without an offset are read as UTC.
var isoLayouts = []struct {
	layout string
	zoned  bool
}{
	{time.RFC3339Nano, true},
	{"2006-01-02T15:04:05.999999999", false},
	{"2006-01-02T15:04", false},
	{"2006-01-02", false},
}

// DateFormatError is returned when a date field is not an ISO 8601 timestamp.
type DateFormatError struct {
	Value string
}

func (e *DateFormatError) Error() string {
	return fmt.Sprintf("invalid ISO 8601 timestamp %q", e.Value)
}

// ParseISOTime accepts RFC 3339 timestamps as well as the offset-less
// date-time, minute and date-only forms.
func ParseISOTime(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	for _, l := range isoLayouts {
		var (
			t   time.Time
			err error
		)
		if l.zoned {
			t, err = time.Parse(l.layout, value)
		} else {
			t, err = time.ParseInLocation(l.layout, value, time.UTC)
		}
		if err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, &DateFormatError{Value: value}
}

// ISOTime is a request field holding an ISO 8601 timestamp.
type ISOTime struct {
	time.Time
}

func (t *ISOTime) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return &DateFormatError{Value: string(data)}
	}
	parsed, err := ParseISOTime(s)
	if err != nil {
		return err
	}
	t.Time = parsed
	return nil
}
