package utils

import (
	"time"
)

// DisplayLayout mimics the en-US locale rendering used by the web client.
const DisplayLayout = "1/2/2006, 3:04:05 PM"

const sqliteLayout = "2006-01-02 15:04:05"

// DisplayTime renders a time value for humans. Numbers are epoch seconds.
// Offset-less date-times are read as local time.
// Anything empty, unparseable or of an unsupported type renders as "".
func DisplayTime(value interface{}) string {
	t, ok := toTime(value)
	if !ok || t.IsZero() {
		return ""
	}
	return t.Local().Format(DisplayLayout)
}

func toTime(value interface{}) (time.Time, bool) {
	switch v := value.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		return v, true
	case *time.Time:
		if v == nil {
			return time.Time{}, false
		}
		return *v, true
	case string:
		return parseDisplayString(v)
	case int:
		return fromSeconds(float64(v))
	case int32:
		return fromSeconds(float64(v))
	case int64:
		return fromSeconds(float64(v))
	case uint:
		return fromSeconds(float64(v))
	case uint32:
		return fromSeconds(float64(v))
	case uint64:
		return fromSeconds(float64(v))
	case float32:
		return fromSeconds(float64(v))
	case float64:
		return fromSeconds(v)
	default:
		return time.Time{}, false
	}
}

func fromSeconds(secs float64) (time.Time, bool) {
	if secs == 0 {
		return time.Time{}, false
	}
	whole := int64(secs)
	nanos := int64((secs - float64(whole)) * float64(time.Second))
	return time.Unix(whole, nanos), true
}

func parseDisplayString(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.ParseInLocation(sqliteLayout, s, time.Local); err == nil {
		return t, true
	}
	return time.Time{}, false
}
