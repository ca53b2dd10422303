package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

const sqliteTimeLayout = "2006-01-02 15:04:05"

// EpochTime is a nullable timestamp persisted as unix seconds.
type EpochTime struct {
	time.Time
	Valid bool
}

func Now() EpochTime {
	return EpochTime{Time: time.Now().Truncate(time.Second), Valid: true}
}

func NewEpochTime(t time.Time) EpochTime {
	return EpochTime{Time: t, Valid: !t.IsZero()}
}

func (t *EpochTime) Scan(value interface{}) error {
	if value == nil {
		t.Time = time.Time{}
		t.Valid = false
		return nil
	}

	switch v := value.(type) {
	case int64:
		t.Time = time.Unix(v, 0)
	case float64:
		t.Time = time.Unix(int64(v), 0)
	case time.Time:
		t.Time = v
	case []byte:
		return t.Scan(string(v))
	case string:
		parsed, err := parseTimeString(v)
		if err != nil {
			return err
		}
		t.Time = parsed
	default:
		return fmt.Errorf("unsupported type for EpochTime: %T", value)
	}
	t.Valid = true
	return nil
}

func parseTimeString(s string) (time.Time, error) {
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(secs, 0), nil
	}
	if parsed, err := time.Parse(time.RFC3339, s); err == nil {
		return parsed, nil
	}
	parsed, err := time.ParseInLocation(sqliteTimeLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
	}
	return parsed, nil
}

func (t EpochTime) Value() (driver.Value, error) {
	if !t.Valid {
		return nil, nil
	}
	return t.Time.Unix(), nil
}

func (t EpochTime) MarshalJSON() ([]byte, error) {
	if !t.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339))
}

func (t *EpochTime) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*t = EpochTime{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return err
	}
	*t = EpochTime{Time: parsed, Valid: true}
	return nil
}

// Ptr returns nil for an invalid time so callers can hand it to DisplayTime-like helpers.
func (t EpochTime) Ptr() *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}
