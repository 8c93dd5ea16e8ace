package sqlgw

import (
	"encoding/json"
	"time"

	"ordersaga/domain"
)

const timeLayout = time.RFC3339Nano

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(timeLayout, s)
}

// nullableTimeArg returns nil for a zero time.Time, the formatted string
// otherwise — for columns that may legitimately be absent (CompletedAt,
// FailedStepIndex siblings, ...).
func nullableTimeArg(t *time.Time) any {
	if t == nil {
		return nil
	}
	return formatTime(*t)
}

func nullableStringArg(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func nullableIntArg(i *int) any {
	if i == nil {
		return nil
	}
	return *i
}

func scanNullableTime(raw *string) (*time.Time, error) {
	if raw == nil {
		return nil, nil
	}
	t, err := parseTime(*raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func marshalErrorInfo(info *domain.ErrorInfo) ([]byte, error) {
	if info == nil {
		return nil, nil
	}
	return json.Marshal(info)
}

func unmarshalErrorInfo(raw []byte) (*domain.ErrorInfo, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var info domain.ErrorInfo
	if err := json.Unmarshal(raw, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func marshalStringSlice(values []string) (*string, error) {
	if values == nil {
		return nil, nil
	}
	raw, err := json.Marshal(values)
	if err != nil {
		return nil, err
	}
	s := string(raw)
	return &s, nil
}

func unmarshalStringSlice(raw *string) ([]string, error) {
	if raw == nil || *raw == "" {
		return nil, nil
	}
	var values []string
	if err := json.Unmarshal([]byte(*raw), &values); err != nil {
		return nil, err
	}
	return values, nil
}
