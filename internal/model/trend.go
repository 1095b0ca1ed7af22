package model

import (
	"encoding/json"
	"strings"
)

// Trend 服务端给出的热度走向标签，客户端只展示不推导
type Trend int

const (
	TrendNeutral Trend = iota
	TrendUp
	TrendDown
)

func (t Trend) String() string {
	switch t {
	case TrendUp:
		return "up"
	case TrendDown:
		return "down"
	case TrendNeutral:
		return "neutral"
	}
	return "neutral"
}

// ParseTrend maps a wire label onto Trend; anything unknown is neutral.
func ParseTrend(s string) Trend {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up":
		return TrendUp
	case "down":
		return TrendDown
	default:
		return TrendNeutral
	}
}

func (t Trend) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *Trend) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		// null or a non-string value
		*t = TrendNeutral
		return nil
	}
	*t = ParseTrend(s)
	return nil
}
