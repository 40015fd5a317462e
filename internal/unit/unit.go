// Package unit decodes simulated-unit position reports and derives the
// mission timestamp a situational-awareness event is rendered against.
package unit

import (
	"encoding/json"
	"fmt"
	"time"
)

// Coalition is the side a unit belongs to, wire-encoded as a small integer.
type Coalition int

const (
	CoalitionNeutral Coalition = 0
	CoalitionRedfor  Coalition = 1
	CoalitionBlufor  Coalition = 2
)

func (c Coalition) String() string {
	switch c {
	case CoalitionNeutral:
		return "NEUTRAL"
	case CoalitionRedfor:
		return "REDFOR"
	case CoalitionBlufor:
		return "BLUFOR"
	default:
		return fmt.Sprintf("Coalition(%d)", int(c))
	}
}

// Level1 is the top-level classification of a unit.
type Level1 string

const (
	Level1Air    Level1 = "AIR"
	Level1Ground Level1 = "GROUND"
	Level1Sea    Level1 = "SEA"
)

// Position is a unit's reported location and attitude.
type Position struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Altitude  float32 `json:"altitude"`
	Heading   float64 `json:"heading"`
}

// Type is a unit's two-level classification.
type Type struct {
	Level1 Level1 `json:"level_1"`
	Level2 uint8  `json:"level_2"`
}

// Record is one decoded position report.
type Record struct {
	UnitName           string    `json:"unit_name"`
	GroupName          string    `json:"group_name"`
	Coalition          Coalition `json:"coalition"`
	Position           Position  `json:"position"`
	UnitType           Type      `json:"unit_type"`
	MissionDate        string    `json:"mission_date"`
	MissionStartTime   int32     `json:"mission_start_time"`
	MissionTimeElapsed int32     `json:"mission_time_elapsed"`
}

// Decode parses a single JSON-encoded unit record. It returns an error
// wrapping the underlying json error on malformed input, and an error
// naming the missing field when any record field is absent.
func Decode(data []byte) (Record, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return Record{}, fmt.Errorf("unit: decode: %w", err)
	}
	var top, pos, typ map[string]json.RawMessage
	_ = json.Unmarshal(data, &top) // data already decoded as a Record above
	_ = json.Unmarshal(top["position"], &pos)
	_ = json.Unmarshal(top["unit_type"], &typ)
	required := [][]string{
		{"unit_name", "group_name", "coalition", "position", "unit_type", "mission_date", "mission_start_time", "mission_time_elapsed"},
		{"latitude", "longitude", "altitude", "heading"},
		{"level_1", "level_2"},
	}
	for i, obj := range []map[string]json.RawMessage{top, pos, typ} {
		for _, k := range required[i] {
			if _, ok := obj[k]; !ok {
				return Record{}, fmt.Errorf("unit: decode: missing field %q", k)
			}
		}
	}
	return r, nil
}

// MissionTime derives the UTC instant this record reports, combining
// MissionDate with (MissionStartTime + MissionTimeElapsed) seconds of day.
// Overflow past 86399 wraps modulo 86400 on the same calendar date; it does
// not roll over to the next day.
func (r Record) MissionTime() (time.Time, error) {
	date, err := time.Parse("2006-01-02", r.MissionDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("unit: invalid mission_date %q: %w", r.MissionDate, err)
	}

	total := int64(r.MissionStartTime) + int64(r.MissionTimeElapsed)
	total %= 86400
	if total < 0 {
		total += 86400
	}
	hours := total / 3600
	minutes := (total % 3600) / 60
	seconds := total % 60

	return time.Date(date.Year(), date.Month(), date.Day(),
		int(hours), int(minutes), int(seconds), 0, time.UTC), nil
}
