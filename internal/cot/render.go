// Package cot renders decoded unit records as situational-awareness
// (Cursor-on-Target) XML events.
package cot

import (
	"fmt"
	"strconv"
	"time"

	"github.com/daxtonb/jtac-bridge/internal/unit"
)

const staleAfter = 60 * time.Second

// TimeError is returned when a record's mission_date cannot be parsed into
// a mission timestamp.
type TimeError struct {
	Record unit.Record
	Err    error
}

func (e *TimeError) Error() string {
	return fmt.Sprintf("cot: mission time for %q: %v", e.Record.UnitName, e.Err)
}

func (e *TimeError) Unwrap() error { return e.Err }

// RenderError wraps any rendering failure other than a TimeError.
type RenderError struct {
	Record unit.Record
	Err    error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("cot: render %q: %v", e.Record.UnitName, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

func coalitionCode(c unit.Coalition) (byte, error) {
	switch c {
	case unit.CoalitionNeutral:
		return 'n', nil
	case unit.CoalitionRedfor:
		return 'h', nil
	case unit.CoalitionBlufor:
		return 'f', nil
	default:
		return 0, fmt.Errorf("unrecognized coalition %d", int(c))
	}
}

func levelOneCode(l unit.Level1) (byte, error) {
	switch l {
	case unit.Level1Air:
		return 'A', nil
	case unit.Level1Ground:
		return 'G', nil
	case unit.Level1Sea:
		return 'S', nil
	default:
		return 0, fmt.Errorf("unrecognized unit type %q", l)
	}
}

func formatTime(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05Z")
}

// Render produces the bit-exact single-line situational-awareness XML event
// for r. It returns *TimeError if the mission timestamp cannot be derived,
// and *RenderError for any other failure.
func Render(r unit.Record) (string, error) {
	missionTime, err := r.MissionTime()
	if err != nil {
		return "", &TimeError{Record: r, Err: err}
	}

	coalitionByte, err := coalitionCode(r.Coalition)
	if err != nil {
		return "", &RenderError{Record: r, Err: err}
	}
	level1Byte, err := levelOneCode(r.UnitType.Level1)
	if err != nil {
		return "", &RenderError{Record: r, Err: err}
	}

	eventType := fmt.Sprintf("a-%c-%c", coalitionByte, level1Byte)
	timeStr := formatTime(missionTime)
	staleStr := formatTime(missionTime.Add(staleAfter))
	lat := strconv.FormatFloat(r.Position.Latitude, 'f', -1, 64)
	lon := strconv.FormatFloat(r.Position.Longitude, 'f', -1, 64)
	hae := strconv.FormatFloat(float64(r.Position.Altitude), 'f', -1, 32)

	xml := "<?xml version=\"1.0\" standalone=\"yes\"?>" +
		"<event version=\"2.0\" uid=\"" + r.UnitName + "\" type=\"" + eventType +
		"\" how=\"m-g\" time=\"" + timeStr + "\" start=\"" + timeStr + "\" stale=\"" + staleStr + "\">" +
		"<point lat=\"" + lat + "\" lon=\"" + lon + "\" ce=\"0.0\" hae=\"" + hae + "\" le=\"0.0\"/>" +
		"<detail><contact callsign=\"" + r.UnitName + "\"/></detail></event>"

	return xml, nil
}
