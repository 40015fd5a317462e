package cot_test

import (
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daxtonb/jtac-bridge/internal/cot"
	"github.com/daxtonb/jtac-bridge/internal/unit"
)

func TestRenderBitExact(t *testing.T) {
	r := unit.Record{
		UnitName:  "J-01334",
		Coalition: unit.CoalitionRedfor,
		Position: unit.Position{
			Latitude:  30.0090027,
			Longitude: -85.9578735,
			Altitude:  -42.6,
		},
		UnitType:           unit.Type{Level1: unit.Level1Air},
		MissionDate:        "2005-04-05",
		MissionStartTime:   42000,
		MissionTimeElapsed: 218,
	}

	xml, err := cot.Render(r)
	require.NoError(t, err)

	want := `<?xml version="1.0" standalone="yes"?><event version="2.0" uid="J-01334" type="a-h-A" how="m-g" time="2005-04-05T11:43:38Z" start="2005-04-05T11:43:38Z" stale="2005-04-05T11:44:38Z"><point lat="30.0090027" lon="-85.9578735" ce="0.0" hae="-42.6" le="0.0"/><detail><contact callsign="J-01334"/></detail></event>`
	assert.Equal(t, want, xml)
}

var eventRegexp = regexp.MustCompile(
	`^<\?xml version="1\.0" standalone="yes"\?><event version="2\.0" uid="[^"]*" type="a-[nhf]-[AGS]" how="m-g" time="[0-9T:\-]+Z" start="[0-9T:\-]+Z" stale="[0-9T:\-]+Z"><point [^/]+/><detail><contact callsign="[^"]*"/></detail></event>$`,
)

func TestRenderMatchesEventShape(t *testing.T) {
	r := unit.Record{
		UnitName:           "UNIT-1",
		Coalition:          unit.CoalitionNeutral,
		UnitType:           unit.Type{Level1: unit.Level1Sea},
		MissionDate:        "2024-03-08",
		MissionStartTime:   0,
		MissionTimeElapsed: 0,
	}
	xml, err := cot.Render(r)
	require.NoError(t, err)
	assert.Regexp(t, eventRegexp, xml)
}

func TestRenderMalformedDate(t *testing.T) {
	r := unit.Record{MissionDate: "2023-13-08"}
	_, err := cot.Render(r)
	require.Error(t, err)

	var timeErr *cot.TimeError
	assert.True(t, errors.As(err, &timeErr))
}
