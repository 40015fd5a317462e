package assembly_test

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daxtonb/jtac-bridge/internal/assembly"
	"github.com/daxtonb/jtac-bridge/internal/config"
	"github.com/daxtonb/jtac-bridge/internal/metrics"
	"github.com/daxtonb/jtac-bridge/internal/unit"
)

type fakeBus struct {
	calls []struct{ topic, body string }
}

func (f *fakeBus) Broadcast(topic, body string) {
	f.calls = append(f.calls, struct{ topic, body string }{topic, body})
}

func TestPipelineDropsFilteredRecord(t *testing.T) {
	bus := &fakeBus{}
	cfg := config.UserConfig{CoalitionFlag: config.CoalitionFlagRedfor, UnitTypeFlag: config.UnitTypeFlagAir}
	m := metrics.New(prometheus.NewRegistry())
	p := assembly.New(cfg, bus, zerolog.Nop(), m)

	p.Handle(unit.Record{
		UnitName:    "UNIT-1",
		Coalition:   unit.CoalitionBlufor, // not in cfg's flag
		UnitType:    unit.Type{Level1: unit.Level1Air},
		MissionDate: "2024-03-08",
	})

	assert.Empty(t, bus.calls)
}

func TestPipelineBroadcastsRenderedRecord(t *testing.T) {
	bus := &fakeBus{}
	cfg := config.UserConfig{CoalitionFlag: config.CoalitionFlagBlufor, UnitTypeFlag: config.UnitTypeFlagAir}
	m := metrics.New(prometheus.NewRegistry())
	p := assembly.New(cfg, bus, zerolog.Nop(), m)

	p.Handle(unit.Record{
		UnitName:    "UNIT-1",
		Coalition:   unit.CoalitionBlufor,
		UnitType:    unit.Type{Level1: unit.Level1Air},
		MissionDate: "2024-03-08",
	})

	require.Len(t, bus.calls, 1)
	assert.Equal(t, assembly.UnitsTopic, bus.calls[0].topic)
	assert.Contains(t, bus.calls[0].body, `uid="UNIT-1"`)
}

func TestPipelineDropsMalformedDateS3(t *testing.T) {
	bus := &fakeBus{}
	cfg := config.UserConfig{CoalitionFlag: config.CoalitionFlagRedfor, UnitTypeFlag: config.UnitTypeFlagAir}
	m := metrics.New(prometheus.NewRegistry())
	p := assembly.New(cfg, bus, zerolog.Nop(), m)

	p.Handle(unit.Record{
		UnitName:    "J-01334",
		Coalition:   unit.CoalitionRedfor,
		UnitType:    unit.Type{Level1: unit.Level1Air},
		MissionDate: "2023-13-08",
	})

	assert.Empty(t, bus.calls, "hub must not be called when mission time cannot be derived")
}
