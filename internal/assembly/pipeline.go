// Package assembly wires the datagram listener's handler to the
// filter -> render -> broadcast chain. It is the only package that
// imports unit, filter, cot, and hub together; every other package is
// independently testable without it.
package assembly

import (
	"errors"

	"github.com/rs/zerolog"

	"github.com/daxtonb/jtac-bridge/internal/config"
	"github.com/daxtonb/jtac-bridge/internal/cot"
	"github.com/daxtonb/jtac-bridge/internal/filter"
	"github.com/daxtonb/jtac-bridge/internal/hub"
	"github.com/daxtonb/jtac-bridge/internal/metrics"
	"github.com/daxtonb/jtac-bridge/internal/unit"
)

// UnitsTopic is the topic the reference pipeline broadcasts rendered
// events on.
const UnitsTopic = "UNITS"

// Broadcaster is the subset of *hub.Hub the pipeline depends on.
type Broadcaster interface {
	Broadcast(topic, body string)
}

// Pipeline turns decoded unit records into broadcasts on UnitsTopic,
// dropping anything the filter rejects or the renderer cannot produce.
type Pipeline struct {
	cfg     config.UserConfig
	bus     Broadcaster
	logger  zerolog.Logger
	metrics *metrics.Metrics
}

// New constructs a Pipeline bound to cfg and bus.
func New(cfg config.UserConfig, bus Broadcaster, logger zerolog.Logger, m *metrics.Metrics) *Pipeline {
	return &Pipeline{cfg: cfg, bus: bus, logger: logger, metrics: m}
}

// Handle is the datagram listener's Handler: filter, render, broadcast.
func (p *Pipeline) Handle(r unit.Record) {
	if p.metrics != nil {
		p.metrics.DatagramsDecoded.Inc()
	}

	if !filter.IsUnitConfigured(p.cfg, r) {
		if p.metrics != nil {
			p.metrics.RecordsFiltered.Inc()
		}
		return
	}

	xml, err := cot.Render(r)
	if err != nil {
		var timeErr *cot.TimeError
		if errors.As(err, &timeErr) {
			p.logger.Warn().Err(err).Str("unit_name", r.UnitName).Msg("record dropped: invalid mission time")
		} else {
			p.logger.Warn().Err(err).Str("unit_name", r.UnitName).Msg("record dropped: render failure")
		}
		if p.metrics != nil {
			p.metrics.RenderErrors.Inc()
		}
		return
	}

	if p.metrics != nil {
		p.metrics.RecordsRendered.Inc()
	}
	p.bus.Broadcast(UnitsTopic, xml)
}

var _ Broadcaster = (*hub.Hub)(nil)
