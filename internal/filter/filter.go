// Package filter evaluates a UserConfig predicate against decoded records.
package filter

import (
	"github.com/daxtonb/jtac-bridge/internal/config"
	"github.com/daxtonb/jtac-bridge/internal/unit"
)

// IsUnitConfigured returns true iff both the record's coalition and its
// level-1 unit type have their corresponding bit set in cfg.
func IsUnitConfigured(cfg config.UserConfig, r unit.Record) bool {
	coalitionBit := config.CoalitionBit(r.Coalition)
	unitTypeBit := config.UnitTypeBit(r.UnitType.Level1)

	return coalitionBit != 0 && cfg.CoalitionFlag&coalitionBit != 0 &&
		unitTypeBit != 0 && cfg.UnitTypeFlag&unitTypeBit != 0
}
