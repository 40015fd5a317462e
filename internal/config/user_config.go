package config

import "github.com/daxtonb/jtac-bridge/internal/unit"

// Coalition bitmask values, one-hot against unit.Coalition.
const (
	CoalitionFlagNeutral uint8 = 1 << iota
	CoalitionFlagRedfor
	CoalitionFlagBlufor
)

// Unit-type bitmask values, one-hot against unit.Level1.
const (
	UnitTypeFlagGround uint8 = 1 << iota
	UnitTypeFlagAir
	UnitTypeFlagSea
)

// UserConfig is the filter predicate supplied by an external reader. The
// core never reads or writes it from disk; it only evaluates it.
type UserConfig struct {
	CoalitionFlag         uint8 `json:"coalition_flag"`
	UnitTypeFlag          uint8 `json:"unit_type_flag"`
	ExportFrequencyFrames int32 `json:"export_frequency_frames"`
}

// CoalitionBit returns the one-hot bit for a coalition value.
func CoalitionBit(c unit.Coalition) uint8 {
	switch c {
	case unit.CoalitionNeutral:
		return CoalitionFlagNeutral
	case unit.CoalitionRedfor:
		return CoalitionFlagRedfor
	case unit.CoalitionBlufor:
		return CoalitionFlagBlufor
	default:
		return 0
	}
}

// UnitTypeBit returns the one-hot bit for a level-1 unit type.
func UnitTypeBit(l unit.Level1) uint8 {
	switch l {
	case unit.Level1Ground:
		return UnitTypeFlagGround
	case unit.Level1Air:
		return UnitTypeFlagAir
	case unit.Level1Sea:
		return UnitTypeFlagSea
	default:
		return 0
	}
}
