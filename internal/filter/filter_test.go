package filter_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/daxtonb/jtac-bridge/internal/config"
	"github.com/daxtonb/jtac-bridge/internal/filter"
	"github.com/daxtonb/jtac-bridge/internal/unit"
)

func TestIsUnitConfigured(t *testing.T) {
	cases := []struct {
		name string
		cfg  config.UserConfig
		rec  unit.Record
		want bool
	}{
		{
			name: "both bits set",
			cfg:  config.UserConfig{CoalitionFlag: config.CoalitionFlagBlufor, UnitTypeFlag: config.UnitTypeFlagAir},
			rec:  unit.Record{Coalition: unit.CoalitionBlufor, UnitType: unit.Type{Level1: unit.Level1Air}},
			want: true,
		},
		{
			name: "coalition bit missing",
			cfg:  config.UserConfig{CoalitionFlag: config.CoalitionFlagRedfor, UnitTypeFlag: config.UnitTypeFlagAir},
			rec:  unit.Record{Coalition: unit.CoalitionBlufor, UnitType: unit.Type{Level1: unit.Level1Air}},
			want: false,
		},
		{
			name: "unit type bit missing",
			cfg:  config.UserConfig{CoalitionFlag: config.CoalitionFlagBlufor, UnitTypeFlag: config.UnitTypeFlagGround},
			rec:  unit.Record{Coalition: unit.CoalitionBlufor, UnitType: unit.Type{Level1: unit.Level1Air}},
			want: false,
		},
		{
			name: "all flags set",
			cfg:  config.UserConfig{CoalitionFlag: config.CoalitionFlagNeutral | config.CoalitionFlagRedfor | config.CoalitionFlagBlufor, UnitTypeFlag: config.UnitTypeFlagGround | config.UnitTypeFlagAir | config.UnitTypeFlagSea},
			rec:  unit.Record{Coalition: unit.CoalitionNeutral, UnitType: unit.Type{Level1: unit.Level1Sea}},
			want: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, filter.IsUnitConfigured(tc.cfg, tc.rec))
		})
	}
}
