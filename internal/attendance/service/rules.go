package service

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/staffdesk/staffdesk-backend/internal/attendance/domain"
	"github.com/staffdesk/staffdesk-backend/pkg/config"
)

// Rules are the business limits of the engine
type Rules struct {
	StandardDayHours    int
	MaxDailyExtraHours  decimal.Decimal
	MaxWeeklyExtraHours decimal.Decimal
	// MaxGroupDays caps group edits; 0 means unbounded
	MaxGroupDays        int
	CellDefault         domain.CellDefault
	// Location decides which civil date "today" is
	Location *time.Location
}

// DefaultRules mirrors the configuration defaults
func DefaultRules() Rules {
	return Rules{
		StandardDayHours:    8,
		MaxDailyExtraHours:  decimal.NewFromInt(4),
		MaxWeeklyExtraHours: decimal.NewFromInt(8),
		MaxGroupDays:        0,
		CellDefault:         domain.CellDefaultUnset,
		Location:            time.UTC,
	}
}

// RulesFromConfig converts the attendance configuration section
func RulesFromConfig(cfg *config.AttendanceConfig) (Rules, error) {
	loc, err := cfg.Location()
	if err != nil {
		return Rules{}, fmt.Errorf("invalid timezone %q: %w", cfg.Timezone, err)
	}

	def := domain.CellDefault(cfg.DefaultCellStatus)
	switch def {
	case "":
		def = domain.CellDefaultUnset
	case domain.CellDefaultUnset, domain.CellDefaultWorkLocation:
	default:
		return Rules{}, fmt.Errorf("unknown default_cell_status %q (expected unset or work-location)", cfg.DefaultCellStatus)
	}

	return Rules{
		StandardDayHours:    cfg.StandardDayHours,
		MaxDailyExtraHours:  decimal.NewFromFloat(cfg.MaxDailyExtraHours),
		MaxWeeklyExtraHours: decimal.NewFromFloat(cfg.MaxWeeklyExtraHours),
		MaxGroupDays:        cfg.MaxGroupDays,
		CellDefault:         def,
		Location:            loc,
	}, nil
}
