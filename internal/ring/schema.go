package ring

import (
	"fmt"
	"sort"
	"strings"
)

// DataType names an Oura usercollection endpoint.
type DataType string

const (
	DataSleep          DataType = "sleep"
	DataDailySleep     DataType = "daily_sleep"
	DataDailyActivity  DataType = "daily_activity"
	DataDailyReadiness DataType = "daily_readiness"
	DataDailySpO2      DataType = "daily_spo2"
	DataDailyStress    DataType = "daily_stress"
	DataHeartRate      DataType = "heartrate"
)

// Column describes one canonical column. Aliases are alternative source field
// names (after flattening) that feed the same column.
type Column struct {
	Name    string
	Kind    Kind
	Aliases []string
}

// Schema is the fixed column layout a data type normalizes to.
type Schema struct {
	DataType   DataType
	DateColumn string
	// Instant is true when the date column holds timestamps rather than calendar days.
	Instant bool
	Columns []Column
}

func (s *Schema) dateColumn() Column {
	if s.Instant {
		return Column{Name: s.DateColumn, Kind: KindTime}
	}
	return Column{Name: s.DateColumn, Kind: KindText}
}

// Names returns the CSV header in canonical order.
func (s *Schema) Names() []string {
	names := make([]string, 0, len(s.Columns)+1)
	names = append(names, s.DateColumn)
	for _, c := range s.Columns {
		names = append(names, c.Name)
	}
	return names
}

func num(name string, aliases ...string) Column {
	return Column{Name: name, Kind: KindNumber, Aliases: aliases}
}

func text(name string) Column { return Column{Name: name, Kind: KindText} }

func instant(name string) Column { return Column{Name: name, Kind: KindTime} }

var schemas = map[DataType]*Schema{
	DataDailySleep: {
		DataType:   DataDailySleep,
		DateColumn: "day",
		Columns: []Column{
			num("score"),
			num("contributors_deep_sleep"),
			num("contributors_efficiency"),
			num("contributors_latency"),
			num("contributors_rem_sleep"),
			num("contributors_restfulness"),
			num("contributors_timing"),
			num("contributors_total_sleep"),
			instant("timestamp"),
		},
	},
	DataDailyActivity: {
		DataType:   DataDailyActivity,
		DateColumn: "day",
		Columns: []Column{
			num("score"),
			num("active_calories"),
			num("total_calories"),
			num("target_calories"),
			num("steps"),
			num("equivalent_walking_distance"),
			num("target_meters"),
			num("meters_to_target"),
			num("high_activity_time"),
			num("medium_activity_time"),
			num("low_activity_time"),
			num("sedentary_time"),
			num("resting_time"),
			num("non_wear_time"),
			num("inactivity_alerts"),
			num("average_met_minutes"),
			num("contributors_meet_daily_targets"),
			num("contributors_move_every_hour"),
			num("contributors_recovery_time"),
			num("contributors_stay_active"),
			num("contributors_training_frequency"),
			num("contributors_training_volume"),
			text("class_5_min"),
			instant("timestamp"),
		},
	},
	DataDailyReadiness: {
		DataType:   DataDailyReadiness,
		DateColumn: "day",
		Columns: []Column{
			num("score"),
			num("temperature_deviation"),
			num("temperature_trend_deviation"),
			num("contributors_activity_balance"),
			num("contributors_body_temperature"),
			num("contributors_hrv_balance"),
			num("contributors_previous_day_activity"),
			num("contributors_previous_night"),
			num("contributors_recovery_index"),
			num("contributors_resting_heart_rate"),
			num("contributors_sleep_balance"),
			instant("timestamp"),
		},
	},
	DataDailySpO2: {
		DataType:   DataDailySpO2,
		DateColumn: "day",
		Columns: []Column{
			num("spo2_percentage", "spo2_percentage_average"),
			num("breathing_disturbance_index"),
		},
	},
	DataDailyStress: {
		DataType:   DataDailyStress,
		DateColumn: "day",
		Columns: []Column{
			num("stress_high"),
			num("recovery_high"),
			text("day_summary"),
		},
	},
	DataSleep: {
		DataType:   DataSleep,
		DateColumn: "day",
		Columns: []Column{
			text("type"),
			instant("bedtime_start"),
			instant("bedtime_end"),
			num("total_sleep_duration"),
			num("deep_sleep_duration"),
			num("light_sleep_duration"),
			num("rem_sleep_duration"),
			num("awake_time"),
			num("time_in_bed"),
			num("efficiency"),
			num("latency"),
			num("average_heart_rate"),
			num("lowest_heart_rate"),
			num("average_hrv"),
			num("average_breath"),
			text("sleep_phase_5_min"),
			text("movement_30_sec"),
		},
	},
	DataHeartRate: {
		DataType:   DataHeartRate,
		DateColumn: "timestamp",
		Instant:    true,
		Columns: []Column{
			num("bpm"),
			text("source"),
		},
	},
}

var dataTypeAliases = map[string]DataType{
	"heart_rate": DataHeartRate,
	"spo2":       DataDailySpO2,
}

// LookupSchema resolves a data type name, including export-file spellings such as
// "daily-sleep" or "heart_rate", to its schema.
func LookupSchema(name string) (*Schema, error) {
	key := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_")
	if dt, ok := dataTypeAliases[key]; ok {
		key = string(dt)
	}
	s, ok := schemas[DataType(key)]
	if !ok {
		return nil, fmt.Errorf("%w: no mapping for data type %q", ErrSchemaMismatch, name)
	}
	return s, nil
}

// DataTypes returns every registered data type in lexical order.
func DataTypes() []DataType {
	out := make([]DataType, 0, len(schemas))
	for dt := range schemas {
		out = append(out, dt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
