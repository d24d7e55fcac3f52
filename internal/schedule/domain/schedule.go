package domain

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// RecurrenceType represents how often a schedule runs
type RecurrenceType string

const (
	RecurrenceDaily   RecurrenceType = "daily"
	RecurrenceWeekly  RecurrenceType = "weekly"
	RecurrenceMonthly RecurrenceType = "monthly"
)

// Recurrence describes the calendar days a schedule is due on.
// Weekdays use time.Weekday numbering (0 = Sunday).
type Recurrence struct {
	Type       RecurrenceType `json:"type"`
	Weekdays   []int          `json:"weekdays,omitempty"`
	DayOfMonth int            `json:"day_of_month,omitempty"`
	// TimeOfDay is shown to the owner but not used by the pipeline,
	// which runs at most once per calendar day.
	TimeOfDay string `json:"time_of_day,omitempty"`
}

// SummaryStyle represents the tone of the generated digest
type SummaryStyle string

const (
	StyleExecutive SummaryStyle = "executive"
	StyleDetailed  SummaryStyle = "detailed"
	StyleBullet    SummaryStyle = "bullet"
)

// SummaryLength represents the target size of the digest
type SummaryLength string

const (
	LengthShort  SummaryLength = "short"
	LengthMedium SummaryLength = "medium"
	LengthLong   SummaryLength = "long"
)

// DefaultContentWindowDays is used when a schedule does not set a window.
const DefaultContentWindowDays = 14

// SummaryConfig controls what the AI is asked to produce.
type SummaryConfig struct {
	Style              SummaryStyle  `json:"style"`
	Length             SummaryLength `json:"length"`
	FocusTags          []string      `json:"focus_tags,omitempty"`
	ContentWindowDays  int           `json:"content_window_days,omitempty"`
	IncludeActionItems bool          `json:"include_action_items"`
	IncludePriority    bool          `json:"include_priority"`
}

// WindowDays returns the configured window or the default.
func (c SummaryConfig) WindowDays() int {
	if c.ContentWindowDays <= 0 {
		return DefaultContentWindowDays
	}
	return c.ContentWindowDays
}

// ChannelTelegram is the only channel the pipeline delivers to.
const ChannelTelegram = "telegram"

// ChannelConfig is the per-channel delivery setting.
type ChannelConfig struct {
	Enabled bool   `json:"enabled"`
	Address string `json:"address"`
}

// Schedule is a user-configured recurring digest job. It is owned and edited
// by the owner through the UI; the pipeline only reads it.
type Schedule struct {
	ID         string         `json:"id" gorm:"primaryKey"`
	UserID     string         `json:"user_id" gorm:"index;not null"`
	Name       string         `json:"name"`
	Enabled    bool           `json:"enabled" gorm:"index"`
	Recurrence datatypes.JSON `json:"recurrence"`
	Summary    datatypes.JSON `json:"summary_config"`
	Delivery   datatypes.JSON `json:"delivery_config"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// TableName specifies the table name for GORM
func (Schedule) TableName() string {
	return "schedules"
}

// ParseRecurrence decodes the recurrence column.
func (s *Schedule) ParseRecurrence() (Recurrence, error) {
	var r Recurrence
	err := json.Unmarshal(s.Recurrence, &r)
	return r, err
}

// ParseSummaryConfig decodes the summary column. An empty column yields the
// zero config, which the engine treats as defaults.
func (s *Schedule) ParseSummaryConfig() (SummaryConfig, error) {
	var c SummaryConfig
	if len(s.Summary) == 0 {
		return c, nil
	}
	err := json.Unmarshal(s.Summary, &c)
	return c, err
}

// ParseDeliveryConfig decodes the delivery column.
func (s *Schedule) ParseDeliveryConfig() (map[string]ChannelConfig, error) {
	channels := map[string]ChannelConfig{}
	if len(s.Delivery) == 0 {
		return channels, nil
	}
	err := json.Unmarshal(s.Delivery, &channels)
	return channels, err
}

// MustJSON marshals v for the JSON columns; for fixtures and seeding.
func MustJSON(v interface{}) datatypes.JSON {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return datatypes.JSON(data)
}
