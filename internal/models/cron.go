package models

import "strconv"

type Schedule string

const (
	ScheduleMinute Schedule = "minute"
	ScheduleHour   Schedule = "hour"
	ScheduleDay    Schedule = "day"
	ScheduleWeek   Schedule = "week"
	ScheduleMonth  Schedule = "month"
	ScheduleYear   Schedule = "year"
)

// Schedules lists every period a cron can run at.
var Schedules = []Schedule{
	ScheduleMinute,
	ScheduleHour,
	ScheduleDay,
	ScheduleWeek,
	ScheduleMonth,
	ScheduleYear,
}

func (s Schedule) Valid() bool {
	for _, known := range Schedules {
		if s == known {
			return true
		}
	}
	return false
}

// Spec returns the robfig/cron expression matching the period.
func (s Schedule) Spec() string {
	switch s {
	case ScheduleMinute:
		return "* * * * *"
	case ScheduleHour:
		return "@hourly"
	case ScheduleDay:
		return "@daily"
	case ScheduleWeek:
		return "@weekly"
	case ScheduleMonth:
		return "@monthly"
	case ScheduleYear:
		return "@yearly"
	default:
		return ""
	}
}

type CronCreate struct {
	ConnectionId int64    `json:"ConnectionId" binding:"required"`
	Name         string   `json:"Name" binding:"required"`
	Command      string   `json:"Command" binding:"required"`
	Schedule     Schedule `json:"Schedule" binding:"required"`
}

// CronUpdate is the editable part of a cron. The connection cannot change.
type CronUpdate struct {
	ConnectionId int64    `json:"ConnectionId"`
	Name         string   `json:"Name" binding:"required"`
	Command      string   `json:"Command" binding:"required"`
	Schedule     Schedule `json:"Schedule" binding:"required"`
}

func (u CronUpdate) CronCreate() CronCreate {
	return CronCreate{
		ConnectionId: u.ConnectionId,
		Name:         u.Name,
		Command:      u.Command,
		Schedule:     u.Schedule,
	}
}

// Cron is a named query run against a connection on a fixed period.
type Cron struct {
	CronId       int64     `json:"CronId"`
	ConnectionId int64     `json:"ConnectionId"`
	Name         string    `json:"Name"`
	Command      string    `json:"Command"`
	Schedule     Schedule  `json:"Schedule"`
	CreatedAt    EpochTime `json:"CreatedAt"`
	DeletedAt    EpochTime `json:"DeletedAt"`
	LastRunAt    EpochTime `json:"LastRunAt"`
}

// Column types a cron output can take.
const (
	OutputText    = "TEXT"
	OutputInteger = "INTEGER"
	OutputReal    = "REAL"
)

// CronOutput is one column produced by a cron's command.
type CronOutput struct {
	CronId int64  `json:"CronId"`
	Name   string `json:"Name"`
	Type   string `json:"Type"`
}

// TableName is the name of the table holding the cron's collected rows.
func (c Cron) TableName() string {
	return CronTableName(c.CronId)
}

func CronTableName(cronId int64) string {
	return "cron_" + strconv.FormatInt(cronId, 10)
}
