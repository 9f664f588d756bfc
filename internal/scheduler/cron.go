package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// cronParser — парсер cron-выражений (5 полей, без секунд).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Schedule — распарсенное расписание с часовым поясом.
type Schedule struct {
	expr     string
	schedule cron.Schedule
	loc      *time.Location
}

// ParseSchedule парсит cron-выражение и часовой пояс.
// Невалидный часовой пояс — ошибка (в отличие от тихого fallback на UTC).
func ParseSchedule(cronExpr, timezone string) (*Schedule, error) {
	sched, err := cronParser.Parse(cronExpr)
	if err != nil {
		return nil, fmt.Errorf("parse cron expression %q: %w", cronExpr, err)
	}

	loc := time.UTC
	if timezone != "" {
		loc, err = time.LoadLocation(timezone)
		if err != nil {
			return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
		}
	}

	return &Schedule{expr: cronExpr, schedule: sched, loc: loc}, nil
}

// Next возвращает следующее время запуска после from (в UTC).
func (s *Schedule) Next(from time.Time) time.Time {
	return s.schedule.Next(from.In(s.loc)).UTC()
}

// String возвращает исходное выражение.
func (s *Schedule) String() string {
	return s.expr
}

// ValidateCronExpr проверяет валидность cron-выражения.
func ValidateCronExpr(cronExpr string) error {
	if _, err := cronParser.Parse(cronExpr); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", cronExpr, err)
	}
	return nil
}
