package schedule

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/shaiso/Nodeflow/internal/domain"
)

// cronParser — парсер cron-выражений (стандартные 5 полей).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// Validate проверяет корректность расписания.
func Validate(sched *domain.Schedule) error {
	if sched == nil {
		return nil
	}

	switch {
	case sched.IsInterval():
		if sched.IntervalSeconds <= 0 {
			return fmt.Errorf("interval schedule requires positive interval_seconds, got %d", sched.IntervalSeconds)
		}
	case sched.IsCron():
		if err := ValidateCronExpr(sched.CronExpr); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown schedule type %q", sched.Type)
	}

	if sched.Timezone != "" {
		if _, err := time.LoadLocation(sched.Timezone); err != nil {
			return fmt.Errorf("invalid timezone %q: %w", sched.Timezone, err)
		}
	}
	return nil
}

// ValidateCronExpr проверяет валидность cron-выражения.
func ValidateCronExpr(cronExpr string) error {
	if _, err := cronParser.Parse(cronExpr); err != nil {
		return fmt.Errorf("invalid cron expression %q: %w", cronExpr, err)
	}
	return nil
}

// NextDue вычисляет следующее время запуска после from.
// Для интервалов просто добавляет IntervalSeconds.
// Учитывает timezone расписания; результат всегда в UTC.
func NextDue(sched *domain.Schedule, from time.Time) (time.Time, error) {
	loc, err := time.LoadLocation(sched.Timezone)
	if err != nil {
		// Fallback на UTC если timezone невалидный
		loc = time.UTC
	}

	fromInTz := from.In(loc)

	if sched.IsCron() {
		return nextCron(sched.CronExpr, fromInTz)
	}

	if sched.IsInterval() {
		return fromInTz.Add(time.Duration(sched.IntervalSeconds) * time.Second).UTC(), nil
	}

	return time.Time{}, fmt.Errorf("schedule has neither interval nor cron expression")
}

// nextCron вычисляет следующее время по cron-выражению.
func nextCron(cronExpr string, from time.Time) (time.Time, error) {
	spec, err := cronParser.Parse(cronExpr)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse cron expression %q: %w", cronExpr, err)
	}
	return spec.Next(from).UTC(), nil
}
