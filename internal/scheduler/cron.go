package scheduler

import (
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/shaiso/Langweave/internal/domain"
)

// cronParser понимает стандартные пять полей и дескрипторы (@hourly, @every 5m).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Ошибки валидации расписания.
var (
	// ErrInvalidSchedule — у расписания нет ни cron_expr, ни interval_sec.
	ErrInvalidSchedule = errors.New("schedule has neither cron_expr nor interval_sec")

	// ErrAmbiguousSchedule — заданы одновременно cron_expr и interval_sec.
	ErrAmbiguousSchedule = errors.New("cron_expr and interval_sec are mutually exclusive")
)

// CalculateNextDue вычисляет следующее время запуска после from.
// Cron вычисляется в timezone расписания; результат всегда в UTC.
func CalculateNextDue(sched *domain.Schedule, from time.Time) (time.Time, error) {
	loc, err := time.LoadLocation(sched.Timezone)
	if err != nil {
		loc = time.UTC
	}
	from = from.In(loc)

	switch {
	case sched.IsCron():
		schedule, err := cronParser.Parse(sched.CronExpr)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse cron expression %q: %w", sched.CronExpr, err)
		}
		return schedule.Next(from).UTC(), nil

	case sched.IsInterval():
		return from.Add(time.Duration(sched.IntervalSec) * time.Second).UTC(), nil
	}

	return time.Time{}, ErrInvalidSchedule
}

// Validate проверяет расписание перед сохранением:
// ровно один из cron и положительного интервала, известная timezone.
func Validate(sched *domain.Schedule) error {
	if sched.CronExpr != "" && sched.IntervalSec != 0 {
		return ErrAmbiguousSchedule
	}
	if sched.CronExpr != "" {
		if _, err := cronParser.Parse(sched.CronExpr); err != nil {
			return fmt.Errorf("invalid cron expression %q: %w", sched.CronExpr, err)
		}
	} else if sched.IntervalSec <= 0 {
		return ErrInvalidSchedule
	}

	if sched.Timezone != "" {
		if _, err := time.LoadLocation(sched.Timezone); err != nil {
			return fmt.Errorf("invalid timezone %q: %w", sched.Timezone, err)
		}
	}
	return nil
}

// CalculateInitialNextDue вычисляет первое время запуска для нового schedule.
func CalculateInitialNextDue(sched *domain.Schedule) (time.Time, error) {
	return CalculateNextDue(sched, time.Now())
}
