// Package scheduler запускает flows по расписанию.
//
// На каждом тике Scheduler находит расписания с истекшим next_due_at,
// создаёт для них pending executions и публикует execution.pending;
// дальше execution выполняет worker.
//
// Расписание задаётся cron-выражением (в timezone расписания) или
// интервалом в секундах. Расписание, для которого нельзя вычислить
// следующее время или чей flow удалён, выключается.
//
// Использование:
//
//	sched := scheduler.New(scheduler.Config{
//	    Schedules:  scheduleRepo,
//	    Flows:      flowRepo,
//	    Executions: executionRepo,
//	    Publisher:  publisher,
//	    Logger:     logger,
//	})
//	err := sched.Run(ctx, scheduler.IntervalFromEnv(), repo.NewAdvisoryLock(pool, lockKey))
//
// Несколько экземпляров могут работать одновременно: тики выполняет
// только держатель advisory lock в PostgreSQL.
package scheduler
