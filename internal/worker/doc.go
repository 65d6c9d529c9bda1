// Package worker выполняет flows асинхронно.
//
// API создаёт execution в статусе pending и публикует execution.pending.
// Worker забирает сообщение из очереди executions.pending (или находит
// execution при polling), атомарно переводит его в running и выполняет
// flow через flow.Executor в streaming режиме:
//
//	w := worker.New(worker.Config{
//	    Flows:      flowRepo,
//	    Executions: executionRepo,
//	    Variables:  variableRepo,
//	    Publisher:  publisher,
//	    Conn:       mqConn,
//	    Timeout:    flow.TimeoutFromEnv(),
//	    Logger:     logger,
//	})
//	w.Start(ctx)
//	defer w.Stop()
//
// Каждое событие выполнения публикуется в langweave.events, финальный
// статус и результаты сохраняются в executions. Ошибки flow не приводят
// к повторной доставке: они часть результата выполнения.
//
// Workers масштабируются горизонтально; Claim гарантирует, что execution
// выполнит только один из них.
package worker
