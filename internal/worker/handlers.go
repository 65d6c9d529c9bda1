package worker

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/shaiso/Langweave/internal/domain"
	"github.com/shaiso/Langweave/internal/flow"
	"github.com/shaiso/Langweave/internal/mq"
	"github.com/shaiso/Langweave/internal/repo"
)

// handleExecutionPending обрабатывает сообщение из executions.pending.
func (w *Worker) handleExecutionPending(ctx context.Context, delivery *mq.Delivery) error {
	payload, err := mq.ParsePayload[mq.ExecutionPendingPayload](&delivery.Message)
	if err != nil {
		return fmt.Errorf("%w: parse execution.pending: %v", mq.ErrPermanent, err)
	}

	err = w.processExecution(ctx, payload.ExecutionID)
	// Ожидаемые ситуации — ack
	if errors.Is(err, ErrExecutionNotFound) || errors.Is(err, ErrExecutionNotPending) {
		w.logger.Debug("execution not processed", "execution_id", payload.ExecutionID, "reason", err)
		return nil
	}
	return err
}

// processExecution выполняет один pending execution до финального статуса.
//
// Ошибки самого flow не возвращаются: они сохраняются в execution.
// Ошибка возвращается, только если execution не удалось взять или сохранить.
func (w *Worker) processExecution(ctx context.Context, id uuid.UUID) error {
	exec, err := w.executions.Claim(ctx, id)
	switch {
	case errors.Is(err, repo.ErrNotFound):
		return fmt.Errorf("%w: %s", ErrExecutionNotFound, id)
	case errors.Is(err, repo.ErrInvalidState):
		return fmt.Errorf("%w: %s", ErrExecutionNotPending, id)
	case err != nil:
		return fmt.Errorf("claim execution: %w", err)
	}

	logger := w.logger.With("execution_id", exec.ID, "flow_id", exec.FlowID)
	logger.Info("execution claimed")

	if err := w.run(ctx, exec); err != nil {
		exec.MarkFailed(err.Error())
	}

	// Результат сохраняем и при остановке worker'а
	if err := w.executions.Update(context.WithoutCancel(ctx), exec); err != nil {
		return fmt.Errorf("save execution: %w", err)
	}

	logger.Info("execution finished", "status", exec.Status, "duration", exec.Duration())
	return nil
}

// run загружает flow, собирает контекст и выполняет его, обновляя exec.
// Возвращает ошибку подготовки; ошибки выполнения записываются в exec.
func (w *Worker) run(ctx context.Context, exec *domain.Execution) error {
	fl, err := w.flows.GetByID(ctx, exec.FlowID)
	if err != nil {
		return fmt.Errorf("load flow: %w", err)
	}

	env, err := flow.BuildContext(ctx, flow.Base{
		UserID:    exec.UserID,
		FlowID:    fl.ID,
		ProjectID: fl.ProjectID,
	}, w.variables, exec.Context)
	if err != nil {
		return fmt.Errorf("build context: %w", err)
	}

	executor := flow.New(fl.Data, flow.Config{
		Registry:    w.registry,
		Context:     env,
		ExecutionID: exec.ID,
		FlowID:      fl.ID,
		UserID:      exec.UserID,
		Timeout:     w.timeout,
		Logger:      w.logger,
	})

	for event := range executor.ExecuteStream(ctx) {
		w.publish(ctx, exec.ID, event)
	}

	result := executor.Execution()
	exec.FlowVersion = fl.Version
	exec.Status = result.Status
	exec.Error = result.Error
	exec.Results = result.Results
	exec.FinishedAt = result.FinishedAt
	return nil
}

// publish отправляет событие подписчикам. Ошибка публикации не прерывает выполнение:
// итог всё равно окажется в БД.
func (w *Worker) publish(ctx context.Context, executionID uuid.UUID, event flow.Event) {
	if w.publisher == nil {
		return
	}

	payload := mq.ExecutionEventPayload{
		ExecutionID: executionID,
		Event:       string(event.Type),
		NodeID:      event.NodeID,
		Data:        event.Data,
		Error:       event.Error,
	}
	if err := w.publisher.PublishEvent(context.WithoutCancel(ctx), payload); err != nil {
		w.logger.Warn("failed to publish execution event",
			"execution_id", executionID,
			"event", event.Type,
			"error", err,
		)
	}
}
