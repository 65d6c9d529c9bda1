// Package repo содержит репозитории PostgreSQL на pgx.
//
// Репозитории:
//   - FlowRepo — flows (определение графа в jsonb, версия растёт при каждом Update)
//   - ExecutionRepo — executions и их результаты
//   - VariableRepo — переменные пользователя, секреты шифруются через secrets.Cipher
//   - ScheduleRepo — расписания запусков
//
// Отсутствующая запись возвращается как ErrNotFound.
// Схема БД — migrations/0001_init.sql.
package repo
