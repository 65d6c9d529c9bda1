// Package api содержит HTTP API сервер.
//
// Структура:
//   - handler.go           — Handler с DI (хранилища, publisher, registry, logger)
//   - routes.go            — регистрация маршрутов
//   - middleware.go        — middleware (recovery, logging, metrics, X-User-ID)
//   - response.go          — JSON-конверты и отображение ошибок на статусы
//   - dto.go               — Data Transfer Objects (request/response)
//   - component_handler.go — каталог компонентов
//   - flow_handler.go      — CRUD для /flows
//   - execution_handler.go — синхронное и асинхронное выполнение, /executions
//   - stream_handler.go    — websocket: streaming выполнение и события из RabbitMQ
//   - variable_handler.go  — переменные и секреты
//   - schedule_handler.go  — расписания
//
// Все маршруты, кроме каталога компонентов, требуют X-User-ID:
// пользователь видит только свои flows, executions, переменные и расписания.
package api
