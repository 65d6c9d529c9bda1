// Package mq — транспорт Langweave поверх RabbitMQ.
//
// API создаёт выполнение и публикует execution.pending в langweave.executions;
// worker забирает его из executions.pending, выполняет flow и транслирует
// события в topic exchange langweave.events с ключом execution.<id>.<event>.
// Подписчики (websocket API) слушают события через Connection.SubscribeEvents.
//
// Connection переподключается сама; Consumer после переподключения
// заново подписывается на очередь.
package mq
