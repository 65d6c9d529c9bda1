// Package cli реализует инструмент командной строки langweave.
//
// # Обзор
//
// CLI работает в двух режимах:
//   - локально: run, validate и components выполняют и проверяют flow
//     из JSON файла в текущем процессе, без API и БД;
//   - удалённо: flow, execution и schedule обращаются к Langweave API
//     по HTTP и не импортируют internal/api.
//
// # Ключевые компоненты
//
// ## Client
//
// HTTP-клиент для API. Инкапсулирует запросы, заголовок X-User-ID,
// разбор конвертов {data} / {error} и превращает ошибки API в *APIError.
//
//	client := cli.NewClient("http://localhost:8080", userID)
//	flows, err := client.ListFlows(0)
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON — с флагом --json
//
// Данные выводятся в stdout, сообщения (Success/Error) — в stderr.
// При --stream токены LLM печатаются в stdout по мере генерации:
//
//	langweave run chat.json --stream --context topic=go
//	langweave flow list --json | jq .
//
// ## Commands
//
// Каждая группа создаётся фабричной функцией (NewFlowCmd и т.д.),
// принимающей clientFn/depsFn и outputFn — замыкания для ленивого
// создания зависимостей после парсинга PersistentFlags.
package cli
