// Package components содержит контракт компонентов flow и встроенные компоненты.
//
// Компонент — реализация типа узла. Каждый тип объявляет схему
// (входные и выходные порты) и проходит жизненный цикл:
//
//	SetInput → SetContext → ValidateInputs → Build → Run (или Stream)
//
// Встроенные компоненты:
//   - Inputs/Outputs: text_input, chat_input, text_output
//   - Prompts: prompt_template
//   - Logic: conditional, loop, delay
//   - Processing: text_splitter, transform
//   - Data: json_loader, csv_loader
//   - Language Models: openai_llm, anthropic_llm, completion_llm
//   - Tools: http_request, web_search
//
// Registry связывает имя типа с фабрикой и передаётся executor'у явно.
package components
