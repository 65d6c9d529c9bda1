// Package engine содержит модель графа flow и алгоритмы над ним.
//
// Включает:
//   - graph.go    — Graph: узлы и рёбра в порядке добавления, сериализация
//   - parser.go   — разбор и структурная валидация определения flow
//   - dag.go      — детерминированная топологическая сортировка (Кан)
//   - resolve.go  — сборка входов узла из выходов предшественников
//   - template.go — рендеринг Go templates для компонентов
//
// Engine не знает о компонентах: он отвечает за структуру flow
// и порядок выполнения узлов. Выполнением занимается пакет flow.
package engine
