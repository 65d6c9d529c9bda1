// Package flow реализует выполнение flow.
//
// Executor строит граф из определения, проверяет узлы по схемам
// компонентов, вычисляет топологический порядок и выполняет узлы
// последовательно. Выходы узла передаются по рёбрам во входы
// следующих узлов.
//
// Два режима:
//   - Execute — выполняет flow целиком и возвращает результаты
//   - ExecuteStream — отдаёт события (token, node_complete, flow_complete, error)
//     по мере выполнения
//
// Пример:
//
//	env, err := flow.BuildContext(ctx, flow.Base{UserID: userID, FlowID: f.ID}, variables, overrides)
//	exec := flow.New(f.Data, flow.Config{Registry: registry, Context: env})
//	results, err := exec.Execute(ctx)
//
// Узлы никогда не выполняются параллельно, даже если между ними нет пути.
package flow
