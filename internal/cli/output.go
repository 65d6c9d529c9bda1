package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/shaiso/Langweave/internal/flow"
)

// Output управляет форматированием вывода CLI.
type Output struct {
	jsonMode bool
	w        io.Writer // stdout для данных
	errW     io.Writer // stderr для сообщений

	// midLine — последний вывод был токеном без перевода строки.
	midLine bool
}

// NewOutput создаёт Output. Если jsonMode=true, данные выводятся в JSON.
func NewOutput(jsonMode bool) *Output {
	return &Output{
		jsonMode: jsonMode,
		w:        os.Stdout,
		errW:     os.Stderr,
	}
}

// Print выводит данные: таблицу или JSON в зависимости от режима.
func (o *Output) Print(headers []string, rows [][]string, jsonData any) {
	if o.jsonMode {
		o.JSON(jsonData)
		return
	}
	o.Table(headers, rows)
}

// Table выводит данные в виде таблицы через tabwriter.
func (o *Output) Table(headers []string, rows [][]string) {
	tw := tabwriter.NewWriter(o.w, 0, 0, 2, ' ', 0)

	fmt.Fprintln(tw, strings.Join(headers, "\t"))

	dashes := make([]string, len(headers))
	for i, h := range headers {
		dashes[i] = strings.Repeat("-", len(h))
	}
	fmt.Fprintln(tw, strings.Join(dashes, "\t"))

	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}

	tw.Flush()
}

// JSON выводит данные в формате JSON с отступами.
func (o *Output) JSON(v any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}

// Results выводит выходы узлов: по строке на каждый выход, узлы по алфавиту.
func (o *Output) Results(results map[string]map[string]any) {
	if o.jsonMode {
		o.JSON(results)
		return
	}

	var rows [][]string
	for _, nodeID := range slices.Sorted(maps.Keys(results)) {
		outputs := results[nodeID]
		for _, name := range slices.Sorted(maps.Keys(outputs)) {
			rows = append(rows, []string{nodeID, name, formatValue(outputs[name])})
		}
	}
	o.Table([]string{"NODE", "OUTPUT", "VALUE"}, rows)
}

// Event выводит событие streaming выполнения.
//
// В JSON режиме — одна запись на строку. Иначе токены печатаются в stdout
// подряд, а завершение узлов и ошибки — в stderr.
func (o *Output) Event(e flow.Event) {
	if o.jsonMode {
		json.NewEncoder(o.w).Encode(e)
		return
	}

	switch e.Type {
	case flow.EventToken:
		fmt.Fprint(o.w, e.Data)
		o.midLine = true
	case flow.EventNodeComplete:
		o.endLine()
		fmt.Fprintf(o.errW, "✓ %s\n", e.NodeID)
	case flow.EventFlowComplete:
		o.endLine()
		if results, ok := e.Data.(map[string]map[string]any); ok {
			o.Results(results)
		}
	case flow.EventError:
		o.endLine()
		o.Error(e.Error)
	}
}

// Success выводит сообщение об успехе в stderr.
func (o *Output) Success(msg string) {
	fmt.Fprintln(o.errW, msg)
}

// Error выводит сообщение об ошибке в stderr.
func (o *Output) Error(msg string) {
	fmt.Fprintln(o.errW, "Error: "+msg)
}

func (o *Output) endLine() {
	if o.midLine {
		fmt.Fprintln(o.w)
		o.midLine = false
	}
}

// formatValue приводит значение выхода к одной строке для таблицы.
func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.ReplaceAll(val, "\n", `\n`)
	case fmt.Stringer:
		return val.String()
	}
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
