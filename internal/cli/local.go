package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/shaiso/Langweave/internal/components"
	"github.com/shaiso/Langweave/internal/domain"
	"github.com/shaiso/Langweave/internal/flow"
)

// fallbackKeys — переменные окружения, которые попадают в контекст
// локального запуска, если не заданы через --context.
var fallbackKeys = []string{"OPENAI_API_KEY", "ANTHROPIC_API_KEY", "CHROMA_URL"}

// LocalDeps — зависимости локальных команд.
type LocalDeps struct {
	Registry *components.Registry
	Logger   *slog.Logger
}

// NewRunLocalCmd создаёт команду локального выполнения flow из файла.
func NewRunLocalCmd(depsFn func() LocalDeps, outputFn func() *Output) *cobra.Command {
	var contextPairs []string
	var stream bool
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "run FILE",
		Short: "Execute a flow definition locally",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps := depsFn()
			out := outputFn()

			def, err := LoadDefinition(args[0])
			if err != nil {
				return err
			}

			overrides, err := ParseContext(contextPairs)
			if err != nil {
				return err
			}
			for _, key := range fallbackKeys {
				if _, ok := overrides[key]; !ok {
					if v := os.Getenv(key); v != "" {
						overrides[key] = v
					}
				}
			}

			env, err := flow.BuildContext(cmd.Context(), flow.Base{}, nil, overrides)
			if err != nil {
				return err
			}

			executor := flow.New(def, flow.Config{
				Registry: deps.Registry,
				Context:  env,
				Timeout:  timeout,
				Logger:   deps.Logger,
			})

			if stream {
				return runStream(cmd.Context(), executor, out)
			}

			results, err := executor.Execute(cmd.Context())
			if err != nil {
				return err
			}
			out.Results(results)
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&contextPairs, "context", nil, "Context values as KEY=VALUE (repeatable)")
	cmd.Flags().BoolVar(&stream, "stream", false, "Print events as nodes complete")
	cmd.Flags().DurationVar(&timeout, "timeout", flow.TimeoutFromEnv(), "Execution timeout")

	return cmd
}

func runStream(ctx context.Context, executor *flow.Executor, out *Output) error {
	for event := range executor.ExecuteStream(ctx) {
		out.Event(event)
	}
	if err := executor.Err(); err != nil {
		// ошибка уже выведена событием error
		return errAlreadyReported
	}
	return nil
}

// NewValidateCmd создаёт команду проверки flow без выполнения.
func NewValidateCmd(depsFn func() LocalDeps, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "validate FILE",
		Short: "Validate a flow definition without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps := depsFn()
			out := outputFn()

			def, err := LoadDefinition(args[0])
			if err != nil {
				return err
			}
			if err := flow.Check(def, deps.Registry); err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Flow is valid: %d nodes, %d edges", len(def.Nodes), len(def.Edges)))
			return nil
		},
	}
}

// NewComponentsCmd создаёт команду со списком доступных компонентов.
func NewComponentsCmd(depsFn func() LocalDeps, outputFn func() *Output) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "components",
		Short: "List available components",
		RunE: func(cmd *cobra.Command, args []string) error {
			deps := depsFn()
			out := outputFn()

			schemas := deps.Registry.Schemas()
			if category != "" {
				schemas = deps.Registry.ByCategory()[category]
			}

			headers := []string{"TYPE", "NAME", "CATEGORY", "INPUTS", "OUTPUTS"}
			rows := make([][]string, len(schemas))
			for i, s := range schemas {
				rows[i] = []string{s.Name, s.DisplayName, s.Category, portNames(s.Inputs), portNames(s.Outputs)}
			}

			out.Print(headers, rows, schemas)
			return nil
		},
	}

	cmd.Flags().StringVar(&category, "category", "", "Filter by category")

	return cmd
}

// --- Helpers ---

// errAlreadyReported — ошибка уже показана пользователю.
var errAlreadyReported = errors.New("execution failed")

// IsReported проверяет, была ли ошибка уже выведена командой.
func IsReported(err error) bool {
	return errors.Is(err, errAlreadyReported)
}

// LoadDefinition читает определение flow из JSON файла.
// Принимает как само определение ({"nodes", "edges"}), так и экспорт
// flow из API, где определение лежит в "data".
func LoadDefinition(path string) (domain.FlowDefinition, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return domain.FlowDefinition{}, fmt.Errorf("failed to read flow file: %w", err)
	}

	var file struct {
		domain.FlowDefinition
		Data *domain.FlowDefinition `json:"data"`
	}
	if err := json.Unmarshal(raw, &file); err != nil {
		return domain.FlowDefinition{}, fmt.Errorf("failed to parse flow file %s: %w", path, err)
	}

	if file.Data != nil {
		return *file.Data, nil
	}
	return file.FlowDefinition, nil
}

// ParseContext разбирает пары KEY=VALUE. Значение, похожее на JSON
// (число, true/false, объект, массив), разбирается как JSON.
func ParseContext(pairs []string) (map[string]any, error) {
	result := make(map[string]any, len(pairs))
	for _, kv := range pairs {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid context format %q, expected KEY=VALUE", kv)
		}

		var parsed any
		if json.Unmarshal([]byte(value), &parsed) == nil && !isJSONString(value) {
			result[key] = parsed
			continue
		}
		result[key] = value
	}
	return result, nil
}

func isJSONString(s string) bool {
	return strings.HasPrefix(strings.TrimSpace(s), `"`)
}

func portNames(ports []components.PortSchema) string {
	names := make([]string, len(ports))
	for i, p := range ports {
		names[i] = p.Name
	}
	return strings.Join(names, ",")
}
