package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"
)

// TemplateData — данные для рендеринга шаблонов компонентов.
//
// Используется в Go templates:
//   - {{ .Data.field }}    — значение входа data
//   - {{ .Inputs.port }}   — любой вход узла
//   - {{ .Env.OPENAI_API_KEY }} — значение контекста выполнения
type TemplateData struct {
	// Data — основной вход компонента.
	Data any `json:"data"`

	// Inputs — все входы узла.
	Inputs map[string]any `json:"inputs"`

	// Env — снимок контекста выполнения.
	Env map[string]any `json:"env"`
}

// NewTemplateData создаёт данные для шаблона.
func NewTemplateData(data any, inputs, env map[string]any) *TemplateData {
	if inputs == nil {
		inputs = make(map[string]any)
	}
	if env == nil {
		env = make(map[string]any)
	}
	return &TemplateData{
		Data:   data,
		Inputs: inputs,
		Env:    env,
	}
}

// templateFuncs — дополнительные функции для шаблонов.
var templateFuncs = template.FuncMap{
	// json — сериализует значение в JSON строку
	"json": func(v any) string {
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("error: %v", err)
		}
		return string(b)
	},

	// default — возвращает значение по умолчанию, если первый аргумент пустой
	"default": func(def, val any) any {
		if val == nil {
			return def
		}
		if s, ok := val.(string); ok && s == "" {
			return def
		}
		return val
	},

	// coalesce — возвращает первое непустое значение
	"coalesce": func(values ...any) any {
		for _, v := range values {
			if v != nil {
				if s, ok := v.(string); ok && s == "" {
					continue
				}
				return v
			}
		}
		return nil
	},

	// fromJSON — парсит JSON строку
	"fromJSON": func(s string) any {
		var result any
		if err := json.Unmarshal([]byte(s), &result); err != nil {
			return nil
		}
		return result
	},

	"join": func(sep string, items []string) string {
		return strings.Join(items, sep)
	},
	"split": func(sep, s string) []string {
		return strings.Split(s, sep)
	},
	"contains":  strings.Contains,
	"hasPrefix": strings.HasPrefix,
	"lower":     strings.ToLower,
	"upper":     strings.ToUpper,
	"trim":      strings.TrimSpace,
	"replace":   strings.ReplaceAll,
}

// Render рендерит строковый шаблон.
//
// Строка без "{{" возвращается как есть.
func Render(tmpl string, data *TemplateData) (string, error) {
	if !strings.Contains(tmpl, "{{") {
		return tmpl, nil
	}

	t, err := template.New("").Funcs(templateFuncs).Option("missingkey=zero").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrTemplateParse, err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("%w: %v", ErrTemplateRender, err)
	}

	return buf.String(), nil
}

// RenderValue рендерит произвольное значение.
// Рекурсивно обрабатывает map и slice, остальные типы возвращает как есть.
func RenderValue(value any, data *TemplateData) (any, error) {
	switch v := value.(type) {
	case nil:
		return nil, nil

	case string:
		return Render(v, data)

	case map[string]any:
		result := make(map[string]any, len(v))
		for key, val := range v {
			rendered, err := RenderValue(val, data)
			if err != nil {
				return nil, err
			}
			result[key] = rendered
		}
		return result, nil

	case []any:
		result := make([]any, len(v))
		for i, val := range v {
			rendered, err := RenderValue(val, data)
			if err != nil {
				return nil, err
			}
			result[i] = rendered
		}
		return result, nil

	default:
		return value, nil
	}
}

// RenderCondition рендерит и вычисляет условие.
// Пустое условие считается истинным.
func RenderCondition(condition string, data *TemplateData) (bool, error) {
	if condition == "" {
		return true, nil
	}

	tmpl := fmt.Sprintf(`{{if %s}}true{{else}}false{{end}}`, condition)

	result, err := Render(tmpl, data)
	if err != nil {
		return false, err
	}

	return result == "true", nil
}
