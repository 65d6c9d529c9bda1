package components

import (
	"context"
	"regexp"
	"strings"
)

// TypePromptTemplate — тип компонента шаблона промпта.
const TypePromptTemplate = "prompt_template"

// placeholderRe находит переменные вида {name}.
var placeholderRe = regexp.MustCompile(`\{(\w+)\}`)

// PromptTemplate — подстановка переменных в промпт.
//
// Шаблон содержит переменные в фигурных скобках: "Summarize {text}".
// Значения берутся из входа variables; переменные без значения
// остаются в тексте как есть.
//
// Outputs:
//
//	{
//	    "prompt": "Summarize ...",
//	    "used_variables": ["text"]
//	}
type PromptTemplate struct {
	Base
}

// NewPromptTemplate создаёт компонент prompt_template.
func NewPromptTemplate() Component {
	return &PromptTemplate{Base: NewBase(Schema{
		Name:        TypePromptTemplate,
		DisplayName: "Prompt Template",
		Description: "Create prompts with variable substitution",
		Category:    "Prompts",
		Icon:        "FileText",
		Inputs: []PortSchema{
			{Name: "template", DisplayName: "Template", Type: DataTypeText, Description: "Prompt template with {variables}", Required: true},
			{Name: "variables", DisplayName: "Variables", Type: DataTypeData, Description: "Dictionary of variables to substitute"},
		},
		Outputs: []PortSchema{
			{Name: "prompt", DisplayName: "Prompt", Type: DataTypeText, Description: "Formatted prompt"},
			{Name: "used_variables", DisplayName: "Used Variables", Type: DataTypeData},
		},
	})}
}

// Run подставляет переменные.
func (c *PromptTemplate) Run(context.Context) (map[string]any, error) {
	tmpl := c.InputString("template")
	variables := c.InputMap("variables")

	used := make([]any, 0)
	prompt := tmpl
	for _, m := range placeholderRe.FindAllStringSubmatch(tmpl, -1) {
		name := m[1]
		used = append(used, name)
		if v, ok := variables[name]; ok {
			prompt = strings.ReplaceAll(prompt, "{"+name+"}", toString(v))
		}
	}

	return map[string]any{
		"prompt":         prompt,
		"used_variables": used,
	}, nil
}
