package engine

import "errors"

// Ошибки валидации графа.
var (
	// ErrEmptyNodeID — узел не имеет ID.
	ErrEmptyNodeID = errors.New("node has empty ID")

	// ErrEmptyNodeType — у узла не указан тип компонента.
	ErrEmptyNodeType = errors.New("node has empty type")

	// ErrDuplicateNodeID — несколько узлов с одинаковым ID.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrEmptyEdgeID — ребро не имеет ID.
	ErrEmptyEdgeID = errors.New("edge has empty ID")

	// ErrDuplicateEdgeID — несколько рёбер с одинаковым ID.
	ErrDuplicateEdgeID = errors.New("duplicate edge ID")

	// ErrDanglingEdge — ребро ссылается на несуществующий узел.
	ErrDanglingEdge = errors.New("edge references unknown node")

	// ErrNodeNotFound — узел с таким ID отсутствует в графе.
	ErrNodeNotFound = errors.New("node not found")

	// ErrCyclicDependency — граф содержит цикл.
	ErrCyclicDependency = errors.New("cyclic dependency detected")

	// ErrInvalidDefinition — определение flow не разбирается как JSON.
	ErrInvalidDefinition = errors.New("invalid flow definition")
)

// Ошибки рендеринга шаблонов.
var (
	// ErrTemplateRender — ошибка рендеринга шаблона.
	ErrTemplateRender = errors.New("template render failed")

	// ErrTemplateParse — ошибка парсинга шаблона.
	ErrTemplateParse = errors.New("template parse failed")
)

// ValidationError — ошибка валидации графа с контекстом.
type ValidationError struct {
	NodeID  string // ID узла, где произошла ошибка
	EdgeID  string // ID ребра, если ошибка в ребре
	Field   string // поле, вызвавшее ошибку
	Message string // описание ошибки
	Err     error  // базовая ошибка
}

// Error реализует интерфейс error.
func (e *ValidationError) Error() string {
	switch {
	case e.EdgeID != "":
		return "edge " + e.EdgeID + ": " + e.Message
	case e.NodeID != "":
		return "node " + e.NodeID + ": " + e.Message
	default:
		return e.Message
	}
}

// Unwrap возвращает базовую ошибку.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError создаёт ошибку валидации узла.
func NewValidationError(nodeID, field, message string, err error) *ValidationError {
	return &ValidationError{
		NodeID:  nodeID,
		Field:   field,
		Message: message,
		Err:     err,
	}
}

// NewEdgeError создаёт ошибку валидации ребра.
func NewEdgeError(edgeID, field, message string, err error) *ValidationError {
	return &ValidationError{
		EdgeID:  edgeID,
		Field:   field,
		Message: message,
		Err:     err,
	}
}
