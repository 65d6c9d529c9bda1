package domain

// ExecutionStatus — статус выполнения flow.
//
// Жизненный цикл:
//
//	pending → running → completed
//	                  ↘ failed
type ExecutionStatus string

const (
	// ExecutionStatusPending — execution создан, но ещё не начал выполняться.
	ExecutionStatusPending ExecutionStatus = "pending"

	// ExecutionStatusRunning — flow выполняется.
	ExecutionStatusRunning ExecutionStatus = "running"

	// ExecutionStatusCompleted — все узлы выполнены успешно.
	ExecutionStatusCompleted ExecutionStatus = "completed"

	// ExecutionStatusFailed — выполнение прервано ошибкой.
	ExecutionStatusFailed ExecutionStatus = "failed"
)

// IsTerminal возвращает true, если статус финальный.
func (s ExecutionStatus) IsTerminal() bool {
	switch s {
	case ExecutionStatusCompleted, ExecutionStatusFailed:
		return true
	default:
		return false
	}
}

// String возвращает строковое представление ExecutionStatus.
func (s ExecutionStatus) String() string {
	return string(s)
}

// ParseExecutionStatus парсит строку в ExecutionStatus.
// Неизвестные значения трактуются как pending.
func ParseExecutionStatus(s string) ExecutionStatus {
	switch s {
	case "running":
		return ExecutionStatusRunning
	case "completed":
		return ExecutionStatusCompleted
	case "failed":
		return ExecutionStatusFailed
	default:
		return ExecutionStatusPending
	}
}

// VariableScope — область видимости переменной.
//
// При сборке контекста выполнения более узкая область
// перекрывает более широкую: global < project < user.
type VariableScope string

const (
	// VariableScopeGlobal — видна во всех flows пользователя.
	VariableScopeGlobal VariableScope = "global"

	// VariableScopeProject — видна во flows одного проекта.
	VariableScopeProject VariableScope = "project"

	// VariableScopeUser — персональная переменная пользователя.
	VariableScopeUser VariableScope = "user"
)

// IsValid проверяет, что scope известен.
func (s VariableScope) IsValid() bool {
	switch s {
	case VariableScopeGlobal, VariableScopeProject, VariableScopeUser:
		return true
	default:
		return false
	}
}

// Rank возвращает приоритет scope при слиянии (больше — важнее).
func (s VariableScope) Rank() int {
	switch s {
	case VariableScopeProject:
		return 1
	case VariableScopeUser:
		return 2
	default:
		return 0
	}
}
