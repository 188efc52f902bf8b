package domain

import "fmt"

type DomainError struct {
	Code    string
	Message string
	// Err - исходная причина, если есть (например ошибка драйвера БД)
	Err error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Это позволяет использовать errors.Is()
func (e *DomainError) Is(target error) bool {
	if t, ok := target.(*DomainError); ok {
		return e.Code == t.Code
	}
	return false
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

const (
	CodeInvalidTask      = "INVALID_TASK"
	CodeNotActive        = "NOT_ACTIVE"
	CodeInvalidRange     = "INVALID_RANGE"
	CodeAnomalyDetected  = "ANOMALY_DETECTED"
	CodePersistenceError = "PERSISTENCE_ERROR"
	CodeNotFound         = "NOT_FOUND"
	CodeForbidden        = "FORBIDDEN"
	CodeEntryActive      = "ENTRY_ACTIVE"
	CodeInvalidInput     = "INVALID_INPUT"
	CodeUnauthorized     = "UNAUTHORIZED"
)

var (
	// ErrInvalidTask - задача не существует или уже завершена
	ErrInvalidTask = &DomainError{
		Code:    CodeInvalidTask,
		Message: "task does not exist or is not eligible for tracking",
	}

	// ErrNotActive - запись не является текущей активной записью пользователя
	ErrNotActive = &DomainError{
		Code:    CodeNotActive,
		Message: "time entry is not the caller's active entry",
	}

	// ErrInvalidRange - время окончания раньше времени начала
	ErrInvalidRange = &DomainError{
		Code:    CodeInvalidRange,
		Message: "end time is before start time",
	}

	// ErrAnomalyDetected - у пользователя обнаружено несколько активных записей
	ErrAnomalyDetected = &DomainError{
		Code:    CodeAnomalyDetected,
		Message: "multiple active time entries observed",
	}

	// ErrPersistence - непрозрачная ошибка хранилища
	ErrPersistence = &DomainError{
		Code:    CodePersistenceError,
		Message: "persistence failure",
	}

	// ErrNotFound - ресурс не найден
	ErrNotFound = &DomainError{
		Code:    CodeNotFound,
		Message: "resource not found",
	}

	// ErrForbidden - операция доступна только владельцу
	ErrForbidden = &DomainError{
		Code:    CodeForbidden,
		Message: "only the owner can modify this resource",
	}

	// ErrEntryActive - активную запись закрывает только stop
	ErrEntryActive = &DomainError{
		Code:    CodeEntryActive,
		Message: "active time entry can only be closed by stop",
	}

	ErrUnauthorized = &DomainError{
		Code:    CodeUnauthorized,
		Message: "authentication required",
	}
)

// NewNotFoundError создает ошибку NOT_FOUND с дополнительным контекстом
func NewNotFoundError(resource string) *DomainError {
	return &DomainError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("%s not found", resource),
	}
}

// NewPersistenceError оборачивает ошибку драйвера, сохраняя причину для errors.As
func NewPersistenceError(op string, err error) *DomainError {
	return &DomainError{
		Code:    CodePersistenceError,
		Message: op,
		Err:     err,
	}
}

func NewInvalidInputError(format string, args ...any) *DomainError {
	return &DomainError{
		Code:    CodeInvalidInput,
		Message: fmt.Sprintf(format, args...),
	}
}

func NewInvalidTaskError(taskID, reason string) *DomainError {
	return &DomainError{
		Code:    CodeInvalidTask,
		Message: fmt.Sprintf("task %s %s", taskID, reason),
	}
}

func NewNotActiveError(entryID string) *DomainError {
	return &DomainError{
		Code:    CodeNotActive,
		Message: fmt.Sprintf("time entry %s is not the caller's active entry", entryID),
	}
}

// NewAnomalyError описывает лишние активные записи пользователя
func NewAnomalyError(userID string, entryIDs []string) *DomainError {
	return &DomainError{
		Code:    CodeAnomalyDetected,
		Message: fmt.Sprintf("user %s has %d extra active entries: %v", userID, len(entryIDs), entryIDs),
	}
}
