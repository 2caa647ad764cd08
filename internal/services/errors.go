package services

import (
	"errors"
	"fmt"
)

// Sentinels for matching a Failure's kind with errors.Is.
var (
	ErrNotFound       = errors.New("not found")
	ErrStorageFailure = errors.New("storage failure")
	ErrInvalidRequest = errors.New("invalid request")
)

// FailureKind classifies why an entry point could not produce a result.
type FailureKind int

const (
	// FailureNotFound means the user, apartment or building is missing, or the
	// resident has no apartment assigned.
	FailureNotFound FailureKind = iota + 1
	// FailureStorage wraps an error from the storage layer.
	FailureStorage
	// FailureValidation means the caller sent malformed input.
	FailureValidation
)

func (k FailureKind) String() string {
	switch k {
	case FailureNotFound:
		return "not_found"
	case FailureStorage:
		return "storage_failure"
	case FailureValidation:
		return "validation"
	default:
		return "unknown"
	}
}

// User-safe failure messages.
const (
	MessageNotFound        = "Registo não encontrado."
	MessageNoApartment     = "Não tem nenhuma fração associada à sua conta."
	MessageStorageFailure  = "Não foi possível obter os dados de pagamento. Tente novamente mais tarde."
	MessageInvalidRequest  = "Pedido inválido."
	MessagePaymentRecorded = "Pagamento registado."
)

// Failure is the typed error returned by PaymentStatusService.
type Failure struct {
	Kind FailureKind
	// Op is the entry point that failed (e.g. "ApartmentPaymentStatus").
	Op string
	// EntityID identifies the user, apartment or building involved.
	EntityID string
	// Message overrides the default user-facing message.
	Message string
	Err     error
}

// Error implements the error interface. It includes the cause and is meant for logs.
func (f *Failure) Error() string {
	if f.Err != nil {
		return fmt.Sprintf("%s %s: %s: %v", f.Op, f.EntityID, f.Kind, f.Err)
	}
	return fmt.Sprintf("%s %s: %s", f.Op, f.EntityID, f.Kind)
}

// Unwrap returns the underlying error for error unwrapping.
func (f *Failure) Unwrap() error {
	return f.Err
}

// Is matches the kind sentinels.
func (f *Failure) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return f.Kind == FailureNotFound
	case ErrStorageFailure:
		return f.Kind == FailureStorage
	case ErrInvalidRequest:
		return f.Kind == FailureValidation
	}
	return false
}

// UserMessage returns text safe to show to end users. Storage error text never appears in it.
func (f *Failure) UserMessage() string {
	if f.Message != "" {
		return f.Message
	}
	switch f.Kind {
	case FailureNotFound:
		return MessageNotFound
	case FailureValidation:
		if f.Err != nil {
			return MessageInvalidRequest + " " + f.Err.Error()
		}
		return MessageInvalidRequest
	default:
		return MessageStorageFailure
	}
}

// UserMessage extracts the user-safe message from any error returned by the service.
func UserMessage(err error) string {
	var f *Failure
	if errors.As(err, &f) {
		return f.UserMessage()
	}
	return MessageStorageFailure
}

func notFoundFailure(op, entity string, err error) *Failure {
	return &Failure{Kind: FailureNotFound, Op: op, EntityID: entity, Err: err}
}

func storageFailure(op, entity string, err error) *Failure {
	return &Failure{Kind: FailureStorage, Op: op, EntityID: entity, Err: err}
}

func validationFailure(op, entity string, err error) *Failure {
	return &Failure{Kind: FailureValidation, Op: op, EntityID: entity, Err: err}
}
