package domain

import (
	"errors"
	"fmt"
)

// ErrInvalidPurchase — базовая (sentinel) ошибка: errors.Is(err, ErrInvalidPurchase)
// истинно для любой *InvalidPurchaseError.
var ErrInvalidPurchase = errors.New("invalid purchase")

// ErrorKind — классификация отказа в покупке.
type ErrorKind string

const (
	KindAccountID     ErrorKind = "ACCOUNT_ID_ERROR"
	KindTicketRequest ErrorKind = "TICKET_REQUEST_ERROR"
	KindNoAdult       ErrorKind = "NO_ADULT_ERROR"
	KindAboveMax      ErrorKind = "ABOVE_MAX_ERROR"
	KindInfantAdult   ErrorKind = "INFANT_ADULT_ERROR"
	KindThirdParty    ErrorKind = "THIRD_PARTY_ERROR"
)

// Description — короткое описание вида ошибки.
func (k ErrorKind) Description() string {
	switch k {
	case KindAccountID:
		return "invalid account id"
	case KindTicketRequest:
		return "ticket request cannot be null"
	case KindNoAdult:
		return "no adult ticket found"
	case KindAboveMax:
		return "ticket quantity above approved maximum per purchase"
	case KindInfantAdult:
		return "an adult cannot lap many infants"
	case KindThirdParty:
		return "third party dependencies error"
	default:
		return "unknown error"
	}
}

func (k ErrorKind) String() string { return string(k) }

// InvalidPurchaseError — единственный тип отказа: вид + человекочитаемое сообщение.
type InvalidPurchaseError struct {
	Kind    ErrorKind
	Message string
}

// NewInvalidPurchase — конструктор ошибки заданного вида.
func NewInvalidPurchase(kind ErrorKind, format string, args ...any) *InvalidPurchaseError {
	return &InvalidPurchaseError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// ThirdPartyError — оборачивает ошибку внешнего сервиса.
// Исходный тип теряется, текст сохраняется.
func ThirdPartyError(cause error) *InvalidPurchaseError {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return &InvalidPurchaseError{Kind: KindThirdParty, Message: msg}
}

func (e *InvalidPurchaseError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Is — совместимость с errors.Is(err, ErrInvalidPurchase).
func (e *InvalidPurchaseError) Is(target error) bool {
	return target == ErrInvalidPurchase
}

// KindOf — вид ошибки покупки, если err (или что-то в цепочке) является *InvalidPurchaseError.
func KindOf(err error) (ErrorKind, bool) {
	var ipe *InvalidPurchaseError
	if errors.As(err, &ipe) {
		return ipe.Kind, true
	}
	return "", false
}
