package domain

import (
	"errors"
	"fmt"
)

// MaxTicketsPerPurchase — максимальное число билетов в одной покупке (по всем типам).
const MaxTicketsPerPurchase = 25

// ErrInvalidLineItem — строка заказа не может быть построена (неизвестный тип или отрицательное количество).
var ErrInvalidLineItem = errors.New("invalid ticket line item")

// TicketType — закрытое множество типов билетов.
type TicketType string

const (
	TicketAdult  TicketType = "ADULT"
	TicketChild  TicketType = "CHILD"
	TicketInfant TicketType = "INFANT"
)

// Valid — тип входит в закрытое множество.
func (t TicketType) Valid() bool {
	switch t {
	case TicketAdult, TicketChild, TicketInfant:
		return true
	default:
		return false
	}
}

// UnitPrice — цена одного билета в минимальных единицах валюты.
// Таблица цен фиксирована: ADULT=25, CHILD=15, INFANT=0.
func (t TicketType) UnitPrice() int {
	switch t {
	case TicketAdult:
		return 25
	case TicketChild:
		return 15
	default:
		return 0
	}
}

// OccupiesSeat — младенец сидит на коленях у взрослого и места не занимает.
func (t TicketType) OccupiesSeat() bool {
	return t != TicketInfant
}

func (t TicketType) String() string { return string(t) }

// ParseTicketType — строгий (регистрозависимый) разбор типа билета.
func ParseTicketType(s string) (TicketType, error) {
	t := TicketType(s)
	if !t.Valid() {
		return "", fmt.Errorf("%w: unknown ticket type %q", ErrInvalidLineItem, s)
	}
	return t, nil
}

// TicketLineItem — тип билета и количество (>= 0). После создания не меняется.
type TicketLineItem struct {
	ticketType TicketType
	quantity   int
}

// NewTicketLineItem — конструктор строки заказа.
func NewTicketLineItem(t TicketType, quantity int) (TicketLineItem, error) {
	if !t.Valid() {
		return TicketLineItem{}, fmt.Errorf("%w: unknown ticket type %q", ErrInvalidLineItem, string(t))
	}
	if quantity < 0 {
		return TicketLineItem{}, fmt.Errorf("%w: negative quantity %d for %s", ErrInvalidLineItem, quantity, t)
	}
	return TicketLineItem{ticketType: t, quantity: quantity}, nil
}

// MustTicketLineItem — как NewTicketLineItem, но паникует; для констант и тестов.
func MustTicketLineItem(t TicketType, quantity int) TicketLineItem {
	item, err := NewTicketLineItem(t, quantity)
	if err != nil {
		panic(err)
	}
	return item
}

func (i TicketLineItem) Type() TicketType { return i.ticketType }
func (i TicketLineItem) Quantity() int    { return i.quantity }

// PurchaseRequest — запрос на покупку.
// AccountID == nil — аккаунт не передан.
// Tickets == nil (запрос отсутствует) и пустой срез (запрос без строк) — разные случаи.
type PurchaseRequest struct {
	AccountID *int64
	Tickets   []TicketLineItem
}

// NewPurchaseRequest — удобный конструктор для вызовов с известным аккаунтом.
func NewPurchaseRequest(accountID int64, tickets ...TicketLineItem) PurchaseRequest {
	if tickets == nil {
		tickets = []TicketLineItem{}
	}
	return PurchaseRequest{AccountID: &accountID, Tickets: tickets}
}

// Receipt — итог успешной покупки.
type Receipt struct {
	AccountID   int64 `json:"account_id"`
	TotalAmount int   `json:"total_amount"`
	TotalSeats  int   `json:"total_seats"`
	TicketCount int   `json:"ticket_count"`
}
