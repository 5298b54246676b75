// Пакет pricing — расчёт суммы к оплате и числа мест по составу заказа.
// Функции чистые: результат зависит только от строк заказа.
package pricing

import "github.com/Gunvolt24/ticket_service/internal/domain"

// TotalPayable — сумма к оплате в минимальных единицах валюты.
func TotalPayable(items []domain.TicketLineItem) int {
	total := 0
	for _, item := range items {
		total += item.Type().UnitPrice() * item.Quantity()
	}
	return total
}

// TotalSeats — число мест для резервирования (младенцы не учитываются).
func TotalSeats(items []domain.TicketLineItem) int {
	seats := 0
	for _, item := range items {
		if item.Type().OccupiesSeat() {
			seats += item.Quantity()
		}
	}
	return seats
}

// TicketCount — общее число билетов по всем типам.
func TicketCount(items []domain.TicketLineItem) int {
	n := 0
	for _, item := range items {
		n += item.Quantity()
	}
	return n
}

// CountOf — число билетов заданного типа (строки одного типа суммируются).
func CountOf(items []domain.TicketLineItem, t domain.TicketType) int {
	n := 0
	for _, item := range items {
		if item.Type() == t {
			n += item.Quantity()
		}
	}
	return n
}
