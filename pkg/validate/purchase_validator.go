package validate

import (
	"context"
	"strconv"

	"github.com/Gunvolt24/ticket_service/internal/domain"
	"github.com/Gunvolt24/ticket_service/internal/ports"
	"github.com/Gunvolt24/ticket_service/pkg/pricing"
)

// Проверка, что PurchaseValidator удовлетворяет интерфейсу PurchaseValidator.
var _ ports.PurchaseValidator = (*PurchaseValidator)(nil)

// PurchaseValidator — правила допустимости покупки. Состояния нет, побочных эффектов нет.
type PurchaseValidator struct{}

// NewPurchaseValidator — конструктор PurchaseValidator.
func NewPurchaseValidator() *PurchaseValidator { return &PurchaseValidator{} }

// Validate — проверки идут в фиксированном порядке, первая же неудача возвращается:
//  1. аккаунт задан и >= 1;
//  2. запрос на билеты не nil (пустой срез проходит дальше);
//  3. есть хотя бы один взрослый билет с количеством > 0;
//  4. всего билетов не больше domain.MaxTicketsPerPurchase;
//  5. младенцев не больше, чем взрослых.
//
// Порядок важен: пустой запрос отсекается на шаге 3 (NO_ADULT_ERROR), а не на шаге 2.
func (v *PurchaseValidator) Validate(_ context.Context, req domain.PurchaseRequest) error {
	if !validAccount(req.AccountID) {
		return domain.NewInvalidPurchase(domain.KindAccountID, "invalid account id %s", formatAccount(req.AccountID))
	}
	if req.Tickets == nil {
		return domain.NewInvalidPurchase(domain.KindTicketRequest, "ticket request cannot be null")
	}
	if !hasAdult(req.Tickets) {
		return domain.NewInvalidPurchase(domain.KindNoAdult, "purchase must contain at least one adult ticket")
	}
	if exceedsMax(req.Tickets) {
		return domain.NewInvalidPurchase(domain.KindAboveMax,
			"only a maximum of %d tickets can be purchased at a time", domain.MaxTicketsPerPurchase)
	}
	if infantsOutnumberAdults(req.Tickets) {
		return domain.NewInvalidPurchase(domain.KindInfantAdult,
			"infant tickets cannot outnumber adult tickets: infants sit on adult laps")
	}
	return nil
}

func validAccount(id *int64) bool {
	return id != nil && *id >= 1
}

func formatAccount(id *int64) string {
	if id == nil {
		return "null"
	}
	return strconv.FormatInt(*id, 10)
}

// hasAdult — нужна строка ADULT с ненулевым количеством; ADULT=0 не считается.
func hasAdult(items []domain.TicketLineItem) bool {
	for _, item := range items {
		if item.Type() == domain.TicketAdult && item.Quantity() > 0 {
			return true
		}
	}
	return false
}

// exceedsMax — сумма копится с ранним выходом: количество до math.MaxInt не переполняет счётчик.
// После этой проверки все суммы по запросу не превышают domain.MaxTicketsPerPurchase.
func exceedsMax(items []domain.TicketLineItem) bool {
	total := 0
	for _, item := range items {
		if item.Quantity() > domain.MaxTicketsPerPurchase-total {
			return true
		}
		total += item.Quantity()
	}
	return false
}

// infantsOutnumberAdults — без младенцев проверка всегда проходит.
func infantsOutnumberAdults(items []domain.TicketLineItem) bool {
	infants := pricing.CountOf(items, domain.TicketInfant)
	if infants == 0 {
		return false
	}
	return infants > pricing.CountOf(items, domain.TicketAdult)
}
