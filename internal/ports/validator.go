package ports

import (
	"context"

	"github.com/Gunvolt24/ticket_service/internal/domain"
)

// PurchaseValidator — проверка допустимости запроса до любых списаний и резервов.
// Возвращает *domain.InvalidPurchaseError при первом нарушении правил.
type PurchaseValidator interface {
	Validate(ctx context.Context, req domain.PurchaseRequest) error
}
