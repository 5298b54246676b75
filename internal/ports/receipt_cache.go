package ports

import (
	"context"

	"github.com/Gunvolt24/ticket_service/internal/domain"
)

// ReceiptCache — кэш чеков успешных покупок по ключу идемпотентности.
// Требования к реализации: потокобезопасность; возврат копий.
type ReceiptCache interface {
	// Get — (receipt, true) при попадании, (nil, false) при промахе/истечении.
	Get(ctx context.Context, key string) (*domain.Receipt, bool)

	// Set — сохранить/обновить чек.
	Set(ctx context.Context, key string, receipt *domain.Receipt) error
}
