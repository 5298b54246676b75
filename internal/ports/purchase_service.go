package ports

import (
	"context"

	"github.com/Gunvolt24/ticket_service/internal/domain"
)

// PurchaseService — сценарий покупки для транспортного слоя.
type PurchaseService interface {
	Purchase(ctx context.Context, req domain.PurchaseRequest) (*domain.Receipt, error)
}
