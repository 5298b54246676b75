package ports

import "context"

// SeatReserver — внешний сервис резервирования мест.
type SeatReserver interface {
	Reserve(ctx context.Context, accountID int64, seats int) error
}
