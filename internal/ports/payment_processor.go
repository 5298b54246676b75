package ports

import "context"

// PaymentProcessor — внешний платёжный сервис.
// amount — в тех же минимальных единицах валюты, что и таблица цен.
type PaymentProcessor interface {
	Charge(ctx context.Context, accountID int64, amount int) error
}
