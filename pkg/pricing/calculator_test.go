package pricing_test

import (
	"testing"

	"github.com/Gunvolt24/ticket_service/internal/domain"
	"github.com/Gunvolt24/ticket_service/pkg/pricing"
)

func items(pairs ...any) []domain.TicketLineItem {
	out := make([]domain.TicketLineItem, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		out = append(out, domain.MustTicketLineItem(pairs[i].(domain.TicketType), pairs[i+1].(int)))
	}
	return out
}

func TestTotals(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		items     []domain.TicketLineItem
		wantPay   int
		wantSeats int
		wantCount int
	}{
		{"empty", nil, 0, 0, 0},
		{"two_adults", items(domain.TicketAdult, 2), 50, 2, 2},
		{"family", items(domain.TicketAdult, 10, domain.TicketChild, 5, domain.TicketInfant, 3), 325, 15, 18},
		{"max_adults", items(domain.TicketAdult, 25), 625, 25, 25},
		{"duplicates_summed", items(domain.TicketAdult, 1, domain.TicketChild, 2, domain.TicketAdult, 3), 130, 6, 6},
		{"infants_free_no_seat", items(domain.TicketAdult, 1, domain.TicketInfant, 1), 25, 1, 2},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := pricing.TotalPayable(tt.items); got != tt.wantPay {
				t.Fatalf("TotalPayable = %d, want %d", got, tt.wantPay)
			}
			if got := pricing.TotalSeats(tt.items); got != tt.wantSeats {
				t.Fatalf("TotalSeats = %d, want %d", got, tt.wantSeats)
			}
			if got := pricing.TicketCount(tt.items); got != tt.wantCount {
				t.Fatalf("TicketCount = %d, want %d", got, tt.wantCount)
			}
		})
	}
}

func TestTotals_OrderIndependentAndRepeatable(t *testing.T) {
	t.Parallel()

	a := items(domain.TicketInfant, 3, domain.TicketChild, 5, domain.TicketAdult, 10)
	b := items(domain.TicketAdult, 10, domain.TicketInfant, 3, domain.TicketChild, 5)

	for i := 0; i < 3; i++ {
		if pricing.TotalPayable(a) != pricing.TotalPayable(b) || pricing.TotalSeats(a) != pricing.TotalSeats(b) {
			t.Fatalf("totals must not depend on line order")
		}
	}
	if got := pricing.CountOf(a, domain.TicketInfant); got != 3 {
		t.Fatalf("CountOf(INFANT) = %d, want 3", got)
	}
}
