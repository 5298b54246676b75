package validate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	playground "github.com/go-playground/validator/v10"

	"github.com/Gunvolt24/ticket_service/internal/domain"
	"github.com/Gunvolt24/ticket_service/internal/ports"
	"github.com/Gunvolt24/ticket_service/pkg/pricing"
)

// ErrMalformedRequest — входные данные не складываются в PurchaseRequest
// (битый JSON, лишние поля, неизвестный тип билета, отрицательное количество).
// До правил покупки такие данные не доходят.
var ErrMalformedRequest = errors.New("malformed purchase request")

// lineItemDTO — строка заказа в формате провода.
type lineItemDTO struct {
	Type     string `json:"type"     validate:"required,oneof=ADULT CHILD INFANT"`
	Quantity *int   `json:"quantity" validate:"required,min=0"`
}

// purchaseRequestDTO — запрос на покупку в формате провода.
// tickets: null/отсутствует → nil; [] → пустой срез.
type purchaseRequestDTO struct {
	AccountID *int64        `json:"account_id"`
	Tickets   []lineItemDTO `json:"tickets"    validate:"omitempty,dive"`
}

var shapeValidator = playground.New(playground.WithRequiredStructEnabled())

// DecodePurchaseRequest — строгий разбор JSON в domain.PurchaseRequest.
// Любая ошибка оборачивает ErrMalformedRequest.
func DecodePurchaseRequest(raw []byte) (domain.PurchaseRequest, error) {
	var dto purchaseRequestDTO
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&dto); err != nil {
		return domain.PurchaseRequest{}, fmt.Errorf("%w: invalid json: %v", ErrMalformedRequest, err)
	}
	// гарантируем отсутствие данных после объекта
	if err := dec.Decode(new(struct{})); err != io.EOF {
		return domain.PurchaseRequest{}, fmt.Errorf("%w: invalid json: trailing data", ErrMalformedRequest)
	}

	if err := shapeValidator.Struct(&dto); err != nil {
		return domain.PurchaseRequest{}, fmt.Errorf("%w: %s", ErrMalformedRequest, shapeMessage(err))
	}

	req := domain.PurchaseRequest{AccountID: dto.AccountID}
	if dto.Tickets != nil {
		req.Tickets = make([]domain.TicketLineItem, 0, len(dto.Tickets))
		for i := range dto.Tickets {
			item, err := domain.NewTicketLineItem(domain.TicketType(dto.Tickets[i].Type), *dto.Tickets[i].Quantity)
			if err != nil {
				return domain.PurchaseRequest{}, fmt.Errorf("%w: tickets[%d]: %v", ErrMalformedRequest, i, err)
			}
			req.Tickets = append(req.Tickets, item)
		}
	}
	return req, nil
}

// EncodePurchaseRequest — обратное преобразование (для продюсеров и тестов).
func EncodePurchaseRequest(req domain.PurchaseRequest) ([]byte, error) {
	dto := purchaseRequestDTO{AccountID: req.AccountID}
	if req.Tickets != nil {
		dto.Tickets = make([]lineItemDTO, 0, len(req.Tickets))
		for _, item := range req.Tickets {
			q := item.Quantity()
			dto.Tickets = append(dto.Tickets, lineItemDTO{Type: item.Type().String(), Quantity: &q})
		}
	}
	return json.Marshal(dto)
}

// EvaluatePurchaseFromJSON — разбор, проверка правил и расчёт итогов без вызова внешних сервисов.
func EvaluatePurchaseFromJSON(ctx context.Context, validator ports.PurchaseValidator, raw []byte) (*domain.Receipt, error) {
	req, err := DecodePurchaseRequest(raw)
	if err != nil {
		return nil, err
	}
	if err := validator.Validate(ctx, req); err != nil {
		return nil, err
	}
	return &domain.Receipt{
		AccountID:   *req.AccountID,
		TotalAmount: pricing.TotalPayable(req.Tickets),
		TotalSeats:  pricing.TotalSeats(req.Tickets),
		TicketCount: pricing.TicketCount(req.Tickets),
	}, nil
}

// shapeMessage — ошибки go-playground/validator в читаемый вид.
func shapeMessage(err error) string {
	var verrs playground.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fmt.Sprintf("%s %s", fieldPath(fe), tagMessage(fe)))
	}
	return strings.Join(parts, "; ")
}

// fieldPath — "purchaseRequestDTO.Tickets[0].Quantity" → "tickets[0].quantity".
func fieldPath(fe playground.FieldError) string {
	ns := fe.Namespace()
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		ns = ns[i+1:]
	}
	return strings.ToLower(ns)
}

func tagMessage(fe playground.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "min":
		return "must be at least " + fe.Param()
	default:
		return "is invalid"
	}
}
