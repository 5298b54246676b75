package validate

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Gunvolt24/ticket_service/internal/domain"
	"github.com/Gunvolt24/ticket_service/internal/ports"
)

// KindMalformed — код результата для строк, которые не удалось разобрать.
const KindMalformed = "MALFORMED_REQUEST"

// Result — итог проверки одного запроса (одна строка вывода).
type Result struct {
	Line    int             `json:"line"`
	Valid   bool            `json:"valid"`
	Receipt *domain.Receipt `json:"receipt,omitempty"`
	Error   string          `json:"error,omitempty"`
	Message string          `json:"message,omitempty"`
}

// NewResult — результат по итогам EvaluatePurchaseFromJSON.
func NewResult(line int, receipt *domain.Receipt, err error) Result {
	res := Result{Line: line}
	if err == nil {
		res.Valid = true
		res.Receipt = receipt
		return res
	}

	var ipe *domain.InvalidPurchaseError
	switch {
	case errors.As(err, &ipe):
		res.Error = ipe.Kind.String()
		res.Message = ipe.Message
	case errors.Is(err, ErrMalformedRequest):
		res.Error = KindMalformed
		res.Message = err.Error()
	default:
		res.Error = "UNKNOWN_ERROR"
		res.Message = err.Error()
	}
	return res
}

// JSONLResult — статистика проверки потока JSONL.
type JSONLResult struct {
	ValidLinesCount   int
	InvalidLinesCount int
}

// ValidateJSONLStream — читает JSONL из reader’а, проверяет каждую строку
// и пишет в writer по одной строке Result на каждый запрос. Пустые строки пропускаются.
func ValidateJSONLStream(ctx context.Context, validator ports.PurchaseValidator, ir io.Reader, ow io.Writer) (JSONLResult, error) {
	var res JSONLResult

	scanner := bufio.NewScanner(ir)
	// запас на большие строки
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		lineBytes := scanner.Bytes()
		if len(strings.TrimSpace(string(lineBytes))) == 0 {
			continue
		}

		receipt, err := EvaluatePurchaseFromJSON(ctx, validator, lineBytes)
		result := NewResult(lineNo, receipt, err)
		if result.Valid {
			res.ValidLinesCount++
		} else {
			res.InvalidLinesCount++
		}

		if err := writeResult(ow, result); err != nil {
			return res, err
		}
	}
	if err := scanner.Err(); err != nil {
		return res, fmt.Errorf("scan: %w", err)
	}
	return res, nil
}

// writeResult — компактный JSON одной строкой.
func writeResult(ow io.Writer, result Result) error {
	marshal, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}
	if _, err := ow.Write(marshal); err != nil {
		return fmt.Errorf("write result line: %w", err)
	}
	if _, err := ow.Write([]byte("\n")); err != nil {
		return fmt.Errorf("write newline: %w", err)
	}
	return nil
}
