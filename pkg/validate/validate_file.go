package validate

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Gunvolt24/ticket_service/internal/ports"
)

// InputFormat допустимые значения.
type InputFormat string

const (
	FormatAuto  InputFormat = "auto"
	FormatJSON  InputFormat = "json"
	FormatJSONL InputFormat = "jsonl"
)

// ValidateFile — проверяет файл с запросами на покупку (JSON — один запрос, JSONL — по запросу в строке)
// и пишет результаты в writer. Возвращает сводку вида "N valid / M invalid".
func ValidateFile(ctx context.Context, validator ports.PurchaseValidator, filePath string, format InputFormat, ow io.Writer) (string, error) {
	resSummary := ""

	// auto по расширению
	if format == FormatAuto {
		switch strings.ToLower(filepath.Ext(filePath)) {
		case ".jsonl":
			format = FormatJSONL
		default:
			// по умолчанию считаем JSON
			format = FormatJSON
		}
	}

	switch format {
	case FormatJSON, FormatJSONL:
	default:
		return resSummary, fmt.Errorf("unsupported format: %s", format)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return resSummary, fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	if format == FormatJSONL {
		result, err := ValidateJSONLStream(ctx, validator, file, ow)
		if err != nil {
			return resSummary, err
		}
		return fmt.Sprintf("%d valid / %d invalid", result.ValidLinesCount, result.InvalidLinesCount), nil
	}

	raw, err := io.ReadAll(file)
	if err != nil {
		return resSummary, fmt.Errorf("read file: %w", err)
	}
	receipt, evalErr := EvaluatePurchaseFromJSON(ctx, validator, raw)
	if err := writeResult(ow, NewResult(1, receipt, evalErr)); err != nil {
		return resSummary, err
	}
	if evalErr != nil {
		return "0 valid / 1 invalid", evalErr
	}
	return "1 valid / 0 invalid", nil
}
