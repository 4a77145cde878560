package statement

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"github.com/mkacik/budget/internal/mapping"
	"github.com/mkacik/budget/internal/models"
)

// TestSchema runs a record mapping against one pasted sample row and reports
// what an import would do with it. Nothing is persisted, so the resulting
// expense carries a placeholder account id.
func TestSchema(m *mapping.RecordMapping, row string) models.TestSchemaResponse {
	reader := csv.NewReader(strings.NewReader(row))
	reader.FieldsPerRecord = -1

	record, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return errorResponse("test row is empty")
	}
	if err != nil {
		return errorResponse("could not parse test row as csv")
	}

	expense, err := m.ToExpense(record, 0)
	if err != nil {
		if errors.Is(err, mapping.ErrSkip) {
			return models.TestSchemaResponse{Result: models.TestSchemaSkip}
		}
		return errorResponse(err.Error())
	}

	return models.TestSchemaResponse{
		Result:  models.TestSchemaSuccess,
		Expense: &expense,
	}
}

func errorResponse(message string) models.TestSchemaResponse {
	return models.TestSchemaResponse{
		Result: models.TestSchemaError,
		Error:  &message,
	}
}
