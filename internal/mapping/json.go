package mapping

import (
	"encoding/json"
	"fmt"

	"github.com/mkacik/budget/internal/datetime"
)

// Wire codec for the field extractor variants. Every field serializes as
// {"variant": <tag>, "params": {<strategy fields>}}; unit variants carry no
// params key. Param names are snake_case and part of the external protocol.

type fieldEnvelope struct {
	Variant string          `json:"variant"`
	Params  json.RawMessage `json:"params,omitempty"`
}

type columnTZParams struct {
	Col int         `json:"col"`
	TZ  datetime.TZ `json:"tz"`
}

type columnParams struct {
	Col int `json:"col"`
}

type amountColumnParams struct {
	Col         int     `json:"col"`
	Invert      bool    `json:"invert"`
	SkipPattern *string `json:"skip_pattern"`
}

type creditDebitParams struct {
	First        int  `json:"first"`
	InvertFirst  bool `json:"invert_first"`
	Second       int  `json:"second"`
	InvertSecond bool `json:"invert_second"`
}

func marshalVariant(variant string, params any) ([]byte, error) {
	envelope := fieldEnvelope{Variant: variant}
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return nil, err
		}
		envelope.Params = raw
	}
	return json.Marshal(envelope)
}

func checkParams(envelope fieldEnvelope, field string) error {
	if envelope.Params == nil {
		return fmt.Errorf("%s field variant %q needs params", field, envelope.Variant)
	}
	return nil
}

func checkTZ(tz datetime.TZ) error {
	if !tz.Valid() {
		return fmt.Errorf("unknown timezone tag %q", string(tz))
	}
	return nil
}

func checkCol(col int) error {
	if col < 0 {
		return fmt.Errorf("column index must not be negative, got %d", col)
	}
	return nil
}

func (f DateField) MarshalJSON() ([]byte, error) {
	return marshalVariant(VariantFromColumn, columnTZParams{Col: f.Col, TZ: f.TZ})
}

func (f *DateField) UnmarshalJSON(data []byte) error {
	var envelope fieldEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return err
	}
	if envelope.Variant != VariantFromColumn {
		return fmt.Errorf("unknown date field variant %q", envelope.Variant)
	}
	if err := checkParams(envelope, "date"); err != nil {
		return err
	}

	var params columnTZParams
	if err := json.Unmarshal(envelope.Params, &params); err != nil {
		return err
	}
	if err := checkCol(params.Col); err != nil {
		return err
	}
	if err := checkTZ(params.TZ); err != nil {
		return err
	}

	*f = DateField{Col: params.Col, TZ: params.TZ}
	return nil
}

func (f TimeField) MarshalJSON() ([]byte, error) {
	switch f.Variant {
	case VariantEmpty:
		return marshalVariant(VariantEmpty, nil)
	case VariantFromColumn:
		return marshalVariant(VariantFromColumn, columnTZParams{Col: f.Col, TZ: f.TZ})
	default:
		return nil, fmt.Errorf("unknown time field variant %q", f.Variant)
	}
}

func (f *TimeField) UnmarshalJSON(data []byte) error {
	var envelope fieldEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return err
	}

	switch envelope.Variant {
	case VariantEmpty:
		*f = TimeField{Variant: VariantEmpty}
		return nil
	case VariantFromColumn:
		if err := checkParams(envelope, "time"); err != nil {
			return err
		}
		var params columnTZParams
		if err := json.Unmarshal(envelope.Params, &params); err != nil {
			return err
		}
		if err := checkCol(params.Col); err != nil {
			return err
		}
		if err := checkTZ(params.TZ); err != nil {
			return err
		}
		*f = TimeField{Variant: VariantFromColumn, Col: params.Col, TZ: params.TZ}
		return nil
	default:
		return fmt.Errorf("unknown time field variant %q", envelope.Variant)
	}
}

func (f AmountField) MarshalJSON() ([]byte, error) {
	switch f.Variant {
	case VariantFromColumn:
		return marshalVariant(VariantFromColumn, amountColumnParams{
			Col:         f.Col,
			Invert:      f.Invert,
			SkipPattern: f.SkipPattern,
		})
	case VariantFromCreditDebitColumns:
		return marshalVariant(VariantFromCreditDebitColumns, creditDebitParams{
			First:        f.First,
			InvertFirst:  f.InvertFirst,
			Second:       f.Second,
			InvertSecond: f.InvertSecond,
		})
	default:
		return nil, fmt.Errorf("unknown amount field variant %q", f.Variant)
	}
}

func (f *AmountField) UnmarshalJSON(data []byte) error {
	var envelope fieldEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return err
	}
	if err := checkParams(envelope, "amount"); err != nil {
		return err
	}

	switch envelope.Variant {
	case VariantFromColumn:
		var params amountColumnParams
		if err := json.Unmarshal(envelope.Params, &params); err != nil {
			return err
		}
		if err := checkCol(params.Col); err != nil {
			return err
		}
		*f = AmountField{
			Variant:     VariantFromColumn,
			Col:         params.Col,
			Invert:      params.Invert,
			SkipPattern: params.SkipPattern,
		}
		return nil
	case VariantFromCreditDebitColumns:
		var params creditDebitParams
		if err := json.Unmarshal(envelope.Params, &params); err != nil {
			return err
		}
		if err := checkCol(params.First); err != nil {
			return err
		}
		if err := checkCol(params.Second); err != nil {
			return err
		}
		*f = AmountField{
			Variant:      VariantFromCreditDebitColumns,
			First:        params.First,
			InvertFirst:  params.InvertFirst,
			Second:       params.Second,
			InvertSecond: params.InvertSecond,
		}
		return nil
	default:
		return fmt.Errorf("unknown amount field variant %q", envelope.Variant)
	}
}

func (f TextField) MarshalJSON() ([]byte, error) {
	return marshalVariant(VariantFromColumn, columnParams{Col: f.Col})
}

func (f *TextField) UnmarshalJSON(data []byte) error {
	var envelope fieldEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		return err
	}
	if envelope.Variant != VariantFromColumn {
		return fmt.Errorf("unknown text field variant %q", envelope.Variant)
	}
	if err := checkParams(envelope, "text"); err != nil {
		return err
	}

	var params columnParams
	if err := json.Unmarshal(envelope.Params, &params); err != nil {
		return err
	}
	if err := checkCol(params.Col); err != nil {
		return err
	}

	*f = TextField{Col: params.Col}
	return nil
}

// Parse decodes and validates a stored record mapping. All four fields are
// required; the error is suitable for surfacing to the schema editor verbatim.
func Parse(raw []byte) (*RecordMapping, error) {
	var shadow struct {
		TransactionDate *DateField   `json:"transaction_date"`
		TransactionTime *TimeField   `json:"transaction_time"`
		Description     *TextField   `json:"description"`
		Amount          *AmountField `json:"amount"`
	}
	if err := json.Unmarshal(raw, &shadow); err != nil {
		return nil, fmt.Errorf("invalid record mapping: %w", err)
	}
	if shadow.TransactionDate == nil || shadow.TransactionTime == nil ||
		shadow.Description == nil || shadow.Amount == nil {
		return nil, fmt.Errorf("record mapping needs transaction_date, transaction_time, description and amount fields")
	}
	return &RecordMapping{
		TransactionDate: *shadow.TransactionDate,
		TransactionTime: *shadow.TransactionTime,
		Description:     *shadow.Description,
		Amount:          *shadow.Amount,
	}, nil
}
