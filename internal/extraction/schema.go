package extraction

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// RecordJSONSchema describes the serialized Record handed to downstream
// consumers.
func RecordJSONSchema() map[string]any {
	nullableString := map[string]any{"type": []any{"string", "null"}}
	props := map[string]any{
		"invoice_number":  map[string]any{"type": "string", "minLength": 1},
		"invoice_date":    dateProp(),
		"due_date":        dateProp(),
		"subtotal":        amountProp(),
		"tax_amount":      amountProp(),
		"total_amount":    amountProp(),
		"shipping_amount": amountProp(),
		"currency": map[string]any{
			"type": "string",
			"enum": []any{string(USD), string(EUR), string(GBP), string(INR), string(JPY)},
		},
		"vendor": map[string]any{
			"type":     []any{"object", "null"},
			"required": []any{"vendor_name"},
			"properties": map[string]any{
				"vendor_name":    map[string]any{"type": "string", "minLength": 1},
				"vendor_address": nullableString,
				"vendor_phone":   nullableString,
				"vendor_email":   nullableString,
				"vendor_tax_id":  nullableString,
			},
		},
		"customer": map[string]any{
			"type":     []any{"object", "null"},
			"required": []any{"customer_name"},
			"properties": map[string]any{
				"customer_name":    map[string]any{"type": "string", "minLength": 1},
				"customer_address": nullableString,
				"customer_phone":   nullableString,
			},
		},
		"products": map[string]any{
			"type":     "array",
			"maxItems": MaxLineItems,
			"items": map[string]any{
				"type":     "object",
				"required": []any{"product_name"},
				"properties": map[string]any{
					"product_name": map[string]any{"type": "string", "minLength": minNameLength},
					"model_number": nullableString,
					"description":  nullableString,
					"quantity":     map[string]any{"type": []any{"number", "null"}},
					"unit_price":   amountProp(),
					"total_price":  amountProp(),
				},
			},
		},
		"extraction_status": map[string]any{
			"type": "string",
			"enum": []any{string(StatusSuccess), string(StatusPartial), string(StatusFailed)},
		},
		"confidence_score": map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0},
		"raw_text":         map[string]any{"type": "string"},
		"errors":           map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		"warnings":         map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
	}
	return map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties":           props,
		"required":             []any{"currency", "products", "extraction_status", "confidence_score", "errors", "warnings"},
	}
}

func dateProp() map[string]any {
	return map[string]any{
		"type":    []any{"string", "null"},
		"pattern": `^\d{4}-\d{2}-\d{2}$`,
	}
}

func amountProp() map[string]any {
	return map[string]any{
		"type":    []any{"string", "null"},
		"pattern": `^-?\d+(\.\d+)?$`,
	}
}

var recordSchema = mustCompileSchema(RecordJSONSchema())

func mustCompileSchema(schemaMap map[string]any) *jsonschema.Schema {
	b, err := json.Marshal(schemaMap)
	if err != nil {
		panic(fmt.Sprintf("marshal record schema: %v", err))
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("record.json", bytes.NewReader(b)); err != nil {
		panic(fmt.Sprintf("add record schema: %v", err))
	}
	schema, err := compiler.Compile("record.json")
	if err != nil {
		panic(fmt.Sprintf("compile record schema: %v", err))
	}
	return schema
}

// ValidateRecordJSON checks serialized record bytes against the output
// contract.
func ValidateRecordJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal record: %w", err)
	}
	if err := recordSchema.Validate(v); err != nil {
		return fmt.Errorf("record does not match schema: %w", err)
	}
	return nil
}
