package business

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"factura/internal/core/types"
)

// Form line keys.
const (
	FieldReference   = "referencia"
	FieldDescription = "descripcion"
	FieldQuantity    = "cantidad"
	FieldUnitPrice   = "pvpunitario"
	FieldDiscount    = "dtopor"
	FieldIVA         = "iva"
	FieldRecargo     = "recargo"
	FieldIRPF        = "irpf"
	FieldTaxCode     = "codimpuesto"
)

// FormLine is a raw line as submitted by an edit form: string keys mapped to
// strings or numbers. Values are coerced on read and never validated.
type FormLine map[string]any

// UnmarshalJSON keeps numbers as json.Number so "21" and 21 read the same.
func (f *FormLine) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("decode form line: %w", err)
	}
	*f = raw
	return nil
}

// String returns the trimmed string form of key, or "" when absent.
func (f FormLine) String(key string) string {
	switch v := f[key].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case json.Number:
		return v.String()
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

// Float returns key coerced to float64. Malformed values read as 0.
func (f FormLine) Float(key string) float64 {
	return types.Float(f[key])
}

// IsEmpty reports whether key is absent, blank, "0" or numeric zero.
func (f FormLine) IsEmpty(key string) bool {
	return types.IsEmpty(f[key])
}

// IsBlankRow reports a row with neither reference nor description.
func (f FormLine) IsBlankRow() bool {
	return f.String(FieldReference) == "" && f.String(FieldDescription) == ""
}

// Line converts the typed values into a Line without any derivation.
func (f FormLine) Line() Line {
	return Line{
		Reference:   f.String(FieldReference),
		Description: f.String(FieldDescription),
		Quantity:    f.Float(FieldQuantity),
		UnitPrice:   f.Float(FieldUnitPrice),
		Discount:    f.Float(FieldDiscount),
		TaxCode:     f.String(FieldTaxCode),
		IVA:         f.Float(FieldIVA),
		Recargo:     f.Float(FieldRecargo),
		IRPF:        f.Float(FieldIRPF),
	}
}

// FormLineFrom renders a stored line back into form shape.
func FormLineFrom(l Line) FormLine {
	return FormLine{
		FieldReference:   l.Reference,
		FieldDescription: l.Description,
		FieldQuantity:    l.Quantity,
		FieldUnitPrice:   l.UnitPrice,
		FieldDiscount:    l.Discount,
		FieldTaxCode:     l.TaxCode,
		FieldIVA:         l.IVA,
		FieldRecargo:     l.Recargo,
		FieldIRPF:        l.IRPF,
	}
}
