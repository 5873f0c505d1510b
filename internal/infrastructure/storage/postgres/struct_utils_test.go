package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"factura/internal/domain/documents/business"
)

type Auditable struct {
	CreatedBy string `db:"created_by"`
}

type taggedLine struct {
	business.Line
	Auditable
	Ignored string `db:"-"`
	Plain   string
}

func TestExtractDBColumns(t *testing.T) {
	cols := ExtractDBColumns[business.Document]()

	assert.Equal(t, "id", cols[0])
	assert.Contains(t, cols, "codsujeto")
	assert.Contains(t, cols, "totalrecargo")
	assert.NotContains(t, cols, "-")
	assert.Len(t, cols, 19)
}

func TestExtractDBColumns_Embedded(t *testing.T) {
	cols := ExtractDBColumns[*taggedLine]()

	assert.Contains(t, cols, "idlinea")
	assert.Contains(t, cols, "pvptotal")
	assert.Contains(t, cols, "created_by")
	assert.NotContains(t, cols, "Plain")
}

func TestStructToMap(t *testing.T) {
	l := &taggedLine{
		Line:      business.Line{ID: 4, Description: "Beans", IVA: 21, LineTotal: 9.5},
		Auditable: Auditable{CreatedBy: "seed"},
		Ignored:   "x",
	}

	m := StructToMap(l)

	assert.Equal(t, int64(4), m["idlinea"])
	assert.Equal(t, "Beans", m["descripcion"])
	assert.Equal(t, 21.0, m["iva"])
	assert.Equal(t, 9.5, m["pvptotal"])
	assert.Equal(t, "seed", m["created_by"])
	assert.NotContains(t, m, "Ignored")
}

func TestStructToMap_NonStruct(t *testing.T) {
	assert.Nil(t, StructToMap(42))
}
