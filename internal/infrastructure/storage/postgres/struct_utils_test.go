package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"stockbook/internal/domain/ledger"
)

type baseRow struct {
	ID   string `db:"id"`
	Name string `db:"name"`
}

type sampleRow struct {
	baseRow
	Quantity int64  `db:"quantity"`
	Ignored  string `db:"-"`
	NoTag    string
}

func TestExtractDBColumns(t *testing.T) {
	cols := ExtractDBColumns[sampleRow]()
	assert.Equal(t, []string{"id", "name", "quantity"}, cols)
}

func TestExtractDBColumns_InventoryItem(t *testing.T) {
	cols := ExtractDBColumns[ledger.InventoryItem]()

	assert.Contains(t, cols, "id")
	assert.Contains(t, cols, "sku")
	assert.Contains(t, cols, "qty_available")
	assert.Contains(t, cols, "avg_unit_cost")
	assert.Contains(t, cols, "version")
	assert.NotContains(t, cols, "")
}

func TestStructToMap(t *testing.T) {
	row := sampleRow{
		baseRow:  baseRow{ID: "abc", Name: "widget"},
		Quantity: 42,
		Ignored:  "skip",
		NoTag:    "skip",
	}

	m := StructToMap(row)

	assert.Equal(t, "abc", m["id"])
	assert.Equal(t, "widget", m["name"])
	assert.Equal(t, int64(42), m["quantity"])
	assert.Len(t, m, 3)
}

func TestStructToMap_Pointer(t *testing.T) {
	row := &sampleRow{baseRow: baseRow{ID: "x"}}
	m := StructToMap(row)
	assert.Equal(t, "x", m["id"])
}

func TestStructToMap_NonStruct(t *testing.T) {
	assert.Nil(t, StructToMap(42))
	assert.Nil(t, StructToMap("str"))
}
