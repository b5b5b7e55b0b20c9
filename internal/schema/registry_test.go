package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadBuiltinDoctypes(t *testing.T) {
	reg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"COA AMB", "Quotation AMB", "Quotation AMB Intl"}, reg.Names())
}

func TestGetUnknownDoctype(t *testing.T) {
	reg, err := Load()
	require.NoError(t, err)

	_, err = reg.Get("Invoice")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"Invoice"`)
}

func TestCOADefinition(t *testing.T) {
	reg, err := Load()
	require.NoError(t, err)

	coa, err := reg.Get("COA AMB")
	require.NoError(t, err)

	product, ok := coa.Field("product_item")
	require.True(t, ok)
	assert.True(t, product.Mandatory)
	assert.Equal(t, TypeLink, product.Type)

	tables := coa.TableFields()
	require.Len(t, tables, 1)
	assert.Equal(t, "child_table", tables[0].Fieldname)
	assert.Equal(t, []string{"parameter", "value", "unit", "status", "notes"}, tables[0].Columns)

	mandatory := coa.MandatoryFields()
	require.Len(t, mandatory, 2)
	assert.Equal(t, "product_item", mandatory[0].Fieldname)
	assert.Equal(t, "batch_no", mandatory[1].Fieldname)
}

func TestQuotationVariantsShareItemsTable(t *testing.T) {
	reg, err := Load()
	require.NoError(t, err)

	for _, name := range []string{"Quotation AMB", "Quotation AMB Intl"} {
		dt, err := reg.Get(name)
		require.NoError(t, err)

		items, ok := dt.Field("items")
		require.True(t, ok, name)
		assert.True(t, items.IsTable())
		assert.Equal(t, []string{"item_code", "description", "qty", "rate", "amount"}, items.Columns)
	}

	intl, err := reg.Get("Quotation AMB Intl")
	require.NoError(t, err)
	currency, ok := intl.Field("currency")
	require.True(t, ok)
	assert.True(t, currency.Mandatory)
}

func TestLabelize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"item_code", "Item Code"},
		{"qty", "Qty"},
		{"destination_country", "Destination Country"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Labelize(tt.in))
	}
}
