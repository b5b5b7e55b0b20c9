package mapping

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rogerboy38/amb-print-app/internal/schema"
)

func coaDocType(t *testing.T) *schema.DocType {
	t.Helper()
	reg, err := schema.Load()
	require.NoError(t, err)
	dt, err := reg.Get("COA AMB")
	require.NoError(t, err)
	return dt
}

func validCOAMapping() Mapping {
	m := New()
	m.Set("product_item", "ITEM-001")
	m.Set("batch_no", "25-0004")
	m.SetRows("child_table", []Row{{"Moisture", "5%", "%", "Pass", ""}})
	return m
}

func TestValidateValidMapping(t *testing.T) {
	dt := coaDocType(t)

	res := Validate(validCOAMapping(), dt)

	assert.True(t, res.Valid)
	assert.Empty(t, res.Errors)
	// customer, manufacture_date, expiry_date, lot_number are unmapped.
	assert.Len(t, res.Warnings, 4)
}

func TestValidateMissingMandatoryFieldNamesField(t *testing.T) {
	dt := coaDocType(t)
	m := validCOAMapping()
	delete(m, "product_item")

	res := Validate(m, dt)

	assert.False(t, res.Valid)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], `"product_item"`)
}

func TestValidateEmptyMandatoryFieldIsError(t *testing.T) {
	dt := coaDocType(t)
	m := validCOAMapping()
	m.Set("batch_no", "")

	res := Validate(m, dt)

	assert.False(t, res.Valid)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], `"batch_no"`)
}

func TestValidateEmptyChildTableNamesField(t *testing.T) {
	dt := coaDocType(t)
	m := validCOAMapping()
	m.SetRows("child_table", nil)

	res := Validate(m, dt)

	assert.False(t, res.Valid)
	require.Len(t, res.Errors, 1)
	assert.Contains(t, res.Errors[0], `"child_table"`)
}

func TestValidateEmptyMappingReportsBothViolations(t *testing.T) {
	dt := coaDocType(t)
	m := New()
	m.Set("product_item", "")
	m.SetRows("child_table", []Row{})
	m.Set("batch_no", "25-0004")

	res := Validate(m, dt)

	assert.False(t, res.Valid)
	require.Len(t, res.Errors, 2)
	assert.Contains(t, res.Errors[0], `"product_item"`)
	assert.Contains(t, res.Errors[1], `"child_table"`)
}

func TestValidateIsDeterministic(t *testing.T) {
	dt := coaDocType(t)
	m := New()
	m.Set("customer", "ACME")

	first := Validate(m, dt)
	second := Validate(m, dt)

	assert.Equal(t, first, second)
}

func TestValidationErrorMessage(t *testing.T) {
	err := &ValidationError{Field: "product_item", Reason: "missing"}
	assert.Equal(t, `field "product_item": missing`, err.Error())
}
