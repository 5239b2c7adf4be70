package genie

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePreservesOrder(t *testing.T) {
	result, err := Normalize("SELECT product, revenue FROM sales", json.RawMessage(testResultPayload))
	require.NoError(t, err)

	assert.Equal(t, "SELECT product, revenue FROM sales", result.SQLText)

	require.Len(t, result.Columns, 2)
	assert.Equal(t, "product", result.Columns[0].Name)
	assert.Equal(t, "STRING", result.Columns[0].Type)
	assert.Equal(t, "revenue", result.Columns[1].Name)

	require.Len(t, result.Rows, 3)
	for _, row := range result.Rows {
		assert.Len(t, row, len(result.Columns))
	}
	assert.Equal(t, "widget", result.Rows[0][0])
	assert.Equal(t, "100.5", result.Rows[0][1])
	assert.Equal(t, "gizmo", result.Rows[2][0])
}

func TestNormalizeNullCells(t *testing.T) {
	payload := `{
		"statement_response": {
			"manifest": {"schema": {"columns": [{"name": "a", "type_text": "STRING"}]}},
			"result": {"data_array": [[null], ["x"]]}
		}
	}`

	result, err := Normalize("SELECT a FROM t", json.RawMessage(payload))
	require.NoError(t, err)
	require.Len(t, result.Rows, 2)
	assert.Nil(t, result.Rows[0][0])
	assert.Equal(t, "x", result.Rows[1][0])
}

func TestNormalizeEmptyResult(t *testing.T) {
	payload := `{"statement_response": {"manifest": {"schema": {"columns": []}}, "result": {}}}`

	result, err := Normalize("SELECT 1 WHERE false", json.RawMessage(payload))
	require.NoError(t, err)
	assert.Empty(t, result.Columns)
	assert.NotNil(t, result.Rows)
	assert.Empty(t, result.Rows)
}

func TestNormalizeTypeNameFallback(t *testing.T) {
	payload := `{
		"statement_response": {
			"manifest": {"schema": {"columns": [{"name": "n", "type_name": "LONG"}]}},
			"result": {"data_array": [["1"]]}
		}
	}`

	result, err := Normalize("SELECT n", json.RawMessage(payload))
	require.NoError(t, err)
	require.Len(t, result.Columns, 1)
	assert.Equal(t, "LONG", result.Columns[0].Type)
}

func TestNormalizeMissingStatementResponse(t *testing.T) {
	_, err := Normalize("SELECT 1", json.RawMessage(`{"something_else": true}`))
	require.Error(t, err)
	assert.True(t, IsKind(err, KindMalformedResponse))
}

func TestNormalizeInvalidJSON(t *testing.T) {
	_, err := Normalize("SELECT 1", json.RawMessage(`not json`))
	require.Error(t, err)
	assert.True(t, IsKind(err, KindMalformedResponse))
}
