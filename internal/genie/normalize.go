package genie

import (
	"encoding/json"

	"github.com/fieldline-ai/genie-bridge/internal/model"
)

// statementPayload mirrors the slice of the query-result response the
// bridge consumes: column schema from the manifest and raw rows from the
// result data array.
type statementPayload struct {
	StatementResponse *struct {
		Manifest struct {
			Schema struct {
				Columns []struct {
					Name     string `json:"name"`
					TypeText string `json:"type_text"`
					TypeName string `json:"type_name"`
				} `json:"columns"`
			} `json:"schema"`
		} `json:"manifest"`
		Result struct {
			DataArray [][]any `json:"data_array"`
		} `json:"result"`
	} `json:"statement_response"`
}

// Normalize converts a raw query-result payload into a QueryResult for the
// given SQL text. Column and row order are preserved exactly as returned;
// cell values keep their raw scalar representation. A payload without a
// statement_response is malformed: the caller only fetches results for
// messages it already observed as COMPLETED with a query attachment.
func Normalize(sqlText string, raw json.RawMessage) (*model.QueryResult, error) {
	var payload statementPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, wrapError(KindMalformedResponse, err, "decode query result")
	}
	if payload.StatementResponse == nil {
		return nil, newError(KindMalformedResponse, "query result missing statement_response")
	}

	schema := payload.StatementResponse.Manifest.Schema.Columns
	columns := make([]model.Column, len(schema))
	for i, col := range schema {
		typ := col.TypeText
		if typ == "" {
			typ = col.TypeName
		}
		columns[i] = model.Column{Name: col.Name, Type: typ}
	}

	rows := payload.StatementResponse.Result.DataArray
	if rows == nil {
		rows = [][]any{}
	}

	return &model.QueryResult{
		SQLText: sqlText,
		Columns: columns,
		Rows:    rows,
	}, nil
}
