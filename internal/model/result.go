package model

// Column describes one column of a query result.
type Column struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

// QueryResult is the tabular output of a completed message. Column and row
// order match the remote payload exactly; cell values keep their raw JSON
// scalar representation (string, number, bool or nil).
type QueryResult struct {
	SQLText string   `json:"sql_text"`
	Columns []Column `json:"columns"`
	Rows    [][]any  `json:"rows"`
}
