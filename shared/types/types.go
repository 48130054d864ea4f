package types

// Wire shapes shared by the boundary handlers and the remote client.

// TablesResponse is the body of GET /api/clickhouse/tables
type TablesResponse struct {
	Tables []string `json:"tables"`
}

// Column describes one column of a table schema
type Column struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// SchemaResponse is the body of GET /api/clickhouse/schema/{table}
type SchemaResponse struct {
	Columns []Column `json:"columns"`
}

// QueryRequest is the body of POST /api/clickhouse/query
type QueryRequest struct {
	Query string `json:"query"`
}

// QueryResponse carries positional rows; cells carry no column names
type QueryResponse struct {
	Data [][]any `json:"data"`

	// Truncated is set when the result was cut at the server's row cap
	Truncated bool `json:"truncated,omitempty"`
}

// JoinCondition joins RightTable on LeftTable.LeftColumn = RightTable.RightColumn.
// JoinType is INNER, LEFT, RIGHT or FULL; empty means INNER.
type JoinCondition struct {
	JoinType    string `json:"joinType"`
	LeftTable   string `json:"leftTable"`
	LeftColumn  string `json:"leftColumn"`
	RightTable  string `json:"rightTable"`
	RightColumn string `json:"rightColumn"`
}

// PreviewRequest is the body of POST /api/clickhouse/preview. Columns are
// "column" or "table.column"; the first table is the FROM table.
type PreviewRequest struct {
	Tables         []string        `json:"tables"`
	Columns        []string        `json:"columns"`
	JoinConditions []JoinCondition `json:"join_conditions"`
}

// PreviewResponse is the body of POST /api/clickhouse/preview
type PreviewResponse struct {
	Data  [][]any `json:"data"`
	Count int     `json:"count"`
}

// UploadResponse is the body of POST /api/flatfile/upload
type UploadResponse struct {
	Message  string   `json:"message"`
	Columns  []string `json:"columns"`
	RowCount int      `json:"rowCount"`

	// Preview holds the first rows of the file, capped by the preview limit
	Preview [][]string `json:"preview,omitempty"`
}

// IngestRequest travels as the "request" multipart field of POST /api/flatfile/ingest
type IngestRequest struct {
	Columns   []string `json:"columns"`
	Delimiter string   `json:"delimiter"`
	TableName string   `json:"table_name"`
}

// IngestResponse is the body of POST /api/flatfile/ingest
type IngestResponse struct {
	Status        string   `json:"status"`
	RowsProcessed int      `json:"rows_processed"`
	Columns       []string `json:"columns"`
}

// PingRequest carries connection parameters for POST /api/clickhouse/ping
type PingRequest struct {
	Driver   string `json:"driver,omitempty"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	Database string `json:"database"`
	User     string `json:"user"`
	Password string `json:"password"`
	Protocol string `json:"protocol"`
}
