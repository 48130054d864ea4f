package constants

// Routes served by the boundary. The remote client builds its URLs from these.
const (
	RouteTables       = "/api/clickhouse/tables"
	RouteSchema       = "/api/clickhouse/schema/{table}"
	RouteQuery        = "/api/clickhouse/query"
	RoutePing         = "/api/clickhouse/ping"
	RoutePreview      = "/api/clickhouse/preview"
	RouteFileUpload   = "/api/flatfile/upload"
	RouteFileIngest   = "/api/flatfile/ingest"
	RouteFileDownload = "/api/flatfile/download/{table}"

	RouteHealthz = "/healthz"
	RouteReadyz  = "/readyz"
	RouteMetrics = "/metrics"
)

// Store drivers. Aliases are normalized by store.NormalizeDriver.
const (
	DriverClickHouse = "clickhouse"
	DriverMySQL      = "mysql"
	DriverPostgres   = "postgres"
	DriverSQLite     = "sqlite"
	DriverSQLServer  = "sqlserver"
)

// Flat file formats accepted by download and intake.
const (
	FormatCSV  = "csv"
	FormatXLSX = "xlsx"
)

// Multipart field names.
const (
	FieldFile      = "file"
	FieldTableName = "table_name"
	FieldRequest   = "request"
	FieldDelimiter = "delimiter"
)

const (
	// PreviewLimit caps the implicit preview query issued on table selection.
	PreviewLimit = 100

	// DefaultDelimiter is used when an ingest request omits the delimiter.
	DefaultDelimiter = ","

	// DefaultMaxUploadMB bounds the in-memory file buffer on the boundary.
	DefaultMaxUploadMB = 64

	// InsertBatchSize is the number of rows per INSERT during ingest.
	InsertBatchSize = 1000

	// MaxQueryRows caps the rows returned by the query endpoint.
	MaxQueryRows = 10000
)

// HeaderTruncated is set to "true" on query responses cut at MaxQueryRows.
const HeaderTruncated = "X-Result-Truncated"

// Content types for downloads.
const (
	ContentTypeCSV  = "text/csv; charset=utf-8"
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// ClickHouse HTTP interface defaults.
const (
	DefaultHost     = "localhost"
	DefaultHTTPPort = 8123
	DefaultTLSPort  = 8443
	DefaultDatabase = "default"
	DefaultUser     = "default"
)
