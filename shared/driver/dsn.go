package driver

import (
	"fmt"
	"net"
	"net/url"
	"strconv"

	"github.com/dracory/flatbridge/shared/constants"
	"github.com/dracory/flatbridge/shared/store"
	"github.com/dracory/flatbridge/shared/types"
)

const (
	DefaultHost     = constants.DefaultHost
	DefaultHTTPPort = constants.DefaultHTTPPort
	DefaultTLSPort  = constants.DefaultTLSPort
	DefaultDatabase = constants.DefaultDatabase
	DefaultUser     = constants.DefaultUser
)

// WithDefaults fills blank connection parameters. The driver defaults to
// ClickHouse and the port follows the protocol.
func WithDefaults(req types.PingRequest) types.PingRequest {
	if req.Driver == "" {
		req.Driver = constants.DriverClickHouse
	}
	if req.Protocol != "https" {
		req.Protocol = "http"
	}
	if req.Host == "" {
		req.Host = DefaultHost
	}
	if req.Port == 0 {
		req.Port = DefaultHTTPPort
		if req.Protocol == "https" {
			req.Port = DefaultTLSPort
		}
	}
	if req.Database == "" {
		req.Database = DefaultDatabase
	}
	if req.User == "" && store.NormalizeDriver(req.Driver) == constants.DriverClickHouse {
		req.User = DefaultUser
	}
	return req
}

// DSN builds the data source name for req.Driver. For sqlite the database
// field is the file path.
func DSN(req types.PingRequest) (string, error) {
	hostPort := net.JoinHostPort(req.Host, strconv.Itoa(req.Port))
	switch store.NormalizeDriver(req.Driver) {
	case constants.DriverClickHouse:
		return ClickHouseDSN(req.Protocol, req.Host, req.Port, req.Database, req.User, req.Password), nil
	case constants.DriverSQLite:
		return req.Database, nil
	case constants.DriverMySQL:
		return fmt.Sprintf("%s:%s@tcp(%s)/%s?parseTime=true", req.User, req.Password, hostPort, req.Database), nil
	case constants.DriverPostgres:
		u := url.URL{Scheme: "postgres", Host: hostPort, Path: "/" + req.Database}
		if req.User != "" {
			u.User = url.UserPassword(req.User, req.Password)
		}
		return u.String(), nil
	case constants.DriverSQLServer:
		u := url.URL{Scheme: "sqlserver", Host: hostPort, RawQuery: url.Values{"database": {req.Database}}.Encode()}
		if req.User != "" {
			u.User = url.UserPassword(req.User, req.Password)
		}
		return u.String(), nil
	default:
		return "", fmt.Errorf("%w: %s", store.ErrUnsupportedDriver, req.Driver)
	}
}

// ClickHouseDSN builds a DSN for the ClickHouse HTTP interface.
// protocol is "http" or "https"; anything else is treated as "http".
func ClickHouseDSN(protocol, host string, port int, database, user, password string) string {
	if protocol != "https" {
		protocol = "http"
	}
	u := url.URL{
		Scheme: protocol,
		Host:   net.JoinHostPort(host, strconv.Itoa(port)),
		Path:   "/" + database,
	}
	if user != "" {
		u.User = url.UserPassword(user, password)
	}
	return u.String()
}
