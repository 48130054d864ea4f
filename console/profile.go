package console

import (
	"errors"
	"fmt"
	"strings"

	"github.com/dracory/flatbridge/shared/constants"
	"github.com/dracory/flatbridge/shared/types"
)

const (
	ProtocolHTTP  = "http"
	ProtocolHTTPS = "https"
)

// Profile holds the connection parameters of the remote store and the bearer
// token of the boundary. It is a value; the With methods return edited copies.
type Profile struct {
	Host     string
	Port     int
	Database string
	User     string
	Secret   string
	Protocol string
	Token    string
}

// DefaultProfile is a local ClickHouse over HTTP.
func DefaultProfile() Profile {
	return Profile{
		Host:     constants.DefaultHost,
		Port:     constants.DefaultHTTPPort,
		Database: constants.DefaultDatabase,
		User:     constants.DefaultUser,
		Protocol: ProtocolHTTP,
	}
}

func (p Profile) WithHost(host string) Profile         { p.Host = host; return p }
func (p Profile) WithPort(port int) Profile            { p.Port = port; return p }
func (p Profile) WithDatabase(database string) Profile { p.Database = database; return p }
func (p Profile) WithUser(user string) Profile         { p.User = user; return p }
func (p Profile) WithSecret(secret string) Profile     { p.Secret = secret; return p }
func (p Profile) WithToken(token string) Profile       { p.Token = token; return p }

// WithProtocol sets the protocol. Anything but http or https is kept as given
// and rejected by Validate.
func (p Profile) WithProtocol(protocol string) Profile {
	p.Protocol = strings.ToLower(strings.TrimSpace(protocol))
	return p
}

// Validate checks the fields a connection test needs.
func (p Profile) Validate() error {
	var errs []error
	if strings.TrimSpace(p.Host) == "" {
		errs = append(errs, missing("host"))
	}
	if p.Port <= 0 || p.Port > 65535 {
		errs = append(errs, fmt.Errorf("%w: port %d out of range", ErrMissingField, p.Port))
	}
	if p.Protocol != ProtocolHTTP && p.Protocol != ProtocolHTTPS {
		errs = append(errs, fmt.Errorf("%w: protocol must be http or https, got %q", ErrMissingField, p.Protocol))
	}
	return errors.Join(errs...)
}

// PingRequest is the profile as sent to the connection test endpoint.
func (p Profile) PingRequest() types.PingRequest {
	return types.PingRequest{
		Host:     p.Host,
		Port:     p.Port,
		Database: p.Database,
		User:     p.User,
		Password: p.Secret,
		Protocol: p.Protocol,
	}
}

// String hides the secret and the token.
func (p Profile) String() string {
	return fmt.Sprintf("%s://%s@%s:%d/%s", p.Protocol, p.User, p.Host, p.Port, p.Database)
}
