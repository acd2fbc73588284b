package valkey

import (
	"fmt"
	"math"
	"net"
	"strconv"
	"time"

	"github.com/zeebo/xxh3"
	"go.uber.org/multierr"
	"google.golang.org/protobuf/encoding/protowire"
)

// NodeAddress is one server endpoint.
type NodeAddress struct {
	Host string
	Port uint16
}

func (a NodeAddress) String() string {
	return net.JoinHostPort(a.Host, strconv.Itoa(int(a.Port)))
}

// Credentials are sent with AUTH when the connection is established.
// Username is empty for password-only authentication.
type Credentials struct {
	Username string
	Password string
}

// Descriptor is the connection request handed to Transport.Open.
// It is built once by BuildDescriptor and never modified afterwards.
type Descriptor struct {
	Addresses []NodeAddress

	// Auth is nil when neither username nor password was configured.
	Auth *Credentials

	DB uint32

	// RequestTimeout bounds each command. Zero means no timeout.
	RequestTimeout time.Duration
}

// BuildDescriptor merges opts over DefaultConnectionOptions and validates
// the result. Exactly one address is produced.
//
// Only type coercion is checked: the port must fit in 16 bits and the db
// index in 32 bits. All coercion failures are reported in a single
// KindSyntax error.
func BuildDescriptor(opts ConnectionOptions) (Descriptor, error) {
	merged := DefaultConnectionOptions().Apply(opts)

	var errs error
	if merged.Port.Int64 < 0 || merged.Port.Int64 > math.MaxUint16 {
		errs = multierr.Append(errs, fmt.Errorf("port %d out of range", merged.Port.Int64))
	}
	if merged.DB.Int64 < 0 || merged.DB.Int64 > math.MaxUint32 {
		errs = multierr.Append(errs, fmt.Errorf("db %d out of range", merged.DB.Int64))
	}
	if errs != nil {
		return Descriptor{}, &Error{Kind: KindSyntax, Message: errs.Error(), Err: errs}
	}

	d := Descriptor{
		Addresses: []NodeAddress{{
			Host: merged.Host.String,
			Port: uint16(merged.Port.Int64),
		}},
		DB:             uint32(merged.DB.Int64),
		RequestTimeout: merged.Timeout.ValueOrZero(),
	}

	if merged.Username.Valid || merged.Password.Valid {
		d.Auth = &Credentials{
			Username: merged.Username.String,
			Password: merged.Password.String,
		}
	}

	return d, nil
}

// Protobuf field numbers of the connection request message.
const (
	fieldAddresses      protowire.Number = 1
	fieldRequestTimeout protowire.Number = 4
	fieldAuthentication protowire.Number = 7
	fieldDatabaseID     protowire.Number = 8

	fieldAddressHost protowire.Number = 1
	fieldAddressPort protowire.Number = 2

	fieldAuthPassword protowire.Number = 1
	fieldAuthUsername protowire.Number = 2
)

// MarshalBinary encodes the descriptor as a protobuf ConnectionRequest
// message. Zero values are omitted, as proto3 does.
func (d Descriptor) MarshalBinary() ([]byte, error) {
	var b []byte

	for _, addr := range d.Addresses {
		var msg []byte
		if addr.Host != "" {
			msg = protowire.AppendTag(msg, fieldAddressHost, protowire.BytesType)
			msg = protowire.AppendString(msg, addr.Host)
		}
		if addr.Port != 0 {
			msg = protowire.AppendTag(msg, fieldAddressPort, protowire.VarintType)
			msg = protowire.AppendVarint(msg, uint64(addr.Port))
		}
		b = protowire.AppendTag(b, fieldAddresses, protowire.BytesType)
		b = protowire.AppendBytes(b, msg)
	}

	if ms := d.RequestTimeout.Milliseconds(); ms > 0 {
		b = protowire.AppendTag(b, fieldRequestTimeout, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(ms))
	}

	if d.Auth != nil {
		var msg []byte
		if d.Auth.Password != "" {
			msg = protowire.AppendTag(msg, fieldAuthPassword, protowire.BytesType)
			msg = protowire.AppendString(msg, d.Auth.Password)
		}
		if d.Auth.Username != "" {
			msg = protowire.AppendTag(msg, fieldAuthUsername, protowire.BytesType)
			msg = protowire.AppendString(msg, d.Auth.Username)
		}
		b = protowire.AppendTag(b, fieldAuthentication, protowire.BytesType)
		b = protowire.AppendBytes(b, msg)
	}

	if d.DB != 0 {
		b = protowire.AppendTag(b, fieldDatabaseID, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(d.DB))
	}

	return b, nil
}

// Fingerprint is a stable hash of the serialized descriptor. Two descriptors
// with the same target, credentials, db and timeout share a fingerprint.
func (d Descriptor) Fingerprint() uint64 {
	b, _ := d.MarshalBinary()
	return xxh3.Hash(b)
}

// FingerprintString is Fingerprint in hex, for logs and breaker names.
func (d Descriptor) FingerprintString() string {
	return strconv.FormatUint(d.Fingerprint(), 16)
}
