package valkey

import (
	"strconv"
	"strings"

	"gopkg.in/guregu/null.v3"
)

// Protocol tokens for command modifiers.
const (
	TokenEX       = "EX"
	TokenPX       = "PX"
	TokenEXAT     = "EXAT"
	TokenPXAT     = "PXAT"
	TokenPersist  = "PERSIST"
	TokenNX       = "NX"
	TokenXX       = "XX"
	TokenGT       = "GT"
	TokenLT       = "LT"
	TokenKeepTTL  = "KEEPTTL"
	TokenGet      = "GET"
	TokenReplace  = "REPLACE"
	TokenAbsTTL   = "ABSTTL"
	TokenIdleTime = "IDLETIME"
	TokenFreq     = "FREQ"
	TokenAsync    = "ASYNC"
	TokenID       = "ID"
	TokenAddr     = "ADDR"
	TokenType     = "TYPE"
	TokenSkipMe   = "SKIPME"
)

// ExpiryKind is the variant of an Expiry.
//
// Kinds are declared in priority order: when a builder receives more than one
// expiry, the kind with the lowest value wins regardless of call order.
type ExpiryKind int

const (
	ExpiryNone      ExpiryKind = iota
	ExpirySeconds              // EX
	ExpiryMillis               // PX
	ExpiryAtSeconds            // EXAT
	ExpiryAtMillis             // PXAT
	ExpiryPersist              // PERSIST, GETEX only
)

var expiryTokens = map[ExpiryKind]string{
	ExpirySeconds:   TokenEX,
	ExpiryMillis:    TokenPX,
	ExpiryAtSeconds: TokenEXAT,
	ExpiryAtMillis:  TokenPXAT,
	ExpiryPersist:   TokenPersist,
}

// Expiry is a single expiration modifier.
type Expiry struct {
	Kind  ExpiryKind
	Value int64 // unused for ExpiryNone and ExpiryPersist
}

func (e Expiry) args() []string {
	switch e.Kind {
	case ExpiryNone:
		return nil
	case ExpiryPersist:
		return []string{TokenPersist}
	default:
		return []string{expiryTokens[e.Kind], strconv.FormatInt(e.Value, 10)}
	}
}

// merge keeps the higher priority expiry. Equal kinds are replaced.
func (e Expiry) merge(next Expiry) Expiry {
	if next.Kind == ExpiryNone {
		return e
	}
	if e.Kind == ExpiryNone || next.Kind <= e.Kind {
		return next
	}
	return e
}

// WriteMode is the conditional write variant of SET.
//
// As with ExpiryKind, lower values have priority: NX wins over XX.
type WriteMode int

const (
	WriteUnconditional WriteMode = iota
	WriteIfNotExists             // NX
	WriteIfExists                // XX
)

func (m WriteMode) merge(next WriteMode) WriteMode {
	if next == WriteUnconditional {
		return m
	}
	if m == WriteUnconditional || next <= m {
		return next
	}
	return m
}

// SetOptions accumulates modifiers for SET. Every method returns the receiver
// so modifiers can be chained:
//
//	opts := valkey.NewSetOptions().EX(10).NX()
//
// The zero value is ready to use.
type SetOptions struct {
	expiry  Expiry
	mode    WriteMode
	keepTTL bool
	get     bool
}

// NewSetOptions returns an empty SetOptions.
func NewSetOptions() *SetOptions {
	return &SetOptions{}
}

// EX sets the expire time, in seconds.
func (o *SetOptions) EX(seconds int64) *SetOptions {
	o.expiry = o.expiry.merge(Expiry{Kind: ExpirySeconds, Value: seconds})
	return o
}

// PX sets the expire time, in milliseconds.
func (o *SetOptions) PX(millis int64) *SetOptions {
	o.expiry = o.expiry.merge(Expiry{Kind: ExpiryMillis, Value: millis})
	return o
}

// EXAT sets the Unix time at which the key will expire, in seconds.
func (o *SetOptions) EXAT(timestamp int64) *SetOptions {
	o.expiry = o.expiry.merge(Expiry{Kind: ExpiryAtSeconds, Value: timestamp})
	return o
}

// PXAT sets the Unix time at which the key will expire, in milliseconds.
func (o *SetOptions) PXAT(timestamp int64) *SetOptions {
	o.expiry = o.expiry.merge(Expiry{Kind: ExpiryAtMillis, Value: timestamp})
	return o
}

// NX only sets the key if it does not already exist.
func (o *SetOptions) NX() *SetOptions {
	o.mode = o.mode.merge(WriteIfNotExists)
	return o
}

// XX only sets the key if it already exists.
func (o *SetOptions) XX() *SetOptions {
	o.mode = o.mode.merge(WriteIfExists)
	return o
}

// KeepTTL retains the time to live associated with the key.
func (o *SetOptions) KeepTTL() *SetOptions {
	o.keepTTL = true
	return o
}

// Get returns the old value stored at key, or nil if the key did not exist.
func (o *SetOptions) Get() *SetOptions {
	o.get = true
	return o
}

func (o *SetOptions) Expiry() Expiry       { return o.expiry }
func (o *SetOptions) WriteMode() WriteMode { return o.mode }

// ToArgs reduces the options to protocol arguments:
// at most one expiry, then NX or XX, then KEEPTTL, then GET.
func (o *SetOptions) ToArgs() []string {
	args := o.expiry.args()

	switch o.mode {
	case WriteIfNotExists:
		args = append(args, TokenNX)
	case WriteIfExists:
		args = append(args, TokenXX)
	}

	if o.keepTTL {
		args = append(args, TokenKeepTTL)
	}
	if o.get {
		args = append(args, TokenGet)
	}
	return args
}

func (o *SetOptions) applySet(dst *SetOptions) {
	dst.expiry = dst.expiry.merge(o.expiry)
	dst.mode = dst.mode.merge(o.mode)
	dst.keepTTL = dst.keepTTL || o.keepTTL
	dst.get = dst.get || o.get
}

// SetArgs is the literal form of SetOptions. Unset fields are omitted:
//
//	client.Set(ctx, "k", "v", valkey.SetArgs{EX: null.IntFrom(10), NX: true})
type SetArgs struct {
	EX   null.Int
	PX   null.Int
	EXAT null.Int
	PXAT null.Int

	NX      bool
	XX      bool
	KeepTTL bool
	Get     bool
}

func (a SetArgs) applySet(dst *SetOptions) {
	if a.EX.Valid {
		dst.EX(a.EX.Int64)
	}
	if a.PX.Valid {
		dst.PX(a.PX.Int64)
	}
	if a.EXAT.Valid {
		dst.EXAT(a.EXAT.Int64)
	}
	if a.PXAT.Valid {
		dst.PXAT(a.PXAT.Int64)
	}
	if a.NX {
		dst.NX()
	}
	if a.XX {
		dst.XX()
	}
	if a.KeepTTL {
		dst.KeepTTL()
	}
	if a.Get {
		dst.Get()
	}
}

// ToArgs reduces the literal with the same rules as SetOptions.
func (a SetArgs) ToArgs() []string {
	return reduceSet(a)
}

// SetModifier is implemented by *SetOptions and SetArgs.
type SetModifier interface {
	applySet(dst *SetOptions)
}

func reduceSet(mods ...SetModifier) []string {
	opts := &SetOptions{}
	for _, m := range mods {
		if m != nil {
			m.applySet(opts)
		}
	}
	return opts.ToArgs()
}

// GetExOptions accumulates modifiers for GETEX. The zero value is ready to use.
type GetExOptions struct {
	expiry Expiry
}

// NewGetExOptions returns an empty GetExOptions.
func NewGetExOptions() *GetExOptions {
	return &GetExOptions{}
}

// EX sets the expire time, in seconds.
func (o *GetExOptions) EX(seconds int64) *GetExOptions {
	o.expiry = o.expiry.merge(Expiry{Kind: ExpirySeconds, Value: seconds})
	return o
}

// PX sets the expire time, in milliseconds.
func (o *GetExOptions) PX(millis int64) *GetExOptions {
	o.expiry = o.expiry.merge(Expiry{Kind: ExpiryMillis, Value: millis})
	return o
}

// EXAT sets the expiry as a Unix timestamp in seconds.
func (o *GetExOptions) EXAT(timestamp int64) *GetExOptions {
	o.expiry = o.expiry.merge(Expiry{Kind: ExpiryAtSeconds, Value: timestamp})
	return o
}

// PXAT sets the expiry as a Unix timestamp in milliseconds.
func (o *GetExOptions) PXAT(timestamp int64) *GetExOptions {
	o.expiry = o.expiry.merge(Expiry{Kind: ExpiryAtMillis, Value: timestamp})
	return o
}

// Persist removes the time to live associated with the key.
func (o *GetExOptions) Persist() *GetExOptions {
	o.expiry = o.expiry.merge(Expiry{Kind: ExpiryPersist})
	return o
}

func (o *GetExOptions) Expiry() Expiry { return o.expiry }

// ToArgs returns at most one expiry modifier: EX, PX, EXAT, PXAT or PERSIST
// in that priority.
func (o *GetExOptions) ToArgs() []string {
	return o.expiry.args()
}

func (o *GetExOptions) applyGetEx(dst *GetExOptions) {
	dst.expiry = dst.expiry.merge(o.expiry)
}

// GetExArgs is the literal form of GetExOptions.
type GetExArgs struct {
	EX   null.Int
	PX   null.Int
	EXAT null.Int
	PXAT null.Int

	Persist bool
}

func (a GetExArgs) applyGetEx(dst *GetExOptions) {
	if a.EX.Valid {
		dst.EX(a.EX.Int64)
	}
	if a.PX.Valid {
		dst.PX(a.PX.Int64)
	}
	if a.EXAT.Valid {
		dst.EXAT(a.EXAT.Int64)
	}
	if a.PXAT.Valid {
		dst.PXAT(a.PXAT.Int64)
	}
	if a.Persist {
		dst.Persist()
	}
}

func (a GetExArgs) ToArgs() []string {
	return reduceGetEx(a)
}

// GetExModifier is implemented by *GetExOptions and GetExArgs.
type GetExModifier interface {
	applyGetEx(dst *GetExOptions)
}

func reduceGetEx(mods ...GetExModifier) []string {
	opts := &GetExOptions{}
	for _, m := range mods {
		if m != nil {
			m.applyGetEx(opts)
		}
	}
	return opts.ToArgs()
}

// ExpireOptions holds the conditions of EXPIRE, PEXPIRE, EXPIREAT and PEXPIREAT.
// At most one condition may be set.
type ExpireOptions struct {
	NX bool // only when the key has no expiry
	XX bool // only when the key has an existing expiry
	GT bool // only when the new expiry is greater than the current one
	LT bool // only when the new expiry is less than the current one
}

// ToArgs returns the condition token, or a KindSyntax error when more than
// one condition is set.
func (o ExpireOptions) ToArgs() ([]string, error) {
	var args []string
	if o.NX {
		args = append(args, TokenNX)
	}
	if o.XX {
		args = append(args, TokenXX)
	}
	if o.GT {
		args = append(args, TokenGT)
	}
	if o.LT {
		args = append(args, TokenLT)
	}
	if len(args) > 1 {
		return nil, syntaxError("NX, XX, GT and LT are mutually exclusive, got " + strings.Join(args, " "))
	}
	return args, nil
}

// RestoreOptions are the modifiers of RESTORE.
type RestoreOptions struct {
	Replace  bool
	AbsTTL   bool
	IdleTime null.Int // seconds
	Freq     null.Int
}

func (o RestoreOptions) ToArgs() []string {
	var args []string
	if o.Replace {
		args = append(args, TokenReplace)
	}
	if o.AbsTTL {
		args = append(args, TokenAbsTTL)
	}
	if o.IdleTime.Valid {
		args = append(args, TokenIdleTime, strconv.FormatInt(o.IdleTime.Int64, 10))
	}
	if o.Freq.Valid {
		args = append(args, TokenFreq, strconv.FormatInt(o.Freq.Int64, 10))
	}
	return args
}

// ClientKillOptions are the filters of CLIENT KILL.
type ClientKillOptions struct {
	ID     null.Int
	Addr   null.String // ip:port
	Type   null.String // normal, master, replica, pubsub
	SkipMe null.Bool
}

func (o ClientKillOptions) ToArgs() []string {
	var args []string
	if o.ID.Valid {
		args = append(args, TokenID, strconv.FormatInt(o.ID.Int64, 10))
	}
	if o.Addr.Valid {
		args = append(args, TokenAddr, o.Addr.String)
	}
	if o.Type.Valid {
		args = append(args, TokenType, o.Type.String)
	}
	if o.SkipMe.Valid {
		skip := "no"
		if o.SkipMe.Bool {
			skip = "yes"
		}
		args = append(args, TokenSkipMe, skip)
	}
	return args
}

// ClientListOptions are the filters of CLIENT LIST.
type ClientListOptions struct {
	Type string
	IDs  []int64
}

func (o ClientListOptions) ToArgs() []string {
	var args []string
	if o.Type != "" {
		args = append(args, TokenType, o.Type)
	}
	if len(o.IDs) > 0 {
		args = append(args, TokenID)
		for _, id := range o.IDs {
			args = append(args, strconv.FormatInt(id, 10))
		}
	}
	return args
}

// FlushMode selects synchronous or asynchronous FLUSHALL / FLUSHDB.
type FlushMode int

const (
	FlushSync FlushMode = iota
	FlushAsync
)

func (m FlushMode) ToArgs() []string {
	if m == FlushAsync {
		return []string{TokenAsync}
	}
	return nil
}
