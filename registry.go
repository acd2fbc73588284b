package valkey

import (
	"strconv"
	"strings"
)

type commandID int

const (
	// strings
	cmdGet commandID = iota
	cmdSet
	cmdGetEx
	cmdGetDel
	cmdGetRange
	cmdStrLen
	cmdAppend
	cmdSetRange
	cmdMSet
	cmdMSetNX
	cmdMGet
	cmdIncr
	cmdIncrBy
	cmdIncrByFloat
	cmdDecr
	cmdDecrBy

	// keys
	cmdDel
	cmdExists
	cmdExpire
	cmdPExpire
	cmdExpireAt
	cmdPExpireAt
	cmdTTL
	cmdPTTL
	cmdExpireTime
	cmdPExpireTime
	cmdPersist
	cmdRandomKey
	cmdRename
	cmdRenameNX
	cmdRestore
	cmdConfigSet
	cmdConfigGet
	cmdMove

	// server
	cmdInfo
	cmdPing
	cmdSelect
	cmdDBSize
	cmdFlushAll
	cmdFlushDB
	cmdTime
	cmdClientID
	cmdClientSetName
	cmdClientGetName
	cmdClientKill
	cmdClientList
	cmdCluster
)

// commandSpec describes how a command is encoded and how its reply is read.
type commandSpec struct {
	// wire is the command name followed by its subcommand, if any.
	wire []string
	// arity is the number of positional arguments, or the minimum when variadic.
	arity    int
	variadic bool
	// maxArity caps a variadic command. Zero means no limit.
	maxArity int
	// options reports whether the command takes modifiers after its positional arguments.
	options bool
	reply   replyShape
}

func (s commandSpec) name() string {
	return strings.Join(s.wire, " ")
}

func (s commandSpec) checkArity(n int) *Error {
	if n == s.arity || (s.variadic && n > s.arity && (s.maxArity == 0 || n <= s.maxArity)) {
		return nil
	}
	want := strconv.Itoa(s.arity)
	switch {
	case s.variadic && s.maxArity > 0:
		want = "at most " + strconv.Itoa(s.maxArity)
	case s.variadic:
		want = "at least " + want
	}
	return syntaxError("wrong number of arguments for '" + strings.ToLower(s.name()) +
		"': expected " + want + ", got " + strconv.Itoa(n))
}

// encode builds the command. The subcommand is sent as the first argument.
func (s commandSpec) encode(positional []any, options []string) Command {
	if len(s.wire) == 1 {
		return Encode(s.wire[0], positional, options)
	}
	args := make([]any, 0, len(s.wire)-1+len(positional))
	for _, sub := range s.wire[1:] {
		args = append(args, sub)
	}
	args = append(args, positional...)
	return Encode(s.wire[0], args, options)
}

var commands = map[commandID]commandSpec{
	cmdGet:         {wire: []string{"GET"}, arity: 1, reply: replyNullString},
	cmdSet:         {wire: []string{"SET"}, arity: 2, options: true, reply: replyNullString},
	cmdGetEx:       {wire: []string{"GETEX"}, arity: 1, options: true, reply: replyNullString},
	cmdGetDel:      {wire: []string{"GETDEL"}, arity: 1, reply: replyNullString},
	cmdGetRange:    {wire: []string{"GETRANGE"}, arity: 3, reply: replyStatus},
	cmdStrLen:      {wire: []string{"STRLEN"}, arity: 1, reply: replyInt},
	cmdAppend:      {wire: []string{"APPEND"}, arity: 2, reply: replyInt},
	cmdSetRange:    {wire: []string{"SETRANGE"}, arity: 3, reply: replyInt},
	cmdMSet:        {wire: []string{"MSET"}, arity: 2, variadic: true, reply: replyStatus},
	cmdMSetNX:      {wire: []string{"MSETNX"}, arity: 2, variadic: true, reply: replyBool},
	cmdMGet:        {wire: []string{"MGET"}, arity: 1, variadic: true, reply: replyNullList},
	cmdIncr:        {wire: []string{"INCR"}, arity: 1, reply: replyInt},
	cmdIncrBy:      {wire: []string{"INCRBY"}, arity: 2, reply: replyInt},
	cmdIncrByFloat: {wire: []string{"INCRBYFLOAT"}, arity: 2, reply: replyFloat},
	cmdDecr:        {wire: []string{"DECR"}, arity: 1, reply: replyInt},
	cmdDecrBy:      {wire: []string{"DECRBY"}, arity: 2, reply: replyInt},

	cmdDel:         {wire: []string{"DEL"}, arity: 1, variadic: true, reply: replyInt},
	cmdExists:      {wire: []string{"EXISTS"}, arity: 1, variadic: true, reply: replyInt},
	cmdExpire:      {wire: []string{"EXPIRE"}, arity: 2, options: true, reply: replyBool},
	cmdPExpire:     {wire: []string{"PEXPIRE"}, arity: 2, options: true, reply: replyBool},
	cmdExpireAt:    {wire: []string{"EXPIREAT"}, arity: 2, options: true, reply: replyBool},
	cmdPExpireAt:   {wire: []string{"PEXPIREAT"}, arity: 2, options: true, reply: replyBool},
	cmdTTL:         {wire: []string{"TTL"}, arity: 1, reply: replyInt},
	cmdPTTL:        {wire: []string{"PTTL"}, arity: 1, reply: replyInt},
	cmdExpireTime:  {wire: []string{"EXPIRETIME"}, arity: 1, reply: replyInt},
	cmdPExpireTime: {wire: []string{"PEXPIRETIME"}, arity: 1, reply: replyInt},
	cmdPersist:     {wire: []string{"PERSIST"}, arity: 1, reply: replyBool},
	cmdRandomKey:   {wire: []string{"RANDOMKEY"}, reply: replyNullString},
	cmdRename:      {wire: []string{"RENAME"}, arity: 2, reply: replyStatus},
	cmdRenameNX:    {wire: []string{"RENAMENX"}, arity: 2, reply: replyBool},
	cmdRestore:     {wire: []string{"RESTORE"}, arity: 3, options: true, reply: replyStatus},
	cmdConfigSet:   {wire: []string{"CONFIG", "SET"}, arity: 2, variadic: true, reply: replyStatus},
	cmdConfigGet:   {wire: []string{"CONFIG", "GET"}, arity: 1, variadic: true, reply: replyMap},
	cmdMove:        {wire: []string{"MOVE"}, arity: 2, reply: replyBool},

	cmdInfo:          {wire: []string{"INFO"}, variadic: true, reply: replyStatus},
	cmdPing:          {wire: []string{"PING"}, variadic: true, maxArity: 1, reply: replyStatus},
	cmdSelect:        {wire: []string{"SELECT"}, arity: 1, reply: replyStatus},
	cmdDBSize:        {wire: []string{"DBSIZE"}, reply: replyInt},
	cmdFlushAll:      {wire: []string{"FLUSHALL"}, options: true, reply: replyStatus},
	cmdFlushDB:       {wire: []string{"FLUSHDB"}, options: true, reply: replyStatus},
	cmdTime:          {wire: []string{"TIME"}, reply: replyTime},
	cmdClientID:      {wire: []string{"CLIENT", "ID"}, reply: replyInt},
	cmdClientSetName: {wire: []string{"CLIENT", "SETNAME"}, arity: 1, reply: replyStatus},
	cmdClientGetName: {wire: []string{"CLIENT", "GETNAME"}, reply: replyNullString},
	cmdClientKill:    {wire: []string{"CLIENT", "KILL"}, options: true, reply: replyRaw},
	cmdClientList:    {wire: []string{"CLIENT", "LIST"}, options: true, reply: replyStatus},
	cmdCluster:       {wire: []string{"CLUSTER"}, arity: 1, variadic: true, reply: replyRaw},
}
