package testutils

import (
	"bufio"
	"net"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pior/valkey/resp"
)

// Server is a small in-memory RESP server for tests. It understands enough
// commands to exercise a client end to end, including DEBUG SLEEP to hold a
// reply back.
type Server struct {
	// Username and Password, when Password is set, are required by AUTH.
	// They are set by NewAuthServer and must not be changed afterwards.
	Username string
	Password string

	listener net.Listener
	done     chan struct{}
	wg       sync.WaitGroup

	mu       sync.Mutex
	dbs      map[uint32]map[string]*entry
	conns    map[net.Conn]struct{}
	commands []string

	accepted atomic.Int64
	nextID   atomic.Int64
}

type entry struct {
	str      string
	list     []string
	isList   bool
	expireAt time.Time
}

// NewServer starts a server on a random local port. It is closed when the
// test ends.
func NewServer(tb testing.TB) *Server {
	tb.Helper()
	return NewAuthServer(tb, "", "")
}

// NewAuthServer starts a server that requires AUTH when password is set.
// An empty username stands for the default user.
func NewAuthServer(tb testing.TB, username, password string) *Server {
	tb.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		tb.Fatalf("listen: %v", err)
	}

	s := &Server{
		Username: username,
		Password: password,
		listener: ln,
		done:     make(chan struct{}),
		dbs:      make(map[uint32]map[string]*entry),
		conns:    make(map[net.Conn]struct{}),
	}

	s.wg.Add(1)
	go s.serve()

	tb.Cleanup(s.Close)
	return s
}

// Host returns the listening IP.
func (s *Server) Host() string {
	return s.listener.Addr().(*net.TCPAddr).IP.String()
}

// Port returns the listening port.
func (s *Server) Port() int {
	return s.listener.Addr().(*net.TCPAddr).Port
}

// Accepted returns the number of connections accepted so far.
func (s *Server) Accepted() int {
	return int(s.accepted.Load())
}

// Commands returns every command received, space separated, in order.
func (s *Server) Commands() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.commands...)
}

// Close stops the server and waits for every connection goroutine to exit.
func (s *Server) Close() {
	select {
	case <-s.done:
		return
	default:
	}
	close(s.done)
	_ = s.listener.Close()

	s.mu.Lock()
	for c := range s.conns {
		_ = c.Close()
	}
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *Server) serve() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return
		}
		s.accepted.Add(1)

		s.mu.Lock()
		select {
		case <-s.done:
			s.mu.Unlock()
			_ = conn.Close()
			return
		default:
		}
		s.conns[conn] = struct{}{}
		s.mu.Unlock()

		s.wg.Add(1)
		go s.handle(conn)
	}
}

type session struct {
	id     int64
	db     uint32
	authed bool
	name   string
}

func (s *Server) handle(conn net.Conn) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		_ = conn.Close()
	}()

	r := bufio.NewReader(conn)
	w := bufio.NewWriter(conn)
	sess := &session{id: s.nextID.Add(1), authed: s.Password == ""}

	for {
		req, err := resp.ReadReply(r)
		if err != nil {
			return
		}
		items, ok := req.([]any)
		if !ok || len(items) == 0 {
			writeError(w, "ERR protocol error")
			_ = w.Flush()
			continue
		}
		args := make([]string, len(items))
		for i, item := range items {
			args[i], _ = item.(string)
		}

		s.mu.Lock()
		s.commands = append(s.commands, strings.Join(args, " "))
		s.mu.Unlock()

		if !s.dispatch(w, sess, args) {
			return
		}
		if err := w.Flush(); err != nil {
			return
		}
	}
}

// dispatch writes the reply to args. It returns false to drop the connection.
func (s *Server) dispatch(w *bufio.Writer, sess *session, args []string) bool {
	name := strings.ToUpper(args[0])
	args = args[1:]

	if !sess.authed && name != "AUTH" {
		writeError(w, "NOAUTH Authentication required.")
		return true
	}

	switch name {
	case "PING":
		if len(args) == 1 {
			writeBulk(w, args[0])
		} else {
			writeSimple(w, "PONG")
		}

	case "AUTH":
		s.auth(w, sess, args)

	case "SELECT":
		db, err := strconv.ParseUint(args[0], 10, 32)
		if err != nil {
			writeError(w, "ERR value is not an integer or out of range")
			return true
		}
		sess.db = uint32(db)
		writeSimple(w, "OK")

	case "DEBUG":
		if len(args) == 2 && strings.EqualFold(args[0], "SLEEP") {
			secs, _ := strconv.ParseFloat(args[1], 64)
			select {
			case <-time.After(time.Duration(secs * float64(time.Second))):
			case <-s.done:
				return false
			}
		}
		writeSimple(w, "OK")

	case "TIME":
		now := time.Now()
		writeArrayHeader(w, 2)
		writeBulk(w, strconv.FormatInt(now.Unix(), 10))
		writeBulk(w, strconv.FormatInt(int64(now.Nanosecond()/1000), 10))

	case "CLIENT":
		s.client(w, sess, args)

	default:
		s.mu.Lock()
		defer s.mu.Unlock()
		s.keyspace(w, s.db(sess.db), name, args)
	}
	return true
}

func (s *Server) auth(w *bufio.Writer, sess *session, args []string) {
	if s.Password == "" {
		writeError(w, "ERR AUTH <password> called without any password configured for the default user.")
		return
	}
	user, pass := "default", args[len(args)-1]
	if len(args) == 2 {
		user = args[0]
	}
	wantUser := s.Username
	if wantUser == "" {
		wantUser = "default"
	}
	if user != wantUser || pass != s.Password {
		writeError(w, "WRONGPASS invalid username-password pair or user is disabled.")
		return
	}
	sess.authed = true
	writeSimple(w, "OK")
}

func (s *Server) client(w *bufio.Writer, sess *session, args []string) {
	switch strings.ToUpper(args[0]) {
	case "ID":
		writeInt(w, sess.id)
	case "SETNAME":
		sess.name = args[1]
		writeSimple(w, "OK")
	case "GETNAME":
		if sess.name == "" {
			writeNull(w)
		} else {
			writeBulk(w, sess.name)
		}
	default:
		writeError(w, "ERR unknown subcommand '"+args[0]+"'")
	}
}

// db returns the keyspace of index, creating it. Must be called with mu held.
func (s *Server) db(index uint32) map[string]*entry {
	db, ok := s.dbs[index]
	if !ok {
		db = make(map[string]*entry)
		s.dbs[index] = db
	}
	return db
}

const wrongType = "WRONGTYPE Operation against a key holding the wrong kind of value"

func lookup(db map[string]*entry, key string) *entry {
	e, ok := db[key]
	if !ok {
		return nil
	}
	if !e.expireAt.IsZero() && time.Now().After(e.expireAt) {
		delete(db, key)
		return nil
	}
	return e
}

func (s *Server) keyspace(w *bufio.Writer, db map[string]*entry, name string, args []string) {
	switch name {
	case "GET":
		e := lookup(db, args[0])
		switch {
		case e == nil:
			writeNull(w)
		case e.isList:
			writeError(w, wrongType)
		default:
			writeBulk(w, e.str)
		}

	case "SET":
		setCommand(w, db, args)

	case "GETDEL":
		e := lookup(db, args[0])
		switch {
		case e == nil:
			writeNull(w)
		case e.isList:
			writeError(w, wrongType)
		default:
			delete(db, args[0])
			writeBulk(w, e.str)
		}

	case "GETEX":
		e := lookup(db, args[0])
		if e == nil {
			writeNull(w)
			return
		}
		if len(args) >= 2 {
			switch strings.ToUpper(args[1]) {
			case "PERSIST":
				e.expireAt = time.Time{}
			case "EX":
				secs, _ := strconv.ParseInt(args[2], 10, 64)
				e.expireAt = time.Now().Add(time.Duration(secs) * time.Second)
			case "PX":
				ms, _ := strconv.ParseInt(args[2], 10, 64)
				e.expireAt = time.Now().Add(time.Duration(ms) * time.Millisecond)
			}
		}
		writeBulk(w, e.str)

	case "PERSIST":
		e := lookup(db, args[0])
		if e == nil || e.expireAt.IsZero() {
			writeInt(w, 0)
			return
		}
		e.expireAt = time.Time{}
		writeInt(w, 1)

	case "MSET":
		for i := 0; i+1 < len(args); i += 2 {
			db[args[i]] = &entry{str: args[i+1]}
		}
		writeSimple(w, "OK")

	case "MGET":
		writeArrayHeader(w, len(args))
		for _, key := range args {
			if e := lookup(db, key); e != nil && !e.isList {
				writeBulk(w, e.str)
			} else {
				writeNull(w)
			}
		}

	case "DEL":
		var n int64
		for _, key := range args {
			if lookup(db, key) != nil {
				delete(db, key)
				n++
			}
		}
		writeInt(w, n)

	case "INCR":
		e := lookup(db, args[0])
		if e == nil {
			e = &entry{str: "0"}
			db[args[0]] = e
		}
		if e.isList {
			writeError(w, wrongType)
			return
		}
		n, err := strconv.ParseInt(e.str, 10, 64)
		if err != nil {
			writeError(w, "ERR value is not an integer or out of range")
			return
		}
		n++
		e.str = strconv.FormatInt(n, 10)
		writeInt(w, n)

	case "LPUSH":
		e := lookup(db, args[0])
		if e == nil {
			e = &entry{isList: true}
			db[args[0]] = e
		}
		if !e.isList {
			writeError(w, wrongType)
			return
		}
		e.list = append(args[1:], e.list...)
		writeInt(w, int64(len(e.list)))

	case "EXPIRE":
		e := lookup(db, args[0])
		if e == nil {
			writeInt(w, 0)
			return
		}
		secs, _ := strconv.ParseInt(args[1], 10, 64)
		e.expireAt = time.Now().Add(time.Duration(secs) * time.Second)
		writeInt(w, 1)

	case "TTL":
		e := lookup(db, args[0])
		switch {
		case e == nil:
			writeInt(w, -2)
		case e.expireAt.IsZero():
			writeInt(w, -1)
		default:
			writeInt(w, int64(time.Until(e.expireAt).Round(time.Second)/time.Second))
		}

	case "DBSIZE":
		writeInt(w, int64(len(db)))

	case "FLUSHDB":
		for k := range db {
			delete(db, k)
		}
		writeSimple(w, "OK")

	default:
		writeError(w, "ERR unknown command '"+strings.ToLower(name)+"'")
	}
}

func setCommand(w *bufio.Writer, db map[string]*entry, args []string) {
	key, value := args[0], args[1]
	var (
		expireAt  time.Time
		nx, xx    bool
		returnOld bool
	)
	for i := 2; i < len(args); i++ {
		switch strings.ToUpper(args[i]) {
		case "EX":
			i++
			secs, _ := strconv.ParseInt(args[i], 10, 64)
			expireAt = time.Now().Add(time.Duration(secs) * time.Second)
		case "PX":
			i++
			ms, _ := strconv.ParseInt(args[i], 10, 64)
			expireAt = time.Now().Add(time.Duration(ms) * time.Millisecond)
		case "NX":
			nx = true
		case "XX":
			xx = true
		case "GET":
			returnOld = true
		case "KEEPTTL":
		default:
			writeError(w, "ERR syntax error")
			return
		}
	}

	old := lookup(db, key)
	if old != nil && old.isList && returnOld {
		writeError(w, wrongType)
		return
	}
	if (nx && old != nil) || (xx && old == nil) {
		if returnOld && old != nil {
			writeBulk(w, old.str)
		} else {
			writeNull(w)
		}
		return
	}

	db[key] = &entry{str: value, expireAt: expireAt}

	switch {
	case !returnOld:
		writeSimple(w, "OK")
	case old == nil:
		writeNull(w)
	default:
		writeBulk(w, old.str)
	}
}

func writeSimple(w *bufio.Writer, s string) {
	w.WriteString("+" + s + resp.CRLF)
}

func writeError(w *bufio.Writer, msg string) {
	w.WriteString("-" + msg + resp.CRLF)
}

func writeInt(w *bufio.Writer, n int64) {
	w.WriteString(":" + strconv.FormatInt(n, 10) + resp.CRLF)
}

func writeBulk(w *bufio.Writer, s string) {
	w.WriteString("$" + strconv.Itoa(len(s)) + resp.CRLF + s + resp.CRLF)
}

func writeNull(w *bufio.Writer) {
	w.WriteString("$-1" + resp.CRLF)
}

func writeArrayHeader(w *bufio.Writer, n int) {
	w.WriteString("*" + strconv.Itoa(n) + resp.CRLF)
}
