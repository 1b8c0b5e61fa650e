package server

import (
	"bufio"
	"net"
	"strconv"
	"sync"
	"time"

	"coordchat/pkg/model"
)

// outBufferSize is the per-session outbound line buffer. A session whose
// buffer fills up is torn down rather than allowed to stall fan-out to the
// other sessions.
const outBufferSize = 64

// Session is the server-side state for one connected client: its identity,
// the transport, and the outbound line sink drained by writePump.
type Session struct {
	member model.Member
	conn   net.Conn
	out    chan string
	done   chan struct{}
	once   sync.Once
}

// NewSession wraps an accepted connection. The display name is filled in by
// the registration handshake via setName.
func NewSession(clientID int64, conn net.Conn) *Session {
	addr, port := splitHostPort(conn.RemoteAddr())
	return &Session{
		member: model.Member{
			ID:       clientID,
			Addr:     addr,
			Port:     port,
			JoinedAt: time.Now(),
		},
		conn: conn,
		out:  make(chan string, outBufferSize),
		done: make(chan struct{}),
	}
}

func splitHostPort(addr net.Addr) (string, int) {
	if addr == nil {
		return "", 0
	}
	host, portStr, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String(), 0
	}
	port, _ := strconv.Atoi(portStr)
	return host, port
}

func (s *Session) setName(name string) {
	s.member.Name = name
}

// ID returns the session's client id.
func (s *Session) ID() int64 { return s.member.ID }

// Name returns the registered display name, or "" before registration.
func (s *Session) Name() string { return s.member.Name }

// Member returns the session's identity record.
func (s *Session) Member() model.Member { return s.member }

// Send queues one line for delivery. It never blocks; it reports false when
// the session is closed or its buffer is full, in which case the caller
// should tear the session down.
func (s *Session) Send(line string) bool {
	select {
	case <-s.done:
		return false
	default:
	}
	select {
	case s.out <- line:
		return true
	default:
		return false
	}
}

// writePump drains the outbound sink into the connection, newline-terminating
// each line. A write failure closes the session; the read side then observes
// the closed transport and runs its cleanup path.
func (s *Session) writePump() {
	w := bufio.NewWriter(s.conn)
	for {
		select {
		case <-s.done:
			return
		case line := <-s.out:
			if _, err := w.WriteString(line + "\n"); err != nil {
				s.Close()
				return
			}
			if err := w.Flush(); err != nil {
				s.Close()
				return
			}
		}
	}
}

// Close shuts the session down exactly once: the writer stops and the
// transport is closed, which unblocks the reader.
func (s *Session) Close() {
	s.once.Do(func() {
		close(s.done)
		_ = s.conn.Close()
	})
}
