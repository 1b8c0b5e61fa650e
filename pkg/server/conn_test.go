package server

import (
	"bufio"
	"net"
	"strings"
	"testing"
	"time"

	"coordchat/pkg/oplog"
	"coordchat/pkg/protocol"
)

func startServer(t *testing.T, opts ...func(*Config)) *Server {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Addr = "127.0.0.1:0"
	cfg.MetricsAddr = ""
	for _, opt := range opts {
		opt(&cfg)
	}
	srv := New(cfg, Dependencies{Log: oplog.NewMemory()})
	if err := srv.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(srv.Shutdown)
	return srv
}

type testClient struct {
	conn   net.Conn
	reader *bufio.Reader
}

func dial(t *testing.T, srv *Server) *testClient {
	t.Helper()
	conn, err := net.Dial("tcp", srv.Addr())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return &testClient{conn: conn, reader: bufio.NewReader(conn)}
}

func (c *testClient) send(t *testing.T, line string) {
	t.Helper()
	if _, err := c.conn.Write([]byte(line + "\n")); err != nil {
		t.Fatalf("send %q: %v", line, err)
	}
}

// expect reads lines until one starts with the given prefix, failing on
// stream end or timeout. It returns the matching line.
func (c *testClient) expect(t *testing.T, prefix string) string {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	_ = c.conn.SetReadDeadline(deadline)
	for {
		line, err := c.reader.ReadString('\n')
		if err != nil {
			t.Fatalf("waiting for %q: %v", prefix, err)
		}
		line = strings.TrimRight(line, "\r\n")
		if strings.HasPrefix(line, prefix) {
			_ = c.conn.SetReadDeadline(time.Time{})
			return line
		}
	}
}

// register performs the handshake for the given name and waits for the
// NAMEACCEPTED line.
func register(t *testing.T, srv *Server, name string) *testClient {
	t.Helper()
	c := dial(t, srv)
	c.expect(t, protocol.SubmitName)
	c.send(t, name)
	c.expect(t, protocol.NameAccepted)
	return c
}

func TestHandshakeElectsFirstCoordinator(t *testing.T) {
	srv := startServer(t)

	alice := dial(t, srv)
	alice.expect(t, protocol.SubmitName)
	alice.send(t, "alice")
	if got := alice.expect(t, protocol.NameAccepted); got != "NAMEACCEPTED alice" {
		t.Fatalf("accept line = %q", got)
	}
	alice.expect(t, protocol.YouAreCoordinator)

	bob := dial(t, srv)
	bob.expect(t, protocol.SubmitName)
	bob.send(t, "bob")
	bob.expect(t, protocol.NameAccepted)
	if got := bob.expect(t, protocol.CoordinatorIs); got != "COORDINATORIS alice" {
		t.Fatalf("coordinator line = %q", got)
	}
	// With more than one member, joiners are reminded that member details
	// need coordinator approval.
	bob.expect(t, "MESSAGE Please ask for permission")
}

func TestDuplicateNameClosedWithoutAccept(t *testing.T) {
	srv := startServer(t)
	register(t, srv, "alice")

	dup := dial(t, srv)
	dup.expect(t, protocol.SubmitName)
	dup.send(t, "alice")

	// Rejection is an abrupt close: the stream must end without NAMEACCEPTED.
	_ = dup.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		line, err := dup.reader.ReadString('\n')
		if err != nil {
			break
		}
		if strings.HasPrefix(line, protocol.NameAccepted) {
			t.Fatalf("duplicate name was accepted: %q", line)
		}
	}

	if got := srv.Registry().Count(); got != 1 {
		t.Fatalf("Registry count = %d, want 1", got)
	}
}

func TestEmptyNameClosedWithoutAccept(t *testing.T) {
	srv := startServer(t)

	c := dial(t, srv)
	c.expect(t, protocol.SubmitName)
	c.send(t, "")

	_ = c.conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		line, err := c.reader.ReadString('\n')
		if err != nil {
			break
		}
		if strings.HasPrefix(line, protocol.NameAccepted) {
			t.Fatalf("empty name was accepted: %q", line)
		}
	}
}

func TestBroadcastOverWire(t *testing.T) {
	srv := startServer(t)
	alice := register(t, srv, "alice")
	bob := register(t, srv, "bob")

	alice.send(t, "hi all")

	want := "MESSAGE alice: hi all"
	if got := alice.expect(t, want); got != want {
		t.Fatalf("sender got %q", got)
	}
	if got := bob.expect(t, want); got != want {
		t.Fatalf("recipient got %q", got)
	}
}

func TestLeaveAnnouncesAndReelects(t *testing.T) {
	srv := startServer(t)
	alice := register(t, srv, "alice")
	bob := register(t, srv, "bob")

	_ = alice.conn.Close()

	bob.expect(t, "MESSAGE alice has left")
	bob.expect(t, protocol.YouAreCoordinator)
	if got := bob.expect(t, protocol.CoordinatorIs); got != "COORDINATORIS bob" {
		t.Fatalf("re-election line = %q", got)
	}

	// The departed name is immediately reusable.
	again := register(t, srv, "alice")
	if got := again.expect(t, protocol.CoordinatorIs); got != "COORDINATORIS bob" {
		t.Fatalf("rejoined alice told %q", got)
	}
}

func TestWorkerBudgetQueuesExcessConnections(t *testing.T) {
	srv := startServer(t, func(cfg *Config) { cfg.MaxClients = 1 })

	alice := register(t, srv, "alice")

	// The only worker slot is held, so a further connection is accepted but
	// waits for a slot; its handshake must not begin yet.
	queued := dial(t, srv)
	_ = queued.conn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	if line, err := queued.reader.ReadString('\n'); err == nil {
		t.Fatalf("served beyond the worker budget: %q", line)
	}
	_ = queued.conn.SetReadDeadline(time.Time{})

	// Freeing the slot lets the queued connection proceed.
	_ = alice.conn.Close()

	queued.expect(t, protocol.SubmitName)
	queued.send(t, "bob")
	queued.expect(t, protocol.NameAccepted)
}

func TestDetailsApprovalOverWire(t *testing.T) {
	srv := startServer(t)
	alice := register(t, srv, "alice")
	bob := register(t, srv, "bob")

	bob.send(t, "/rmd")
	alice.expect(t, "MESSAGE Permission request: bob is requesting member details")

	alice.send(t, "ACCEPT")
	details := bob.expect(t, protocol.MemberDetails)
	if !strings.Contains(details, "|alice|") || !strings.Contains(details, "|bob|") {
		t.Fatalf("details line missing members: %q", details)
	}
	if !strings.HasSuffix(details, " COORDINATOR:alice") {
		t.Fatalf("details line missing coordinator token: %q", details)
	}
}
