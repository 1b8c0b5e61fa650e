package server

import "testing"

func TestSessionSendAfterClose(t *testing.T) {
	sess := newTestSession(t, 1, "alice")
	sess.Close()
	sess.Close() // idempotent

	if sess.Send("hello") {
		t.Fatalf("Send after Close = true")
	}
}

func TestSessionSendFullBuffer(t *testing.T) {
	sess := newTestSession(t, 1, "alice")
	for i := 0; i < outBufferSize; i++ {
		if !sess.Send("line") {
			t.Fatalf("Send %d failed before buffer filled", i)
		}
	}
	if sess.Send("one too many") {
		t.Fatalf("Send succeeded past buffer capacity")
	}
}

func TestDeliverFailureTearsDownOnlyTarget(t *testing.T) {
	srv, _ := newTestServer(t)
	alice := newTestSession(t, 1, "alice")
	bob := newTestSession(t, 2, "bob")
	mustJoin(t, srv.registry, alice)
	mustJoin(t, srv.registry, bob)

	// Saturate bob so delivery to him fails.
	for bob.Send("filler") {
	}

	srv.Broadcast("MESSAGE alice: hi")

	// Alice still got the line; bob was closed, not the broadcast.
	if got := receive(t, alice); got != "MESSAGE alice: hi" {
		t.Fatalf("alice got %q", got)
	}
	select {
	case <-bob.done:
	default:
		t.Fatalf("failing recipient was not closed")
	}
}
