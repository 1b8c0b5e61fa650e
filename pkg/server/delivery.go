package server

import "log/slog"

// Broadcast delivers a literal line to every live session in a point-in-time
// registry snapshot. A failed delivery tears down only that recipient; the
// fan-out continues to the rest.
func (s *Server) Broadcast(line string) {
	for _, sess := range s.registry.Snapshot() {
		s.deliver(sess, line)
	}
}

// Unicast delivers a line to exactly the named session. A target that
// disappeared between lookup and delivery is a no-op, not an error.
func (s *Server) Unicast(name, line string) {
	sess, ok := s.registry.Find(name)
	if !ok {
		return
	}
	s.deliver(sess, line)
}

// deliver queues a line on one session's sink. A full buffer or closed
// session marks that session for teardown; its connection handler then runs
// the normal cleanup path.
func (s *Server) deliver(sess *Session, line string) bool {
	if !sess.Send(line) {
		slog.Warn("dropping unresponsive session", "client", sess.ID(), "name", sess.Name())
		sess.Close()
		return false
	}
	return true
}
