package server

import (
	"bufio"
	"log/slog"
	"net"
	"strings"

	"coordchat/pkg/protocol"
)

// handleConn drives a single connection's lifecycle: registration handshake,
// the per-session read loop, and cleanup. Any fault here tears down this
// connection only; the acceptor and other sessions are unaffected.
func (s *Server) handleConn(conn net.Conn) {
	remoteAddr := conn.RemoteAddr().String()
	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic in connection handler", "remote", remoteAddr, "panic", r)
		}
		_ = conn.Close()
	}()

	s.metrics.TotalConnections.Add(1)
	s.metrics.ActiveConnections.Add(1)
	defer func() {
		s.metrics.ActiveConnections.Add(-1)
		s.metrics.TotalDisconnects.Add(1)
	}()

	clientID := s.nextClientID.Add(1)
	sess := NewSession(clientID, conn)
	go sess.writePump()
	defer sess.Close()

	slog.Debug("new connection", "client", clientID, "remote", remoteAddr)

	reader := bufio.NewReader(conn)

	// Registration handshake: one shot. An empty or already-taken name closes
	// the connection without a NAMEACCEPTED line; the abrupt stream end is the
	// rejection signal the client distinguishes.
	sess.Send(protocol.SubmitName)
	name, err := readLine(reader)
	if err != nil {
		slog.Debug("connection closed before registration", "client", clientID, "remote", remoteAddr)
		return
	}
	sess.setName(name)

	becameCoordinator, coordinator, err := s.registry.Join(sess)
	if err != nil {
		s.metrics.RejectedRegistrations.Add(1)
		slog.Info("registration rejected", "client", clientID, "name", name, "reason", err)
		return
	}

	// Guaranteed on every exit path from here on: registry removal, departure
	// broadcast, and coordinator re-election if this session held the role.
	defer func() {
		wasCoordinator, newCoordinator := s.registry.Leave(name)
		s.Broadcast(protocol.SystemLine(name + " has left"))
		s.appendOplog(clientID, name, "has left")
		if wasCoordinator && newCoordinator != nil {
			s.metrics.CoordinatorChanges.Add(1)
			newCoordinator.Send(protocol.YouAreCoordinator)
			s.Broadcast(protocol.CoordinatorIs + newCoordinator.Name())
			slog.Info("coordinator changed", "coordinator", newCoordinator.Name())
		}
		slog.Info("client disconnected", "client", clientID, "name", name)
	}()

	sess.Send(protocol.NameAccepted + name)
	if becameCoordinator {
		sess.Send(protocol.YouAreCoordinator)
		slog.Info("coordinator elected", "coordinator", name)
	} else {
		sess.Send(protocol.CoordinatorIs + coordinator)
	}
	if s.registry.Count() > 1 {
		sess.Send(protocol.SystemLine("Please ask for permission to request member details."))
	}

	s.metrics.Registrations.Add(1)
	slog.Info("client registered", "client", clientID, "name", name, "remote", remoteAddr)

	for {
		select {
		case <-s.ctx.Done():
			return
		default:
		}

		line, err := readLine(reader)
		if err != nil {
			return
		}
		s.handleLine(sess, line)
	}
}

// readLine reads one newline-terminated line, stripping the terminator and
// any carriage return a line-mode client sends with it.
func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
