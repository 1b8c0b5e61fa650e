package server

import (
	"log/slog"

	"coordchat/pkg/protocol"
)

// handleLine classifies one inbound line and applies its effects. Every
// processed line, commands and chat alike, is appended to the operational
// log; the log has no feedback into the protocol.
func (s *Server) handleLine(sess *Session, line string) {
	defer s.appendOplog(sess.ID(), sess.Name(), line)

	cmd, ok := protocol.ParseCommand(line)
	if !ok {
		// Malformed private message (no body): silently dropped.
		return
	}

	switch cmd.Kind {
	case protocol.KindDetailsRequest:
		s.handleDetailsRequest(sess)
	case protocol.KindApprove:
		s.handleApprove(sess, cmd.Recipient)
	case protocol.KindDeny:
		s.handleDeny(sess, cmd.Recipient)
	case protocol.KindPrivate:
		s.handlePrivate(sess, cmd.Recipient, cmd.Text)
	case protocol.KindBroadcast:
		s.metrics.BroadcastsSent.Add(1)
		s.Broadcast(protocol.ChatLine(sess.Name(), cmd.Text))
	}
}

// handleDetailsRequest serves /rmd. The coordinator and a sole member get the
// listing immediately; anyone else needs the coordinator's approval first.
func (s *Server) handleDetailsRequest(sess *Session) {
	s.metrics.DetailRequests.Add(1)

	if s.registry.Count() > 1 && !s.registry.IsCoordinator(sess.Name()) {
		if !s.registry.AddPending(sess.Name()) {
			// A request from this member is already awaiting a decision.
			return
		}
		s.Unicast(s.registry.Coordinator(), protocol.SystemLine(
			"Permission request: "+sess.Name()+" is requesting member details (ACCEPT / DENY)."))
		slog.Debug("details request pending", "requester", sess.Name())
		return
	}

	members, coordinator := s.registry.Roster()
	s.deliver(sess, protocol.FormatMemberDetails(members, coordinator))
}

// handleApprove fulfils a pending details request. ACCEPT from anyone but the
// coordinator, or with nothing pending, is silently ignored. An optional
// requester name picks a specific pending request; otherwise the oldest one
// is taken.
func (s *Server) handleApprove(sess *Session, requester string) {
	if !s.registry.IsCoordinator(sess.Name()) {
		return
	}
	name, ok := s.registry.TakePending(requester)
	if !ok {
		return
	}
	s.metrics.DetailApprovals.Add(1)
	// The requester may have disconnected since asking; Unicast tolerates that.
	members, coordinator := s.registry.Roster()
	s.Unicast(name, protocol.FormatMemberDetails(members, coordinator))
	slog.Info("details request approved", "requester", name, "coordinator", sess.Name())
}

// handleDeny refuses a pending details request, with the same authorization
// and targeting rules as handleApprove.
func (s *Server) handleDeny(sess *Session, requester string) {
	if !s.registry.IsCoordinator(sess.Name()) {
		return
	}
	name, ok := s.registry.TakePending(requester)
	if !ok {
		return
	}
	s.metrics.DetailDenials.Add(1)
	s.Unicast(name, protocol.SystemLine("Your request for member details has been denied."))
	slog.Info("details request denied", "requester", name, "coordinator", sess.Name())
}

// handlePrivate delivers a private message to its recipient (matched
// case-insensitively) and echoes it back to the sender. An unknown recipient
// yields a system notice to the sender only.
func (s *Server) handlePrivate(sess *Session, recipient, text string) {
	target, ok := s.registry.FindFold(recipient)
	if !ok {
		s.metrics.PrivateTargetMisses.Add(1)
		s.deliver(sess, protocol.NotFoundLine(recipient))
		return
	}
	s.metrics.PrivatesSent.Add(1)
	s.deliver(target, protocol.PrivateFromLine(sess.Name(), text))
	s.deliver(sess, protocol.PrivateToLine(recipient, text))
}

// appendOplog records a processed line, logging but otherwise swallowing
// store failures: the operational log must never disturb the protocol.
func (s *Server) appendOplog(clientID int64, name, line string) {
	if s.oplog == nil {
		return
	}
	if err := s.oplog.Append(clientID, name, line); err != nil {
		slog.Error("oplog append failed", "client", clientID, "err", err)
	}
}
