// Package protocol defines the newline-delimited wire format spoken between
// the coordchat server and its clients, and the parsed form of inbound lines.
package protocol

import (
	"fmt"
	"strings"

	"coordchat/pkg/model"
)

// DefaultPort is the TCP port the server listens on.
const DefaultPort = 59001

// Server -> client line prefixes. Clients dispatch on prefix match.
const (
	SubmitName        = "SUBMITNAME"
	NameAccepted      = "NAMEACCEPTED "
	Message           = "MESSAGE "
	YouAreCoordinator = "YOUARECOORDINATOR"
	CoordinatorIs     = "COORDINATORIS "
	MemberDetails     = "MEMBERDETAILS"
)

// ANSI colour markers embedded in MESSAGE payloads. ColourDefault reverts
// the terminal to its default colour.
const (
	ColourDefault = "\x1b[0m"
	ColourGreen   = "\x1b[32m"
)

// Kind discriminates the parsed intent of one inbound line.
type Kind int

const (
	// KindBroadcast delivers the text to every live session including the sender.
	KindBroadcast Kind = iota
	// KindPrivate delivers the text to one named session.
	KindPrivate
	// KindDetailsRequest asks for the privileged member-detail listing (/rmd).
	KindDetailsRequest
	// KindApprove is the coordinator granting a pending details request.
	KindApprove
	// KindDeny is the coordinator refusing a pending details request.
	KindDeny
)

// Command is the parsed form of one inbound line. Exactly one variant applies;
// Recipient and Text are populated per Kind.
type Command struct {
	Kind      Kind
	Recipient string // KindPrivate target, or optional Approve/Deny requester
	Text      string // KindBroadcast / KindPrivate message body
}

// ParseCommand classifies one inbound line. It reports ok=false only for the
// malformed private-message form ("/msg bob" with no message body), which the
// server drops silently.
func ParseCommand(line string) (Command, bool) {
	switch {
	case strings.EqualFold(line, "/rmd"):
		return Command{Kind: KindDetailsRequest}, true

	case strings.HasPrefix(line, "ACCEPT"):
		return Command{Kind: KindApprove, Recipient: secondToken(line)}, true

	case strings.HasPrefix(line, "DENY"):
		return Command{Kind: KindDeny, Recipient: secondToken(line)}, true

	case strings.HasPrefix(line, "/msg "):
		firstSpace := strings.IndexByte(line, ' ')
		secondSpace := strings.IndexByte(line[firstSpace+1:], ' ')
		if secondSpace < 0 {
			// No message body after the recipient token.
			return Command{}, false
		}
		secondSpace += firstSpace + 1
		return Command{
			Kind:      KindPrivate,
			Recipient: line[firstSpace+1 : secondSpace],
			Text:      line[secondSpace+1:],
		}, true

	default:
		return Command{Kind: KindBroadcast, Text: line}, true
	}
}

// secondToken returns the second whitespace-delimited token of line, or "".
func secondToken(line string) string {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return ""
	}
	return fields[1]
}

// ChatLine formats a broadcast chat message from a named sender.
func ChatLine(name, text string) string {
	return Message + name + ": " + text
}

// SystemLine formats a server-originated notice.
func SystemLine(text string) string {
	return Message + text
}

// NotFoundLine tells a sender that a private-message target is not live.
func NotFoundLine(recipient string) string {
	return Message + "[System]: User '" + recipient + "' not found."
}

// PrivateFromLine formats the line delivered to a private message's recipient.
// Private traffic is rendered green to stand out from broadcast chat.
func PrivateFromLine(sender, text string) string {
	return Message + ColourGreen + "[Private from " + sender + "]: " + text + ColourDefault
}

// PrivateToLine formats the echo delivered back to a private message's sender.
func PrivateToLine(recipient, text string) string {
	return Message + ColourGreen + "[Private to " + recipient + "]: " + text + ColourDefault
}

// FormatMemberDetails builds the MEMBERDETAILS listing for a registry
// snapshot: one " id|name|addr|port" token per member, terminated by a
// trailing " COORDINATOR:<name>" token.
func FormatMemberDetails(members []model.Member, coordinator string) string {
	var b strings.Builder
	b.WriteString(MemberDetails)
	for _, m := range members {
		fmt.Fprintf(&b, " %d|%s|%s|%d", m.ID, m.Name, m.Addr, m.Port)
	}
	b.WriteString(" COORDINATOR:")
	b.WriteString(coordinator)
	return b.String()
}
