// Package client implements the line-oriented console client: it renders
// server lines by prefix and forwards typed lines verbatim.
package client

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"

	"coordchat/pkg/protocol"
)

const helpText = `Available commands:
- Type any message to send it to all.
- Type '/rmd' to request member details. If you are not the coordinator, this requires coordinator approval.
- Type '/msg [recipient] [message]' to send a private message to a specific user.`

// UI is the client's terminal: user input in, rendered text out.
type UI struct {
	In  io.Reader
	Out io.Writer
}

// Render maps one server line to the text shown to the user. SUBMITNAME is
// not rendered; the caller answers it with the name prompt instead.
func Render(line string) string {
	switch {
	case strings.HasPrefix(line, protocol.NameAccepted):
		return "You are now connected as " + strings.TrimPrefix(line, protocol.NameAccepted)

	case strings.HasPrefix(line, protocol.Message):
		return strings.TrimPrefix(line, protocol.Message)

	case strings.HasPrefix(line, protocol.YouAreCoordinator):
		return "You have been designated as the coordinator."

	case strings.HasPrefix(line, protocol.CoordinatorIs):
		return "The current coordinator is: " + strings.TrimPrefix(line, protocol.CoordinatorIs)

	case strings.HasPrefix(line, protocol.MemberDetails):
		return renderMemberDetails(strings.TrimPrefix(line, protocol.MemberDetails))

	default:
		return line
	}
}

// renderMemberDetails turns the space-separated "id|name|addr|port" tokens
// into a readable listing.
func renderMemberDetails(payload string) string {
	var b strings.Builder
	b.WriteString("Member details:")
	for _, token := range strings.Fields(payload) {
		b.WriteString("\n  ")
		b.WriteString(strings.ReplaceAll(token, "|", " | "))
	}
	return b.String()
}

// Run connects to the server and drives the session until the connection
// closes. A stream that ends before NAMEACCEPTED means the submitted name
// was rejected (empty or already taken).
func Run(addr string, ui UI) error {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("client: dial %s: %w", addr, err)
	}
	defer func() { _ = conn.Close() }()
	slog.Debug("connected", "addr", addr)

	stdin := bufio.NewScanner(ui.In)
	server := bufio.NewScanner(conn)
	registered := false

	for server.Scan() {
		line := server.Text()

		if strings.HasPrefix(line, protocol.SubmitName) {
			fmt.Fprint(ui.Out, "Enter your name: ")
			if !stdin.Scan() {
				return nil
			}
			fmt.Fprintf(conn, "%s\n", stdin.Text())
			continue
		}

		fmt.Fprintln(ui.Out, Render(line))

		if !registered && strings.HasPrefix(line, protocol.NameAccepted) {
			registered = true
			fmt.Fprintln(ui.Out, helpText)
			go forwardInput(conn, stdin)
		}
	}

	if !registered {
		fmt.Fprintln(ui.Out, "Connection closed by server: that name is empty or already in use.")
		return nil
	}
	fmt.Fprintln(ui.Out, "Disconnected from server.")
	return server.Err()
}

// forwardInput sends every typed line to the server verbatim.
func forwardInput(conn net.Conn, stdin *bufio.Scanner) {
	for stdin.Scan() {
		if _, err := fmt.Fprintf(conn, "%s\n", stdin.Text()); err != nil {
			return
		}
	}
}
