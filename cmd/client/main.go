package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"coordchat/pkg/client"
	"coordchat/pkg/logging"
	"coordchat/pkg/protocol"
)

func main() {
	addr := flag.String("addr", fmt.Sprintf("127.0.0.1:%d", protocol.DefaultPort), "chat server address")
	logLevel := flag.String("log-level", "warn", "Log level: "+logging.LevelNames())
	flag.Parse()

	if err := logging.Setup(logging.Options{
		Level:  *logLevel,
		Format: "text",
		Output: os.Stderr,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "invalid logging config: %v\n", err)
		os.Exit(1)
	}

	if err := client.Run(*addr, client.UI{In: os.Stdin, Out: os.Stdout}); err != nil {
		slog.Error("client error", "err", err)
		os.Exit(1)
	}
}
