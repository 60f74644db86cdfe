package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/parleyhq/parley/internal/cli"
	"github.com/parleyhq/parley/internal/config"
	"github.com/parleyhq/parley/internal/version"
	"github.com/parleyhq/parley/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	args, done, err := parseFlags(cfg, os.Args[1:])
	if err != nil {
		return err
	}
	if done {
		return nil
	}
	logger.SetLevel(cfg.LogLevel)

	if cfg.Debug {
		logger.Debugf("Config: ServerURL=%s, ParleyHome=%s", cfg.ServerURL, cfg.ParleyHome)
	}

	if len(args) == 0 {
		return cli.ChatCommand(cfg, nil)
	}

	switch args[0] {
	case "chat":
		return cli.ChatCommand(cfg, args[1:])
	case "auth":
		return authCommand(cfg, args[1:])
	case "rooms":
		return cli.RoomsCommand(cfg)
	case "contacts":
		return cli.ContactsCommand(cfg, args[1:])
	case "ai":
		return cli.AICommand(cfg, args[1:])
	case "version", "--version", "-v":
		fmt.Printf("parley %s\n", version.RichVersion())
		return nil
	case "help", "--help", "-h":
		printUsage()
		return nil
	default:
		printUsage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func authCommand(cfg *config.Config, args []string) error {
	sub := "status"
	if len(args) > 0 {
		sub = args[0]
	}
	switch sub {
	case "login":
		return cli.AuthLoginCommand(cfg)
	case "register":
		return cli.AuthRegisterCommand(cfg)
	case "logout":
		return cli.AuthLogoutCommand(cfg)
	case "status":
		return cli.AuthStatusCommand(cfg)
	default:
		return fmt.Errorf("unknown auth subcommand %q (expected login, register, logout, or status)", sub)
	}
}

func parseFlags(cfg *config.Config, args []string) ([]string, bool, error) {
	fs := flag.NewFlagSet("parley", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	serverURL := fs.String("server", "", "Server URL")
	debug := fs.Bool("debug", false, "Enable debug logging")
	showHelp := fs.Bool("help", false, "Show help")

	if err := fs.Parse(args); err != nil {
		return nil, false, err
	}

	if *showHelp {
		printUsage()
		return nil, true, nil
	}
	if *serverURL != "" {
		cfg.ServerURL = *serverURL
	}
	if *debug {
		cfg.Debug = true
		if cfg.LogLevel > logger.LevelDebug {
			cfg.LogLevel = logger.LevelDebug
		}
	}

	return fs.Args(), false, nil
}

func printUsage() {
	fmt.Println(`parley - terminal chat client

Usage:
  parley                    Start chatting (default room)
  parley chat <room>        Start chatting in a room
  parley chat @<username>   Start a private conversation
  parley rooms              List available rooms
  parley contacts           List contacts
  parley contacts search <query>
  parley contacts add <username>
  parley contacts remove <username>
  parley contacts conversations
  parley ai                 Chat with the AI assistant
  parley ai list            List assistant conversations
  parley ai history <id>    Show an assistant conversation
  parley ai delete <id>     Delete an assistant conversation
  parley auth login         Log in with email and password
  parley auth register      Create an account
  parley auth logout        Remove cached credentials
  parley auth status        Show the logged-in identity
  parley version            Show version information

In-chat commands:
  /room <room-id>           Switch rooms
  /dm <username>            Switch to a private conversation
  /retry                    Reconnect after a failure
  /upload <path> [caption]  Upload a file and send it
  /ai <message>             Ask the AI assistant
  /quit                     Exit

Environment Variables:
  PARLEY_SERVER_URL  Server URL (default: http://localhost:8000)
  PARLEY_HOME_DIR    Config directory (default: ~/.parley)
  PARLEY_LOG_LEVEL   Log level (trace|debug|info|warn|error)
  PARLEY_DEBUG       Enable debug logging (true/1)

Flags:
  --server           Server URL override
  --debug            Enable debug logging`)
}
