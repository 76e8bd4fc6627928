package cli

import (
	"fmt"
	"io"

	"github.com/alecthomas/kong"
)

type Command string

const (
	CommandRun     Command = "run"
	CommandStatus  Command = "status"
	CommandDoctor  Command = "doctor"
	CommandRelay   Command = "relay"
	CommandVersion Command = "version"
	CommandHelp    Command = "help"
)

// DefaultRelayListen is where `capsync relay` serves websocket clients.
const DefaultRelayListen = "127.0.0.1:8080"

type Parsed struct {
	Command    Command
	ConfigPath string
	ShowHelp   bool
	Verbose    bool
	Console    bool
	Relay      RelayOptions
}

// RelayOptions configures the bundled relay server.
type RelayOptions struct {
	Listen     string
	GRPCListen string
	NoEcho     bool
}

type grammar struct {
	Config  string `name:"config" placeholder:"PATH" env:"CAPSYNC_CONFIG" help:"Config file path."`
	Verbose bool   `name:"verbose" short:"v" help:"Log at debug level."`

	Run struct {
		Console bool `name:"console" help:"Mirror log records to stderr."`
	} `cmd:"" help:"Keep the local caps lock in sync with the relay."`
	Status  struct{} `cmd:"" help:"Print the running client's session state."`
	Doctor  struct{} `cmd:"" help:"Run configuration and environment checks."`
	Relay   relayCmd `cmd:"" help:"Serve a broadcast relay."`
	Version struct{} `cmd:"" help:"Print version information."`
	Help    struct{} `cmd:"" help:"Show this help."`
}

type relayCmd struct {
	Listen     string `name:"listen" placeholder:"ADDR" default:"127.0.0.1:8080" help:"Websocket listen address."`
	GRPCListen string `name:"grpc-listen" placeholder:"ADDR" help:"Optional gRPC listen address."`
	NoEcho     bool   `name:"no-echo" help:"Do not echo messages back to their sender."`
}

// Parse maps argv onto a command, defaulting to help when no command is given.
func Parse(args []string) (Parsed, error) {
	if len(args) == 0 {
		return Parsed{Command: CommandHelp, ShowHelp: true}, nil
	}

	// kong's built-in help and version flags are replaced by our own text.
	shortcut := Command("")
	for _, arg := range args {
		switch arg {
		case "-h", "--help":
			shortcut = CommandHelp
		case "--version":
			shortcut = CommandVersion
		}
	}
	if shortcut != "" {
		return Parsed{Command: shortcut, ShowHelp: shortcut == CommandHelp}, nil
	}

	var g grammar
	parser, err := kong.New(
		&g,
		kong.Name("capsync"),
		kong.NoDefaultHelp(),
		kong.Exit(func(int) {}),
		kong.Writers(io.Discard, io.Discard),
	)
	if err != nil {
		return Parsed{}, fmt.Errorf("build parser: %w", err)
	}

	ctx, err := parser.Parse(args)
	if err != nil {
		return Parsed{}, err
	}

	cmd := Command(ctx.Command())
	parsed := Parsed{
		Command:    cmd,
		ConfigPath: g.Config,
		ShowHelp:   cmd == CommandHelp,
		Verbose:    g.Verbose,
		Console:    g.Run.Console,
	}
	if cmd == CommandRelay {
		parsed.Relay = RelayOptions{
			Listen:     g.Relay.Listen,
			GRPCListen: g.Relay.GRPCListen,
			NoEcho:     g.Relay.NoEcho,
		}
	}
	return parsed, nil
}

// HelpText is the usage text printed for help and usage errors.
func HelpText(binaryName string) string {
	return fmt.Sprintf(`Usage:
  %[1]s [--config PATH] [-v] <command> [flags]

Commands:
  run       Keep the local caps lock in sync with the relay
  status    Print the running client's session state
  doctor    Run configuration and environment checks
  relay     Serve a broadcast relay
  version   Print version information
  help      Show this help

Flags:
  --config PATH   Config file path (default: $XDG_CONFIG_HOME/capsync/config.jsonc or config.yaml)
  -v, --verbose   Log at debug level
  -h, --help      Show help
  --version       Show version

Run flags:
  --console       Mirror log records to stderr

Relay flags:
  --listen ADDR       Websocket listen address (default: %[2]s)
  --grpc-listen ADDR  Optional gRPC listen address
  --no-echo           Do not echo messages back to their sender
`, binaryName, DefaultRelayListen)
}
