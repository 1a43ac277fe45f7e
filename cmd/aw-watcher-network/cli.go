package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	defaultPort uint16 = 5600
	testingPort uint16 = 5699

	commandRun       = "run"
	commandLocate    = "locate"
	commandServeStub = "serve-stub"
)

const usage = `Usage: aw-watcher-network [command] [--port PORT] [--testing]

Commands:
  (none)       sample the Wi-Fi location every polling_interval and report it
  locate       print the current location once and exit
  serve-stub   run an in-memory event-store for local testing

Flags:
  --port PORT  event-store port (default 5600)
  --testing    use the testing port 5699
  --help       show this help
`

type options struct {
	command string
	port    uint16
	testing bool
}

// parseArgs parses the command line. It returns flag.ErrHelp when --help was
// requested; the usage text has then already been written to out.
func parseArgs(args []string, out io.Writer) (options, error) {
	opts := options{command: commandRun, port: defaultPort}

	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		switch args[0] {
		case commandLocate, commandServeStub:
			opts.command = args[0]
			args = args[1:]
		default:
			return opts, fmt.Errorf("unknown command %q", args[0])
		}
	}

	fs := flag.NewFlagSet("aw-watcher-network", flag.ContinueOnError)
	// Parse errors are reported once by the caller.
	fs.SetOutput(io.Discard)
	fs.Usage = func() {}
	port := fs.String("port", "", "event-store port")
	testing := fs.Bool("testing", false, "use the testing port")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			fmt.Fprint(out, usage)
		}
		return opts, err
	}
	if fs.NArg() > 0 {
		return opts, fmt.Errorf("unexpected argument %q", fs.Arg(0))
	}

	if *port != "" {
		p, err := strconv.ParseUint(*port, 10, 16)
		if err != nil {
			return opts, fmt.Errorf("invalid port number %q", *port)
		}
		opts.port = uint16(p)
	}
	if *testing {
		opts.port = testingPort
		opts.testing = true
	}
	return opts, nil
}
