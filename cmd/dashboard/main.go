// dashboard is the operator command line for an event-ops server.  It logs
// in, runs one command against the lodging and registration managers and
// prints the result as JSON or YAML.
//
// Connection settings come from EVENTOPS_* variables (see
// internal/config.ClientConfig) and can be overridden with flags.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/iliyamo/event-ops/internal/client"
	"github.com/iliyamo/event-ops/internal/config"
	"github.com/iliyamo/event-ops/internal/model"
)

const usage = `Usage: dashboard [flags] <command> [args]

Commands:
  stats [--remote]             summary of participants, lodgings and sessions
  lodges                       lodgings with occupation
  lodge ID                     one lodging with its occupants
  assign LODGE PID...          put participants in a lodging (all or none)
  remove LODGE PID             take a participant out of a lodging
  key-owner LODGE PID          hand the key to an occupant
  lectures                     sessions with occupancy
  lecture ID                   one session with its participants
  register LECTURE PID...      register participants (all or none)
  unregister LECTURE PID       drop a registration
  check-in PID                 mark a participant as arrived

Flags:
`

func main() {
	config.LoadDotEnv()
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(exitCode(err))
	}
}

// exitCode is 2 for usage and local validation errors, 3 for rejections by
// the server and 1 for everything else.
func exitCode(err error) int {
	var ue usageError
	if errors.As(err, &ue) {
		return 2
	}
	switch model.CodeOf(err) {
	case "", model.CodeUnavailable, model.CodeMalformedPayload:
		return 1
	case model.CodeInvalid:
		return 2
	}
	return 3
}

type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

func usagef(format string, args ...any) error {
	return usageError{fmt.Sprintf(format, args...)}
}

type options struct {
	cfg    config.ClientConfig
	format string
	remote bool
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	cfg, err := config.LoadClientConfig()
	if err != nil {
		return err
	}
	opts := options{cfg: cfg}

	fs := pflag.NewFlagSet("dashboard", pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.cfg.APIURL, "api", cfg.APIURL, "server base URL")
	fs.StringVar(&opts.cfg.Email, "email", cfg.Email, "operator email")
	fs.StringVar(&opts.cfg.Password, "password", cfg.Password, "operator password")
	fs.StringVar(&opts.cfg.Token, "token", cfg.Token, "access token (skips login)")
	fs.DurationVar(&opts.cfg.Timeout, "timeout", cfg.Timeout, "per-command timeout")
	fs.StringVarP(&opts.format, "format", "o", "json", "output format: json or yaml")
	fs.BoolVar(&opts.remote, "remote", false, "stats: use the summary computed by the server")
	fs.SetInterspersed(true)
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	rest := fs.Args()
	if len(rest) == 0 {
		fs.Usage()
		return usagef("no command given")
	}
	opts.format = strings.ToLower(opts.format)
	if opts.format != "json" && opts.format != "yaml" {
		return usagef("unknown format %q", opts.format)
	}

	cmd, ok := commands[rest[0]]
	if !ok {
		return usagef("unknown command %q", rest[0])
	}
	ids, err := parseIDs(rest[1:])
	if err != nil {
		return err
	}
	if len(ids) < cmd.minArgs || (cmd.maxArgs >= 0 && len(ids) > cmd.maxArgs) {
		return usagef("%s: wrong number of arguments\n%s", rest[0], cmd.synopsis)
	}

	ctx, cancel := context.WithTimeout(ctx, opts.cfg.Timeout)
	defer cancel()

	c := client.New(opts.cfg.APIURL, &http.Client{Timeout: opts.cfg.Timeout})
	cred, err := login(ctx, c, opts.cfg)
	if err != nil {
		return err
	}
	out, err := cmd.run(ctx, env{c: c, cred: cred, opts: opts}, ids)
	if err != nil {
		return err
	}
	return render(stdout, opts.format, out)
}

func login(ctx context.Context, c *client.Client, cfg config.ClientConfig) (client.Credential, error) {
	if cfg.Token != "" {
		return client.Bearer(cfg.Token), nil
	}
	if cfg.Email == "" || cfg.Password == "" {
		return client.Credential{}, usagef("set EVENTOPS_TOKEN or EVENTOPS_EMAIL and EVENTOPS_PASSWORD")
	}
	return c.Login(ctx, cfg.Email, cfg.Password)
}
