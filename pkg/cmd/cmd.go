package cmd

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/rs/zerolog/log"
)

// How much of a command's output is kept for error reports.
const tailSize = 64 * 1024

type Cmd struct {
	cmd      string
	args     []string
	env      []string
	dir      string
	verbose  bool
	dryRun   bool
	stream   io.Writer
	preText  string
	postText string
	output   string
}

func New(c string) *Cmd {
	return &Cmd{
		cmd:      c,
		verbose:  false,
		preText:  "",
		postText: "",
		stream:   os.Stderr,
	}
}

func (c *Cmd) Equal(cmd *Cmd) bool {
	return c.String() == cmd.String()
}

func (c *Cmd) Arg(args ...string) *Cmd {
	c.args = append(c.args, args...)
	return c
}

func (c *Cmd) Args() []string {
	return append([]string(nil), c.args...)
}

// Env adds KEY=VALUE pairs on top of the current process environment.
func (c *Cmd) Env(env ...string) *Cmd {
	c.env = append(c.env, env...)
	return c
}

func (c *Cmd) Dir(dir string) *Cmd {
	c.dir = dir
	return c
}

// SetVerbose streams the command's output while it runs. Output is always
// captured as well, so failures can be reported.
func (c *Cmd) SetVerbose(verbosity bool) *Cmd {
	c.verbose = verbosity
	return c
}

// SetStream changes where verbose output goes (stderr by default).
func (c *Cmd) SetStream(w io.Writer) *Cmd {
	c.stream = w
	return c
}

// SetDryRun logs the command instead of running it.
func (c *Cmd) SetDryRun(dryRun bool) *Cmd {
	c.dryRun = dryRun
	return c
}

func (c *Cmd) PreInfo(msg string) *Cmd {
	c.preText = msg
	return c
}

func (c *Cmd) PostInfo(msg string) *Cmd {
	c.postText = msg
	return c
}

// Run executes the command and returns its combined output (the tail of it
// for large outputs).
func (c *Cmd) Run(ctx context.Context) (string, error) {
	tail := newTailBuffer(tailSize)
	var out io.Writer = tail
	if c.verbose && c.stream != nil {
		out = io.MultiWriter(c.stream, tail)
	}
	if err := c.run(ctx, out, out); err != nil {
		c.output = tail.String()
		log.Debug().Str("output", c.output).Msg("Command output")
		return c.output, err
	}
	c.output = tail.String()

	if c.postText != "" {
		log.Info().Msg(c.postText)
	}
	return c.output, nil
}

// Output executes the command and returns what it wrote to stdout. Stderr
// is kept for the error report only.
func (c *Cmd) Output(ctx context.Context) (string, error) {
	var stdout bytes.Buffer
	stderr := newTailBuffer(tailSize)
	if err := c.run(ctx, &stdout, stderr); err != nil {
		c.output = stderr.String()
		return c.output, err
	}
	c.output = stdout.String()
	return c.output, nil
}

func (c *Cmd) run(ctx context.Context, stdout, stderr io.Writer) error {
	if c.cmd == "" {
		return errors.New("command not set")
	}
	if c.preText != "" {
		log.Info().Msg(c.preText)
	}
	if c.dryRun {
		log.Info().Str("cmd", c.String()).Msg("Dry run, not running")
		return nil
	}

	cmd := exec.CommandContext(ctx, c.cmd, c.args...)
	cmd.Dir = c.dir
	if len(c.env) > 0 {
		cmd.Env = append(os.Environ(), c.env...)
	}
	cmd.Stdout = stdout
	cmd.Stderr = stderr

	log.Debug().Str("cmd", c.cmd).Strs("args", c.args).Msg("Running")
	err := cmd.Run()

	// Check for context cancellation or timeout
	if ctx.Err() != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			log.Warn().Str("cmd", c.cmd).Msg("Command was cancelled")
		} else if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			log.Warn().Str("cmd", c.cmd).Msg("Command timed out")
		}
		return ctx.Err()
	}

	if err != nil {
		log.Debug().Err(err).Str("cmd", c.cmd).Strs("args", c.args).Msg("Command failed")
		return err
	}
	return nil
}

func (c *Cmd) String() string {
	if c.cmd == "" {
		return ""
	}
	return strings.TrimSpace(c.cmd + " " + shellQuoteArgs(c.args))
}

// ExitCode extracts the exit status from an error returned by Run, or -1
// when the command did not exit normally.
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	return -1
}

// shellQuoteArgs returns a printable, shell-safe representation of args.
func shellQuoteArgs(args []string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		if a == "" || strings.ContainsAny(a, " \t\n\"'`$\\*?[]{}()<>|&;") {
			a = "'" + strings.ReplaceAll(a, "'", `'\''`) + "'"
		}
		quoted[i] = a
	}
	return strings.Join(quoted, " ")
}
