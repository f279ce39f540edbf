package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/gwos/tstamp/accum"
	"github.com/gwos/tstamp/config"
	"github.com/gwos/tstamp/errors"
	"github.com/gwos/tstamp/timestamp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"
)

const usage = `Usage: tscalc [flags] COMMAND [ARGS...]

Commands:
  fmt TICKS...     print canonical form of raw microsecond counts
  parse TEXT...    print ticks, seconds and canonical form
  add TEXT...      print the sum, fails on overflow
  sub TEXT...      print the first value minus the others, clamped at zero
  sum              read one value per line from stdin and print the aggregate
  version          print build info

Flags:
`

func main() {
	flags := pflag.NewFlagSet(os.Args[0], pflag.ContinueOnError)
	flags.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flags.PrintDefaults()
	}
	strict := flags.Bool("strict", false, `require "######.######" inputs`)
	prom := flags.Bool("prom", false, "print Prometheus metrics after sum")
	asJSON := flags.Bool("json", false, "print sum result as JSON")
	var offset timestamp.Timestamp
	flags.Var(&offset, "offset", "value added to parse and sum inputs")
	config.BindFlags(flags)
	if err := flags.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}
	config.ApplyFlags()

	cfg := config.GetConfig()
	if flags.Changed("strict") {
		cfg.Calc.Strict = *strict
	}
	if flags.Changed("prom") {
		cfg.Calc.ExportProm = *prom
	}
	if flags.Changed("offset") {
		cfg.Calc.Offset = offset
	}

	cmd := &command{
		cfg:    cfg.Calc,
		json:   *asJSON,
		stdin:  os.Stdin,
		stdout: os.Stdout,
	}
	if err := cmd.run(flags.Args()); err != nil {
		log.Error().Err(err).Str("kind", errors.Kind(err)).Msg("tscalc failed")
		os.Exit(1)
	}
}

type command struct {
	cfg    config.Calc
	json   bool
	stdin  io.Reader
	stdout io.Writer
}

func (c *command) run(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("missing command, see --help")
	}
	switch name, args := args[0], args[1:]; name {
	case "fmt":
		return c.format(args)
	case "parse":
		return c.parse(args)
	case "add":
		return c.add(args)
	case "sub":
		return c.sub(args)
	case "sum":
		return c.sum()
	case "version":
		bi := config.GetBuildInfo()
		_, err := fmt.Fprintf(c.stdout, "tscalc %s (%s)\n", bi.Tag, bi.Time)
		return err
	default:
		return fmt.Errorf("unknown command: %q", name)
	}
}

func (c *command) format(args []string) error {
	for _, arg := range args {
		ticks, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return fmt.Errorf("%w: %q: %w", errors.ErrParse, arg, err)
		}
		if ticks < 0 {
			return fmt.Errorf("%w: %d ticks", errors.ErrNegativeTime, ticks)
		}
		fmt.Fprintln(c.stdout, timestamp.New(ticks))
	}
	return nil
}

// decode parses input with configured strictness and adds offset
func (c *command) decode(s string) (timestamp.Timestamp, error) {
	var ts timestamp.Timestamp
	if err := ts.FromString(s, c.cfg.Strict); err != nil {
		return ts, err
	}
	if err := ts.Add(c.cfg.Offset); err != nil {
		return ts, err
	}
	return ts, nil
}

func (c *command) parse(args []string) error {
	for _, arg := range args {
		ts, err := c.decode(arg)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.stdout, "%d %s %s\n",
			ts.Ticks(), strconv.FormatFloat(ts.Seconds(), 'f', -1, 64), ts)
	}
	return nil
}

func (c *command) add(args []string) error {
	var total timestamp.Timestamp
	for _, arg := range args {
		ts, err := timestamp.Parse(arg)
		if err != nil {
			return err
		}
		if err := total.Add(ts); err != nil {
			return err
		}
	}
	fmt.Fprintln(c.stdout, total)
	return nil
}

func (c *command) sub(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("sub needs at least one value")
	}
	total, err := timestamp.Parse(args[0])
	if err != nil {
		return err
	}
	for _, arg := range args[1:] {
		ts, err := timestamp.Parse(arg)
		if err != nil {
			return err
		}
		total.Sub(ts)
	}
	fmt.Fprintln(c.stdout, total)
	return nil
}

func (c *command) sum() error {
	acc := accum.New(c.cfg.MetricsNamespace)
	scanner := bufio.NewScanner(c.stdin)
	line := 0
	for scanner.Scan() {
		line++
		s := strings.TrimSpace(scanner.Text())
		if s == "" || strings.HasPrefix(s, "#") {
			continue
		}
		ts, err := c.decode(s)
		if err == nil {
			err = acc.Observe(ts)
		} else {
			acc.Reject(err)
		}
		if err != nil {
			log.Warn().Err(err).Int("line", line).Msg("skipped input")
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	st := acc.Stats()
	if c.json {
		enc := json.NewEncoder(c.stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(st); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(c.stdout, "count %d\ntotal %s\nmin %s\nmax %s\nmean %s\n",
			st.Count, st.Total, st.Min, st.Max, st.Mean)
		for _, kind := range []string{"format", "negative", "overflow", "parse"} {
			if n := st.Errors[kind]; n > 0 {
				fmt.Fprintf(c.stdout, "errors{%s} %d\n", kind, n)
			}
		}
	}
	if c.cfg.ExportProm {
		return accum.WriteText(c.stdout, acc)
	}
	return nil
}
