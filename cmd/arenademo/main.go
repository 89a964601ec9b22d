// Command arenademo binds an arena to a counted component type, runs it
// through construction, access, erasure and resizing, and checks that every
// constructed value is destroyed once the arena is released.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/grafana/dskit/flagext"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/pavanmanishd/slotarena"
	"github.com/pavanmanishd/slotarena/internal/component"
	"github.com/pavanmanishd/slotarena/promarena"
)

type config struct {
	capacity     int
	resize       int
	logLevel     string
	printMetrics bool
}

func (c *config) RegisterFlags(f *flag.FlagSet) {
	f.IntVar(&c.capacity, "capacity", 0, "Number of slots to reserve when binding the arena.")
	f.IntVar(&c.resize, "resize", 4, "Slot count to resize the arena to after erasing.")
	f.StringVar(&c.logLevel, "log.level", "info", "Only log messages with the given severity or above. Valid levels: [debug, info, warn, error]")
	f.BoolVar(&c.printMetrics, "print-metrics", false, "Print arena metrics in the Prometheus text format before releasing.")
}

func (c *config) Validate() error {
	if c.capacity < 0 {
		return errors.New("capacity cannot be negative")
	}
	if c.resize < 0 {
		return errors.New("resize cannot be negative")
	}
	return nil
}

func main() {
	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ExitOnError)

	cfg := config{}
	cfg.RegisterFlags(flag.CommandLine)
	if err := flagext.ParseFlagsWithoutArguments(flag.CommandLine); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, "invalid configuration:", err)
		os.Exit(1)
	}

	logger, err := newLogger(os.Stderr, cfg.logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	if !run(cfg, logger, os.Stdout) {
		os.Exit(1)
	}
}

func newLogger(w io.Writer, lvl string) (log.Logger, error) {
	var opt level.Option
	switch lvl {
	case "debug":
		opt = level.AllowDebug()
	case "info":
		opt = level.AllowInfo()
	case "warn":
		opt = level.AllowWarn()
	case "error":
		opt = level.AllowError()
	default:
		return nil, errors.Errorf("unrecognized log level %q", lvl)
	}
	logger := log.NewLogfmtLogger(log.NewSyncWriter(w))
	logger = level.NewFilter(logger, opt)
	return log.With(logger, "ts", log.DefaultTimestampUTC), nil
}

// checker counts passing and failing checks.
type checker struct {
	logger log.Logger
	ok     int
	failed int
}

func (c *checker) check(name string, passed bool) {
	if passed {
		c.ok++
		level.Debug(c.logger).Log("msg", "check passed", "check", name)
		return
	}
	c.failed++
	level.Error(c.logger).Log("msg", "check failed", "check", name)
}

// run executes the scenario and reports whether every check passed.
func run(cfg config, logger log.Logger, out io.Writer) bool {
	reg := component.NewRegistry(logger)
	c := &checker{logger: logger}

	c.check("no live components before binding", reg.Live() == 0)

	a := slotarena.NewArena()
	reg.Bind(a, cfg.capacity)

	c.check("capacity covers reservation", a.Capacity() >= cfg.capacity)
	c.check("size is zero", a.Size() == 0)
	c.check("buffer is empty", a.BufferSize() == 0)

	first := slotarena.EmplaceBack(a, reg.New(42))
	c.check("typed emplace stores value", first.Value == 42)
	c.check("typed emplace assigns uid", first.UID != 0)
	c.check("size after typed emplace", a.Size() == 1)
	c.check("one live component", reg.Live() == 1)

	second := (*component.Counted)(a.EmplaceBack())
	second.Value = 2023
	c.check("untyped emplace reads back", slotarena.At[component.Counted](a, 1).Value == 2023)
	c.check("size after untyped emplace", a.Size() == 2)

	a.EraseAt(0)
	c.check("size after erase", a.Size() == 1)
	c.check("erase destroys one component", reg.Live() == 1)

	a.Resize(cfg.resize)
	c.check("size after resize", a.Size() == cfg.resize)
	c.check("buffer after resize", a.BufferSize() == a.ElemSize()*cfg.resize)
	c.check("resize constructs every slot", int(reg.Live()) == a.OccupiedCount())

	level.Info(logger).Log(
		"msg", "arena state before release",
		"slots", a.Size(),
		"occupied", a.OccupiedCount(),
		"capacity", a.Capacity(),
		"buffer", humanize.Bytes(uint64(a.BufferSize())),
		"allocation", humanize.Bytes(uint64(a.CapacityBytes())),
	)

	if cfg.printMetrics {
		if err := writeMetrics(out, a); err != nil {
			level.Error(logger).Log("msg", "failed to write metrics", "err", err)
		}
	}

	a.Release()
	c.check("no live components after release", reg.Live() == 0)
	c.check("every construction destroyed", reg.Constructed() == reg.Destroyed())

	if c.failed > 0 {
		level.Error(logger).Log("msg", "checks failed", "failed", c.failed, "total", c.ok+c.failed)
		return false
	}
	level.Info(logger).Log("msg", "all checks passed", "total", c.ok)
	return true
}

func writeMetrics(w io.Writer, a *slotarena.Arena) error {
	collector := promarena.NewCollector()
	collector.ObserveArena("demo", a)

	reg := prometheus.NewPedanticRegistry()
	if err := reg.Register(collector); err != nil {
		return errors.Wrap(err, "register collector")
	}
	families, err := reg.Gather()
	if err != nil {
		return errors.Wrap(err, "gather metrics")
	}

	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return errors.Wrap(err, "encode metrics")
		}
	}
	return nil
}
