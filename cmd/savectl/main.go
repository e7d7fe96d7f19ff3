package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/danmuck/scenesave/internal/components"
	"github.com/danmuck/scenesave/internal/config"
	"github.com/danmuck/scenesave/internal/engine"
	"github.com/danmuck/scenesave/internal/graph"
	"github.com/danmuck/scenesave/internal/inspect"
	"github.com/danmuck/scenesave/internal/logging"
	"github.com/danmuck/scenesave/internal/registry"
	"github.com/danmuck/scenesave/internal/server"
	"github.com/danmuck/scenesave/internal/slots"
	"github.com/danmuck/scenesave/internal/storage"
)

const usage = `usage: savectl [-config path] <command> [args]

commands:
  inspect [-format text|json|yaml] [-compression auto|none|gzip|zstd] <file|->
  slots list
  slots show [-format text|json|yaml] <slot>
  slots delete <slot>
  types
  serve
  config init [-kind file|sqlite] [-output path] [-force]
  config show
`

var errUsage = errors.New("invalid usage")

func main() {
	logging.ConfigureRuntime("savectl")
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, usage)
		}
		fmt.Fprintf(os.Stderr, "savectl: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("savectl", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	configPath := fs.String("config", defaultConfigPath, "config file path")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	explicit := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "config" {
			explicit = true
		}
	})
	rest := fs.Args()
	if len(rest) == 0 {
		return errUsage
	}

	if rest[0] == "config" {
		return runConfig(rest[1:], *configPath, explicit, stdout)
	}

	cfg, err := loadConfig(*configPath, explicit)
	if err != nil {
		return err
	}
	logging.SetLevel(cfg.Log.Level)
	reg, err := builtinRegistry()
	if err != nil {
		return err
	}

	switch rest[0] {
	case "inspect":
		return runInspect(rest[1:], reg, stdin, stdout)
	case "types":
		return writeTypes(stdout, reg)
	case "slots":
		m, closeStore, err := openSlots(cfg, reg)
		if err != nil {
			return err
		}
		defer closeStore()
		return runSlots(ctx, rest[1:], m, reg, stdout)
	case "serve":
		m, closeStore, err := openSlots(cfg, reg)
		if err != nil {
			return err
		}
		defer closeStore()
		srv := server.New(server.Options{
			Name:        cfg.Server.Name,
			Addr:        cfg.Server.Addr,
			CorsOrigins: cfg.Server.CorsOrigins,
			Slots:       m,
		})
		return srv.Serve(ctx)
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, rest[0])
	}
}

// builtinRegistry knows the component types shipped with scenesave. Games
// embed the engine with their own registry; savectl only needs field types
// to render saves.
func builtinRegistry() (*registry.Registry, error) {
	b := registry.NewBuilder()
	if err := components.Register(b); err != nil {
		return nil, err
	}
	return b.Build(), nil
}

func openSlots(cfg config.Config, reg *registry.Registry) (*slots.Manager, func(), error) {
	store, err := storage.Open(cfg.Storage.Backend, cfg.Storage.Dir, cfg.Storage.DSN)
	if err != nil {
		return nil, nil, err
	}
	comp, err := storage.NewCompressor(cfg.Storage.Compression, cfg.Storage.Level)
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}
	m := slots.NewManager(engine.New(reg, graph.NewTemplateSet()), store, comp)
	return m, func() { _ = store.Close() }, nil
}

func runInspect(args []string, reg *registry.Registry, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	format := fs.String("format", "text", "output format")
	compression := fs.String("compression", "auto", "input compression")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: inspect takes one file", errUsage)
	}

	var raw []byte
	var err error
	if path := fs.Arg(0); path == "-" {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return err
	}
	name := *compression
	if name == "auto" {
		name = storage.Detect(raw)
	}
	comp, err := storage.NewCompressor(name, 0)
	if err != nil {
		return err
	}
	blob, err := comp.Decompress(raw)
	if err != nil {
		return err
	}
	tree, err := inspect.Decode(blob, reg)
	if err != nil {
		return err
	}
	return inspect.Render(stdout, tree, *format)
}

func runSlots(ctx context.Context, args []string, m *slots.Manager, reg *registry.Registry, stdout io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: slots needs a subcommand", errUsage)
	}
	switch args[0] {
	case "list":
		list, err := m.List(ctx)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "SLOT\tBYTES\tUPDATED")
		for _, info := range list {
			fmt.Fprintf(tw, "%s\t%d\t%s\n", info.Slot, info.Size, info.Updated.Format("2006-01-02 15:04:05"))
		}
		return tw.Flush()
	case "show":
		fs := flag.NewFlagSet("show", flag.ContinueOnError)
		fs.SetOutput(io.Discard)
		format := fs.String("format", "text", "output format")
		if err := fs.Parse(args[1:]); err != nil {
			return fmt.Errorf("%w: %v", errUsage, err)
		}
		if fs.NArg() != 1 {
			return fmt.Errorf("%w: slots show takes one slot", errUsage)
		}
		blob, err := m.Read(ctx, fs.Arg(0))
		if err != nil {
			return err
		}
		tree, err := inspect.Decode(blob, reg)
		if err != nil {
			return err
		}
		return inspect.Render(stdout, tree, *format)
	case "delete":
		if len(args) != 2 {
			return fmt.Errorf("%w: slots delete takes one slot", errUsage)
		}
		if err := m.Delete(ctx, args[1]); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "deleted %s\n", args[1])
		return nil
	default:
		return fmt.Errorf("%w: unknown slots command %q", errUsage, args[0])
	}
}

func writeTypes(stdout io.Writer, reg *registry.Registry) error {
	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TYPE\tCATEGORY\tFIELDS")
	for _, name := range reg.Names() {
		desc, _ := reg.Lookup(name)
		fmt.Fprintf(tw, "%s\t%s\t%d\n", desc.Name, desc.Category, len(desc.Fields))
	}
	return tw.Flush()
}

func runConfig(args []string, path string, explicit bool, stdout io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("%w: config needs a subcommand", errUsage)
	}
	switch args[0] {
	case "init":
		fs := flag.NewFlagSet("init", flag.ContinueOnError)
		fs.SetOutput(io.Discard)
		kind := fs.String("kind", "file", "config kind: file|sqlite")
		output := fs.String("output", path, "output path")
		force := fs.Bool("force", false, "overwrite existing config file")
		if err := fs.Parse(args[1:]); err != nil {
			return fmt.Errorf("%w: %v", errUsage, err)
		}
		if err := config.WriteTemplate(*output, *kind, *force); err != nil {
			return err
		}
		fmt.Fprintf(stdout, "wrote %s config template to %s\n", *kind, *output)
		return nil
	case "show":
		cfg, err := loadConfig(path, explicit)
		if err != nil {
			return err
		}
		data, err := config.Marshal(cfg)
		if err != nil {
			return err
		}
		_, err = stdout.Write(data)
		return err
	default:
		return fmt.Errorf("%w: unknown config command %q", errUsage, args[0])
	}
}
