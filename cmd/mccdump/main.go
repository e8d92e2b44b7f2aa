// Command mccdump prints the structure of IFF cache and scene files.
//
//	mccdump [-t NAME[,NAME]:type | -t NAME]... [-n] [-x] [-d] [-types file.yaml]
//	        [-channels] [-spew] [-v] files...
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/pkg/errors"
	"github.com/robert-malhotra/go-mayacache/mcc"
)

// typeFlags collects repeated -t values.
type typeFlags []string

func (t *typeFlags) String() string { return strings.Join(*t, " ") }

func (t *typeFlags) Set(v string) error {
	*t = append(*t, v)
	return nil
}

type config struct {
	types     typeFlags
	noTypes   bool
	hex       bool
	data      bool
	typesFile string
	channels  bool
	spew      bool
	verbose   bool
}

func main() {
	var cfg config
	fs := flag.NewFlagSet("mccdump", flag.ExitOnError)
	fs.Var(&cfg.types, "t", "set tag types, NAME[,NAME]:type, or unmap them with NAME (repeatable)")
	fs.BoolVar(&cfg.noTypes, "n", false, "start with no tag types")
	fs.BoolVar(&cfg.hex, "x", false, "hexdump the raw files")
	fs.BoolVar(&cfg.data, "d", false, "print chunk data")
	fs.StringVar(&cfg.typesFile, "types", "", "YAML file of tag type overrides")
	fs.BoolVar(&cfg.channels, "channels", false, "list cache channels without parsing")
	fs.BoolVar(&cfg.spew, "spew", false, "dump the parsed tree with go-spew")
	fs.BoolVar(&cfg.verbose, "v", false, "verbose logging")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "Usage: mccdump [flags] files...")
		fs.PrintDefaults()
	}
	fs.Parse(os.Args[1:])

	level := slog.LevelWarn
	if cfg.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if fs.NArg() == 0 {
		fs.Usage()
		os.Exit(2)
	}
	if err := run(cfg, fs.Args(), os.Stdout, logger); err != nil {
		logger.Error("mccdump failed", "err", err)
		os.Exit(1)
	}
}

func run(cfg config, files []string, w io.Writer, logger *slog.Logger) error {
	reg, err := buildRegistry(cfg)
	if err != nil {
		return err
	}

	for _, path := range files {
		logger.Debug("dumping", "file", path)
		if len(files) > 1 {
			fmt.Fprintf(w, "==> %s <==\n", path)
		}
		switch {
		case cfg.hex:
			err = hexdumpFile(w, path)
		case cfg.channels:
			err = printChannels(w, path)
		default:
			err = printTree(w, path, cfg, reg)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// buildRegistry applies -n, then -types, then every -t in order.
func buildRegistry(cfg config) (*mcc.Registry, error) {
	reg := mcc.DefaultRegistry()
	if cfg.noTypes {
		reg = reg.With(mcc.WithoutTypes())
	}
	if cfg.typesFile != "" {
		var err error
		if reg, err = mcc.LoadRegistryFile(cfg.typesFile, reg); err != nil {
			return nil, err
		}
	}

	for _, spec := range cfg.types {
		parts := strings.Split(spec, ":")
		if len(parts) > 2 {
			return nil, errors.Errorf("type spec %q should look like NAME:type", spec)
		}
		var opts []mcc.RegistryOption
		for _, name := range strings.Split(parts[0], ",") {
			tag, err := mcc.ParseTag(name)
			if err != nil {
				return nil, errors.Wrapf(err, "type spec %q", spec)
			}
			if len(parts) == 1 {
				opts = append(opts, mcc.WithoutTag(tag))
				continue
			}
			dt := mcc.DataType(parts[1])
			if !reg.HasType(dt) {
				return nil, errors.Errorf("type spec %q: unknown type %q", spec, parts[1])
			}
			opts = append(opts, mcc.WithTagType(tag, dt))
		}
		reg = reg.With(opts...)
	}
	return reg, nil
}

func hexdumpFile(w io.Writer, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "reading file")
	}
	return mcc.Hexdump(w, data, mcc.HexdumpOptions{})
}

func printChannels(w io.Writer, path string) error {
	channels, err := mcc.ScanChannels(path)
	if err != nil {
		return err
	}
	for _, ch := range channels {
		fmt.Fprintf(w, "%s\t%d\n", ch.Name, ch.Points)
	}
	return nil
}

func printTree(w io.Writer, path string, cfg config, reg *mcc.Registry) error {
	root, err := mcc.ParseFile(path, mcc.WithRegistry(reg))
	if err != nil {
		return err
	}
	if cfg.spew {
		sc := spew.NewDefaultConfig()
		sc.DisableCapacities = true
		sc.DisablePointerAddresses = true
		sc.Fdump(w, root)
		return nil
	}
	return mcc.Fprint(w, root, mcc.PrintOptions{Data: cfg.data, Registry: reg})
}
