// gmtool compiles and edits GameMonkey bytecode libraries for the patch.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/edaniels/golog"

	"gmpatch/internal/config"
	"gmpatch/internal/logging"
)

var (
	version    = "0.1.0"
	configPath = flag.String("config", "", "Configuration file (default: per-user config)")
	debug      = flag.Bool("debug", false, "Enable debug logging")
	showVer    = flag.Bool("version", false, "Show version")
)

// command is one gmtool subcommand.
type command struct {
	usage string
	run   func(env *env, args []string) error
}

// env is what every subcommand gets.
type env struct {
	cfg    *config.Config
	out    io.Writer
	logger golog.Logger
}

const (
	compileUsage = "compile [-backend exe] [-src patch.gm] [-out patch.gmb]"
	patchUsage   = "patch <input.gmb> <patch.gmb> <output.gmb>"
	disasmUsage  = "disasm [-fn index] <lib.gmb>"
	levelsUsage  = "levels [-o dir] <file.level.bin>..."
	infoUsage    = "info <lib.gmb>"
)

var commands = map[string]command{
	"compile": {compileUsage, runCompile},
	"patch":   {patchUsage, runPatch},
	"disasm":  {disasmUsage, runDisasm},
	"levels":  {levelsUsage, runLevels},
	"info":    {infoUsage, runInfo},
}

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(), "Usage: gmtool [flags] <command> [args]\n\nCommands:\n")
	for _, name := range []string{"compile", "patch", "disasm", "levels", "info"} {
		fmt.Fprintf(flag.CommandLine.Output(), "  %s\n", commands[name].usage)
	}
	fmt.Fprintf(flag.CommandLine.Output(), "\nFlags:\n")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	flag.Parse()

	if *showVer {
		fmt.Printf("gmtool version %s\n", version)
		return
	}

	logger := logging.New("gmtool", *debug)
	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}
	cmd, ok := commands[flag.Arg(0)]
	if !ok {
		logger.Errorf("unknown command %q", flag.Arg(0))
		usage()
		os.Exit(2)
	}

	cfgMgr, err := loadConfig(*configPath, logger)
	if err != nil {
		logger.Warnf("Config: using defaults: %v", err)
	}

	e := &env{cfg: cfgMgr.Get(), out: os.Stdout, logger: logger}
	if err := cmd.run(e, flag.Args()[1:]); err != nil {
		logger.Fatalf("%s: %v", flag.Arg(0), err)
	}
}

func loadConfig(path string, logger golog.Logger) (*config.Manager, error) {
	var cfgMgr *config.Manager
	if path != "" {
		cfgMgr = config.NewManagerAt(path, logger)
	} else {
		var err error
		if cfgMgr, err = config.NewManager(logger); err != nil {
			return config.NewManagerAt(config.FileName, logger), err
		}
	}
	return cfgMgr, cfgMgr.Load()
}
