package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/esareynor/ffws-jatim-sub001/internal/config"
	"github.com/esareynor/ffws-jatim-sub001/internal/logger"
	"github.com/esareynor/ffws-jatim-sub001/internal/output"
)

func main() {
	var (
		cfgPath = flag.String("config", "", "Config file (env: FFWS_CONFIG, default config/config.yaml)")
		envOnly = flag.Bool("env-only", false, "Read configuration from FFWS_* variables only")
		outFmt  = flag.String("output", "json", "Output format: json|text")
		verbose = flag.Bool("v", false, "Log at the configured level instead of warn")
	)
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		Usage(os.Stderr)
		os.Exit(2)
	}

	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		os.Exit(1)
	}
	path := strings.TrimSpace(*cfgPath)
	if path == "" {
		path = os.Getenv("FFWS_CONFIG")
	}
	if path == "" {
		path = "config/config.yaml"
	}
	if v := os.Getenv("FFWS_ENV_ONLY"); v != "" && !*envOnly {
		*envOnly = strings.EqualFold(v, "true") || v == "1"
	}
	cfg, err := config.Load(path, *envOnly)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config error:", err)
		os.Exit(1)
	}

	format, err := output.Parse(*outFmt)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(2)
	}

	if !*verbose {
		cfg.Log.Level = "warn"
	}
	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "logger error:", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx := Context{
		Config: cfg,
		Logger: log,
		Output: format,
		Stdout: os.Stdout,
	}
	if err := Dispatch(ctx, args); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}
