package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/araddon/dateparse"
	"github.com/golang-jwt/jwt/v5"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/esareynor/ffws-jatim-sub001/internal/auth"
	"github.com/esareynor/ffws-jatim-sub001/internal/client/telemetry"
	"github.com/esareynor/ffws-jatim-sub001/internal/config"
	"github.com/esareynor/ffws-jatim-sub001/internal/credentials"
	"github.com/esareynor/ffws-jatim-sub001/internal/db"
	"github.com/esareynor/ffws-jatim-sub001/internal/notify"
	"github.com/esareynor/ffws-jatim-sub001/internal/output"
	"github.com/esareynor/ffws-jatim-sub001/internal/provision"
	"github.com/esareynor/ffws-jatim-sub001/internal/repository"
	gormrepository "github.com/esareynor/ffws-jatim-sub001/internal/repository/gorm"
	"github.com/esareynor/ffws-jatim-sub001/internal/service"
)

// ErrSourcesFailed makes the process exit non-zero after the report is printed.
var ErrSourcesFailed = errors.New("one or more sources failed")

type Context struct {
	Config config.Config
	Logger *zap.Logger
	Output output.Format
	Stdout io.Writer
}

func Usage(w io.Writer) {
	fmt.Fprint(w, `ffwsctl <command> [flags]

Global Flags:
  --config      Config file (env: FFWS_CONFIG)
  --env-only    Read FFWS_* variables only (env: FFWS_ENV_ONLY)
  --output      json|text (default json)
  -v            Verbose logging

Commands:
  fetch        [--source CODE] [--force] [--test]
  provision    --source CODE
  recalculate  --sensor CODE [--from TIME] [--to TIME] [--predicted]
  curves       --sensor CODE
  token        --subject NAME [--role ROLE] [--ttl 24h]
`)
}

func Dispatch(ctx Context, args []string) error {
	if len(args) == 0 {
		Usage(os.Stderr)
		return errors.New("missing command")
	}
	switch args[0] {
	case "fetch":
		return fetchCmd(ctx, args[1:])
	case "provision":
		return provisionCmd(ctx, args[1:])
	case "recalculate":
		return recalculateCmd(ctx, args[1:])
	case "curves":
		return curvesCmd(ctx, args[1:])
	case "token":
		return tokenCmd(ctx, args[1:])
	case "help", "-h", "--help":
		Usage(ctx.Stdout)
		return nil
	default:
		Usage(os.Stderr)
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

// app holds the services one command needs.
type app struct {
	ingest    *service.IngestService
	discharge *service.DischargeService
	close     func()
}

func openApp(ctx Context) (*app, error) {
	cfg := ctx.Config
	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("db open: %w", err)
	}
	if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
		ctx.Logger.Warn("failed to set timezone", zap.Error(err))
	}
	loc, err := time.LoadLocation(cfg.DB.Timezone)
	if err != nil {
		loc = time.UTC
	}
	store := gormrepository.New(dbConn.Gorm)
	vault := credentials.NewVaultFromEnv(cfg.Credentials.KeyEnv, cfg.Credentials.PrevKeyEnv)
	publisher, err := notify.New(cfg.MQTT, ctx.Logger.Named("notify"))
	if err != nil {
		ctx.Logger.Warn("mqtt connect failed, alerts disabled", zap.Error(err))
		publisher = notify.Nop{}
	}
	clock := clockwork.NewRealClock()
	discharge := &service.DischargeService{
		Repo:     store,
		Clock:    clock,
		Location: loc,
		Logger:   ctx.Logger.Named("discharge"),
	}
	ingest := &service.IngestService{
		Repo:                store,
		Fetcher:             telemetry.New(cfg.Ingest, vault, ctx.Logger.Named("telemetry")),
		Resolver:            &provision.Resolver{Repo: store, Logger: ctx.Logger.Named("provision")},
		Discharge:           discharge,
		Settings:            &service.SystemSettingsService{Repo: store},
		Notifier:            publisher,
		Clock:               clock,
		Config:              cfg.Ingest,
		AutoDischarge:       cfg.Discharge.AutoCalculate,
		WaterLevelParameter: cfg.Discharge.WaterLevelParameter,
		Location:            loc,
		Logger:              ctx.Logger.Named("ingest"),
	}
	return &app{
		ingest:    ingest,
		discharge: discharge,
		close: func() {
			publisher.Close()
			_ = db.Close(dbConn)
		},
	}, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func fetchCmd(ctx Context, args []string) error {
	fs := flag.NewFlagSet("ffwsctl fetch", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	source := fs.String("source", "", "source code (default: all due sources)")
	force := fs.Bool("force", false, "ignore fetch intervals")
	test := fs.Bool("test", false, "test connections without storing readings")
	if err := fs.Parse(args); err != nil {
		return err
	}
	code := strings.TrimSpace(*source)

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()
	runCtx, cancel := signalContext()
	defer cancel()

	if *test {
		return testSources(runCtx, ctx, a, code)
	}
	if code != "" {
		res, err := a.ingest.FetchSource(runCtx, code)
		if err != nil {
			return err
		}
		if err := output.Write(ctx.Stdout, ctx.Output, res); err != nil {
			return err
		}
		if !res.Success() {
			return ErrSourcesFailed
		}
		return nil
	}
	res, err := a.ingest.FetchDue(runCtx, service.FetchOptions{Force: *force})
	if err != nil {
		return err
	}
	if err := output.Write(ctx.Stdout, ctx.Output, res); err != nil {
		return err
	}
	if res.Failed > 0 {
		return ErrSourcesFailed
	}
	return nil
}

type testLine struct {
	Source string `json:"source"`
	service.ConnectionTestResult
}

func testSources(runCtx context.Context, ctx Context, a *app, code string) error {
	var codes []string
	if code != "" {
		codes = []string{code}
	} else {
		active := true
		sources, err := a.ingest.Repo.ListSources(runCtx, repository.ListSourcesParams{Limit: 500, Active: &active})
		if err != nil {
			return err
		}
		for _, s := range sources {
			codes = append(codes, s.Code)
		}
	}
	lines := make([]testLine, 0, len(codes))
	failed := 0
	for _, c := range codes {
		res, err := a.ingest.TestConnection(runCtx, c)
		if err != nil {
			return err
		}
		if !res.Success {
			failed++
		}
		lines = append(lines, testLine{Source: c, ConnectionTestResult: res})
	}
	if err := output.Write(ctx.Stdout, ctx.Output, lines); err != nil {
		return err
	}
	if failed > 0 {
		return ErrSourcesFailed
	}
	return nil
}

func provisionCmd(ctx Context, args []string) error {
	fs := flag.NewFlagSet("ffwsctl provision", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	source := fs.String("source", "", "source code")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*source) == "" {
		return errors.New("--source required")
	}

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()
	runCtx, cancel := signalContext()
	defer cancel()

	res, err := a.ingest.Provision(runCtx, strings.TrimSpace(*source))
	if err != nil {
		return err
	}
	return output.Write(ctx.Stdout, ctx.Output, res)
}

func recalculateCmd(ctx Context, args []string) error {
	fs := flag.NewFlagSet("ffwsctl recalculate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	sensor := fs.String("sensor", "", "sensor code")
	fromRaw := fs.String("from", "", "range start")
	toRaw := fs.String("to", "", "range end")
	predicted := fs.Bool("predicted", false, "recalculate predicted discharges")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*sensor) == "" {
		return errors.New("--sensor required")
	}
	loc, err := time.LoadLocation(ctx.Config.DB.Timezone)
	if err != nil {
		loc = time.UTC
	}
	from, err := parseBound("from", *fromRaw, loc)
	if err != nil {
		return err
	}
	to, err := parseBound("to", *toRaw, loc)
	if err != nil {
		return err
	}

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()
	runCtx, cancel := signalContext()
	defer cancel()

	var res service.RecalculateResult
	if *predicted {
		res, err = a.discharge.RecalculatePredicted(runCtx, strings.TrimSpace(*sensor), from, to)
	} else {
		res, err = a.discharge.Recalculate(runCtx, strings.TrimSpace(*sensor), from, to)
	}
	if err != nil {
		return err
	}
	return output.Write(ctx.Stdout, ctx.Output, res)
}

func parseBound(name, raw string, loc *time.Location) (*time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	t, err := dateparse.ParseIn(raw, loc)
	if err != nil {
		return nil, fmt.Errorf("--%s: %w", name, err)
	}
	return &t, nil
}

type curvesReport struct {
	Sensor  string              `json:"mas_sensor_code"`
	Curves  []service.CurveView `json:"curves"`
	History any                 `json:"history"`
}

func curvesCmd(ctx Context, args []string) error {
	fs := flag.NewFlagSet("ffwsctl curves", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	sensor := fs.String("sensor", "", "sensor code")
	if err := fs.Parse(args); err != nil {
		return err
	}
	code := strings.TrimSpace(*sensor)
	if code == "" {
		return errors.New("--sensor required")
	}

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()
	runCtx, cancel := signalContext()
	defer cancel()

	curves, err := a.discharge.ListCurves(runCtx, code)
	if err != nil {
		return err
	}
	history, err := a.discharge.CurveHistory(runCtx, code)
	if err != nil {
		return err
	}
	return output.Write(ctx.Stdout, ctx.Output, curvesReport{Sensor: code, Curves: curves, History: history})
}

func tokenCmd(ctx Context, args []string) error {
	fs := flag.NewFlagSet("ffwsctl token", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	subject := fs.String("subject", "", "operator name")
	role := fs.String("role", "operator", "role claim")
	ttl := fs.Duration("ttl", 24*time.Hour, "token lifetime")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if strings.TrimSpace(*subject) == "" {
		return errors.New("--subject required")
	}
	secret := strings.TrimSpace(ctx.Config.Auth.JWTSecret)
	if secret == "" {
		return errors.New("auth.jwt_secret is not configured")
	}
	j := auth.JWT{Secret: []byte(secret), TokenTTL: *ttl}
	token, expiresAt, err := j.Sign(auth.Claims{
		Role:             strings.TrimSpace(*role),
		RegisteredClaims: jwt.RegisteredClaims{Subject: strings.TrimSpace(*subject)},
	})
	if err != nil {
		return err
	}
	return output.Write(ctx.Stdout, ctx.Output, map[string]any{
		"token":      token,
		"expires_at": expiresAt.Format(time.RFC3339),
	})
}
