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
	"time"

	"github.com/contactkeval/option-xray/internal/config"
	"github.com/contactkeval/option-xray/internal/data"
	"github.com/contactkeval/option-xray/internal/instrument"
	"github.com/contactkeval/option-xray/internal/logger"
	"github.com/contactkeval/option-xray/internal/metrics"
	"github.com/contactkeval/option-xray/internal/report"
	"github.com/contactkeval/option-xray/internal/scenario"
	"github.com/contactkeval/option-xray/internal/server"
	"github.com/contactkeval/option-xray/internal/xray"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		logger.Errorf("%v", err)
		os.Exit(1)
	}
}

type cliFlags struct {
	configPath string

	spot, strike, maturity, rate, dividend float64
	optType                                string
	vol, marketPrice                       float64
	model                                  string

	scenariosFile    string
	defaultScenarios bool

	underlying, expiry, quotesFile string

	outDir    string
	rest      bool
	verbosity int
}

func parseFlags(args []string) (*cliFlags, map[string]bool, error) {
	f := &cliFlags{}
	fs := flag.NewFlagSet("option-xray", flag.ContinueOnError)
	fs.StringVar(&f.configPath, "config", "", "path to YAML/JSON/TOML config (optional)")
	fs.Float64Var(&f.spot, "spot", 0, "underlying price")
	fs.Float64Var(&f.strike, "strike", 0, "strike price")
	fs.Float64Var(&f.maturity, "maturity", 0, "time to expiry in years (ignored with -expiry)")
	fs.Float64Var(&f.rate, "rate", 0, "continuous risk-free rate")
	fs.Float64Var(&f.dividend, "dividend", 0, "continuous dividend yield")
	fs.StringVar(&f.optType, "type", "call", "call or put")
	fs.Float64Var(&f.vol, "vol", 0, "explicit pricing volatility")
	fs.Float64Var(&f.marketPrice, "market-price", 0, "observed option price")
	fs.StringVar(&f.model, "model", "", "pricing model (default from config)")
	fs.StringVar(&f.scenariosFile, "scenarios", "", "YAML or JSON scenario list")
	fs.BoolVar(&f.defaultScenarios, "default-scenarios", false, "append the standard stress grid")
	fs.StringVar(&f.underlying, "underlying", "", "underlying ticker for a market quote lookup")
	fs.StringVar(&f.expiry, "expiry", "", "contract expiry YYYY-MM-DD for a market quote lookup")
	fs.StringVar(&f.quotesFile, "quotes", "", "CSV of ticker,price quotes (overrides data.quotes_file)")
	fs.StringVar(&f.outDir, "out", "", "write xray.json, scenarios.csv and summary.txt here")
	fs.BoolVar(&f.rest, "rest", false, "run as REST server")
	fs.IntVar(&f.verbosity, "v", -1, "verbosity 0=error 1=info 2=debug 3=trace (overrides config)")
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	set := map[string]bool{}
	fs.Visit(func(fl *flag.Flag) { set[fl.Name] = true })
	return f, set, nil
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	f, set, err := parseFlags(args)
	if err != nil {
		return err
	}

	cfg, err := config.Load(f.configPath)
	if err != nil {
		return err
	}
	closer, err := logger.Init(cfg.Logger)
	if err != nil {
		return err
	}
	defer closer.Close()
	if f.verbosity >= 0 {
		logger.SetVerbosity(f.verbosity)
	}

	solver, err := cfg.Solver.Build()
	if err != nil {
		return err
	}
	engine := scenario.Engine{Workers: cfg.Scenarios.Workers}
	quotes := quoteProvider(cfg, f.quotesFile)

	if f.rest {
		srv := server.New(server.Config{
			Addr:           cfg.Server.Addr,
			Mode:           cfg.Server.Mode,
			AllowedOrigins: cfg.Server.AllowedOrigins,
			Model:          cfg.Model,
			Solver:         solver,
			Engine:         engine,
			Quotes:         quotes,
			Metrics:        metrics.New(),
		})
		return srv.Run(ctx)
	}

	typ, err := instrument.ParseOptionType(f.optType)
	if err != nil {
		return err
	}
	if f.spot <= 0 || f.strike <= 0 {
		return fmt.Errorf("-spot and -strike must be > 0")
	}
	opt := instrument.Option{
		Spot:     f.spot,
		Strike:   f.strike,
		Maturity: f.maturity,
		Rate:     f.rate,
		Dividend: f.dividend,
		Type:     typ,
	}

	switch {
	case f.underlying != "" && f.expiry == "":
		return fmt.Errorf("-underlying requires -expiry")
	case f.expiry != "" && f.underlying == "":
		return fmt.Errorf("-expiry requires -underlying")
	}

	market := instrument.Market{}
	switch {
	case set["market-price"]:
		market = instrument.NewMarket(f.marketPrice)
	case f.underlying != "" && f.expiry != "":
		expiry, err := time.Parse("2006-01-02", f.expiry)
		if err != nil {
			return fmt.Errorf("invalid -expiry: %w", err)
		}
		opt.Maturity = data.YearFraction(time.Now(), expiry)
		contract := data.Contract{Underlying: f.underlying, Expiry: expiry, Strike: f.strike, Type: typ}
		if quotes == nil {
			return fmt.Errorf("no quote source for %s: set massive.api_key or -quotes", contract.Symbol())
		}
		price, err := quotes.GetOptionPrice(ctx, contract)
		if err != nil {
			return err
		}
		logger.Infof("market quote %s = %f", contract.Symbol(), price)
		market = instrument.NewMarket(price)
	}

	var scenarios []scenario.Scenario
	if f.scenariosFile != "" {
		if scenarios, err = scenario.LoadFile(f.scenariosFile); err != nil {
			return err
		}
	}
	if f.defaultScenarios {
		scenarios = append(scenarios, scenario.DefaultSet()...)
	}

	opts := []xray.Option{xray.WithSolver(solver), xray.WithScenarioEngine(engine)}
	if set["vol"] {
		opts = append(opts, xray.WithVol(f.vol))
	}
	model := cfg.Model
	if f.model != "" {
		model = f.model
	}

	start := time.Now()
	res, err := xray.New(opt, market, opts...).Run(xray.Model(model), scenarios)
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, res.Summary)

	if f.outDir != "" {
		if err := writeOutputs(res, f.outDir); err != nil {
			return err
		}
	}
	logger.Infof("finished in %v, %d scenario rows", time.Since(start), len(res.Scenarios))
	return nil
}

// quoteProvider chains Massive (when a key is configured) in front of the
// local quotes file. It returns nil when neither is available.
func quoteProvider(cfg *config.Config, quotesFile string) data.QuoteProvider {
	if quotesFile == "" {
		quotesFile = cfg.Data.QuotesFile
	}
	var local data.QuoteProvider
	if quotesFile != "" {
		local = data.NewLocalFileQuoteProvider(quotesFile, nil)
	}
	return data.GetQuoteProvider(cfg.Massive.APIKey, local)
}

func writeOutputs(res *xray.Result, dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating output dir %s: %w", dir, err)
	}
	if err := report.WriteJSON(res, dir); err != nil {
		return err
	}
	if err := report.WriteCSV(res.Scenarios, dir); err != nil {
		return err
	}
	if err := report.WriteText(res.Summary, dir); err != nil {
		return err
	}
	logger.Infof("wrote report to %s", dir)
	return nil
}
