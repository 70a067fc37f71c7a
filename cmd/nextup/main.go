package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nextup/internal/core"
	"nextup/internal/model"
	"nextup/internal/planner"
)

func main() {
	var (
		cfgPath   string
		once      bool
		recommend bool
		lat       float64
		lon       float64
		hasCoords bool
		energy    string
	)
	flag.StringVar(&cfgPath, "config", "./config.yaml", "path to config file (yaml or json)")
	flag.BoolVar(&once, "once", false, "run a single planning pass and exit")
	flag.BoolVar(&recommend, "recommend", false, "print a what-to-do-next recommendation and exit")
	flag.Float64Var(&lat, "lat", 0, "current latitude (with -lon)")
	flag.Float64Var(&lon, "lon", 0, "current longitude (with -lat)")
	flag.StringVar(&energy, "energy", "", "energy override: low|medium|high")
	flag.Parse()
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "lat" || f.Name == "lon" {
			hasCoords = true
		}
	})

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	app, err := core.NewApp(cfgPath)
	if err != nil {
		fmt.Println("fatal:", err)
		os.Exit(1)
	}

	opts := planner.PassOptions{EnergyOverride: model.EnergyLevel(energy)}
	if hasCoords {
		opts.Latitude = &lat
		opts.Longitude = &lon
	}

	if once || recommend {
		defer app.Stop(context.Background())
		if err := runOnce(ctx, app, opts, recommend); err != nil {
			fmt.Println("fatal:", err)
			os.Exit(1)
		}
		return
	}

	if err := app.Start(ctx); err != nil {
		fmt.Println("fatal start:", err)
		os.Exit(1)
	}

	<-ctx.Done()
	stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer stopCancel()
	_ = app.Stop(stopCtx)
}

func runOnce(ctx context.Context, app *core.App, opts planner.PassOptions, recommend bool) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")

	if recommend {
		rec, err := app.Planner().Recommend(ctx, opts)
		if err != nil {
			return err
		}
		return enc.Encode(rec)
	}

	report, err := app.Planner().PlanOnce(ctx, opts)
	if err != nil {
		return err
	}
	return enc.Encode(report)
}
