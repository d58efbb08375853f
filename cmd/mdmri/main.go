package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"

	"github.com/filip-szczepankiewicz/md-dmri/internal/models"
	"github.com/filip-szczepankiewicz/md-dmri/internal/phantom"
	"github.com/filip-szczepankiewicz/md-dmri/pkg/config"
	"github.com/filip-szczepankiewicz/md-dmri/pkg/fitting"
	"github.com/filip-szczepankiewicz/md-dmri/pkg/visualization"
	"github.com/filip-szczepankiewicz/md-dmri/pkg/voxelloop"
)

func main() {
	configPath := flag.String("config", "mdmri.yaml", "YAML configuration file")
	size := flag.Int("size", 0, "Phantom side length in voxels (overrides config)")
	numWorkers := flag.Int("workers", -1, "Number of workers, 0 for all CPUs (overrides config)")
	newParfor := flag.Bool("new-parfor", false, "Use the batched execution strategy")
	noParfor := flag.Bool("no-parfor", false, "Disable parallel execution")
	verbose := flag.Bool("verbose", false, "Print voxel loop progress")
	model := flag.String("model", "", "Signal model: adc, moments or weighted (overrides config)")
	mapsDir := flag.String("maps-dir", "", "Directory to save parameter-map slices (overrides config)")
	writeConfig := flag.Bool("write-config", false, "Write the default configuration to -config and exit")
	flag.Parse()

	log := logrus.New()

	if *writeConfig {
		if err := config.CreateDefaultConfigFile(*configPath); err != nil {
			log.Fatalf("Failed to write config: %v", err)
		}
		fmt.Printf("Default configuration written to %s\n", *configPath)
		return
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	if *size > 0 {
		cfg.Phantom.Size = *size
	}
	if *numWorkers >= 0 {
		cfg.Loop.NumWorkers = *numWorkers
	}
	if *model != "" {
		cfg.Model.Name = *model
	}
	if *mapsDir != "" {
		cfg.Output.MapsDir = *mapsDir
	}
	cfg.Loop.DoNewParfor = cfg.Loop.DoNewParfor || *newParfor
	cfg.Loop.NoParfor = cfg.Loop.NoParfor || *noParfor
	cfg.Loop.Verbose = cfg.Loop.Verbose || *verbose
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	level, err := logrus.ParseLevel(cfg.Output.LogLevel)
	if err != nil {
		log.Fatalf("Invalid log level: %v", err)
	}
	log.SetLevel(level)

	fmt.Println("================================")
	fmt.Println("MD-dMRI VOXEL-WISE MODEL FITTING")
	fmt.Println("================================")

	n := cfg.Phantom.Size
	signal, mask := phantom.Sphere(n, cfg.Model.BValues, cfg.Phantom.S0, cfg.Phantom.Diffusivity)
	log.WithFields(logrus.Fields{
		"size":     n,
		"channels": signal.Nc,
		"masked":   mask.Count(),
	}).Infof("Generated phantom with %s voxels", humanize.Comma(int64(signal.NumVoxels())))

	var fit voxelloop.FitFunc
	var supplement *models.Volume
	switch cfg.Model.Name {
	case "adc":
		fit = fitting.ADC(cfg.Model.BValues)
	case "moments":
		fit = fitting.Moments()
	case "weighted":
		fit = fitting.Weighted()
		supplement = phantom.Weights(signal)
	}

	executor := voxelloop.NewExecutor(&voxelloop.Params{
		Pool:    cfg.Pool(),
		Options: cfg.LoopOptions(),
		Logger:  log,
		Status:  os.Stdout,
	})

	startTime := time.Now()
	params, err := executor.Run(fit, signal, mask, supplement)
	if err != nil {
		log.Fatalf("Voxel loop failed: %v", err)
	}
	processingTime := time.Since(startTime)

	fmt.Printf("\nFitted %q model in %.3f seconds using %d workers\n",
		cfg.Model.Name, processingTime.Seconds(), executor.Workers())
	fmt.Printf("Parameter volume: %dx%dx%d with %d parameters\n", params.Nx, params.Ny, params.Nz, params.Nc)

	processed := 0
	values := make([][]float64, params.Nc)
	for i := 0; i < params.NumVoxels(); i++ {
		if !mask.Included(i) || signal.IsZero(i) {
			continue
		}
		processed++
		for c, value := range params.Signal(i) {
			values[c] = append(values[c], value)
		}
	}
	fmt.Printf("Processed voxels: %s\n", humanize.Comma(int64(processed)))
	for c := range values {
		if len(values[c]) == 0 {
			continue
		}
		mean, std := stat.MeanStdDev(values[c], nil)
		fmt.Printf("- parameter %d: mean %.6g, std %.6g\n", c, mean, std)
	}

	if cfg.Output.MapsDir == "" {
		return
	}

	viewer := visualization.NewViewer(params)
	for c := 0; c < params.Nc; c++ {
		dir := filepath.Join(cfg.Output.MapsDir, fmt.Sprintf("param%d", c))
		if err := viewer.SaveSliceSequence("z", c, dir); err != nil {
			log.Warnf("Failed to save parameter %d slices: %v", c, err)
			continue
		}
		fmt.Printf("Saved parameter %d slices to: %s\n", c, dir)
	}
}
