package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"runtime"
	"time"

	"imageculler/config"
	"imageculler/culler"
	"imageculler/database"
	"imageculler/features"
	"imageculler/grouper"
	"imageculler/logging"
	"imageculler/signalhandler"
	"imageculler/storage"
	"imageculler/utils"
)

func main() {
	// Set the optimal number of CPUs to use
	runtime.GOMAXPROCS(signalhandler.GetOptimalProcs())

	// Parse command line arguments into a map
	args := utils.ParseArguments()

	command, hasCommand := args["command"]

	// Setup debug logging if enabled
	if _, ok := args["debug"]; ok {
		logPath := "imageculler.log"
		if customLogPath, ok := args["logfile"]; ok && customLogPath != "" {
			logPath = customLogPath
		}
		if err := logging.SetupLogger(logPath); err != nil {
			fmt.Printf("Warning: Failed to setup logging: %v\n", err)
		} else {
			fmt.Printf("Debug mode enabled. Logging to: %s\n", logPath)
		}
		defer logging.CloseLogger()
	}

	// Check if required arguments are missing
	showUsage := !hasCommand

	if hasCommand && command == "cull" && args["folder"] == "" {
		showUsage = true
	}

	if hasCommand && (command == "fetch" || command == "push") && (args["folder"] == "" || args["bucket"] == "") {
		showUsage = true
	}

	if showUsage {
		utils.PrintUsage()
		os.Exit(1)
	}

	cfg, err := loadConfig(args)
	if err != nil {
		log.Fatalf("Error loading configuration: %v", err)
	}

	switch command {
	case "cull":
		handleCullCommand(cfg)
	case "fetch":
		handleFetchCommand(cfg, args["bucket"])
	case "push":
		handlePushCommand(cfg, args["bucket"])
	default:
		fmt.Printf("Unknown command: %s\n", command)
		utils.PrintUsage()
		os.Exit(1)
	}
}

// loadConfig reads the optional config file and applies flag overrides.
func loadConfig(args map[string]string) (config.Config, error) {
	configPath := "culler.toml"
	if custom, ok := args["config"]; ok && custom != "" {
		configPath = custom
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return cfg, err
	}

	if folder, ok := args["folder"]; ok && folder != "" {
		cfg.SourceDir = folder
	}
	if strategy, ok := args["strategy"]; ok && strategy != "" {
		cfg.Strategy = strategy
	}
	if output, ok := args["output"]; ok && output != "" {
		cfg.Output.KeptDir = output
	}
	if cullToStr, ok := args["cull-to"]; ok {
		cullTo, err := utils.ParseCullTo(cullToStr)
		if err != nil {
			return cfg, err
		}
		cfg.CullTo = cullTo
	}
	if thresholdStr, ok := args["threshold"]; ok {
		threshold, err := utils.ParseThreshold(thresholdStr)
		if err != nil {
			return cfg, err
		}
		if cfg.Strategy == config.StrategyEmbeddingFast {
			cfg.Thresholds.Fast = threshold
		} else {
			cfg.Thresholds.Precise = threshold
		}
	}
	if _, ok := args["debug"]; ok {
		cfg.Debug = true
	}
	if cfg.Workers == 0 {
		cfg.Workers = signalhandler.GetOptimalProcs()
	}

	return cfg, nil
}

func handleCullCommand(cfg config.Config) {
	// Verify folder path exists and is accessible
	folderInfo, err := os.Stat(cfg.SourceDir)
	if err != nil {
		if os.IsNotExist(err) {
			log.Fatalf("Folder path does not exist: %s", cfg.SourceDir)
		}
		log.Fatalf("Cannot access folder path: %s (%v)", cfg.SourceDir, err)
	}
	if !folderInfo.IsDir() {
		log.Fatalf("Path is not a directory: %s", cfg.SourceDir)
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, cancel := signalhandler.SetupHandler()
	defer cancel()

	startTime := time.Now()

	names, err := storage.ListImages(cfg.SourceDir)
	if err != nil {
		log.Fatalf("Error listing images: %v", err)
	}

	fmt.Printf("There are %d images to process. Culling to %d images...\n", len(names), cfg.CullTo)
	fmt.Printf("Strategy: %s\n", cfg.Strategy)

	// The feature cache is an optimization; run without it if it fails.
	var cache *database.FeatureCache
	if cfg.CachePath != "" {
		cache, err = database.Open(cfg.CachePath)
		if err != nil {
			fmt.Printf("Warning: feature cache unavailable: %v\n", err)
			logging.LogWarning("Feature cache unavailable: %v", err)
			cache = nil
		} else {
			defer cache.Close()
		}
	}

	extractor, err := features.NewExtractor(cfg, names, cache)
	if err != nil {
		log.Fatalf("Error preparing feature extraction: %v", err)
	}
	defer extractor.Close()

	strategy, err := grouper.New(cfg)
	if err != nil {
		log.Fatalf("Error selecting grouping strategy: %v", err)
	}

	exporter := &storage.LocalExporter{
		SourceDir:        cfg.SourceDir,
		CulledDir:        cfg.Output.CulledDir,
		DuplicateSetsDir: cfg.Output.DuplicateSetsDir,
	}

	pipeline := culler.New(cfg, extractor, strategy, exporter, culler.NewReporter(os.Stdout))
	logging.LogInfo("Starting cull run %s on %s", pipeline.RunID(), cfg.SourceDir)

	result, err := pipeline.Run(ctx)
	if err != nil {
		if errors.Is(err, ctx.Err()) && ctx.Err() != nil {
			log.Fatalf("Cull run cancelled: %v", err)
		}
		log.Fatalf("Error running cull pipeline: %v", err)
	}

	if !storage.ExportKept(cfg.SourceDir, cfg.Output.KeptDir, result.Kept, cfg.Output.Numbered) {
		fmt.Println("Some kept images could not be exported.")
	}

	culler.RenderStats(os.Stdout, result.Stats)
	fmt.Printf("Culling done in %v.\n", time.Since(startTime).Round(time.Second))
	fmt.Printf("Kept images written to: %s\n", cfg.Output.KeptDir)
}

func handleFetchCommand(cfg config.Config, bucket string) {
	ctx, cancel := signalhandler.SetupHandler()
	defer cancel()

	client, err := storage.NewBucketClient(cfg.Bucket.Endpoint, cfg.Bucket.UseSSL)
	if err != nil {
		log.Fatalf("Error connecting to bucket endpoint: %v", err)
	}

	if !client.DownloadAll(ctx, bucket, cfg.SourceDir) {
		fmt.Println("Failed to download files from bucket.")
		os.Exit(1)
	}
}

func handlePushCommand(cfg config.Config, bucket string) {
	ctx, cancel := signalhandler.SetupHandler()
	defer cancel()

	names, err := storage.ListImages(cfg.SourceDir)
	if err != nil {
		log.Fatalf("Error listing images: %v", err)
	}

	client, err := storage.NewBucketClient(cfg.Bucket.Endpoint, cfg.Bucket.UseSSL)
	if err != nil {
		log.Fatalf("Error connecting to bucket endpoint: %v", err)
	}

	if !client.UploadOrdered(ctx, cfg.SourceDir, bucket, names) {
		fmt.Println("Failed to upload all files")
		os.Exit(1)
	}
}
