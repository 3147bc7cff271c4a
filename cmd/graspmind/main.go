package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/joho/godotenv"

	"github.com/graspmind/graspmind"
	"github.com/graspmind/graspmind/internal/artifacts"
	"github.com/graspmind/graspmind/internal/config"
	"github.com/graspmind/graspmind/pkg/gateway"
	"github.com/graspmind/graspmind/pkg/ollama"
	"github.com/graspmind/graspmind/pkg/openaicompat"
	"github.com/graspmind/graspmind/pkg/render"
)

func main() {
	// .env is optional; flags and GRASPMIND_* variables take over from here.
	_ = godotenv.Load()

	var (
		imagePath   string
		instruction string
		backend     string
		serverURL   string
		model       string
		bound       int
		quality     int
		timeoutSec  int
		outDir      string
		configPath  string
		debug       bool
	)

	flag.StringVar(&imagePath, "image", "", "input image path (jpg/png/webp)")
	flag.StringVar(&instruction, "instruction", "", "natural-language request, e.g. \"I want to drink some water\"")
	flag.StringVar(&backend, "backend", "", "recognition backend: ollama or openai")
	flag.StringVar(&serverURL, "url", "", "backend server URL")
	flag.StringVar(&model, "model", "", "vision model name")
	flag.IntVar(&bound, "bound", 0, "max long side of the image sent to the model (px)")
	flag.IntVar(&quality, "quality", 0, "JPEG quality for the model payload (1-100)")
	flag.IntVar(&timeoutSec, "timeout", 0, "per-stage timeout in seconds")
	flag.StringVar(&outDir, "out", "", "output directory for run artifacts")
	flag.StringVar(&configPath, "config", "", "JSON config file")
	flag.BoolVar(&debug, "debug", false, "write an overlay image alongside the mask")
	flag.Parse()

	if imagePath == "" || instruction == "" {
		log.Fatalf("usage: %s -image scene.jpg -instruction \"...\" [-backend ollama|openai] [-url server] [-model name]",
			filepath.Base(os.Args[0]))
	}

	cfg := loadConfig(configPath)
	if backend != "" {
		cfg.Backend = backend
	}
	if serverURL != "" {
		cfg.ServerURL = serverURL
	}
	if model != "" {
		cfg.Model = model
	}
	if bound > 0 {
		cfg.MaxImageSize = bound
	}
	if quality > 0 {
		cfg.JPEGQuality = quality
	}
	if timeoutSec > 0 {
		cfg.StageTimeoutSeconds = timeoutSec
	}
	if outDir != "" {
		cfg.OutputDir = outDir
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}
	setupLogging(cfg.LogLevel)

	client, err := buildGateway(cfg)
	if err != nil {
		log.Fatalf("failed to create %s client: %v", cfg.Backend, err)
	}

	assistant, err := graspmind.New(client, graspmind.Options{
		Bound:        cfg.MaxImageSize,
		Quality:      cfg.JPEGQuality,
		StageTimeout: time.Duration(cfg.StageTimeoutSeconds) * time.Second,
	})
	if err != nil {
		log.Fatal(err)
	}

	result, err := assistant.ProcessFile(context.Background(), imagePath, instruction)
	if err != nil {
		log.Fatal(err)
	}

	saver, err := artifacts.NewSaver(cfg.OutputDir)
	if err != nil {
		log.Fatal(err)
	}
	runDir, err := saver.CreateRunDir()
	if err != nil {
		log.Fatal(err)
	}
	if _, err := saver.SaveSessionInfo(runDir, imagePath, instruction); err != nil {
		log.Printf("session info save failed: %v", err)
	}
	if _, err := saver.SaveResult(runDir, result); err != nil {
		log.Printf("result save failed: %v", err)
	}

	if !result.Success {
		log.Fatalf("pipeline failed at %s: %s (completed: %s)",
			result.FailedStage, result.ErrorMessage, strings.Join(result.Completed, ", "))
	}

	maskPath, err := saver.SaveMask(runDir, result.Mask)
	if err != nil {
		log.Printf("mask save failed: %v", err)
	}

	if debug {
		img, err := imaging.Open(imagePath)
		if err != nil {
			log.Printf("overlay skipped, cannot reopen image: %v", err)
		} else {
			overlay := render.Overlay(img, result.Mask, result.Regions, result.Strategy.TargetObject.Box)
			if overlayPath, err := saver.SaveOverlay(runDir, overlay); err != nil {
				log.Printf("overlay save failed: %v", err)
			} else {
				log.Printf("wrote %s", overlayPath)
			}
		}
	}

	fmt.Printf("grasp the %s of the %s\n", result.Strategy.TargetPart.Name, result.Strategy.TargetObject.Label)
	fmt.Printf("rationale: %s\n", result.Strategy.Rationale)
	for _, note := range result.Strategy.SafetyNotes {
		fmt.Printf("  - %s\n", note)
	}
	fmt.Printf("mask: %s (coverage %.2f%%)\n", maskPath, result.Mask.Coverage()*100)
	fmt.Printf("elapsed: %.2fs\n", result.ElapsedSec)
}

func loadConfig(path string) *config.Config {
	if path != "" {
		cfg, err := config.LoadFromFile(path)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
		cfg.ApplyEnv()
		return cfg
	}
	cfg := config.Default()
	cfg.ApplyEnv()
	return cfg
}

func buildGateway(cfg *config.Config) (gateway.Client, error) {
	switch cfg.Backend {
	case "ollama":
		url := cfg.ServerURL
		if url == "" {
			url = "http://localhost:11434"
		}
		return ollama.NewClient(url, cfg.Model)
	case "openai":
		return openaicompat.NewClient(cfg.ServerURL, cfg.APIKey, cfg.Model)
	default:
		return nil, fmt.Errorf("unknown backend: %s", cfg.Backend)
	}
}

func setupLogging(level string) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))
}
