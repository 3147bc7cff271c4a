// Package graspmind drives a robotic-grasping assistant: given a scene
// photo and a natural-language request, it identifies an object, picks a
// functional part of that object safe to grasp, and returns a pixel-accurate
// region for that part in the coordinate space of the original, unmodified
// image.
//
// Basic usage:
//
//	package main
//
//	import (
//		"context"
//		"fmt"
//		"log"
//
//		"github.com/graspmind/graspmind"
//		"github.com/graspmind/graspmind/pkg/ollama"
//	)
//
//	func main() {
//		client, err := ollama.NewClient("http://localhost:11434", "qwen2.5vl")
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		assistant, err := graspmind.New(client, graspmind.Options{})
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		result, err := assistant.ProcessFile(context.Background(), "scene.jpg", "I want to drink some water")
//		if err != nil {
//			log.Fatal(err)
//		}
//		if !result.Success {
//			log.Fatalf("failed at %s: %s", result.FailedStage, result.ErrorMessage)
//		}
//
//		fmt.Printf("grasp the %s of the %s, mask coverage %.1f%%\n",
//			result.Strategy.TargetPart.Name,
//			result.Strategy.TargetObject.Label,
//			result.Mask.Coverage()*100)
//	}
//
// Processing runs three stages in strict order: scene analysis enumerates
// the visible objects, strategy resolution reads the user's intent and
// picks the object and functional part, and region extraction localizes
// that part. The input image is downscaled once into a bounded working
// resolution before any recognition call; the recorded scale is what maps
// stage-three regions back to original-image pixels. A failure in any
// stage aborts the run and reports the failing stage; later stages are
// never entered.
package graspmind

import (
	"context"
	"time"

	"github.com/graspmind/graspmind/pkg/gateway"
	"github.com/graspmind/graspmind/pkg/knowledge"
	"github.com/graspmind/graspmind/pkg/pipeline"
)

// Version of the graspmind library.
const Version = "1.0.0"

// Options configures an Assistant. Zero values select the defaults.
type Options struct {
	// Bound is the maximum long side of the working image (default 1024).
	Bound int
	// Quality is the JPEG quality of the model payload (default 85).
	Quality int
	// StageTimeout bounds each stage's recognition call.
	StageTimeout time.Duration
	// Table overrides the built-in functional-part table.
	Table *knowledge.Table
}

// Assistant is the high-level entry point wrapping the stage pipeline.
type Assistant struct {
	pipeline *pipeline.Pipeline
}

// New creates an Assistant talking to the given recognition backend.
func New(client gateway.Client, opts Options) (*Assistant, error) {
	if opts.Bound == 0 {
		opts.Bound = 1024
	}
	if opts.Quality == 0 {
		opts.Quality = 85
	}
	table := opts.Table
	if table == nil {
		table = knowledge.NewTable()
	}

	p, err := pipeline.New(client, table, pipeline.Options{
		Bound:        opts.Bound,
		Quality:      opts.Quality,
		StageTimeout: opts.StageTimeout,
	})
	if err != nil {
		return nil, err
	}
	return &Assistant{pipeline: p}, nil
}

// Process runs one request over raw image bytes.
func (a *Assistant) Process(ctx context.Context, imageData []byte, instruction string) (*pipeline.Result, error) {
	return a.pipeline.Process(ctx, imageData, instruction)
}

// ProcessFile runs one request over an image file.
func (a *Assistant) ProcessFile(ctx context.Context, path, instruction string) (*pipeline.Result, error) {
	return a.pipeline.ProcessFile(ctx, path, instruction)
}

// Status reports the pipeline configuration.
func (a *Assistant) Status() pipeline.Status {
	return a.pipeline.Status()
}
