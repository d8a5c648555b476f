package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
)

func main() {
	// Flags
	verbose := flag.Bool("v", false, "Verbose output")
	interactive := flag.Bool("i", false, "Interactive mode")
	imagePath := flag.String("image", "", "Image file to use as the captured frame")
	mode := flag.String("mode", "avatar", "Pipeline mode: avatar, describe or prompt")
	promptText := flag.String("prompt", "", "Prompt text for prompt mode")
	expr := flag.String("e", "", "Execute a pipeline script directly")
	file := flag.String("f", "", "Execute a pipeline script file")
	parseOnly := flag.Bool("parse", false, "Parse only, don't execute")
	serveAddr := flag.String("serve", "", "Serve the HTTP API on this address (e.g. :8080)")
	mirror := flag.Bool("mirror", false, "Mirror the captured frame")
	flag.Parse()

	cfg, err := LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}
	if *mirror {
		cfg.CaptureMirror = true
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	logger, err := newLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat, *verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}
	log := logrus.NewEntry(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *parseOnly {
		src, err := scriptSource(*expr, *file, *mode, *promptText)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		parseScript(src, *imagePath != "")
		return
	}

	if flag.NFlag() == 0 && flag.NArg() == 0 {
		printUsage()
		return
	}

	for _, name := range cfg.MissingCredentials() {
		log.Warnf("%s is not set; requests that need it will be rejected by the API", name)
	}

	app, err := newApp(ctx, cfg, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Startup error: %v\n", err)
		os.Exit(1)
	}

	switch {
	case *serveAddr != "":
		if err := app.serve(ctx, *serveAddr); err != nil {
			fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
			os.Exit(1)
		}
	case *interactive:
		app.repl(ctx, os.Stdin, os.Stdout, *imagePath)
	default:
		if flag.NArg() > 0 && *expr == "" {
			*expr = strings.Join(flag.Args(), " ")
		}
		src, err := scriptSource(*expr, *file, *mode, *promptText)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if !app.runOnce(ctx, os.Stdout, src, *imagePath) {
			os.Exit(1)
		}
	}
}

// app bundles the wired collaborators shared by every entry point
type app struct {
	cfg      *Config
	capturer *Capturer
	pipeline *Pipeline
	log      *logrus.Entry
}

func newApp(ctx context.Context, cfg *Config, log *logrus.Entry) (*app, error) {
	retry := NewRetryController(newBaseTransport(cfg.HTTPTimeout), cfg.RetryConfig(), log)

	classifier, err := NewVisionClassifier(ctx, VisionConfig{
		Endpoint:        cfg.VisionEndpoint,
		APIKey:          cfg.VisionAPIKey,
		CredentialsFile: cfg.VisionCredentialsFile,
	}, retry, log)
	if err != nil {
		return nil, err
	}

	openai, err := NewOpenAIClient(OpenAIConfig{
		BaseURL:           cfg.OpenAIBaseURL,
		APIKey:            cfg.OpenAIAPIKey,
		DescribeModel:     cfg.DescribeModel,
		DescribeMaxTokens: cfg.DescribeMaxTokens,
	}, retry, log)
	if err != nil {
		return nil, err
	}

	capturer := NewCapturer(CaptureConfig{
		Width:  cfg.CaptureWidth,
		Height: cfg.CaptureHeight,
		Mirror: cfg.CaptureMirror,
	})

	pipeline, err := NewPipeline(PipelineConfig{
		Capturer:           capturer,
		Classifier:         classifier,
		Describer:          openai,
		Generator:          openai,
		Prompts:            NewPromptBuilder(cfg.AvatarTemplate),
		ImageModel:         cfg.ImageModel,
		DescribeImageModel: cfg.DescribeImageModel,
		RunTimeout:         cfg.RunTimeout,
		Log:                log,
	})
	if err != nil {
		return nil, err
	}

	return &app{cfg: cfg, capturer: capturer, pipeline: pipeline, log: log}, nil
}

func (a *app) serve(ctx context.Context, addr string) error {
	if addr == "" {
		addr = a.cfg.ListenAddr
	}
	srv, err := NewServer(ctx, a.pipeline, a.capturer, NewRunStore(a.cfg.RunTTL), a.log)
	if err != nil {
		return err
	}
	return serve(ctx, addr, srv, a.log)
}

// runOnce executes src against a fresh session and reports whether it ended
// without a failure. A run that finds no face counts as success.
func (a *app) runOnce(ctx context.Context, out io.Writer, src, imagePath string) bool {
	sess := NewSession("cli")
	sess.Observe(NewTerminalRenderer(out).Observe)
	return a.runIn(ctx, sess, src, imagePath)
}

func (a *app) runIn(ctx context.Context, sess *Session, src, imagePath string) bool {
	var img *CapturedImage
	if imagePath != "" {
		captured, err := a.capturer.CaptureFile(imagePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Capture error: %v\n", err)
			return false
		}
		img = captured
	}

	plan, err := CompileString(src, img != nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Parse error: %v\n", err)
		return false
	}

	_, err = a.pipeline.Run(ctx, sess, plan, img)
	if err != nil {
		// pipeline failures were already rendered from the failed view
		var pe *PipelineError
		if !errors.As(err, &pe) {
			fmt.Fprintf(os.Stderr, "Execution error: %v\n", err)
		}
		return false
	}
	return true
}

// repl keeps one session alive across runs. An empty line reruns the last
// script, :back resets the session.
func (a *app) repl(ctx context.Context, in io.Reader, out io.Writer, imagePath string) {
	fmt.Fprintln(out, "📷 moodcam")
	fmt.Fprintln(out, "Commands: :help, :image <path>, :back, :quit")
	fmt.Fprintln(out)

	sess := NewSession("repl")
	sess.Observe(NewTerminalRenderer(out).Observe)
	last := AvatarScript

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "moodcam> ")
		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		switch {
		case input == ":quit" || input == ":q":
			fmt.Fprintln(out, "Goodbye!")
			return
		case input == ":help" || input == ":h":
			printHelp(out)
			continue
		case input == ":back" || input == ":b":
			if err := sess.Reset(); err != nil {
				fmt.Fprintf(out, "❌ %v\n", err)
			}
			continue
		case strings.HasPrefix(input, ":image "):
			imagePath = strings.TrimSpace(strings.TrimPrefix(input, ":image "))
			fmt.Fprintf(out, "Using %s\n", imagePath)
			continue
		case input == "":
			input = last
		}

		if ctx.Err() != nil {
			return
		}
		last = input
		a.runIn(ctx, sess, input, imagePath)
		fmt.Fprintln(out)
	}
}

// scriptSource picks the script to run: -e, then -f, then the mode preset
func scriptSource(expr, file, mode, prompt string) (string, error) {
	switch {
	case expr != "":
		return expr, nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("reading script: %w", err)
		}
		return string(data), nil
	}
	return scriptForMode(mode, prompt)
}

func parseScript(src string, haveImage bool) {
	plan, err := CompileString(src, haveImage)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Parse error: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Parse successful!")
	fmt.Printf("Steps: %s\n", plan)
}

func printUsage() {
	fmt.Println(`moodcam - capture a face, read its mood, paint an avatar

Usage:
  moodcam [flags] [script]
  moodcam -image me.jpg
  moodcam -image me.jpg -mode describe
  moodcam -mode prompt -prompt "a lighthouse in a storm"
  moodcam -e 'capture "me.jpg" -> classify -> avatar -> generate'
  moodcam -serve :8080

Flags:
  -image string   Image file to use as the captured frame
  -mode string    avatar (default), describe (classify, then describe) or prompt
  -prompt string  Prompt text for prompt mode
  -e string       Execute a pipeline script directly
  -f string       Execute a pipeline script file
  -i              Interactive mode
  -mirror         Mirror the captured frame
  -serve string   Serve the HTTP API
  -parse          Parse only, don't execute
  -v              Verbose output

Environment:
  MOODCAM_VISION_API_KEY           Face-analysis API key
  MOODCAM_VISION_CREDENTIALS_FILE  Service-account JSON (instead of the key)
  MOODCAM_OPENAI_API_KEY           Image-generation and description API key
  MOODCAM_RETRY_INTERVAL           Wait after a 429 (default 60s)
  MOODCAM_MAX_RETRIES              Retries after a 429, 0 retries forever (default 5)

Script Syntax:
  step -> step -> ... -> generate

Steps:
  capture "path"    Load the frame from a file
  classify          Detect the face and its emotion
  avatar            Build the avatar prompt from the emotion
  describe          Describe the frame in free text
  prompt "text"     Use text as the prompt
  generate          Generate the image`)
}

func printHelp(out io.Writer) {
	fmt.Fprintln(out, `
Commands:
  :help, :h        Show this help
  :image <path>    Use another image file
  :back, :b        Clear the last result
  :quit, :q        Exit

Enter a script to run it, or an empty line to run the last one again:
  classify -> avatar -> generate
  classify -> describe -> generate
  prompt "a lighthouse in a storm" -> generate`)
}
