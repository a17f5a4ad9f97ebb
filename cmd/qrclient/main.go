package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/MrPunder/qr-generator/internal/client"
	"github.com/MrPunder/qr-generator/internal/config"
	"github.com/MrPunder/qr-generator/internal/logger"
	"github.com/MrPunder/qr-generator/internal/models"
	"github.com/MrPunder/qr-generator/internal/storage"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	configPath   string
	output       string
	serverURL    string
	historyDir   string
	size         int
	margin       int
	fg           string
	bg           string
	format       string
	level        string
	offline      bool
	showHistory  bool
	clearHistory bool
}

func parseFlags(args []string, stderr io.Writer) (*options, []string, error) {
	opts := &options{}
	fs := flag.NewFlagSet("qrclient", flag.ContinueOnError)
	fs.SetOutput(stderr)

	fs.StringVar(&opts.configPath, "c", "cmd/qrserver/config.yaml", "config path")
	fs.StringVar(&opts.output, "o", "", "output file (default qrcode.<format>, - for stdout)")
	fs.StringVar(&opts.serverURL, "server", "", "QR service URL")
	fs.StringVar(&opts.historyDir, "history-dir", "", "local history directory")
	fs.IntVar(&opts.size, "size", 300, "image size in pixels")
	fs.IntVar(&opts.margin, "margin", 2, "quiet zone in modules")
	fs.StringVar(&opts.fg, "fg", "#000000", "foreground color")
	fs.StringVar(&opts.bg, "bg", "#ffffff", "background color")
	fs.StringVar(&opts.format, "format", "png", "png, svg or dataurl")
	fs.StringVar(&opts.level, "level", "M", "error correction level L, M, Q or H")
	fs.BoolVar(&opts.offline, "offline", false, "do not contact the service, draw the fallback pattern")
	fs.BoolVar(&opts.showHistory, "history", false, "print local history and exit")
	fs.BoolVar(&opts.clearHistory, "clear-history", false, "clear local history and exit")

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	return opts, fs.Args(), nil
}

func buildRequest(opts *options, payload string) (models.EncodeRequest, error) {
	fg, err := models.ParseColor(opts.fg)
	if err != nil {
		return models.EncodeRequest{}, err
	}
	bg, err := models.ParseColor(opts.bg)
	if err != nil {
		return models.EncodeRequest{}, err
	}
	format, err := models.ParseOutputFormat(opts.format)
	if err != nil {
		return models.EncodeRequest{}, err
	}
	level, err := models.ParseECLevel(opts.level)
	if err != nil {
		return models.EncodeRequest{}, err
	}

	req := models.EncodeRequest{
		Payload:    payload,
		Size:       opts.size,
		Margin:     opts.margin,
		Foreground: fg,
		Background: bg,
		Format:     format,
		Level:      level,
	}
	return req, req.Validate()
}

func outputName(opts *options, format models.OutputFormat) string {
	if opts.output != "" {
		return opts.output
	}
	switch format {
	case models.FormatSVG:
		return "qrcode.svg"
	case models.FormatDataURL:
		return "qrcode.txt"
	}
	return "qrcode.png"
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts, rest, err := parseFlags(args, stderr)
	if err != nil {
		return exitUsage
	}

	conf, err := config.LoadConfig(opts.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "failed to load config: %v\n", err)
		return exitFailure
	}
	if opts.serverURL == "" {
		opts.serverURL = conf.Client.ServiceURL
	}
	if opts.historyDir == "" {
		opts.historyDir = conf.Client.HistoryPath
	}

	log, err := logger.NewZapLogger(conf.Log)
	if err != nil {
		fmt.Fprintf(stderr, "failed to init logger: %v\n", err)
		return exitFailure
	}
	defer log.Close()

	history, err := storage.NewFilestorage(opts.historyDir, models.DefaultHistoryLimit)
	if err != nil {
		fmt.Fprintf(stderr, "failed to open history: %v\n", err)
		return exitFailure
	}
	defer history.Close()

	switch {
	case opts.clearHistory:
		if err := history.ClearHistory(ctx, models.SharedOwner); err != nil {
			fmt.Fprintf(stderr, "failed to clear history: %v\n", err)
			return exitFailure
		}
		fmt.Fprintln(stdout, "history cleared")
		return exitOK
	case opts.showHistory:
		return printHistory(ctx, history, stdout, stderr)
	}

	req, err := buildRequest(opts, strings.Join(rest, " "))
	if err != nil {
		fmt.Fprintf(stderr, "%v\n", err)
		return exitUsage
	}

	generator := client.NewGenerator(nil, log)
	if !opts.offline {
		generator.Remote = client.NewAPIClient(opts.serverURL, conf.API.Token, conf.Client.Timeout, log)
	}

	res, err := generator.Generate(ctx, req)
	if errors.Is(err, models.ErrInvalidInput) {
		fmt.Fprintf(stderr, "%v\n", err)
		return exitUsage
	}
	if err != nil {
		fmt.Fprintf(stderr, "failed to generate image: %v\n", err)
		return exitFailure
	}

	name := outputName(opts, req.Format)
	if name == "-" {
		_, err = stdout.Write(res.Image.Data)
	} else {
		err = os.WriteFile(name, res.Image.Data, 0644)
	}
	if err != nil {
		fmt.Fprintf(stderr, "failed to write image: %v\n", err)
		return exitFailure
	}

	if err := history.AddEntry(ctx, models.NewHistoryEntry(req)); err != nil {
		log.Errorf("failed to save history: %v", err)
	}

	if name != "-" {
		if res.Fallback {
			fmt.Fprintf(stdout, "service unavailable, fallback pattern written to %s\n", name)
		} else {
			fmt.Fprintf(stdout, "QR code written to %s\n", name)
		}
	}
	return exitOK
}

func printHistory(ctx context.Context, history storage.Storage, stdout, stderr io.Writer) int {
	entries, err := history.GetHistory(ctx, models.SharedOwner)
	if err != nil {
		fmt.Fprintf(stderr, "failed to read history: %v\n", err)
		return exitFailure
	}
	if len(entries) == 0 {
		fmt.Fprintln(stdout, "history is empty")
		return exitOK
	}
	for _, e := range entries {
		fmt.Fprintf(stdout, "%s\t%s\t%dpx\t%s/%s\t%s\n",
			e.Timestamp.Local().Format("2006-01-02 15:04:05"), e.Id, e.Size, e.FgColor.Hex(), e.BgColor.Hex(), e.Text)
	}
	return exitOK
}
