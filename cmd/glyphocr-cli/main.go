package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"yashubustudio/glyphocr/recognizer"
)

type cliOptions struct {
	configPath string
	envPath    string
	inputs     []string
	outputPath string
	outputDir  string
	timeout    time.Duration
	stdout     bool
}

// fileResult is the outcome for one input image.
type fileResult struct {
	Path   string
	Result recognizer.Result
	Err    error
}

func main() {
	opts, err := parseFlags()
	if err != nil {
		log.Fatalf("glyphocr-cli: %v", err)
	}
	if err := run(opts); err != nil {
		log.Fatalf("glyphocr-cli: %v", err)
	}
}

func parseFlags() (cliOptions, error) {
	var opts cliOptions
	var input string
	flag.StringVar(&opts.configPath, "config", "", "Path to config.json (default: ./config.json)")
	flag.StringVar(&opts.envPath, "env", "", "Optional .env file with GLYPHOCR_* overrides (default: ./.env if present)")
	flag.StringVar(&input, "input", "", "Comma separated image files to recognize")
	flag.StringVar(&opts.outputPath, "output", "", "CSV file to write results (default uses --output-dir/result_*.csv)")
	flag.StringVar(&opts.outputDir, "output-dir", "csv", "Directory where result CSVs are written when --output is omitted")
	flag.DurationVar(&opts.timeout, "timeout", 0, "Per image time limit, e.g. 30s (0 uses timeoutSeconds from config)")
	flag.BoolVar(&opts.stdout, "stdout", false, "Print recognized text to STDOUT")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s --input FILE[,FILE...] [options]\n\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	opts.configPath = strings.TrimSpace(opts.configPath)
	opts.envPath = strings.TrimSpace(opts.envPath)
	opts.outputPath = strings.TrimSpace(opts.outputPath)
	opts.outputDir = strings.TrimSpace(opts.outputDir)
	opts.inputs = splitInputs(input, flag.Args())

	if len(opts.inputs) == 0 {
		flag.Usage()
		return opts, errors.New("missing required --input file")
	}
	return opts, nil
}

// splitInputs merges the comma separated --input value with positional args.
func splitInputs(input string, args []string) []string {
	var out []string
	for _, part := range append(strings.Split(input, ","), args...) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func run(opts cliOptions) error {
	var envFiles []string
	if opts.envPath != "" {
		envFiles = append(envFiles, opts.envPath)
	}
	if err := recognizer.LoadEnv(envFiles...); err != nil {
		return err
	}
	cfg, err := recognizer.LoadConfig(opts.configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	recognizer.ApplyEnv(&cfg)

	logger := log.New(os.Stderr, "", log.LstdFlags)
	classifier, err := recognizer.OpenClassifier(cfg.Classifier, logger)
	if err != nil {
		return fmt.Errorf("init classifier: %w", err)
	}
	defer classifier.Close()

	pipeline, err := recognizer.NewPipeline(recognizer.NewComponentSegmenter(cfg.Segmenter), classifier, logger)
	if err != nil {
		return fmt.Errorf("init pipeline: %w", err)
	}

	timeout := opts.timeout
	if timeout <= 0 && cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	results := recognizeAll(context.Background(), pipeline, opts.inputs, timeout, logger)

	outputPath, err := resolveOutputPath(opts.outputPath, opts.outputDir)
	if err != nil {
		return err
	}
	if err := writeResultCSV(outputPath, results); err != nil {
		return err
	}
	fmt.Printf("Saved recognition results to %s\n", outputPath)

	if opts.stdout {
		printSummary(results)
	}
	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	if failed == len(results) {
		return fmt.Errorf("all %d images failed", failed)
	}
	return nil
}

func recognizeAll(ctx context.Context, pipeline *recognizer.Pipeline, paths []string, timeout time.Duration, logger *log.Logger) []fileResult {
	results := make([]fileResult, 0, len(paths))
	for _, path := range paths {
		res, err := recognizeFile(ctx, pipeline, path, timeout)
		if err != nil {
			logger.Printf("%s: %v", path, err)
		}
		results = append(results, fileResult{Path: path, Result: res, Err: err})
	}
	return results
}

func recognizeFile(ctx context.Context, pipeline *recognizer.Pipeline, path string, timeout time.Duration) (recognizer.Result, error) {
	img, err := recognizer.LoadImage(path)
	if err != nil {
		return recognizer.Result{}, err
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	return pipeline.Recognize(ctx, img)
}

func resolveOutputPath(path, dir string) (string, error) {
	if path != "" {
		absPath, err := filepath.Abs(path)
		if err != nil {
			return "", fmt.Errorf("resolve output path: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
			return "", fmt.Errorf("create output directory: %w", err)
		}
		return absPath, nil
	}
	if dir == "" {
		dir = "csv"
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve output dir: %w", err)
	}
	if err := os.MkdirAll(absDir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	filename := fmt.Sprintf("result_%s.csv", time.Now().Format("20060102150405"))
	return filepath.Join(absDir, filename), nil
}

func writeResultCSV(path string, results []fileResult) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create result file: %w", err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	header := []string{"file", "text", "mean", "min", "max", "glyphs", "error"}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, r := range results {
		if err := writer.Write(resultRow(r)); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush result: %w", err)
	}
	return nil
}

// resultRow renders one CSV row. Confidence columns stay empty when nothing
// was classified; a timed out run keeps its partial text.
func resultRow(r fileResult) []string {
	row := []string{r.Path, r.Result.Text, "", "", "", strconv.Itoa(r.Result.Classified), ""}
	if r.Result.Classified > 0 {
		row[2] = fmt.Sprintf("%.3f", r.Result.MeanConfidence)
		row[3] = fmt.Sprintf("%.3f", r.Result.MinConfidence)
		row[4] = fmt.Sprintf("%.3f", r.Result.MaxConfidence)
	}
	if r.Err != nil {
		row[6] = r.Err.Error()
	}
	return row
}

func printSummary(results []fileResult) {
	fmt.Println()
	fmt.Println("==== Recognition preview ====")
	for i, r := range results {
		fmt.Printf("%d. %s\n", i+1, r.Path)
		switch {
		case errors.Is(r.Err, recognizer.ErrUnrecognizableImage):
			fmt.Println("    no glyphs found; retake the image")
		case errors.Is(r.Err, recognizer.ErrCancelled):
			fmt.Printf("    timed out after %d glyphs: %s\n", r.Result.Classified, previewText(r.Result.Text))
		case r.Err != nil:
			fmt.Printf("    failed: %v\n", r.Err)
		default:
			fmt.Printf("    %s (%d%% accuracy)\n", previewText(r.Result.Text), percent(r.Result.MeanConfidence))
		}
	}
}

func percent(c float32) int {
	return int(c * 100)
}

func previewText(text string) string {
	text = strings.ReplaceAll(strings.TrimSpace(text), "\n", " / ")
	if text == "" {
		return "(empty)"
	}
	runeText := []rune(text)
	if len(runeText) > 60 {
		return string(runeText[:60]) + "…"
	}
	return text
}
