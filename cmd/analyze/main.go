package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"neurosense-client/internal/analysis"
	"neurosense-client/internal/backend"
	"neurosense-client/internal/charts"
	"neurosense-client/internal/poll"
	"neurosense-client/internal/session"
	"neurosense-client/internal/shared/config"
)

func main() {
	cfg := config.Load()

	filePath := flag.String("file", "", "path to an EEG recording to analyze")
	text := flag.String("text", "", "free text to analyze (min 10 characters)")
	server := flag.String("server", cfg.ServerURL, "analysis API base URL")
	token := flag.String("token", cfg.APIToken, "API token")
	intervalMs := flag.Int("interval-ms", int(cfg.PollInterval.Milliseconds()), "poll interval in milliseconds")
	maxAttempts := flag.Int("max-attempts", cfg.PollMaxAttempts, "max poll attempts")
	flag.Parse()

	if *filePath == "" && *text == "" {
		fmt.Fprintln(os.Stderr, "provide -file, -text, or both")
		os.Exit(2)
	}

	client, err := backend.NewClient(*server, backend.StaticToken(*token))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	input := session.Input{Text: *text}
	if *filePath != "" {
		f, err := os.Open(*filePath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		defer f.Close()
		input.FileName = *filePath
		input.File = f
	}

	sess := session.New(client, poll.Options{
		Interval:    time.Duration(*intervalMs) * time.Millisecond,
		MaxAttempts: *maxAttempts,
	})
	if err := sess.Submit(context.Background(), input); err != nil {
		fmt.Fprintf(os.Stderr, "analysis failed: %s\n", sess.ErrMessage())
		os.Exit(1)
	}

	printSummary(sess.Result())
}

func printSummary(result *analysis.Result) {
	if result.Fusion != nil {
		fmt.Printf("Risk: %s (confidence %.0f%%)\n", result.Fusion.Risk, result.Fusion.Confidence*100)
	}
	if result.Emotion != nil && result.Emotion.Label != "" {
		fmt.Printf("Emotion: %s\n", result.Emotion.Label)
	}
	if result.Anxiety != nil && result.Anxiety.Label != "" {
		fmt.Printf("Anxiety: %s (score %.2f)\n", result.Anxiety.Label, result.Anxiety.Score)
	}
	if result.DepressionText != nil && result.DepressionText.Label != "" {
		fmt.Printf("Depression: %s\n", result.DepressionText.Label)
	}

	if len(result.Times) > 0 {
		if band, ok := charts.DominantBand(result.BandsTimeSeries, nil, len(result.Times)-1); ok {
			fmt.Printf("Dominant band (last epoch): %s\n", band)
		}
	}
	alphaView := charts.PSDView(result.PSD, charts.RangeAlpha, true)
	if peak, ok := alphaView.Peak(); ok {
		fmt.Printf("Alpha PSD peak: %.1f Hz at %s\n", peak.Frequency, alphaView.Display(peak.Power))
	}

	if len(result.Explanations) > 0 {
		fmt.Println("Explanations:")
		for _, text := range result.Explanations {
			fmt.Printf("  - %s\n", text)
		}
	}
	if result.NaturalLanguageExplanation != "" {
		fmt.Println(result.NaturalLanguageExplanation)
	}

	if len(result.Recommendations) > 0 {
		fmt.Println("Recommendations:")
		for _, rec := range result.Recommendations {
			if rec.DurationMinutes > 0 {
				fmt.Printf("  - %s (%d min)\n", rec.Title, rec.DurationMinutes)
				continue
			}
			fmt.Printf("  - %s\n", rec.Title)
		}
	}
	for _, alert := range result.SafetyAlerts {
		fmt.Printf("[%s] %s %s\n", alert.Severity, alert.Title, alert.Message)
	}
}
