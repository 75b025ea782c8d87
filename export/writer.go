// Package export renders fused slides to files: JSON, plain text, SubRip,
// WebVTT and Markdown.
package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/maastricht-university/slidefuse/transcript"
)

// Formats lists every supported extension.
var Formats = []string{"json", "txt", "srt", "vtt", "md"}

// WriteJSON writes the whole result, indented.
func WriteJSON(path string, r *transcript.Result) error {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding result: %w", err)
	}
	return atomicWrite(path, append(data, '\n'))
}

// WriteText writes one slide per block, prefixed by its start in [HH:MM:SS].
func WriteText(path string, r *transcript.Result) error {
	var b strings.Builder
	for _, s := range r.Slides {
		fmt.Fprintf(&b, "[%s] %s\n", formatTextTimestamp(start(s)), s.Text)
	}
	return atomicWrite(path, []byte(b.String()))
}

// WriteSRT writes a SubRip file numbered by slide number.
func WriteSRT(path string, r *transcript.Result) error {
	var b strings.Builder
	for i, s := range r.Slides {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d\n", s.Number)
		fmt.Fprintf(&b, "%s --> %s\n", formatSRTTimestamp(start(s)), formatSRTTimestamp(end(s)))
		fmt.Fprintf(&b, "%s\n", s.Text)
	}
	return atomicWrite(path, []byte(b.String()))
}

// WriteVTT writes a WebVTT file.
func WriteVTT(path string, r *transcript.Result) error {
	var b strings.Builder
	b.WriteString("WEBVTT\n")
	for _, s := range r.Slides {
		b.WriteByte('\n')
		fmt.Fprintf(&b, "%s --> %s\n", formatVTTTimestamp(start(s)), formatVTTTimestamp(end(s)))
		fmt.Fprintf(&b, "%s\n", s.Text)
	}
	return atomicWrite(path, []byte(b.String()))
}

// WriteMarkdown writes a heading per slide with its span and source.
func WriteMarkdown(path string, r *transcript.Result) error {
	var b strings.Builder
	b.WriteString("# Transcript\n\n")
	fmt.Fprintf(&b, "- Content: `%s`\n", r.ContentType)
	fmt.Fprintf(&b, "- Average confidence: %.2f\n", r.AverageConfidence)
	b.WriteString("\n---\n\n")
	for _, s := range r.Slides {
		fmt.Fprintf(&b, "## Slide %d", s.Number)
		if s.Start != nil {
			fmt.Fprintf(&b, " [%s-%s]", formatTextTimestamp(start(s)), formatTextTimestamp(end(s)))
		}
		fmt.Fprintf(&b, " (%s)\n\n%s\n\n", s.Source, strings.TrimSpace(s.Text))
	}
	return atomicWrite(path, []byte(b.String()))
}

// WriteAll writes the result in every requested format. basePath is the file
// path without extension. If formats is empty, defaults to ["json"]. Returns
// a combined error listing all failures.
func WriteAll(basePath string, r *transcript.Result, formats []string) error {
	if len(formats) == 0 {
		formats = []string{"json"}
	}
	var errs []string
	for _, f := range formats {
		var err error
		switch f {
		case "json":
			err = WriteJSON(basePath+".json", r)
		case "txt":
			err = WriteText(basePath+".txt", r)
		case "srt":
			err = WriteSRT(basePath+".srt", r)
		case "vtt":
			err = WriteVTT(basePath+".vtt", r)
		case "md":
			err = WriteMarkdown(basePath+".md", r)
		default:
			errs = append(errs, fmt.Sprintf("unknown format %q", f))
			continue
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", f, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("export errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

func start(s transcript.Slide) time.Duration { return seconds(s.Start) }

// end falls back to start for slides with an open span.
func end(s transcript.Slide) time.Duration {
	if s.End == nil {
		return start(s)
	}
	return seconds(s.End)
}

func seconds(v *float64) time.Duration {
	if v == nil || *v < 0 {
		return 0
	}
	return time.Duration(*v * float64(time.Second)).Round(time.Millisecond)
}

func formatTextTimestamp(d time.Duration) string {
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// formatSRTTimestamp formats a duration as HH:MM:SS,mmm.
func formatSRTTimestamp(d time.Duration) string {
	return formatTextTimestamp(d) + fmt.Sprintf(",%03d", int(d.Milliseconds())%1000)
}

// formatVTTTimestamp formats a duration as HH:MM:SS.mmm.
func formatVTTTimestamp(d time.Duration) string {
	return formatTextTimestamp(d) + fmt.Sprintf(".%03d", int(d.Milliseconds())%1000)
}

// atomicWrite writes data to path using a temp file + rename.
func atomicWrite(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	tmpFile, err := os.CreateTemp(dir, "slides-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	defer func() {
		if tmpFile != nil {
			tmpFile.Close()
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmpFile.Write(data); err != nil {
		return fmt.Errorf("writing export: %w", err)
	}
	if err := tmpFile.Sync(); err != nil {
		return fmt.Errorf("syncing export: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("closing export: %w", err)
	}
	tmpFile = nil

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("renaming export: %w", err)
	}
	return nil
}
