package main

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"os"
	"runtime"
	"slices"
	"strconv"
	"strings"

	"fortio.org/safecast"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"tabformat/buffer"
	"tabformat/config"
	"tabformat/engine"
	"tabformat/logger"
	"tabformat/text"
	"tabformat/types"
)

var fmtCmd = &cobra.Command{
	Use:   "fmt [flags] [path...]",
	Short: "Align files, or stdin, into columns",
	Long: `Align the lines of each file on a separator. Without --range the whole
file is one selection. The stored separator is tried first and whitespace runs
are used when it matches nothing. Without paths, stdin is formatted to stdout.`,
	RunE: runFmt,
}

func init() {
	fmtCmd.Flags().StringP("separator", "s", "", "separator to align on (default: stored preference)")
	fmtCmd.Flags().StringArrayP("range", "r", nil, "line range start:end to align, 1-based and inclusive (repeatable)")
	fmtCmd.Flags().Bool("check", false, "list files that would change and fail if any would")
	fmtCmd.Flags().Bool("diff", false, "print a unified diff instead of rewriting files")
	fmtCmd.Flags().Bool("stdout", false, "print aligned content to stdout instead of rewriting files")
	fmtCmd.Flags().Int("jobs", 0, "max parallel workers (0=auto)")
	fmtCmd.Flags().String("width", "", "width mode (chars|cells), default from config")
}

// lineRange is a 0-indexed inclusive line span
type lineRange struct {
	first, last int
}

type formatOptions struct {
	Separator string
	Ranges    []lineRange
	Width     types.WidthMode
	Check     bool
	Diff      bool
	Stdout    bool
	Jobs      int
}

type formatResult struct {
	Path      string
	Changed   bool
	Fallback  bool
	Original  string
	Formatted string
	Err       error
}

func runFmt(cmd *cobra.Command, args []string) error {
	cmd.SilenceUsage = true

	opts := formatOptions{Width: settings.Width}
	var err error

	if cmd.Flags().Changed("separator") {
		if opts.Separator, err = cmd.Flags().GetString("separator"); err != nil {
			return err
		}
	} else {
		opts.Separator, _ = config.NewStore(configPath).Separator()
	}

	rawRanges, err := cmd.Flags().GetStringArray("range")
	if err != nil {
		return err
	}
	for _, raw := range rawRanges {
		r, err := parseRange(raw)
		if err != nil {
			return err
		}
		opts.Ranges = append(opts.Ranges, r)
	}
	if err := checkRanges(opts.Ranges); err != nil {
		return err
	}

	if opts.Check, err = cmd.Flags().GetBool("check"); err != nil {
		return err
	}
	if opts.Diff, err = cmd.Flags().GetBool("diff"); err != nil {
		return err
	}
	if opts.Stdout, err = cmd.Flags().GetBool("stdout"); err != nil {
		return err
	}
	if opts.Jobs, err = cmd.Flags().GetInt("jobs"); err != nil {
		return err
	}
	width, err := cmd.Flags().GetString("width")
	if err != nil {
		return err
	}
	if width != "" {
		opts.Width = types.WidthMode(width)
	}
	if _, err := text.NewMeasurer(opts.Width); err != nil {
		return err
	}

	if len(args) == 0 {
		return formatStdin(cmd.InOrStdin(), cmd.OutOrStdout(), opts)
	}

	results, err := formatPaths(cmd.Context(), args, opts)
	if err != nil {
		return err
	}
	return renderResults(cmd.OutOrStdout(), results, opts)
}

// parseRange parses "start:end" or a single line number
func parseRange(s string) (lineRange, error) {
	startStr, endStr, found := strings.Cut(strings.TrimSpace(s), ":")
	if !found {
		endStr = startStr
	}
	start, err := parseLine(startStr)
	if err != nil {
		return lineRange{}, fmt.Errorf("invalid --range %q: %w", s, err)
	}
	end, err := parseLine(endStr)
	if err != nil {
		return lineRange{}, fmt.Errorf("invalid --range %q: %w", s, err)
	}
	if end < start {
		return lineRange{}, fmt.Errorf("invalid --range %q: end before start", s)
	}
	return lineRange{first: start - 1, last: end - 1}, nil
}

// checkRanges rejects ranges that share a line
func checkRanges(ranges []lineRange) error {
	sorted := slices.Clone(ranges)
	slices.SortFunc(sorted, func(a, b lineRange) int { return cmp.Compare(a.first, b.first) })
	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1], sorted[i]
		if cur.first <= prev.last {
			return fmt.Errorf("--range %d:%d overlaps %d:%d", cur.first+1, cur.last+1, prev.first+1, prev.last+1)
		}
	}
	return nil
}

func parseLine(s string) (int, error) {
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, err
	}
	line, err := safecast.Conv[int](n)
	if err != nil {
		return 0, err
	}
	if line == 0 {
		return 0, fmt.Errorf("line numbers start at 1")
	}
	return line, nil
}

// formatContent aligns content and returns the result
func formatContent(content string, opts formatOptions) (string, *engine.Result, error) {
	doc := buffer.NewMemory(content)
	if len(opts.Ranges) == 0 {
		doc.SelectAll()
	}
	for _, r := range opts.Ranges {
		if err := doc.SelectLines(r.first, r.last); err != nil {
			return "", nil, err
		}
	}

	eng, err := engine.NewEngine(doc, config.NewMemoryStore(opts.Separator), engine.Config{Width: opts.Width})
	if err != nil {
		return "", nil, err
	}
	res, err := eng.Format()
	if err != nil {
		return "", nil, err
	}
	return doc.String(), res, nil
}

func formatStdin(in io.Reader, out io.Writer, opts formatOptions) error {
	data, err := io.ReadAll(in)
	if err != nil {
		return fmt.Errorf("failed to read stdin: %w", err)
	}
	formatted, _, err := formatContent(string(data), opts)
	if err != nil {
		return err
	}
	if opts.Diff {
		_, err = io.WriteString(out, colorizeDiff(text.UnifiedDiff("<stdin>", string(data), formatted)))
		return err
	}
	_, err = io.WriteString(out, formatted)
	return err
}

// formatPaths aligns every file in parallel. Files are rewritten unless
// one of Check, Diff or Stdout is set.
func formatPaths(ctx context.Context, paths []string, opts formatOptions) ([]formatResult, error) {
	defer logger.Trace("formatPaths")()

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	results := make([]formatResult, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, max(len(paths), 1)))

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = formatFile(path, opts)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}
	return results, nil
}

func formatFile(path string, opts formatOptions) formatResult {
	res := formatResult{Path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		res.Err = err
		return res
	}
	res.Original = string(data)

	formatted, outcome, err := formatContent(res.Original, opts)
	if err != nil {
		res.Err = err
		return res
	}
	res.Formatted = formatted
	res.Changed = formatted != res.Original
	res.Fallback = outcome.Fallback

	if !res.Changed || opts.Check || opts.Diff || opts.Stdout {
		return res
	}

	mode := os.FileMode(0o644)
	if info, statErr := os.Stat(path); statErr == nil {
		mode = info.Mode()
	}
	if err := os.WriteFile(path, []byte(formatted), mode.Perm()); err != nil {
		res.Err = err
	}
	logger.Debug("aligned %s (fallback=%v)", path, res.Fallback)
	return res
}

func renderResults(out io.Writer, results []formatResult, opts formatOptions) error {
	changedColor := color.New(color.FgYellow)

	var hasErrors, hasChanges bool
	var writeErr error
	for _, res := range results {
		if res.Err != nil {
			hasErrors = true
			fmt.Fprintf(os.Stderr, "fmt: %s: %v\n", res.Path, res.Err)
			continue
		}
		if res.Changed {
			hasChanges = true
		}

		var err error
		switch {
		case opts.Stdout:
			_, err = io.WriteString(out, res.Formatted)
		case opts.Diff:
			_, err = io.WriteString(out, colorizeDiff(text.UnifiedDiff(res.Path, res.Original, res.Formatted)))
		case opts.Check:
			if res.Changed {
				_, err = changedColor.Fprintln(out, res.Path)
			}
		default:
			if res.Changed {
				_, err = fmt.Fprintf(out, "aligned %s\n", res.Path)
			}
		}
		if err != nil && writeErr == nil {
			writeErr = fmt.Errorf("fmt: failed to write output: %w", err)
		}
	}

	if writeErr != nil {
		return writeErr
	}
	if hasErrors {
		return fmt.Errorf("fmt: failed to align some files")
	}
	if opts.Check && hasChanges {
		return fmt.Errorf("fmt: alignment changes required")
	}
	return nil
}

// colorizeDiff colors the lines of a unified diff when color is enabled
func colorizeDiff(diff string) string {
	if color.NoColor || diff == "" {
		return diff
	}

	added := color.New(color.FgGreen)
	removed := color.New(color.FgRed)
	hunk := color.New(color.FgCyan)
	header := color.New(color.Bold)

	lines := strings.SplitAfter(diff, "\n")
	var b strings.Builder
	for _, l := range lines {
		body := strings.TrimSuffix(l, "\n")
		nl := l[len(body):]
		switch {
		case strings.HasPrefix(body, "+++"), strings.HasPrefix(body, "---"):
			b.WriteString(header.Sprint(body))
		case strings.HasPrefix(body, "@@"):
			b.WriteString(hunk.Sprint(body))
		case strings.HasPrefix(body, "+"):
			b.WriteString(added.Sprint(body))
		case strings.HasPrefix(body, "-"):
			b.WriteString(removed.Sprint(body))
		default:
			b.WriteString(body)
		}
		b.WriteString(nl)
	}
	return b.String()
}
