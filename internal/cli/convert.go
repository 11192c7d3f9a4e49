package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/textsubs/subconv/internal/subtitle"
	"github.com/textsubs/subconv/internal/textenc"
)

var convertCmd = &cobra.Command{
	Use:   "convert [subtitle_file]",
	Short: "Convert a subtitle file to another format",
	Long: `Convert between SubRip (.srt), SubStation Alpha (.ssa/.ass) and MPL2
subtitle files.

The input format is detected from the file contents, falling back to the
file extension. The output format comes from --to or the output path
extension.

Examples:
  subconv convert input.srt -o output.ass
  subconv convert input.ass --to srt
  subconv convert input.srt --to ass --input-encoding windows-1252`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().
		StringP("to", "t", "", "Output format (srt, ass, ssa, mpl2)")
	convertCmd.Flags().
		String("input-format", "", "Override input format detection (srt, ass, ssa, mpl2)")
	convertCmd.Flags().
		String("input-encoding", "", "Input encoding (default: BOM detection)")
	convertCmd.Flags().
		Bool("keep-html-tags", false, "SRT input: keep all HTML tags as-is")
	convertCmd.Flags().
		Bool("keep-unknown-html-tags", false, "SRT input: keep unsupported HTML tags instead of stripping them")
	convertCmd.Flags().
		Bool("keep-newlines", false, "SRT input: keep literal newlines")
	convertCmd.Flags().
		Bool("keep-original-newlines", false, "SRT input: keep the original newline convention")
	convertCmd.Flags().
		Bool("no-styles", false, "SRT output: do not apply any styling")
	convertCmd.Flags().
		Bool("keep-ssa-tags", false, "SRT output: pass override tags through verbatim")
	convertCmd.Flags().
		String("header-notice", "", "SubStation output: replace the header comment block")
}

func parseFormat(s string) (subtitle.Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "srt":
		return subtitle.FormatSRT, nil
	case "ass":
		return subtitle.FormatASS, nil
	case "ssa":
		return subtitle.FormatSSA, nil
	case "mpl2":
		return subtitle.FormatMPL2, nil
	default:
		return "", fmt.Errorf(
			"unknown format %q: supported formats are srt, ass, ssa, mpl2",
			s,
		)
	}
}

func runConvert(cmd *cobra.Command, args []string) error {
	inputPath := args[0]

	outputPath, _ := cmd.Flags().GetString("output")
	toFormat, _ := cmd.Flags().GetString("to")
	inputFormatFlag, _ := cmd.Flags().GetString("input-format")
	inputEncoding, _ := cmd.Flags().GetString("input-encoding")
	keepHTMLTags, _ := cmd.Flags().GetBool("keep-html-tags")
	keepUnknownHTMLTags, _ := cmd.Flags().GetBool("keep-unknown-html-tags")
	keepNewlines, _ := cmd.Flags().GetBool("keep-newlines")
	keepOriginalNewlines, _ := cmd.Flags().GetBool("keep-original-newlines")
	noStyles, _ := cmd.Flags().GetBool("no-styles")
	keepSSATags, _ := cmd.Flags().GetBool("keep-ssa-tags")
	headerNotice, _ := cmd.Flags().GetString("header-notice")

	raw, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("failed to read input file: %w", err)
	}
	data, err := textenc.Decode(raw, inputEncoding)
	if err != nil {
		return fmt.Errorf("failed to decode input file: %w", err)
	}

	var inFormat subtitle.Format
	if inputFormatFlag != "" {
		inFormat, err = parseFormat(inputFormatFlag)
		if err != nil {
			return err
		}
	} else if f, ok := subtitle.DetectFormat(data); ok {
		inFormat = f
	} else if f, ok := subtitle.FormatFromExtension(inputPath); ok {
		inFormat = f
	} else {
		return fmt.Errorf("cannot determine format of %q", inputPath)
	}

	var outFormat subtitle.Format
	switch {
	case toFormat != "":
		outFormat, err = parseFormat(toFormat)
		if err != nil {
			return err
		}
	case outputPath != "":
		f, ok := subtitle.FormatFromExtension(outputPath)
		if !ok {
			return fmt.Errorf(
				"cannot determine output format from %q, use --to",
				outputPath,
			)
		}
		outFormat = f
	default:
		return fmt.Errorf("specify an output format with --to or an output path with -o")
	}

	if outputPath == "" {
		baseName := strings.TrimSuffix(inputPath, filepath.Ext(inputPath))
		outputPath = baseName + subtitle.ExtensionForFormat(outFormat)
	}

	logger.Infow("Parsing subtitle file",
		"input", inputPath,
		"format", inFormat,
	)

	doc := subtitle.NewDocument()
	switch inFormat {
	case subtitle.FormatSRT:
		err = subtitle.ReadSubRip(doc, bytes.NewReader(data), &subtitle.SRTReadOptions{
			KeepHTMLTags:         keepHTMLTags,
			KeepUnknownHTMLTags:  keepUnknownHTMLTags,
			KeepNewlines:         keepNewlines,
			KeepOriginalNewlines: keepOriginalNewlines,
			Warn:                 logger.Warnw,
		})
	case subtitle.FormatASS, subtitle.FormatSSA:
		err = subtitle.ReadSubStation(doc, bytes.NewReader(data), inFormat, &subtitle.SubStationReadOptions{
			Warn: logger.Warnw,
		})
	case subtitle.FormatMPL2:
		err = subtitle.ReadMPL2(doc, bytes.NewReader(data))
	}
	if err != nil {
		return fmt.Errorf("failed to parse subtitle file: %w", err)
	}

	logger.Infow("Parsed subtitle file",
		"events", len(doc.Events),
		"styles", doc.Styles.Len(),
	)

	var buf bytes.Buffer
	switch outFormat {
	case subtitle.FormatSRT:
		opts := subtitle.DefaultSRTWriteOptions()
		opts.ApplyStyles = !noStyles
		opts.KeepSSATags = keepSSATags
		opts.Warn = logger.Warnw
		err = subtitle.WriteSubRip(doc, &buf, opts)
	case subtitle.FormatASS, subtitle.FormatSSA:
		err = subtitle.WriteSubStation(doc, &buf, outFormat, &subtitle.SubStationWriteOptions{
			HeaderNotice: headerNotice,
			Warn:         logger.Warnw,
		})
	case subtitle.FormatMPL2:
		err = subtitle.WriteMPL2(doc, &buf)
	}
	if err != nil {
		return fmt.Errorf("failed to serialize subtitles: %w", err)
	}

	if err := os.WriteFile(outputPath, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	absOutput, _ := filepath.Abs(outputPath)
	fmt.Printf("Subtitles converted successfully: %s\n", absOutput)
	fmt.Printf("  Events: %d\n", len(doc.Events))
	fmt.Printf("  Format: %s -> %s\n", inFormat, outFormat)

	return nil
}
