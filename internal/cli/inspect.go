package cli

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/textsubs/subconv/internal/subtitle"
	"github.com/textsubs/subconv/internal/textenc"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect [subtitle_file]",
	Short: "Show the contents of a subtitle file",
	Long: `Detect the format of a subtitle file and print a summary of its
script info, styles, attachments and events.`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)

	inspectCmd.Flags().
		String("input-encoding", "", "Input encoding (default: BOM detection)")
}

func runInspect(cmd *cobra.Command, args []string) error {
	inputPath := args[0]
	inputEncoding, _ := cmd.Flags().GetString("input-encoding")

	raw, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("failed to read input file: %w", err)
	}
	data, err := textenc.Decode(raw, inputEncoding)
	if err != nil {
		return fmt.Errorf("failed to decode input file: %w", err)
	}

	format, ok := subtitle.DetectFormat(data)
	if !ok {
		if format, ok = subtitle.FormatFromExtension(inputPath); !ok {
			return fmt.Errorf("cannot determine format of %q", inputPath)
		}
	}

	doc := subtitle.NewDocument()
	switch format {
	case subtitle.FormatSRT:
		err = subtitle.ReadSubRip(doc, bytes.NewReader(data), &subtitle.SRTReadOptions{Warn: logger.Warnw})
	case subtitle.FormatASS, subtitle.FormatSSA:
		err = subtitle.ReadSubStation(doc, bytes.NewReader(data), format, &subtitle.SubStationReadOptions{Warn: logger.Warnw})
	case subtitle.FormatMPL2:
		err = subtitle.ReadMPL2(doc, bytes.NewReader(data))
	}
	if err != nil {
		return fmt.Errorf("failed to parse subtitle file: %w", err)
	}

	comments := 0
	for i := range doc.Events {
		if doc.Events[i].IsComment() {
			comments++
		}
	}

	fmt.Printf("Format: %s\n", format)
	fmt.Printf("Events: %d (%d comments)\n", len(doc.Events), comments)
	fmt.Printf("Styles: %d\n", doc.Styles.Len())
	for _, name := range doc.Styles.Keys() {
		sty, _ := doc.Styles.Get(name)
		fmt.Printf("  %s: %s %gpx\n", name, sty.FontName, sty.FontSize)
	}
	if doc.Info.Len() > 0 {
		fmt.Printf("Script info:\n")
		for _, k := range doc.Info.Keys() {
			v, _ := doc.Info.Get(k)
			fmt.Printf("  %s: %s\n", k, v)
		}
	}
	if doc.Fonts.Len() > 0 || doc.Graphics.Len() > 0 {
		fmt.Printf("Attachments: %d fonts, %d graphics\n",
			doc.Fonts.Len(), doc.Graphics.Len())
	}

	return nil
}
