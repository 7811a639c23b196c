package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/baxromumarov/job-extractor/internal/content"
	"github.com/baxromumarov/job-extractor/internal/core"
	"github.com/baxromumarov/job-extractor/internal/model"
	"github.com/baxromumarov/job-extractor/internal/segment"
	"github.com/baxromumarov/job-extractor/internal/store"
)

var segmentOpts struct {
	url          string
	html         bool
	showSections bool
}

var segmentCmd = &cobra.Command{
	Use:   "segment [file]",
	Short: "Segment and extract a saved posting without fetching it",
	Long: `Run segmentation, field extraction, translation and assembly on a posting
read from a file or stdin. With --html the input is a saved page and its visible
text and metadata are taken the same way a fetched page's would be.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, name, err := readInput(args, cmd.InOrStdin())
		if err != nil {
			return err
		}

		page := model.RawPage{URL: segmentOpts.url, Text: string(raw)}
		if page.URL == "" {
			page.URL = name
		}
		if segmentOpts.html {
			analyzed, err := content.Analyze(string(raw))
			if err != nil {
				return fmt.Errorf("analyze html: %w", err)
			}
			page.HTML = string(raw)
			page.Text = analyzed.Text
			page.Meta = analyzed.Meta
		}

		out := cmd.OutOrStdout()
		if segmentOpts.showSections {
			return printSections(out, segment.New().Segment(page.Text))
		}

		offline := func() (core.Retriever, error) {
			return nil, errors.New("segment does not fetch pages")
		}
		pipeline, err := buildPipeline(cmd.Context(), cfg, offline)
		if err != nil {
			return err
		}
		outcome := pipeline.ExtractPage(cmd.Context(), page)

		sink := store.NewJSONL(out)
		if err := sink.Write(cmd.Context(), outcome); err != nil {
			return err
		}
		return sink.Close()
	},
}

func init() {
	f := segmentCmd.Flags()
	f.StringVar(&segmentOpts.url, "url", "", "URL recorded in the output (default: the file name)")
	f.BoolVar(&segmentOpts.html, "html", false, "treat the input as an HTML page")
	f.BoolVar(&segmentOpts.showSections, "sections", false, "print the labeled sections instead of the record")
}

func readInput(args []string, stdin io.Reader) ([]byte, string, error) {
	if len(args) == 0 || args[0] == "-" {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return nil, "", fmt.Errorf("read stdin: %w", err)
		}
		return b, "stdin", nil
	}
	b, err := os.ReadFile(args[0])
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", args[0], err)
	}
	return b, "file://" + args[0], nil
}

type sectionView struct {
	Label  model.Label `json:"label"`
	Marker string      `json:"marker,omitempty"`
	Start  int         `json:"start"`
	End    int         `json:"end"`
	Text   string      `json:"text"`
}

func printSections(w io.Writer, sections []model.Section) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	for _, s := range sections {
		if err := enc.Encode(sectionView{Label: s.Label, Marker: s.Marker, Start: s.Start, End: s.End, Text: s.RawText}); err != nil {
			return err
		}
	}
	return nil
}
