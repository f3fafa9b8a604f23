// package formatter renders listings, resolved items and attempt logs (CSV, Markdown, plain text, JSON)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/desertthunder/purelyd/internal/models"
	"github.com/desertthunder/purelyd/internal/shared"
)

// Export formats accepted by [WriteListingExport].
const (
	FormatJSON     = "json"
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
	FormatText     = "txt"
)

// Formats lists the accepted export formats.
var Formats = []string{FormatJSON, FormatCSV, FormatMarkdown, FormatText}

// ListingToCSV converts a listing to CSV with columns: ID, Title, Artist, URL, Cover, Duration
func ListingToCSV(l *models.Listing) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Title", "Artist", "URL", "Cover", "Duration"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, item := range l.Items {
		record := []string{
			item.ID,
			item.Title,
			item.Artist,
			item.URL,
			item.Cover,
			strconv.Itoa(item.Duration),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ListingToMarkdown converts a listing to Markdown with an optional cover image
func ListingToMarkdown(l *models.Listing, imageFilename string) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "# %s\n\n", listingTitle(l))

	if imageFilename != "" {
		fmt.Fprintf(&buf, "![Cover](%s)\n\n", imageFilename)
	}

	fmt.Fprintf(&buf, "**Source**: %s\n", l.Source)
	fmt.Fprintf(&buf, "**Items**: %d\n\n", len(l.Items))

	buf.WriteString("## Items\n\n")
	for i, item := range l.Items {
		line := fmt.Sprintf("%d. [%s](%s)", i+1, item.Title, item.URL)
		if item.Artist != "" {
			line += " - " + item.Artist
		}
		if item.Duration > 0 {
			line += fmt.Sprintf(" [%s]", shared.FormatDuration(item.Duration))
		}
		buf.WriteString(line + "\n")
	}

	return buf.Bytes(), nil
}

// ListingToText converts a listing to plain text
func ListingToText(l *models.Listing) ([]byte, error) {
	var buf bytes.Buffer

	label := l.Capability.String()
	fmt.Fprintf(&buf, "%s: %s\n", strings.ToUpper(label[:1])+label[1:], listingTitle(l))
	fmt.Fprintf(&buf, "Source: %s\n", l.Source)
	fmt.Fprintf(&buf, "Items: %d\n\n", len(l.Items))

	for i, item := range l.Items {
		if item.Artist != "" {
			fmt.Fprintf(&buf, "%d. %s - %s (%s)\n", i+1, item.Artist, item.Title, item.ID)
		} else {
			fmt.Fprintf(&buf, "%d. %s (%s)\n", i+1, item.Title, item.ID)
		}
	}

	return buf.Bytes(), nil
}

// ItemToText renders a resolved stream as aligned key/value lines.
func ItemToText(item *models.ResolvedItem) []byte {
	var buf bytes.Buffer
	field := func(k, v string) {
		if v != "" {
			fmt.Fprintf(&buf, "%-9s %s\n", k+":", v)
		}
	}

	field("Title", item.Title)
	field("Artist", item.Artist)
	if item.Duration > 0 {
		field("Duration", shared.FormatDuration(item.Duration))
	}
	field("Source", item.Source)
	field("Instance", item.Instance)
	field("Mime", item.MimeType)
	if item.Bitrate > 0 {
		field("Bitrate", fmt.Sprintf("%d kbps", item.Bitrate/1000))
	}
	field("URL", item.URL)
	return buf.Bytes()
}

// AttemptsToText renders an attempt log one `strategy(instance): detail` line per attempt.
func AttemptsToText(log models.AttemptLog) []byte {
	var buf bytes.Buffer
	for i, a := range log {
		fmt.Fprintf(&buf, "%d. [%s] %s\n", i+1, a.Outcome, a.String())
	}
	return buf.Bytes()
}

// AttemptsTable renders an attempt log as a bordered table for terminals.
func AttemptsTable(log models.AttemptLog) string {
	header := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cell := lipgloss.NewStyle().Padding(0, 1)
	failed := cell.Foreground(lipgloss.Color("#f38ba8"))
	ok := cell.Foreground(lipgloss.Color("#a6e3a1"))

	rows := make([][]string, 0, len(log))
	for _, a := range log {
		rows = append(rows, []string{a.Strategy, a.Instance, string(a.Outcome), a.Detail, a.Elapsed.Round(time.Millisecond).String()})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("STRATEGY", "INSTANCE", "OUTCOME", "DETAIL", "ELAPSED").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return header
			case col == 2 && log[row].Outcome == models.OutcomeSuccess:
				return ok
			case col == 2:
				return failed
			default:
				return cell
			}
		})
	return t.String()
}

// DownloadImage downloads an image from the given URL and returns the raw bytes
func DownloadImage(url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("empty URL provided")
	}

	client := &http.Client{
		Timeout: 30 * time.Second,
	}

	resp, err := client.Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	return imageData, nil
}

// WriteJSON writes v as indented JSON to path.
func WriteJSON(v any, path string) error {
	data, err := shared.MarshalJSON(v, true)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write JSON file: %w", err)
	}
	return nil
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory  string
	Files      []string
	CoverImage string
}

// WriteMarkdownExport writes a listing to {dir}/README.md, downloading the first item's cover when withCover is set.
//
// Directory name defaults to {capability}_{query}.
func WriteMarkdownExport(l *models.Listing, outputDir string, withCover bool) (*MarkdownExportResult, error) {
	if outputDir == "" {
		outputDir = fileBase(l)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &MarkdownExportResult{
		Directory: outputDir,
		Files:     []string{},
	}

	var coverImageFilename string
	if withCover && len(l.Items) > 0 && l.Items[0].Cover != "" {
		imageData, err := DownloadImage(l.Items[0].Cover)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to download cover image: %v\n", err)
		} else {
			coverImageFilename = "cover.jpg"
			coverImagePath := filepath.Join(outputDir, coverImageFilename)
			if err := os.WriteFile(coverImagePath, imageData, 0644); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to save cover image: %v\n", err)
				coverImageFilename = ""
			} else {
				result.CoverImage = coverImagePath
				result.Files = append(result.Files, coverImagePath)
			}
		}
	}

	mdData, err := ListingToMarkdown(l, coverImageFilename)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}

	result.Files = append(result.Files, mdFile)

	return result, nil
}

// WriteListingExport writes l in format to path and returns the files created.
//
// An empty path defaults to {capability}_{query}.{format}, or a directory of that name for markdown.
func WriteListingExport(l *models.Listing, format, path string) ([]string, error) {
	switch format {
	case FormatMarkdown:
		res, err := WriteMarkdownExport(l, path, false)
		if err != nil {
			return nil, err
		}
		return res.Files, nil
	case FormatJSON, FormatCSV, FormatText:
	default:
		return nil, fmt.Errorf("%w: unknown format %q (want one of %s)", shared.ErrInvalidFlag, format, strings.Join(Formats, ", "))
	}

	if path == "" {
		path = fileBase(l) + "." + format
	}

	var (
		data []byte
		err  error
	)
	switch format {
	case FormatJSON:
		return []string{path}, WriteJSON(l, path)
	case FormatCSV:
		data, err = ListingToCSV(l)
	case FormatText:
		data, err = ListingToText(l)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to generate %s: %w", format, err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return nil, fmt.Errorf("failed to write %s file: %w", format, err)
	}
	return []string{path}, nil
}

func listingTitle(l *models.Listing) string {
	if l.Title != "" {
		return l.Title
	}
	if l.Query != "" {
		return l.Query
	}
	return l.Capability.String()
}

// fileBase derives a filesystem-safe base name from the listing.
func fileBase(l *models.Listing) string {
	base := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r == ' ':
			return '_'
		default:
			return -1
		}
	}, l.Query)
	if base == "" {
		base = l.Capability.String()
	}
	return l.Capability.String() + "_" + base
}
