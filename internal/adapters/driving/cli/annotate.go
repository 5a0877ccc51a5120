package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rag4u/ingest/internal/core/domain"
)

// Output formats for the annotate command.
const (
	formatJSON = "json"
	formatTxt  = "txt"
)

var (
	annotateText      string
	annotateFile      string
	annotateFormat    string
	annotateOutputDir string
	annotateOutput    string
)

var annotateCmd = &cobra.Command{
	Use:   "annotate",
	Short: "Tokenise, POS-tag and find named entities in text",
	Long: `Annotates text given with --text, read from --file, or piped on stdin,
and saves the result as <output-dir>/<output>.<format>.`,
	Args: cobra.NoArgs,
	RunE: runAnnotate,
}

func init() {
	flags := annotateCmd.Flags()
	flags.StringVar(&annotateText, "text", "", "text to annotate")
	flags.StringVar(&annotateFile, "file", "", "file containing text to annotate")
	flags.StringVar(&annotateFormat, "format", formatJSON, "output format (json|txt)")
	flags.StringVar(&annotateOutputDir, "output-dir", "outputs", "directory for the result file")
	flags.StringVar(&annotateOutput, "output", "output", "result file name without extension")
	annotateCmd.MarkFlagsMutuallyExclusive("text", "file")
	rootCmd.AddCommand(annotateCmd)
}

func runAnnotate(cmd *cobra.Command, _ []string) error {
	if annotateFormat != formatJSON && annotateFormat != formatTxt {
		return fmt.Errorf("%w: format must be json or txt, got %q", domain.ErrInvalidInput, annotateFormat)
	}

	text, err := annotateInput(cmd.InOrStdin())
	if err != nil {
		return err
	}

	annotator, err := loadAnnotator()
	if err != nil {
		return fmt.Errorf("loading annotator: %w", err)
	}
	ann := annotator.Annotate(text)

	data, err := renderAnnotation(ann, annotateFormat)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(annotateOutputDir, 0o755); err != nil {
		return fmt.Errorf("creating output dir: %w", err)
	}
	path := filepath.Join(annotateOutputDir, annotateOutput+"."+annotateFormat)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	cmd.Printf("Results saved to %s\n", path)
	return nil
}

// annotateInput resolves the text source: --text, --file, then stdin.
func annotateInput(stdin io.Reader) (string, error) {
	switch {
	case annotateText != "":
		return annotateText, nil
	case annotateFile != "":
		data, err := os.ReadFile(annotateFile)
		if err != nil {
			return "", fmt.Errorf("reading %s: %w", annotateFile, err)
		}
		return string(data), nil
	default:
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("reading stdin: %w", err)
		}
		if strings.TrimSpace(string(data)) == "" {
			return "", errors.New("no text given: use --text, --file or stdin")
		}
		return string(data), nil
	}
}

func renderAnnotation(ann domain.Annotation, format string) ([]byte, error) {
	if format == formatJSON {
		data, err := json.MarshalIndent(ann, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to marshal annotation: %w", err)
		}
		return append(data, '\n'), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Tokens: %s\n", strings.Join(ann.Tokens, " "))
	tags := make([]string, len(ann.POSTags))
	for i, t := range ann.POSTags {
		tags[i] = t.Token + "/" + t.Tag
	}
	fmt.Fprintf(&b, "POS tags: %s\n", strings.Join(tags, " "))
	b.WriteString("Named entities:\n")
	for _, e := range ann.NamedEntities {
		fmt.Fprintf(&b, "  %s: %s [%d:%d]\n", e.Label, e.Text, e.Start, e.End)
	}
	return []byte(b.String()), nil
}
