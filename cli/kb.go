package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"

	"github/itish2003/ddqchat/knowledge"
	"github/itish2003/ddqchat/services"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var kbCmd = &cobra.Command{
	Use:   "kb [file]",
	Short: "List the questions a knowledge base answers verbatim",
	Long: `Parse a knowledge base and print its normalized questions.

Without a file the default knowledge base is used. PDF, DOCX and XLSX files
are converted to text first, the same way uploads are.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runKB,
}

func runKB(cmd *cobra.Command, args []string) error {
	var name, text string
	if len(args) == 1 {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read %s: %w", args[0], err)
		}
		name = filepath.Base(args[0])
		text, err = services.NewTextExtractor(cfg.UnidocLicenseKey, logger).ExtractText(name, data)
		if err != nil {
			return fmt.Errorf("parse %s: %w", name, err)
		}
	} else {
		cache, err := knowledge.NewCache(1)
		if err != nil {
			return err
		}
		doc := services.NewDocumentLibrary(cfg.KnowledgeBasePath, cache, logger).Default()
		name, text = doc.Name, doc.Text
	}

	printQuestions(cmd.OutOrStdout(), name, knowledge.NewBase(text))
	return nil
}

func printQuestions(out io.Writer, name string, base *knowledge.Base) {
	questions := base.Questions()
	slices.Sort(questions)

	fmt.Fprintln(out, color.CyanString("%s (%d entries, sha256 %s)", name, base.Len(), base.Hash))
	for _, q := range questions {
		fmt.Fprintf(out, "  - %s\n", q)
	}
}
