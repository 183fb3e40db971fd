// Command robotranslations appends machine translations from a YAML
// document to the app's strings.xml files.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/vk/tvtaskgraph/internal/l10n"
)

const toolName = "robotranslations"

func main() {
	if err := run(os.Stdout, os.Args[1:]); err != nil {
		color.New(color.FgRed, color.Bold).Fprint(os.Stderr, "error: ")
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run parses args and performs the merge. Usage errors and data errors are
// both returned; nothing is written unless the whole document is valid.
func run(outW io.Writer, args []string) error {
	var input, resDir string
	cmd := &cobra.Command{
		Use:   toolName,
		Short: "Append machine translations to strings.xml resource files",
		Long: `robotranslations reads a YAML document with a "titles" list of string
resource names and one list of translations per locale, in the same order,
and appends them to <res-dir>/values[-<locale>]/strings.xml.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := os.ReadFile(input)
			if err != nil {
				return fmt.Errorf("failed to read translations: %w", err)
			}
			set, err := l10n.Parse(data)
			if err != nil {
				return err
			}
			written, err := l10n.Merge(resDir, set, toolName)
			if err != nil {
				return err
			}
			for _, path := range written {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", color.GreenString("updated"), path)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "locales.yaml", "Translations document.")
	cmd.Flags().StringVar(&resDir, "res-dir", "app/src/main/res", "Android resource directory.")
	cmd.SetOut(outW)
	cmd.SetErr(outW)
	cmd.SetArgs(args)
	return cmd.Execute()
}
