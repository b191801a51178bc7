package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	domain "github.com/bryanwahyu/policylens/internal/domain/analysis"
)

func analyzeCmd(configPath *string) *cobra.Command {
	var docType string

	cmd := &cobra.Command{
		Use:   "analyze [file]",
		Short: "Analyze one document from a file or stdin and print the result as JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			client, err := newCompleter(cfg)
			if err != nil {
				return err
			}
			svc := newService(cfg, client, newLogger(cfg, cmd.ErrOrStderr()))

			text, err := readDocument(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			res, err := svc.Analyze(cmd.Context(), domain.Request{Text: text, Type: domain.DocType(docType)})
			if err != nil {
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(res)
		},
	}

	cmd.Flags().StringVarP(&docType, "type", "t", string(domain.DocTypePrivacy), "Document type: privacy or terms")
	return cmd
}

// readDocument reads the named file, or stdin when no file (or "-") is given.
func readDocument(stdin io.Reader, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(b), nil
	}
	b, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("read %s: %w", args[0], err)
	}
	return string(b), nil
}
