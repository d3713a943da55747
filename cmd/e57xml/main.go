// Command e57xml extracts an E57 file's raw XML section to stdout or a
// file.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cry-inc/e57/reader"
)

func main() {
	var outputPath string

	cmd := &cobra.Command{
		Use:   "e57xml <file.e57>",
		Short: "Extract the raw XML section from an E57 file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args[0], outputPath)
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "write XML to this path instead of stdout")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "e57xml: %v\n", err)
		os.Exit(1)
	}
}

func run(path, outputPath string) error {
	r, err := reader.OpenFile(path)
	if err != nil {
		return err
	}
	defer r.Close()

	xmlBytes := r.ExtractXML()

	if outputPath == "" {
		_, err := os.Stdout.Write(xmlBytes)
		return err
	}

	return os.WriteFile(outputPath, xmlBytes, 0o644)
}
