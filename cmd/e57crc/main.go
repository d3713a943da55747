// Command e57crc validates every page checksum in an E57 file and reports
// the first failure, if any.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cry-inc/e57/errs"
	"github.com/cry-inc/e57/reader"
)

func main() {
	cmd := &cobra.Command{
		Use:   "e57crc <file.e57>",
		Short: "Validate every page checksum of an E57 file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args[0])
		},
	}

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "e57crc: %v\n", err)
		os.Exit(1)
	}
}

func run(path string) error {
	r, err := reader.OpenFile(path)
	if err != nil {
		return err
	}
	defer r.Close()

	if err := r.ValidatePages(); err != nil {
		var mismatch *errs.ChecksumMismatch
		if errors.As(err, &mismatch) {
			return fmt.Errorf("page %d failed checksum validation", mismatch.PageIndex)
		}

		return err
	}

	fmt.Println("all pages valid")

	return nil
}
