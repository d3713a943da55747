// Command e57info prints a summary of an E57 file's physical header and
// XML-declared point clouds and images, matching the teacher-adjacent
// single-command cobra CLI idiom found in hailam-genfile's cmd/cli.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cry-inc/e57/reader"
)

func main() {
	cmd := &cobra.Command{
		Use:   "e57info <file.e57>",
		Short: "Print header and XML summary for an E57 file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args[0])
		},
	}

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "e57info: %v\n", err)
		os.Exit(1)
	}
}

func run(path string) error {
	r, err := reader.OpenFile(path)
	if err != nil {
		return err
	}
	defer r.Close()

	h := r.Header()
	fmt.Printf("version:       %d.%d\n", h.VersionMajor, h.VersionMinor)
	fmt.Printf("file length:   %d bytes\n", h.FileLength)
	fmt.Printf("page size:     %d bytes\n", h.PageSize)
	fmt.Printf("xml offset:    %d\n", h.XMLOffset)
	fmt.Printf("xml length:    %d bytes\n", h.XMLLength)

	pcs := r.PointClouds()
	fmt.Printf("point clouds:  %d\n", len(pcs))
	for i, pc := range pcs {
		fmt.Printf("  [%d] guid=%s name=%q records=%d fields=%d\n",
			i, pc.GUID, pc.Name, pc.Points.RecordCount, len(pc.Points.Prototype.Fields))
	}

	imgs := r.Images()
	fmt.Printf("images:        %d\n", len(imgs))
	for i, img := range imgs {
		fmt.Printf("  [%d] guid=%s name=%q\n", i, img.GUID, img.Name)
	}

	return nil
}
