// Command e57xyz converts one point cloud of an E57 file to a plain-text
// XYZ file (one "x y z" triple per line), or the reverse.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/cry-inc/e57/codec"
	"github.com/cry-inc/e57/e57xml"
	"github.com/cry-inc/e57/prototype"
	"github.com/cry-inc/e57/reader"
	"github.com/cry-inc/e57/simple"
	"github.com/cry-inc/e57/writer"
)

func main() {
	var (
		outputPath string
		fromXYZ    bool
		index      int
	)

	cmd := &cobra.Command{
		Use:   "e57xyz <input>",
		Short: "Convert an E57 point cloud to/from a plain-text XYZ file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if outputPath == "" {
				return fmt.Errorf("--output is required")
			}
			if fromXYZ {
				return importXYZ(args[0], outputPath)
			}

			return exportXYZ(args[0], outputPath, index)
		},
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "output path (required)")
	cmd.Flags().BoolVar(&fromXYZ, "import", false, "treat input as an XYZ file and write an E57 file instead")
	cmd.Flags().IntVar(&index, "index", 0, "point cloud index to export (default 0)")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "e57xyz: %v\n", err)
		os.Exit(1)
	}
}

func exportXYZ(inputPath, outputPath string, index int) error {
	r, err := reader.OpenFile(inputPath)
	if err != nil {
		return err
	}
	defer r.Close()

	pcs := r.PointClouds()
	if index < 0 || index >= len(pcs) {
		return fmt.Errorf("point cloud index %d out of range (file has %d)", index, len(pcs))
	}

	it, err := r.IterSimple(pcs[index], simple.Options{SphericalToCartesian: true, SkipInvalid: true})
	if err != nil {
		return err
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return err
	}
	defer out.Close()

	w := bufio.NewWriter(out)
	defer w.Flush()

	for {
		pt, ok, err := it.Next()
		if err != nil {
			return err
		}
		if !ok {
			break
		}

		fmt.Fprintf(w, "%.6f %.6f %.6f\n", pt.X, pt.Y, pt.Z)
	}

	return nil
}

func importXYZ(inputPath, outputPath string) error {
	in, err := os.Open(inputPath)
	if err != nil {
		return err
	}
	defer in.Close()

	w, err := writer.CreateFile(outputPath, writer.WithGUID("{e57xyz-import-file}"))
	if err != nil {
		return err
	}

	proto := prototype.Prototype{Fields: []prototype.Field{
		{Name: prototype.NameCartesianX, Kind: prototype.Float64},
		{Name: prototype.NameCartesianY, Kind: prototype.Float64},
		{Name: prototype.NameCartesianZ, Kind: prototype.Float64},
	}}

	pcw, err := w.AddPointCloud(e57xml.Data3D{GUID: "{e57xyz-import}"}, proto)
	if err != nil {
		return err
	}

	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) != 3 {
			return fmt.Errorf("malformed xyz line: %q", line)
		}

		x, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return err
		}
		y, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return err
		}
		z, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return err
		}

		if err := pcw.WriteRecord(map[string]codec.Value{
			prototype.NameCartesianX: codec.FloatValue(x),
			prototype.NameCartesianY: codec.FloatValue(y),
			prototype.NameCartesianZ: codec.FloatValue(z),
		}); err != nil {
			return err
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	if err := pcw.Finish(); err != nil {
		return err
	}

	return w.Close()
}
