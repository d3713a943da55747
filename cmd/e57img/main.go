// Command e57img extracts every embedded 2D image blob (JPEG, PNG, or raw)
// from an E57 file to individual files.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cry-inc/e57/e57xml"
	"github.com/cry-inc/e57/reader"
)

func main() {
	var outDir string

	cmd := &cobra.Command{
		Use:   "e57img <file.e57>",
		Short: "Extract embedded 2D images from an E57 file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args[0], outDir)
		},
	}

	cmd.Flags().StringVarP(&outDir, "outdir", "d", ".", "directory to write extracted images to")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "e57img: %v\n", err)
		os.Exit(1)
	}
}

func run(path, outDir string) error {
	r, err := reader.OpenFile(path)
	if err != nil {
		return err
	}
	defer r.Close()

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return err
	}

	extracted := 0
	for i, img := range r.Images() {
		ref, ext := imageBlob(img)
		if ref == nil {
			continue
		}

		outPath := filepath.Join(outDir, fmt.Sprintf("image_%03d%s", i, ext))

		out, err := os.Create(outPath)
		if err != nil {
			return err
		}

		err = r.ReadBlob(int64(ref.FileOffset), int64(ref.Length), func(b []byte) error {
			_, err := out.Write(b)
			return err
		})
		closeErr := out.Close()
		if err != nil {
			return err
		}
		if closeErr != nil {
			return closeErr
		}

		fmt.Printf("wrote %s (%d bytes)\n", outPath, ref.Length)
		extracted++
	}

	fmt.Printf("extracted %d image(s)\n", extracted)

	return nil
}

// imageBlob returns the single populated blob reference of img's
// representation (whichever of {Visual, Pinhole, Spherical, Cylindrical} is
// set) and a matching file extension, or (nil, "") if none is present.
func imageBlob(img e57xml.Image2D) (*e57xml.BlobRef, string) {
	switch {
	case img.Visual != nil:
		return pickBlob(img.Visual.JPEGImage, img.Visual.PNGImage, img.Visual.RawImage)
	case img.Pinhole != nil:
		return pickBlob(img.Pinhole.JPEGImage, img.Pinhole.PNGImage, img.Pinhole.RawImage)
	case img.Spherical != nil:
		return pickBlob(img.Spherical.JPEGImage, img.Spherical.PNGImage, img.Spherical.RawImage)
	case img.Cylindrical != nil:
		return pickBlob(img.Cylindrical.JPEGImage, img.Cylindrical.PNGImage, img.Cylindrical.RawImage)
	default:
		return nil, ""
	}
}

func pickBlob(jpeg, png, raw *e57xml.BlobRef) (*e57xml.BlobRef, string) {
	switch {
	case jpeg != nil:
		return jpeg, ".jpg"
	case png != nil:
		return png, ".png"
	case raw != nil:
		return raw, ".bin"
	default:
		return nil, ""
	}
}
