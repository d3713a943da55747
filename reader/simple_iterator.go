package reader

import (
	"github.com/cry-inc/e57/e57xml"
	"github.com/cry-inc/e57/simple"
)

// SimpleIterator yields simple.Point values for one point cloud, applying
// the requested simple.Options transforms to each raw record in turn.
type SimpleIterator struct {
	raw  *RawIterator
	meta simple.Metadata
	opts simple.Options
}

// IterSimple returns a SimpleIterator over pc, using pc's declared pose
// and intensity/color limits as transform context.
func (r *Reader) IterSimple(pc e57xml.Data3D, opts simple.Options) (*SimpleIterator, error) {
	raw, err := r.IterRaw(pc)
	if err != nil {
		return nil, err
	}

	meta := simple.Metadata{
		Pose:            pc.Pose,
		IntensityLimits: pc.IntensityLimits,
		ColorLimits:     pc.ColorLimits,
	}

	return &SimpleIterator{raw: raw, meta: meta, opts: opts}, nil
}

// Next decodes and transforms the next record. A record dropped by
// SkipInvalid is transparently skipped; Next only returns (zero, false,
// nil) at a clean end-of-stream.
func (it *SimpleIterator) Next() (simple.Point, bool, error) {
	for {
		rec, ok, err := it.raw.Next()
		if err != nil {
			return simple.Point{}, false, err
		}
		if !ok {
			return simple.Point{}, false, nil
		}

		pt, keep, err := simple.Transform(rec, it.meta, it.opts)
		if err != nil {
			return simple.Point{}, false, err
		}
		if !keep {
			continue
		}

		return pt, true, nil
	}
}
