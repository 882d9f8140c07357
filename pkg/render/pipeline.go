package render

import (
	"log/slog"

	"github.com/taigrr/tinyrender/pkg/math3d"
)

// Pipeline runs the per-face loop: three vertex-stage calls in corner
// order followed by one Triangle call.
type Pipeline struct {
	// Logger receives one debug record per pass. Nil discards them.
	Logger *slog.Logger

	// Progress, if set, is called after every face with the number of
	// faces done so far.
	Progress func(done, total int)

	// Stats accumulates over every pass drawn with this pipeline.
	Stats RasterStats
}

// Draw renders every face of mesh through shader into img and depth and
// returns the statistics of this pass.
func (p *Pipeline) Draw(mesh Mesh, shader Shader, img PixelBuffer, depth *DepthBuffer) RasterStats {
	var stats RasterStats
	total := mesh.FaceCount()
	for face := range total {
		var pts [3]math3d.Vec4
		for corner := range 3 {
			pts[corner] = shader.Vertex(mesh, face, corner)
		}
		stats.Add(Triangle(pts, shader, img, depth))
		if p.Progress != nil {
			p.Progress(face+1, total)
		}
	}
	p.Stats.Add(stats)

	if p.Logger != nil {
		p.Logger.Debug("pass complete",
			"faces", total,
			"pixels", stats.PixelsTested,
			"written", stats.Written,
			"outside", stats.Outside,
			"depth_rejected", stats.DepthRejected,
			"discarded", stats.Discarded,
		)
	}
	return stats
}

// Render builds the shader for technique t and draws mesh with it.
func (p *Pipeline) Render(mesh Mesh, t Technique, u Uniforms, img PixelBuffer, depth *DepthBuffer) (RasterStats, error) {
	shader, err := NewShader(t, u)
	if err != nil {
		return RasterStats{}, err
	}
	if p.Logger != nil {
		p.Logger.Debug("rendering", "technique", t, "faces", mesh.FaceCount())
	}
	return p.Draw(mesh, shader, img, depth), nil
}
