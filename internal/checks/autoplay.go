package checks

import (
	"github.com/conneroisu/ecohtml/internal/tree"
	"github.com/conneroisu/ecohtml/internal/visitor"
)

// AvoidAutoplayKey is the rule key of AvoidAutoplay.
const AvoidAutoplayKey = "GCI8000"

// AvoidAutoplay flags audio and video elements carrying an autoplay
// attribute. Presence is enough: autoplay is a boolean attribute, so
// autoplay="false" still turns playback on.
type AvoidAutoplay struct {
	visitor.BaseCheck
}

// StartElement implements visitor.Check.
func (AvoidAutoplay) StartElement(ctx *visitor.Context, n *tree.Node) {
	if !n.HasAttr("autoplay") {
		return
	}
	switch {
	case n.IsElement("audio"):
		ctx.Report(n, "Avoid using autoplay attribute in audio element")
	case n.IsElement("video"):
		ctx.Report(n, "Avoid using autoplay attribute in video element")
	}
}
