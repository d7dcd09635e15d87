package model

const (
	DefaultPrimaryFormat  = "best[filesize<50M]/best[height<=480]/worst"
	DefaultFallbackFormat = "worst"
)

// QualityTier is a named yt-dlp format selector.
type QualityTier struct {
	Name   string
	Format string
}

// QualityLadder holds the first attempt and the single lower-quality retry.
type QualityLadder struct {
	Primary  QualityTier
	Fallback QualityTier
}

func DefaultQualityLadder() QualityLadder {
	return QualityLadder{
		Primary:  QualityTier{Name: "high", Format: DefaultPrimaryFormat},
		Fallback: QualityTier{Name: "low", Format: DefaultFallbackFormat},
	}
}

func (l QualityLadder) Tiers() []QualityTier {
	return []QualityTier{l.Primary, l.Fallback}
}
