package scoring

import "fitment-workers/internal/models"

// TextScorer extracts tags from free text and scores them with a TagScorer.
type TextScorer struct {
	tags *TagScorer
}

func NewTextScorer(tags *TagScorer) *TextScorer {
	return &TextScorer{tags: tags}
}

// Score returns tag-scorer matches relabelled with the text method.
func (s *TextScorer) Score(text string, vehicles []models.CanonicalVehicle, floor float64, only []string) []models.FitmentMatch {
	tags := ExtractTags(text)
	if len(tags) == 0 {
		return []models.FitmentMatch{}
	}
	matches := s.tags.Score(tags, vehicles, floor, only)
	out := make([]models.FitmentMatch, len(matches))
	for i, m := range matches {
		out[i] = m.WithMethod(models.MethodText)
	}
	return out
}
