package services

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"github.com/eddie-kann/astrokiddo/internal/models"
)

// EncodeDeckContent serializes a deck model into the content blob stored on
// the deck row. Slides are stripped first: the normalized slide rows are the
// primary copy, and duplicating them in the blob would let the two drift.
func EncodeDeckContent(model *models.LessonDeck) (datatypes.JSON, error) {
	if model == nil {
		return nil, fmt.Errorf("deck content: model is required")
	}

	stripped := models.LessonDeck{
		ID:         model.ID,
		Topic:      model.Topic,
		GradeLevel: model.GradeLevel,
		Locale:     model.Locale,
		CreatedAt:  model.CreatedAt,
		Enrichment: model.Enrichment,
	}

	payload, err := json.Marshal(stripped)
	if err != nil {
		return nil, fmt.Errorf("deck content: serialize: %w", err)
	}
	return datatypes.JSON(payload), nil
}

// DecodeDeckContent parses a stored content blob back into a deck model.
// Blobs written by the older schema variant may still carry embedded slides;
// those are preserved so the read merge can fall back to them.
func DecodeDeckContent(blob datatypes.JSON) (*models.LessonDeck, error) {
	var model models.LessonDeck
	if err := json.Unmarshal(blob, &model); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrContentCorrupt, err)
	}
	return &model, nil
}

// EncodeProvenance serializes the record of how a deck was requested.
func EncodeProvenance(p models.DeckProvenance) (datatypes.JSON, error) {
	payload, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("deck content: serialize provenance: %w", err)
	}
	return datatypes.JSON(payload), nil
}
