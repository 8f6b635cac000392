// Package listing models AI-generated marketplace listing text and manages
// its lifecycle for the image currently being edited.
package listing

import (
	"errors"
	"fmt"
	"strings"
)

// Condition is the item condition the listing is written for.
type Condition string

const (
	ConditionNew  Condition = "New"
	ConditionUsed Condition = "Used"
)

// DefaultCondition is used for the first listing request on a new upload.
const DefaultCondition = ConditionUsed

// ParseCondition accepts "new" or "used" in any case.
func ParseCondition(s string) (Condition, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "new":
		return ConditionNew, nil
	case "used":
		return ConditionUsed, nil
	default:
		return "", fmt.Errorf("unknown condition %q (want New or Used)", s)
	}
}

// PricingGuidance is the suggested price and how it was derived.
type PricingGuidance struct {
	RecommendedPrice string `json:"recommendedPrice"`
	PriceRationale   string `json:"priceRationale"`
}

// SimilarListing points at one comparable marketplace listing.
type SimilarListing struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// GroundingChunk is one web source the model consulted.
type GroundingChunk struct {
	URL   string `json:"url"`
	Title string `json:"title"`
}

// Insights is one complete generated listing. Values are replaced wholesale
// on refinement and never edited in place.
type Insights struct {
	Title           string           `json:"title"`
	Description     string           `json:"description"`
	PricingGuidance PricingGuidance  `json:"pricingGuidance"`
	SimilarListing  *SimilarListing  `json:"similarListing"`
	GroundingChunks []GroundingChunk `json:"groundingChunks"`

	// Condition and UserProvidedInfo record the refinement parameters the
	// listing was generated with. Both are optional in stored records.
	Condition        Condition `json:"condition,omitempty"`
	UserProvidedInfo string    `json:"userProvidedInfo,omitempty"`
}

// Validate checks the fields every listing must carry.
func (i *Insights) Validate() error {
	var errs []error
	if strings.TrimSpace(i.Title) == "" {
		errs = append(errs, errors.New("title is empty"))
	}
	if strings.TrimSpace(i.Description) == "" {
		errs = append(errs, errors.New("description is empty"))
	}
	return errors.Join(errs...)
}

// Clone returns a deep copy.
func (i Insights) Clone() Insights {
	out := i
	if i.SimilarListing != nil {
		sl := *i.SimilarListing
		out.SimilarListing = &sl
	}
	if i.GroundingChunks != nil {
		out.GroundingChunks = append([]GroundingChunk(nil), i.GroundingChunks...)
	}
	return out
}

// Params returns the refinement key the listing was produced with, falling
// back to the defaults for records that predate stored parameters.
func (i *Insights) Params() Request {
	cond := i.Condition
	if cond == "" {
		cond = DefaultCondition
	}
	return Request{Condition: cond, Hint: i.UserProvidedInfo}
}

// Request is the (condition, hint) pair that drives listing generation.
type Request struct {
	Condition Condition
	Hint      string
}
