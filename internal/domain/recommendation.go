package domain

import "strings"

// RecommendationRequest asks the text-generation service for remediation
// advice on a conversational gap. The returned text is opaque to the core.
type RecommendationRequest struct {
	ChatHistoryID      string             `json:"chat_history_id" validate:"required"`
	RecommendationType RecommendationType `json:"recommendation_type" validate:"required,enum"`
	ISOControl         *string            `json:"iso_control,omitempty"`
}

// Validate trims the request and checks it before any remote call.
func (r *RecommendationRequest) Validate() error {
	r.ChatHistoryID = strings.TrimSpace(r.ChatHistoryID)
	extra := &ValidationError{}
	if r.ISOControl != nil {
		key := strings.TrimSpace(*r.ISOControl)
		if key == "" {
			r.ISOControl = nil
		} else if _, _, err := ParseISOControlKey(key); err != nil {
			extra.Add("iso_control", "must have the form <framework>:<control>")
		} else {
			r.ISOControl = &key
		}
	}
	return validateStruct(r, extra)
}
