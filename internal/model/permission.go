package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// PermissionSet enumerates the independent capabilities a user mapping can
// carry. The set is stored as a JSON column; decoding is strict so that a
// key this service does not know about is reported instead of silently
// dropped.
type PermissionSet struct {
	GenerateResponses bool `json:"generate_responses"`
	ApproveResponses  bool `json:"approve_responses"`
	PublishResponses  bool `json:"publish_responses"`
	ViewAllReviews    bool `json:"view_all_reviews"`
	ManagePrompts     bool `json:"manage_prompts"`
}

// ParsePermissionSet decodes the stored JSON representation of a permission
// set. Empty input yields the zero set. Unknown keys are an error: the
// column is only ever written by onboarding tooling, so an unknown key means
// the row is corrupted or the tooling and this service disagree.
func ParsePermissionSet(raw []byte) (PermissionSet, error) {
	var ps PermissionSet
	if len(raw) == 0 {
		return ps, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&ps); err != nil {
		return PermissionSet{}, fmt.Errorf("parse permission set: %w", err)
	}
	return ps, nil
}

// Encode serializes the set back to its JSON column representation.
func (ps PermissionSet) Encode() ([]byte, error) {
	return json.Marshal(ps)
}
