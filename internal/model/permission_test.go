package model

import "testing"

func TestParsePermissionSet(t *testing.T) {
	raw := []byte(`{"generate_responses":true,"approve_responses":false,"publish_responses":true,"view_all_reviews":true,"manage_prompts":false}`)
	ps, err := ParsePermissionSet(raw)
	if err != nil {
		t.Fatal("valid permission JSON rejected:", err)
	}
	if !ps.GenerateResponses || ps.ApproveResponses || !ps.PublishResponses || !ps.ViewAllReviews || ps.ManagePrompts {
		t.Fatal("decoded set does not match input")
	}
}

func TestParsePermissionSetEmpty(t *testing.T) {
	ps, err := ParsePermissionSet(nil)
	if err != nil {
		t.Fatal("empty input must yield the zero set:", err)
	}
	if ps != (PermissionSet{}) {
		t.Fatal("empty input must yield the zero set")
	}
}

// The permission column is written only by onboarding tooling; a key this
// service does not know about means the row is wrong, not that a feature
// should be silently ignored.
func TestParsePermissionSetRejectsUnknownKeys(t *testing.T) {
	if _, err := ParsePermissionSet([]byte(`{"generate_responses":true,"launch_rockets":true}`)); err == nil {
		t.Fatal("unknown permission key must be rejected")
	}
}

func TestParsePermissionSetMalformed(t *testing.T) {
	if _, err := ParsePermissionSet([]byte(`{"generate_responses":`)); err == nil {
		t.Fatal("malformed JSON must be rejected")
	}
}

func TestPermissionSetRoundTrip(t *testing.T) {
	in := PermissionSet{GenerateResponses: true, ManagePrompts: true}
	raw, err := in.Encode()
	if err != nil {
		t.Fatal(err)
	}
	out, err := ParsePermissionSet(raw)
	if err != nil {
		t.Fatal(err)
	}
	if out != in {
		t.Fatal("round trip changed the set")
	}
}
