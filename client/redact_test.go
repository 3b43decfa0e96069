package client

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestRedact(t *testing.T) {
	tests := []struct {
		name  string
		input map[string]any
		want  map[string]any
	}{
		{"nil", nil, nil},
		{"plain", map[string]any{"Bucket": "b", "MaxKeys": 10}, map[string]any{"Bucket": "b", "MaxKeys": 10}},
		{"secret key", map[string]any{"SecretAccessKey": "abc"}, map[string]any{"SecretAccessKey": Redacted}},
		{"case insensitive", map[string]any{"masterUserPassword": "hunter2"}, map[string]any{"masterUserPassword": Redacted}},
		{"session token", map[string]any{"SessionToken": "tok"}, map[string]any{"SessionToken": Redacted}},
		{"pagination token", map[string]any{"NextToken": "n1", "ContinuationToken": "c1"}, map[string]any{"NextToken": "n1", "ContinuationToken": "c1"}},
		{
			"nested",
			map[string]any{"Config": map[string]any{"Env": []any{map[string]any{"ApiToken": "x", "Name": "n"}}}},
			map[string]any{"Config": map[string]any{"Env": []any{map[string]any{"ApiToken": Redacted, "Name": "n"}}}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Redact(tt.input)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Redact mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRedactDoesNotModifyInput(t *testing.T) {
	input := map[string]any{"Credentials": map[string]any{"AccessKeyId": "AKIA"}}
	Redact(input)
	want := map[string]any{"Credentials": map[string]any{"AccessKeyId": "AKIA"}}
	if diff := cmp.Diff(want, input); diff != "" {
		t.Errorf("input modified (-want +got):\n%s", diff)
	}
}
