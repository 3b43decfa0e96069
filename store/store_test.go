package store

import (
	"errors"
	"testing"

	"github.com/Paranoid-AF/hollow"
	"github.com/Paranoid-AF/hollow/shape"
	"github.com/google/go-cmp/cmp"
)

var (
	structOutput = &shape.Shape{Type: shape.TypeStructure, Members: shape.Members{
		{Name: "Name", Shape: &shape.Shape{Type: shape.TypeString}},
	}}
	listOutput = &shape.Shape{Type: shape.TypeList, Member: &shape.Shape{Type: shape.TypeString}}
)

func TestConfigureMergeRule(t *testing.T) {
	s := New(nil)
	s.Configure("s3", "list_objects", structOutput, map[string]any{"Name": "a"})
	got := s.Data()[ClientsKey].(map[string]any)["s3"].(map[string]any)["list_objects"]
	if diff := cmp.Diff(map[string]any{"Name": "a"}, got); diff != "" {
		t.Errorf("first response mismatch (-want +got):\n%s", diff)
	}

	s.Configure("s3", "list_objects", structOutput, map[string]any{"Name": "b"})
	got = s.Data()[ClientsKey].(map[string]any)["s3"].(map[string]any)["list_objects"]
	want := []any{map[string]any{"Name": "a"}, map[string]any{"Name": "b"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("two responses mismatch (-want +got):\n%s", diff)
	}

	s.Configure("s3", "list_objects", structOutput, map[string]any{"Name": "c"})
	got = s.Data()[ClientsKey].(map[string]any)["s3"].(map[string]any)["list_objects"]
	want = append(want, map[string]any{"Name": "c"})
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("three responses mismatch (-want +got):\n%s", diff)
	}

	for _, name := range []string{"a", "b", "c"} {
		r, err := s.Take("s3", "list_objects", nil, nil)
		if err != nil {
			t.Fatalf("Take: %v", err)
		}
		if r.(map[string]any)["Name"] != name {
			t.Errorf("Take = %v, want Name %s", r, name)
		}
	}
	_, err := s.Take("s3", "list_objects", nil, nil)
	var nrf *hollow.NoResponseFoundError
	if !errors.As(err, &nrf) || !nrf.Exhausted {
		t.Errorf("expected exhausted NoResponseFoundError, got %v", err)
	}
}

func TestConfigureListOutputStartsQueue(t *testing.T) {
	s := New(nil)
	s.Configure("sqs", "list_queues", listOutput, []any{"q1", "q2"})
	got := s.Data()[ClientsKey].(map[string]any)["sqs"].(map[string]any)["list_queues"]
	if diff := cmp.Diff([]any{[]any{"q1", "q2"}}, got); diff != "" {
		t.Errorf("list response mismatch (-want +got):\n%s", diff)
	}

	r, err := s.Take("sqs", "list_queues", nil, nil)
	if err != nil {
		t.Fatalf("Take: %v", err)
	}
	if diff := cmp.Diff([]any{"q1", "q2"}, r); diff != "" {
		t.Errorf("Take mismatch (-want +got):\n%s", diff)
	}
}

func TestConfigureNilUsesSkeleton(t *testing.T) {
	s := New(nil)
	s.Configure("s3", "get_bucket", structOutput, nil)
	r, err := s.Take("s3", "get_bucket", nil, nil)
	if err != nil {
		t.Fatalf("Take: %v", err)
	}
	if diff := cmp.Diff(map[string]any{"Name": shape.Placeholder}, r); diff != "" {
		t.Errorf("skeleton mismatch (-want +got):\n%s", diff)
	}

	s.Configure("sqs", "delete_message", nil, nil)
	r, err = s.Take("sqs", "delete_message", nil, nil)
	if err != nil {
		t.Fatalf("Take: %v", err)
	}
	if diff := cmp.Diff(map[string]any{}, r); diff != "" {
		t.Errorf("bodiless skeleton mismatch (-want +got):\n%s", diff)
	}
}

func TestTakeScalarIsReusable(t *testing.T) {
	s := New(map[string]any{
		ClientsKey: map[string]any{
			"sts": map[string]any{
				"get_caller_identity": map[string]any{"Account": "123"},
			},
		},
	})
	for range 3 {
		r, err := s.Take("sts", "get_caller_identity", nil, nil)
		if err != nil {
			t.Fatalf("Take: %v", err)
		}
		if r.(map[string]any)["Account"] != "123" {
			t.Errorf("Take = %v", r)
		}
	}
}

func TestTakeMatchesMethodCasing(t *testing.T) {
	s := New(map[string]any{
		ClientsKey: map[string]any{
			"sts": map[string]any{"get_caller_identity": "ok"},
		},
	})
	r, err := s.Take("sts", "GetCallerIdentity", nil, nil)
	if err != nil {
		t.Fatalf("Take: %v", err)
	}
	if r != "ok" {
		t.Errorf("Take = %v, want ok", r)
	}
}

func TestTakeMissing(t *testing.T) {
	s := New(map[string]any{
		ClientsKey: map[string]any{"s3": map[string]any{"get_object": nil}},
	})
	for _, tt := range []struct{ service, method string }{
		{"s3", "get_object"},
		{"s3", "put_object"},
		{"sts", "get_caller_identity"},
	} {
		_, err := s.Take(tt.service, tt.method, nil, nil)
		var nrf *hollow.NoResponseFoundError
		if !errors.As(err, &nrf) {
			t.Fatalf("Take(%s.%s): expected NoResponseFoundError, got %v", tt.service, tt.method, err)
		}
		if nrf.Exhausted {
			t.Errorf("Take(%s.%s): Exhausted = true, want false", tt.service, tt.method)
		}
	}
}

func TestTakeEmptyQueue(t *testing.T) {
	s := New(map[string]any{
		ClientsKey: map[string]any{"s3": map[string]any{"get_object": []any{}}},
	})
	_, err := s.Take("s3", "get_object", nil, nil)
	var nrf *hollow.NoResponseFoundError
	if !errors.As(err, &nrf) || !nrf.Exhausted {
		t.Errorf("expected exhausted NoResponseFoundError, got %v", err)
	}
}

func TestTakeResponseFunc(t *testing.T) {
	var gotArgs []any
	var gotKwargs map[string]any
	fn := ResponseFunc(func(args []any, kwargs map[string]any) (any, error) {
		gotArgs, gotKwargs = args, kwargs
		return map[string]any{"Bucket": kwargs["Bucket"]}, nil
	})

	s := New(nil)
	s.Configure("s3", "get_object", structOutput, fn)
	for _, bucket := range []string{"a", "b"} {
		r, err := s.Take("s3", "get_object", []any{1}, map[string]any{"Bucket": bucket})
		if err != nil {
			t.Fatalf("Take: %v", err)
		}
		if r.(map[string]any)["Bucket"] != bucket {
			t.Errorf("Take = %v, want Bucket %s", r, bucket)
		}
	}
	if diff := cmp.Diff([]any{1}, gotArgs); diff != "" {
		t.Errorf("args mismatch (-want +got):\n%s", diff)
	}
	if gotKwargs["Bucket"] != "b" {
		t.Errorf("kwargs = %v", gotKwargs)
	}
}

func TestTakeQueuedFuncAndError(t *testing.T) {
	boom := errors.New("boom")
	s := New(map[string]any{
		ClientsKey: map[string]any{"s3": map[string]any{"get_object": []any{
			func(args []any, kwargs map[string]any) (any, error) { return nil, boom },
			"second",
		}}},
	})
	if _, err := s.Take("s3", "get_object", nil, nil); !errors.Is(err, boom) {
		t.Errorf("Take error = %v, want %v", err, boom)
	}
	r, err := s.Take("s3", "get_object", nil, nil)
	if err != nil || r != "second" {
		t.Errorf("Take = %v, %v; want second", r, err)
	}
}

func TestLedger(t *testing.T) {
	s := New(nil)
	s.Record(hollow.ServiceCall{Service: "s3", Method: "get_object", Response: 1})
	s.Record(hollow.ServiceCall{Service: "s3", Method: "put_object", Response: 2})
	s.Record(hollow.ServiceCall{Service: "s3", Method: "GetObject", Response: 3})

	if n := len(s.Calls()); n != 3 {
		t.Fatalf("Calls len = %d, want 3", n)
	}
	calls := s.CallsFor("s3", "get_object")
	if len(calls) != 2 || calls[0].Response != 1 || calls[1].Response != 3 {
		t.Errorf("CallsFor = %+v", calls)
	}

	call, err := s.CallAt("s3", "get_object", 1)
	if err != nil || call.Response != 3 {
		t.Errorf("CallAt(1) = %+v, %v", call, err)
	}
	call, err = s.CallAt("s3", "get_object", -1)
	if err != nil || call.Response != 3 {
		t.Errorf("CallAt(-1) = %+v, %v", call, err)
	}

	_, err = s.CallAt("s3", "get_object", 2)
	var idxErr *hollow.IndexError
	if !errors.As(err, &idxErr) {
		t.Fatalf("expected *hollow.IndexError, got %v", err)
	}
	if idxErr.Index != 2 || idxErr.Len != 2 {
		t.Errorf("IndexError = %+v", idxErr)
	}

	// Calls returns a copy.
	s.Calls()[0].Response = "changed"
	if s.Calls()[0].Response != 1 {
		t.Error("Calls exposed the ledger")
	}
}

func TestSessionData(t *testing.T) {
	s := New(map[string]any{SessionKey: map[string]any{"region_name": "us-west-2"}})
	for range 2 {
		if got := s.SessionData()["region_name"]; got != "us-west-2" {
			t.Errorf("region_name = %v", got)
		}
	}

	s = New(map[string]any{SessionsKey: []any{
		map[string]any{"profile_name": "a"},
		map[string]any{"profile_name": "b"},
	}})
	for _, want := range []string{"a", "b"} {
		if got := s.SessionData()["profile_name"]; got != want {
			t.Errorf("profile_name = %v, want %s", got, want)
		}
	}
	if got := s.SessionData(); len(got) != 0 {
		t.Errorf("exhausted sessions = %v, want empty", got)
	}

	if got := New(nil).SessionData(); len(got) != 0 {
		t.Errorf("no session data = %v, want empty", got)
	}
}
