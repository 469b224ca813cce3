package agent

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"
)

func TestEncodeResponse_WireForms(t *testing.T) {
	tests := []struct {
		resp Response
		want string
	}{
		{Continue{}, `{"continue":[]}`},
		{Pause{}, `{"pause":[]}`},
		{Terminate{}, `{"terminate":[]}`},
		{EvaluateCondition{Condition: []string{"Should Be Equal", "1", "1"}}, `{"evaluate_condition":["Should Be Equal","1","1"]}`},
		{ChangeVariable{Variable: "${x}", Scope: ScopeTestSuite, Level: 2, Values: []string{"42"}},
			`{"change_variable":{"name":"${x}","scope":"suite","level":2,"path":[],"values":["42"]}}`},
		{ProtocolVersion{Version: 2}, `{"protocol_version":[2]}`},
	}
	for _, tt := range tests {
		data, err := EncodeResponse(tt.resp)
		if err != nil {
			t.Fatal(err)
		}
		if string(data) != tt.want {
			t.Errorf("%s: got %s, want %s", tt.resp.Name(), data, tt.want)
		}
	}
}

func TestDecodeResponse_ChangeVariable(t *testing.T) {
	r, err := DecodeResponse([]byte(`{"change_variable":{"name":"${x}","scope":"test","level":1,"path":["0"],"values":["a","b"]}}`))
	if err != nil {
		t.Fatal(err)
	}
	cv, ok := r.(ChangeVariable)
	if !ok {
		t.Fatalf("got %T", r)
	}
	if cv.Variable != "${x}" || cv.Scope != ScopeTestCase || cv.Level != 1 || len(cv.Values) != 2 || len(cv.Path) != 1 {
		t.Errorf("got %+v", cv)
	}
}

func TestWriterResponder_WritesLines(t *testing.T) {
	var buf bytes.Buffer
	r := NewWriterResponder(&buf)
	if err := r.Respond(Pause{}); err != nil {
		t.Fatal(err)
	}
	if err := r.Respond(Resume{}); err != nil {
		t.Fatal(err)
	}
	if got := buf.String(); got != "{\"pause\":[]}\n{\"resume\":[]}\n" {
		t.Errorf("got %q", got)
	}
}

type brokenWriter struct{}

func (brokenWriter) Write([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestWriterResponder_FailureIsResponseError(t *testing.T) {
	err := NewWriterResponder(brokenWriter{}).Respond(Continue{})
	var re *ResponseError
	if !errors.As(err, &re) || re.Response != "continue" {
		t.Errorf("err = %v, want *ResponseError for continue", err)
	}
}

func TestFutureResponse_ResolvesOnce(t *testing.T) {
	f := NewFutureResponse()
	go func() {
		time.Sleep(10 * time.Millisecond)
		f.Resolve(Resume{})
	}()
	r, err := f.Wait(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := r.(Resume); !ok {
		t.Errorf("got %T, want Resume", r)
	}
	if f.Resolve(Terminate{}) {
		t.Error("second Resolve reported success")
	}
}

func TestFutureResponse_WaitHonoursContext(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := NewFutureResponse().Wait(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v", err)
	}
}

func TestToFileURI(t *testing.T) {
	tests := map[string]string{
		"":                  "",
		"/home/u/a.robot":   "file:///home/u/a.robot",
		`C:\ws\a.robot`:     "file:///C:/ws/a.robot",
		"file:///x/y.robot": "file:///x/y.robot",
	}
	for in, want := range tests {
		if got := ToFileURI(in); got != want {
			t.Errorf("ToFileURI(%q) = %q, want %q", in, got, want)
		}
	}
}
