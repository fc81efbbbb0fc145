package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"testing"
)

func TestClassifyNetwork(t *testing.T) {
	t.Parallel()

	urlErr := &url.Error{Op: "Get", URL: "https://example.com", Err: errors.New("connection refused")}
	cases := []error{
		urlErr,
		fmt.Errorf("fetch catalog: %w", urlErr),
		errStatus{code: 503},
		fmt.Errorf("fetch catalog [abc]: %w", errStatus{code: 500}),
		context.DeadlineExceeded,
	}
	for _, err := range cases {
		if kind := Classify(err); kind != ErrorNetwork {
			t.Fatalf("Classify(%v) = %v, want network", err, kind)
		}
	}
}

func TestClassifyParse(t *testing.T) {
	t.Parallel()

	var envelope apiEnvelope
	syntaxErr := json.Unmarshal([]byte(`{"amiibo":`), &envelope)
	if syntaxErr == nil {
		t.Fatal("expected syntax error")
	}
	typeErr := json.Unmarshal([]byte(`{"amiibo": 5}`), &envelope)
	if typeErr == nil {
		t.Fatal("expected type error")
	}

	for _, err := range []error{syntaxErr, typeErr, fmt.Errorf("decode catalog: %w", syntaxErr)} {
		if kind := Classify(err); kind != ErrorParse {
			t.Fatalf("Classify(%v) = %v, want parse", err, kind)
		}
	}
}

func TestClassifyDatabase(t *testing.T) {
	t.Parallel()

	c := openTempCache(t)
	_, err := c.db.Exec(`INSERT INTO missing_table VALUES (1)`)
	if err == nil {
		t.Fatal("expected sqlite error")
	}
	if kind := Classify(fmt.Errorf("insert: %w", err)); kind != ErrorDatabase {
		t.Fatalf("Classify(%v) = %v, want database", err, kind)
	}
}

func TestClassifyUnknown(t *testing.T) {
	t.Parallel()

	if kind := Classify(errors.New("mystery")); kind != ErrorUnknown {
		t.Fatalf("Classify = %v, want unknown", kind)
	}
	if kind := Classify(nil); kind != ErrorUnknown {
		t.Fatalf("Classify(nil) = %v, want unknown", kind)
	}
}

func TestErrorKindLabels(t *testing.T) {
	t.Parallel()

	cases := map[ErrorKind]string{
		ErrorNetwork:  "network",
		ErrorParse:    "parse",
		ErrorDatabase: "database",
		ErrorUnknown:  "unknown",
	}
	for kind, want := range cases {
		if got := kind.String(); got != want {
			t.Fatalf("%d label = %q, want %q", kind, got, want)
		}
		if kind.Hint() == "" {
			t.Fatalf("%s has no hint", want)
		}
	}
}
