package media

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestFFProbeParsesFormat(t *testing.T) {
	var gotBinary string
	var gotArgs []string

	probe := NewFFProbe("ffprobe", time.Second)
	probe.Run = func(ctx context.Context, binary string, args ...string) ([]byte, error) {
		gotBinary = binary
		gotArgs = args
		return []byte(`{"format":{"filename":"clip.mp4","format_name":"mov,mp4,m4a","duration":"42.500000","size":"1048576"}}`), nil
	}

	result, err := probe.Probe(context.Background(), "/tmp/clip.mp4")
	if err != nil {
		t.Fatalf("probe: %v", err)
	}

	if result.DurationSecs != 42.5 {
		t.Fatalf("expected duration 42.5, got %v", result.DurationSecs)
	}
	if result.Size != 1048576 {
		t.Fatalf("expected size 1048576, got %d", result.Size)
	}
	if result.Format != "mov,mp4,m4a" {
		t.Fatalf("unexpected format %q", result.Format)
	}

	if gotBinary != "ffprobe" {
		t.Fatalf("unexpected binary %q", gotBinary)
	}
	if len(gotArgs) == 0 || gotArgs[len(gotArgs)-1] != "/tmp/clip.mp4" {
		t.Fatalf("expected path as final argument, got %v", gotArgs)
	}
}

func TestFFProbeFailures(t *testing.T) {
	tests := []struct {
		name   string
		output string
		runErr error
	}{
		{name: "command error", runErr: errors.New("exit status 1")},
		{name: "invalid json", output: "not json"},
		{name: "no format", output: `{"format":{}}`},
		{name: "bad duration", output: `{"format":{"format_name":"mov","duration":"N/A","size":"10"}}`},
		{name: "zero duration", output: `{"format":{"format_name":"mov","duration":"0.0","size":"10"}}`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			probe := NewFFProbe("", 0)
			probe.Run = func(ctx context.Context, binary string, args ...string) ([]byte, error) {
				return []byte(tc.output), tc.runErr
			}

			if _, err := probe.Probe(context.Background(), "/tmp/clip.mp4"); !errors.Is(err, ErrProbeFailed) {
				t.Fatalf("expected ErrProbeFailed, got %v", err)
			}
		})
	}
}

func TestFFProbeMissingSizeIsTolerated(t *testing.T) {
	probe := NewFFProbe("", 0)
	probe.Run = func(ctx context.Context, binary string, args ...string) ([]byte, error) {
		return []byte(`{"format":{"format_name":"mov","duration":"10.0"}}`), nil
	}

	result, err := probe.Probe(context.Background(), "/tmp/clip.mp4")
	if err != nil {
		t.Fatalf("probe: %v", err)
	}
	if result.Size != 0 {
		t.Fatalf("expected zero size fallback, got %d", result.Size)
	}
}
