package media

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// CommandRunner executes external commands and returns stdout bytes.
type CommandRunner func(ctx context.Context, binary string, args ...string) ([]byte, error)

// ProbeResult describes the media container of an uploaded file.
type ProbeResult struct {
	DurationSecs float64
	Size         int64
	Format       string
}

// Prober inspects a media file on local disk.
type Prober interface {
	Probe(ctx context.Context, path string) (ProbeResult, error)
}

// ErrProbeFailed indicates the file could not be inspected as media.
var ErrProbeFailed = errors.New("media probe failed")

// FFProbe inspects media files using the ffprobe CLI tool.
type FFProbe struct {
	Binary  string
	Args    []string
	Run     CommandRunner
	Timeout time.Duration
}

// NewFFProbe constructs a Prober that shells out to ffprobe.
func NewFFProbe(binary string, timeout time.Duration) *FFProbe {
	if strings.TrimSpace(binary) == "" {
		binary = "ffprobe"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &FFProbe{
		Binary:  binary,
		Args:    []string{"-v", "error", "-print_format", "json", "-show_format"},
		Run:     defaultCommandRunner,
		Timeout: timeout,
	}
}

// Probe executes ffprobe against the provided path and parses the JSON
// response.
func (p *FFProbe) Probe(ctx context.Context, path string) (ProbeResult, error) {
	if p == nil {
		return ProbeResult{}, ErrProbeFailed
	}
	if p.Run == nil {
		p.Run = defaultCommandRunner
	}

	execCtx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	args := append([]string{}, p.Args...)
	args = append(args, path)

	out, err := p.Run(execCtx, p.Binary, args...)
	if err != nil {
		return ProbeResult{}, fmt.Errorf("%w: run ffprobe: %v", ErrProbeFailed, err)
	}

	var payload struct {
		Format struct {
			Duration   string `json:"duration"`
			Size       string `json:"size"`
			FormatName string `json:"format_name"`
		} `json:"format"`
	}
	if err := json.Unmarshal(out, &payload); err != nil {
		return ProbeResult{}, fmt.Errorf("%w: parse ffprobe response: %v", ErrProbeFailed, err)
	}

	if payload.Format.FormatName == "" {
		return ProbeResult{}, fmt.Errorf("%w: no format detected", ErrProbeFailed)
	}

	// ffprobe reports numeric fields as strings.
	duration, err := strconv.ParseFloat(payload.Format.Duration, 64)
	if err != nil || duration <= 0 {
		return ProbeResult{}, fmt.Errorf("%w: invalid duration %q", ErrProbeFailed, payload.Format.Duration)
	}

	size, err := strconv.ParseInt(payload.Format.Size, 10, 64)
	if err != nil {
		size = 0
	}

	return ProbeResult{
		DurationSecs: duration,
		Size:         size,
		Format:       payload.Format.FormatName,
	}, nil
}

func defaultCommandRunner(ctx context.Context, binary string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, binary, args...)
	return cmd.Output()
}
