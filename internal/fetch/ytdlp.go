// Package fetch adapts the external yt-dlp engine: given URL, format and
// quality it produces a local file and relays percent-complete callbacks.
package fetch

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/you/tg-mediafetch/internal/logx"
)

// Request describes one acquisition.
type Request struct {
	URL     string
	Format  string // "video" or "audio"
	Quality string // "best", "1080p", "720p", "480p"
	// Prefix namespaces the output file inside Dir, e.g. "<userID>_<ulid>".
	Prefix string
	Dir    string
}

// File is the acquired local artifact. The caller owns it and must remove it
// on every exit path.
type File struct {
	Path string
	Size int64
}

// Sink receives monotonically non-decreasing percent values in [0,100]. The
// engine may report no progress at all; terminal success/failure still
// resolves.
type Sink func(percent float64)

// Engine is the acquisition capability the orchestrator depends on.
type Engine interface {
	Acquire(ctx context.Context, req Request, sink Sink) (*File, error)
}

// YTDLP shells out to the yt-dlp binary.
type YTDLP struct {
	Binary string
	// NetworkRetries bounds extra attempts after a network-class failure.
	NetworkRetries int
}

func NewYTDLP() *YTDLP {
	return &YTDLP{Binary: "yt-dlp", NetworkRetries: 2}
}

var progressRe = regexp.MustCompile(`\[download\]\s+([0-9.]+)%`)

func (y *YTDLP) Acquire(ctx context.Context, req Request, sink Sink) (*File, error) {
	if req.Prefix == "" || req.Dir == "" {
		return nil, &Error{Kind: InvalidSource, Err: fmt.Errorf("empty output namespace")}
	}
	sink = monotonic(sink)

	var lastErr error
	attempts := 1 + y.NetworkRetries
	for i := 0; i < attempts; i++ {
		f, err := y.run(ctx, req, sink)
		if err == nil {
			return f, nil
		}
		lastErr = err
		if !Retryable(err) || ctx.Err() != nil {
			break
		}
		logx.FromCtx(ctx).Warn().Err(err).Int("attempt", i+1).Msg("network failure, retrying acquisition")
	}
	return nil, lastErr
}

func (y *YTDLP) run(ctx context.Context, req Request, sink Sink) (*File, error) {
	outTpl := filepath.Join(req.Dir, req.Prefix+".%(ext)s")
	args := []string{
		"--newline",
		"--no-playlist",
		"--no-warnings",
		"-o", outTpl,
	}
	switch req.Format {
	case "audio":
		args = append(args, "-f", "bestaudio/best", "-x", "--audio-format", "mp3", "--audio-quality", "192K")
	default:
		if req.Quality == "" || req.Quality == "best" {
			args = append(args, "-f", "bestvideo+bestaudio/best")
		} else {
			h := strings.TrimSuffix(req.Quality, "p")
			args = append(args, "-f", fmt.Sprintf("bestvideo[height<=%s]+bestaudio/best[height<=%s]", h, h))
		}
	}
	args = append(args, req.URL)

	cmd := exec.CommandContext(ctx, y.Binary, args...)

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &Error{Kind: EngineFailure, Err: err}
	}
	var stderr strings.Builder
	errPipe, err := cmd.StderrPipe()
	if err != nil {
		return nil, &Error{Kind: EngineFailure, Err: err}
	}

	if err := cmd.Start(); err != nil {
		return nil, &Error{Kind: EngineFailure, Err: fmt.Errorf("start %s: %w", y.Binary, err)}
	}

	// stderr goes both into the log and into the classifier.
	lw := logx.NewLineWriter(map[string]string{"src": "yt-dlp"}, zerolog.DebugLevel)
	errDone := make(chan struct{})
	go func() {
		defer close(errDone)
		lw.Pipe(io.TeeReader(errPipe, &stderr))
	}()

	scanProgress(stdout, sink)
	<-errDone

	if err := cmd.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, &Error{Kind: NetworkFailure, Err: ctx.Err()}
		}
		return nil, classify(stderr.String(), fmt.Errorf("%s: %w: %s", y.Binary, err, strings.TrimSpace(stderr.String())))
	}

	f, err := findOutput(req)
	if err != nil {
		return nil, err
	}
	sink(100)
	return f, nil
}

// scanProgress relays "[download]  42.1%" lines into the sink.
func scanProgress(r io.Reader, sink Sink) {
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if m := progressRe.FindStringSubmatch(sc.Text()); m != nil {
			if p, err := strconv.ParseFloat(m[1], 64); err == nil {
				sink(p)
			}
		}
	}
}

// findOutput locates the produced file under the request's namespace. The
// engine claiming success with no output is a NotFound failure.
func findOutput(req Request) (*File, error) {
	matches, err := filepath.Glob(filepath.Join(req.Dir, req.Prefix+".*"))
	if err != nil {
		return nil, &Error{Kind: EngineFailure, Err: err}
	}
	// Audio extraction leaves only the final .mp3; video may leave exactly one
	// merged container. Partial .part files are not final outputs.
	for _, m := range matches {
		if strings.HasSuffix(m, ".part") || strings.HasSuffix(m, ".ytdl") {
			continue
		}
		info, err := os.Stat(m)
		if err != nil || info.IsDir() {
			continue
		}
		return &File{Path: m, Size: info.Size()}, nil
	}
	return nil, &Error{Kind: NotFound, Err: fmt.Errorf("no output under %s", filepath.Join(req.Dir, req.Prefix))}
}

// monotonic clamps a sink so relayed percents never decrease and stay in
// [0,100].
func monotonic(sink Sink) Sink {
	last := -1.0
	return func(p float64) {
		if p < 0 {
			p = 0
		}
		if p > 100 {
			p = 100
		}
		if p <= last {
			return
		}
		last = p
		if sink != nil {
			sink(p)
		}
	}
}
