// ABOUTME: Chunked HTTP artifact download with verification, bounded retry and URL fallback
// ABOUTME: Temp-file + rename keeps partial files invisible; single-flight per destination path

package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/singleflight"

	lhttp "github.com/mauromedda/mclaunch-go/internal/http"
	"github.com/mauromedda/mclaunch-go/internal/log"
)

const (
	DefaultChunkSize   = 16 * 1024
	DefaultMaxAttempts = 5
	DefaultTimeout     = 60 * time.Second
)

// Request describes one artifact to place at Dest.
type Request struct {
	Name        string // artifact identity used in errors and progress
	URL         string
	AltURL      string // optional fallback tried once after a transport failure
	Dest        string
	SHA1        string // optional expected digest
	Size        int64  // optional expected size
	MaxAttempts int    // zero means the fetcher default

	// Staged keeps a download from URL in a private temp file beside Dest
	// and hands it to Post as Result.Staged instead of renaming it onto
	// Dest; Post produces Dest from it. SHA1 and Size then describe the
	// staged file only. A download from AltURL still lands on Dest.
	Staged bool

	// Validate is a content check on top of SHA1 and Size. It decides
	// whether Dest is already in place and rejects downloads written to Dest.
	Validate func(path string) error

	// Post runs inside the per-path guard once Dest is settled: after a
	// download, or when Dest was already in place (Result.Skipped). A Post
	// error removes Dest.
	Post func(Result) error
}

// Result reports how a request was satisfied.
type Result struct {
	URL          string // source that served the file
	UsedFallback bool
	Attempts     int
	Skipped      bool // Dest was already valid; nothing was downloaded
	Bytes        int64

	// Staged is the private download handed to Post for a Staged request.
	// It is removed once Post returns.
	Staged string
}

// ProgressFunc receives byte counts as a download streams. total is -1
// when the server did not announce a length.
type ProgressFunc func(name string, written, total int64)

// Fetcher downloads artifacts. It is safe for concurrent use.
type Fetcher struct {
	client      *http.Client
	chunkSize   int
	maxAttempts int
	backoff     func(retry int) time.Duration
	progress    ProgressFunc

	flights singleflight.Group
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithClient sets the HTTP client.
func WithClient(c *http.Client) Option { return func(f *Fetcher) { f.client = c } }

// WithChunkSize sets the streaming buffer size.
func WithChunkSize(n int) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.chunkSize = n
		}
	}
}

// WithMaxAttempts sets the default attempt budget.
func WithMaxAttempts(n int) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxAttempts = n
		}
	}
}

// WithBackoff sets the delay before each retry.
func WithBackoff(b func(retry int) time.Duration) Option {
	return func(f *Fetcher) { f.backoff = b }
}

// WithProgress registers a progress callback.
func WithProgress(p ProgressFunc) Option { return func(f *Fetcher) { f.progress = p } }

// New creates a Fetcher with defaults overridden by opts.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		chunkSize:   DefaultChunkSize,
		maxAttempts: DefaultMaxAttempts,
		backoff:     ExponentialBackoff,
	}
	for _, o := range opts {
		o(f)
	}
	if f.client == nil {
		f.client = lhttp.NewClient(DefaultTimeout, "")
	}
	return f
}

// Fetch places a verified copy of req at req.Dest. Concurrent calls for the
// same destination share one download. A caller that joined another
// caller's download takes its own turn when that download was cut short by
// the other caller's context, when the result fails its own checks, or when
// it carries its own Post.
func (f *Fetcher) Fetch(ctx context.Context, req Request) (Result, error) {
	if req.URL == "" {
		return Result{}, fmt.Errorf("fetch %s: empty URL", req.Name)
	}
	if req.Dest == "" {
		return Result{}, fmt.Errorf("fetch %s: empty destination", req.Name)
	}
	if req.Name == "" {
		req.Name = filepath.Base(req.Dest)
	}

	key, err := filepath.Abs(req.Dest)
	if err != nil {
		return Result{}, fmt.Errorf("resolving %s: %w", req.Dest, err)
	}

	for {
		led := false
		v, err, _ := f.flights.Do(key, func() (any, error) {
			led = true
			return f.fetch(ctx, req)
		})
		res, _ := v.(Result)
		if led {
			return res, err
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, fmt.Errorf("fetch %s: %w", req.Name, ctxErr)
		}
		switch {
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			log.Debug("fetch: %s: shared download was cancelled; retrying", req.Name)
		case err != nil:
			return res, err
		case req.Post != nil:
			log.Debug("fetch: %s: running own post-processing", req.Name)
		case f.inPlace(req) != nil:
			log.Debug("fetch: %s: shared download does not satisfy this request; retrying", req.Name)
		default:
			return res, nil
		}
	}
}

// inPlace reports whether Dest already satisfies req.
func (f *Fetcher) inPlace(req Request) error {
	sha, size := req.SHA1, req.Size
	if req.Staged {
		sha, size = "", 0
	}
	if err := VerifyFile(req.Dest, sha, size); err != nil {
		return err
	}
	if req.Validate != nil {
		return req.Validate(req.Dest)
	}
	return nil
}

func (f *Fetcher) fetch(ctx context.Context, req Request) (Result, error) {
	if err := f.inPlace(req); err == nil {
		log.Debug("fetch: %s already present at %s", req.Name, req.Dest)
		res := Result{URL: req.URL, Skipped: true}
		return res, f.post(req, res)
	}

	maxAttempts := req.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = f.maxAttempts
	}

	url := req.URL
	usedFallback := false
	var lastErr error
	lastKind := kindIntegrity

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			if err := sleepWithContext(ctx, f.backoff(attempt-2)); err != nil {
				return Result{}, fmt.Errorf("fetch %s: %w", req.Name, err)
			}
		}

		log.Debug("fetch: %s attempt %d/%d from %s", req.Name, attempt, maxAttempts, url)
		n, staged, err := f.attempt(ctx, url, req, req.Staged && !usedFallback)
		if err == nil {
			res := Result{URL: url, UsedFallback: usedFallback, Attempts: attempt, Bytes: n, Staged: staged}
			err := f.post(req, res)
			if staged != "" {
				os.Remove(staged)
			}
			return res, err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, fmt.Errorf("fetch %s: %w", req.Name, ctxErr)
		}

		var ae *attemptError
		if !errors.As(err, &ae) || ae.kind == kindFatal {
			return Result{}, fmt.Errorf("fetch %s: %w", req.Name, err)
		}

		lastErr, lastKind = ae.err, ae.kind
		if usedFallback {
			// the fallback gets exactly one attempt
			if ae.kind == kindTransport {
				return Result{}, &TransportError{URL: url, Attempts: attempt, Err: ae.err}
			}
			return Result{}, &IntegrityError{
				Artifact:     req.Name,
				ExpectedHash: req.SHA1,
				Attempts:     attempt,
				Err:          ae.err,
			}
		}
		if ae.kind == kindTransport && req.AltURL != "" {
			log.Warn("fetch: %s: %v; falling back to %s", req.Name, ae.err, req.AltURL)
			url = req.AltURL
			usedFallback = true
			if attempt == maxAttempts {
				// the fallback attempt is always granted
				maxAttempts++
			}
			continue
		}
		log.Warn("fetch: %s attempt %d/%d failed: %v", req.Name, attempt, maxAttempts, ae.err)
	}

	if lastKind == kindTransport {
		return Result{}, &TransportError{URL: url, Attempts: maxAttempts, Err: lastErr}
	}
	return Result{}, &IntegrityError{
		Artifact:     req.Name,
		ExpectedHash: req.SHA1,
		Attempts:     maxAttempts,
		Err:          lastErr,
	}
}

// attempt performs one full download of url into a temp file beside
// req.Dest and verifies it. With keep set the verified temp file is returned
// as is; otherwise it is renamed onto req.Dest.
func (f *Fetcher) attempt(ctx context.Context, url string, req Request, keep bool) (int64, string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, "", fatalFailure(fmt.Errorf("creating request: %w", err))
	}

	resp, err := f.client.Do(httpReq)
	if err != nil {
		return 0, "", transportFailure(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return 0, "", transportFailure(&StatusError{URL: url, StatusCode: resp.StatusCode})
	}

	dir := filepath.Dir(req.Dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, "", fatalFailure(fmt.Errorf("creating %s: %w", dir, err))
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(req.Dest)+".part-*")
	if err != nil {
		return 0, "", fatalFailure(fmt.Errorf("creating temp file: %w", err))
	}
	tmpPath := tmp.Name()
	committed := false
	defer func() {
		if !committed {
			os.Remove(tmpPath)
		}
	}()

	n, err := f.copyChunks(tmp, resp.Body, req.Name, resp.ContentLength)
	if closeErr := tmp.Close(); err == nil && closeErr != nil {
		err = fatalFailure(fmt.Errorf("closing temp file: %w", closeErr))
	}
	if err != nil {
		return n, "", err
	}

	sha, size := req.SHA1, req.Size
	if req.Staged && !keep {
		sha, size = "", 0
	}
	if err := VerifyFile(tmpPath, sha, size); err != nil {
		return n, "", integrityFailure(err)
	}
	if keep {
		committed = true
		return n, tmpPath, nil
	}
	if req.Validate != nil {
		if err := req.Validate(tmpPath); err != nil {
			return n, "", integrityFailure(err)
		}
	}

	if err := replaceFile(tmpPath, req.Dest); err != nil {
		return n, "", fatalFailure(err)
	}
	committed = true
	return n, "", nil
}

// copyChunks streams src into dst through a fixed-size buffer.
func (f *Fetcher) copyChunks(dst io.Writer, src io.Reader, name string, total int64) (int64, error) {
	buf := make([]byte, f.chunkSize)
	var written int64
	for {
		nr, rerr := src.Read(buf)
		if nr > 0 {
			nw, werr := dst.Write(buf[:nr])
			written += int64(nw)
			if werr != nil {
				return written, fatalFailure(fmt.Errorf("writing temp file: %w", werr))
			}
			if nw != nr {
				return written, fatalFailure(io.ErrShortWrite)
			}
			if f.progress != nil {
				f.progress(name, written, total)
			}
		}
		if rerr == io.EOF {
			return written, nil
		}
		if rerr != nil {
			return written, transportFailure(fmt.Errorf("reading body: %w", rerr))
		}
	}
}

func (f *Fetcher) post(req Request, res Result) error {
	if req.Post == nil {
		return nil
	}
	if err := req.Post(res); err != nil {
		os.Remove(req.Dest)
		return fmt.Errorf("post-processing %s: %w", req.Name, err)
	}
	return nil
}

// replaceFile renames src onto dst, removing a stale dst first where the
// platform refuses to overwrite.
func replaceFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}
	if err := os.Remove(dst); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing stale %s: %w", dst, err)
	}
	if err := os.Rename(src, dst); err != nil {
		return fmt.Errorf("renaming into %s: %w", dst, err)
	}
	return nil
}
