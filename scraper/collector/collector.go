package collector

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"time"

	"hmo-finder/models"
	"hmo-finder/utils"
)

const (
	defaultTimeout = 60 * time.Second
	// waitDelay bounds how long Wait drains pipes after the child is killed.
	waitDelay = 2 * time.Second
)

// Options describe how to launch the external collector. The request fields
// are appended to Args as positional arguments.
type Options struct {
	Command string
	Args    []string
	Timeout time.Duration
}

// Collector runs the external listing collector as a child process.
type Collector struct {
	opts   Options
	logger *utils.Logger
}

// New creates a Collector. A zero Timeout means one minute.
func New(opts Options, logger *utils.Logger) *Collector {
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	return &Collector{opts: opts, logger: logger}
}

// Collect spawns one collector process for req and returns the records it
// printed. The child is killed when the timeout fires or ctx is cancelled, and
// is always waited for before Collect returns.
func (c *Collector) Collect(ctx context.Context, req models.SearchRequest) ([]models.RawListing, error) {
	runCtx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
	defer cancel()

	args := make([]string, 0, len(c.opts.Args)+4)
	args = append(args, c.opts.Args...)
	args = append(args, req.City, strconv.Itoa(req.MinBedrooms), strconv.Itoa(req.MaxPrice), req.Keywords)

	cmd := exec.CommandContext(runCtx, c.opts.Command, args...)
	cmd.WaitDelay = waitDelay
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	c.logger.Info("[collector] Starting %s for %s, rooms %d+, max £%d",
		c.opts.Command, req.City, req.MinBedrooms, req.MaxPrice)
	start := time.Now()

	if err := cmd.Start(); err != nil {
		return nil, &CollectionError{Op: "start", Err: err}
	}
	err := cmd.Wait()
	elapsed := time.Since(start).Round(time.Millisecond)

	if err != nil {
		cerr := &CollectionError{Op: "run", Stderr: snippet(stderr.Bytes()), Err: err}
		switch {
		case errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil:
			cerr.Timeout = true
			cerr.Err = fmt.Errorf("after %s: %w", c.opts.Timeout, context.DeadlineExceeded)
		case ctx.Err() != nil:
			cerr.Op = "cancelled"
			cerr.Err = ctx.Err()
		default:
			var exitErr *exec.ExitError
			if errors.As(err, &exitErr) {
				cerr.ExitCode = exitErr.ExitCode()
			}
		}
		c.logger.Error("[collector] Failed after %s: %v", elapsed, cerr)
		return nil, cerr
	}

	listings, err := parseOutput(stdout.Bytes())
	if err != nil {
		c.logger.Error("[collector] %v", err)
		return nil, err
	}
	c.logger.Info("[collector] Finished in %s with %d raw listings", elapsed, len(listings))
	return listings, nil
}

// parseOutput finds the first JSON value in out that is a listing array, or an
// object wrapping one under "properties" or "listings". Any text before it is
// ignored, as is anything after it.
func parseOutput(out []byte) ([]models.RawListing, error) {
	for i := 0; i < len(out); i++ {
		if out[i] != '[' && out[i] != '{' {
			continue
		}
		listings, ok := decodePayload(out[i:])
		if ok {
			return listings, nil
		}
	}
	return nil, &ParseError{Snippet: snippet(out), Err: errors.New("no JSON listing payload found")}
}

func decodePayload(b []byte) ([]models.RawListing, bool) {
	dec := json.NewDecoder(bytes.NewReader(b))
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, false
	}

	var items []any
	switch t := v.(type) {
	case []any:
		items = t
	case map[string]any:
		for _, key := range []string{"properties", "listings"} {
			if arr, ok := t[key].([]any); ok {
				items = arr
				break
			}
		}
		if items == nil {
			return nil, false
		}
	default:
		return nil, false
	}

	listings := make([]models.RawListing, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			// Arrays of scalars are log preamble like "[1/3]", not payloads.
			if len(listings) == 0 && len(items) > 0 {
				return nil, false
			}
			continue
		}
		listings = append(listings, models.RawListing(obj))
	}
	return listings, true
}
