package collector

import (
	"context"
	"errors"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hmo-finder/models"
	"hmo-finder/utils"
)

var testRequest = models.SearchRequest{City: "Liverpool", MinBedrooms: 4, MaxPrice: 400000, Keywords: "HMO"}

// shellCollector runs script under /bin/sh; the request arrives as $1..$4.
func shellCollector(t *testing.T, script string, timeout time.Duration) *Collector {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("collector tests need /bin/sh")
	}
	return New(Options{Command: "/bin/sh", Args: []string{"-c", script, "collector"}, Timeout: timeout}, utils.NewNopLogger())
}

func TestCollectParsesArrayAfterPreamble(t *testing.T) {
	c := shellCollector(t, `echo "[INFO] searching $1 for $2+ beds under $3 ($4)"
echo 'Found 2 properties'
echo '[{"address":"12 Smithdown Road, Liverpool","price":"£250,000","bedrooms":4},{"address":"45 Lodge Lane, Liverpool","price":300000}]'`, 5*time.Second)

	got, err := c.Collect(context.Background(), testRequest)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "12 Smithdown Road, Liverpool", got[0].String("address"))
	assert.Equal(t, "£250,000", got[0].String("price"))
	assert.Equal(t, "300000", got[1].String("price"))
}

func TestCollectPassesRequestAsArguments(t *testing.T) {
	c := shellCollector(t, `printf '[{"city":"%s","rooms":"%s","max":"%s","kw":"%s"}]' "$1" "$2" "$3" "$4"`, 5*time.Second)

	got, err := c.Collect(context.Background(), testRequest)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Liverpool", got[0].String("city"))
	assert.Equal(t, "4", got[0].String("rooms"))
	assert.Equal(t, "400000", got[0].String("max"))
	assert.Equal(t, "HMO", got[0].String("kw"))
}

func TestCollectAcceptsWrappedObject(t *testing.T) {
	c := shellCollector(t, `echo '{"source":"zoopla","properties":[{"address":"7 Penny Lane, Liverpool"}]}'`, 5*time.Second)

	got, err := c.Collect(context.Background(), testRequest)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "7 Penny Lane, Liverpool", got[0].String("address"))
}

func TestCollectEmptyArray(t *testing.T) {
	c := shellCollector(t, `echo '[]'`, 5*time.Second)

	got, err := c.Collect(context.Background(), testRequest)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCollectNonZeroExit(t *testing.T) {
	c := shellCollector(t, `echo 'blocked by captcha' >&2; exit 3`, 5*time.Second)

	_, err := c.Collect(context.Background(), testRequest)
	var cerr *CollectionError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, 3, cerr.ExitCode)
	assert.False(t, cerr.Timeout)
	assert.Contains(t, cerr.Stderr, "blocked by captcha")
}

func TestCollectMalformedOutput(t *testing.T) {
	c := shellCollector(t, `echo 'no results today'`, 5*time.Second)

	_, err := c.Collect(context.Background(), testRequest)
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, perr.Snippet, "no results today")
}

func TestCollectTimeoutKillsChild(t *testing.T) {
	c := shellCollector(t, `exec sleep 5`, 200*time.Millisecond)

	start := time.Now()
	_, err := c.Collect(context.Background(), testRequest)
	elapsed := time.Since(start)

	var cerr *CollectionError
	require.ErrorAs(t, err, &cerr)
	assert.True(t, cerr.Timeout)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assert.Less(t, elapsed, 4*time.Second)
}

func TestCollectCancelledByCaller(t *testing.T) {
	c := shellCollector(t, `exec sleep 5`, 10*time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancel)

	start := time.Now()
	_, err := c.Collect(ctx, testRequest)

	var cerr *CollectionError
	require.ErrorAs(t, err, &cerr)
	assert.False(t, cerr.Timeout)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Less(t, time.Since(start), 4*time.Second)
}

func TestCollectMissingCommand(t *testing.T) {
	c := New(Options{Command: "/nonexistent/collector"}, utils.NewNopLogger())

	_, err := c.Collect(context.Background(), testRequest)
	var cerr *CollectionError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "start", cerr.Op)
}

func TestParseOutput(t *testing.T) {
	tests := []struct {
		name    string
		out     string
		want    int
		wantErr bool
	}{
		{"bare array", `[{"a":1},{"a":2}]`, 2, false},
		{"bracketed log prefix", "[1] warming up\n[{\"a\":1}]", 1, false},
		{"trailing text", "[{\"a\":1}]\ndone", 1, false},
		{"listings key", `{"listings":[{"a":1}]}`, 1, false},
		{"object without array", `{"status":"ok"}`, 0, true},
		{"empty", "", 0, true},
		{"truncated", `[{"a":1},`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseOutput([]byte(tt.out))
			if tt.wantErr {
				var perr *ParseError
				assert.ErrorAs(t, err, &perr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, got, tt.want)
		})
	}
}
