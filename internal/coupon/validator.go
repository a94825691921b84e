package coupon

import (
	"bufio"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"golang.org/x/sync/errgroup"
)

const (
	defaultMinMatches = 2
	falsePositiveRate = 0.001
	ctxCheckLines     = 4096
)

var gzipMagic = []byte{0x1f, 0x8b}

// AllowAll accepts every coupon code. It is used when no coupon lists are
// configured.
type AllowAll struct{}

func (AllowAll) IsValid(ctx context.Context, code string) bool { return true }

// Validator accepts a coupon code only when it appears in at least
// minMatches of the loaded coupon lists.
type Validator struct {
	couponSets []*couponSet
	minMatches int
	client     *http.Client
	mu         sync.RWMutex
}

// couponSet represents a set of coupons loaded from a single file. The bloom
// filter answers most misses without touching the map.
type couponSet struct {
	filter  *bloom.BloomFilter
	coupons map[string]struct{}
}

func (s *couponSet) contains(code string) bool {
	if !s.filter.TestString(code) {
		return false
	}
	_, ok := s.coupons[code]
	return ok
}

// Option configures a Validator.
type Option func(*Validator)

// WithMinMatches sets how many lists must contain a code for it to be valid.
func WithMinMatches(n int) Option {
	return func(v *Validator) {
		if n > 0 {
			v.minMatches = n
		}
	}
}

// WithHTTPClient replaces the client used by LoadFromURLs.
func WithHTTPClient(c *http.Client) Option {
	return func(v *Validator) {
		if c != nil {
			v.client = c
		}
	}
}

// NewValidator creates a new coupon validator
func NewValidator(opts ...Option) *Validator {
	v := &Validator{
		couponSets: make([]*couponSet, 0),
		minMatches: defaultMinMatches,
		// large lists take a while to download
		client: &http.Client{Timeout: 5 * time.Minute},
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// LoadFromURLs downloads coupon lists concurrently and replaces the loaded
// sets. Gzip and plain text bodies are both accepted. Nothing is replaced if
// any download fails.
func (v *Validator) LoadFromURLs(ctx context.Context, urls []string) error {
	if len(urls) == 0 {
		return fmt.Errorf("no URLs provided")
	}
	return v.load(ctx, urls, v.loadFromURL)
}

// LoadFromFiles is LoadFromURLs for local files.
func (v *Validator) LoadFromFiles(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return fmt.Errorf("no file paths provided")
	}
	return v.load(ctx, paths, loadFromFile)
}

func (v *Validator) load(ctx context.Context, sources []string, fetch func(context.Context, string) (*couponSet, error)) error {
	sets := make([]*couponSet, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	for i, src := range sources {
		g.Go(func() error {
			set, err := fetch(gctx, src)
			if err != nil {
				return fmt.Errorf("failed to load file %d: %w", i+1, err)
			}
			sets[i] = set
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	v.couponSets = sets
	return nil
}

// loadFromURL downloads and parses a coupon file from a URL
func (v *Validator) loadFromURL(ctx context.Context, url string) (*couponSet, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := v.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	return parseCouponStream(ctx, resp.Body)
}

func loadFromFile(ctx context.Context, path string) (*couponSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	return parseCouponStream(ctx, f)
}

// parseCouponStream reads one coupon per line, transparently gunzipping the
// stream when it starts with the gzip magic bytes.
func parseCouponStream(ctx context.Context, r io.Reader) (*couponSet, error) {
	br := bufio.NewReader(r)

	var src io.Reader = br
	if head, err := br.Peek(2); err == nil && head[0] == gzipMagic[0] && head[1] == gzipMagic[1] {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		defer gz.Close()
		src = gz
	}

	coupons, err := parseCoupons(ctx, src)
	if err != nil {
		return nil, err
	}

	filter := bloom.NewWithEstimates(uint(max(len(coupons), 1)), falsePositiveRate)
	for code := range coupons {
		filter.AddString(code)
	}
	return &couponSet{filter: filter, coupons: coupons}, nil
}

// parseCoupons reads coupons from a reader and returns them as a set. The
// context is checked every ctxCheckLines lines.
func parseCoupons(ctx context.Context, r io.Reader) (map[string]struct{}, error) {
	coupons := make(map[string]struct{})
	scanner := bufio.NewScanner(r)

	for n := 0; scanner.Scan(); n++ {
		if n%ctxCheckLines == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		line := strings.TrimSpace(scanner.Text())
		if line != "" {
			coupons[line] = struct{}{}
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}

	return coupons, nil
}

// IsValid reports whether code appears in at least minMatches loaded lists.
// With no lists loaded every code is invalid.
func (v *Validator) IsValid(ctx context.Context, code string) bool {
	if code == "" {
		return false
	}

	v.mu.RLock()
	defer v.mu.RUnlock()

	count := 0
	for _, set := range v.couponSets {
		if ctx.Err() != nil {
			return false
		}
		if set.contains(code) {
			count++
			if count >= v.minMatches {
				return true
			}
		}
	}
	return false
}

// Stats describes the loaded coupon lists.
type Stats struct {
	TotalFiles   int   `json:"total_files"`
	FileSizes    []int `json:"file_sizes"`
	TotalCoupons int   `json:"total_coupons"`
	MinMatches   int   `json:"min_matches"`
}

// GetStats returns statistics about loaded coupons
func (v *Validator) GetStats() Stats {
	v.mu.RLock()
	defer v.mu.RUnlock()

	stats := Stats{
		TotalFiles: len(v.couponSets),
		FileSizes:  make([]int, len(v.couponSets)),
		MinMatches: v.minMatches,
	}
	for i, cs := range v.couponSets {
		stats.FileSizes[i] = len(cs.coupons)
		stats.TotalCoupons += len(cs.coupons)
	}
	return stats
}
