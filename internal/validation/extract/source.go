package extract

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/complyflow/complyflow-backend/internal/validation/domain"
)

const maxDocumentSize = 20 << 20 // 20MB

var (
	pdfMagic = []byte("%PDF")

	driveFileRe = regexp.MustCompile(`drive\.google\.com/file/d/([^/?#]+)`)
	driveOpenRe = regexp.MustCompile(`drive\.google\.com/open\?id=([^&#]+)`)
)

// Fetcher turns a DocumentInput into raw image bytes: inline base64 is
// decoded, URLs are downloaded, Google Drive share links are rewritten to
// their direct-download form, and PDFs are reduced to their first embedded
// JPEG before extraction.
type Fetcher struct {
	httpClient *http.Client
}

// NewFetcher creates a document fetcher with the given download timeout.
func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Fetcher{
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Fetch resolves the document input to raw bytes.
func (f *Fetcher) Fetch(ctx context.Context, in domain.DocumentInput) ([]byte, error) {
	var data []byte
	var err error

	switch {
	case in.Data != "":
		data, err = decodeBase64(in.Data)
		if err != nil {
			return nil, fmt.Errorf("fetch: decode inline data: %w", err)
		}
	case in.URL != "":
		data, err = f.download(ctx, RewriteDriveURL(in.URL))
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("fetch: empty document input")
	}

	if bytes.HasPrefix(data, pdfMagic) {
		img, ok := firstEmbeddedJPEG(data)
		if !ok {
			return nil, fmt.Errorf("fetch: PDF contains no embedded JPEG image")
		}
		return img, nil
	}

	return data, nil
}

func (f *Fetcher) download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch: create request: %w", err)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch: download returned %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize+1))
	if err != nil {
		return nil, fmt.Errorf("fetch: read body: %w", err)
	}
	if len(data) > maxDocumentSize {
		return nil, fmt.Errorf("fetch: document exceeds %d bytes", maxDocumentSize)
	}
	return data, nil
}

func decodeBase64(s string) ([]byte, error) {
	// Tolerate data URI prefixes and missing padding.
	if idx := strings.Index(s, ","); idx >= 0 && strings.HasPrefix(s, "data:") {
		s = s[idx+1:]
	}
	s = strings.TrimSpace(s)
	if data, err := base64.StdEncoding.DecodeString(s); err == nil {
		return data, nil
	}
	return base64.RawStdEncoding.DecodeString(s)
}

// RewriteDriveURL converts Google Drive share links into the direct
// download form. Other URLs pass through unchanged.
func RewriteDriveURL(url string) string {
	if m := driveFileRe.FindStringSubmatch(url); m != nil {
		return "https://drive.google.com/uc?export=download&id=" + m[1]
	}
	if m := driveOpenRe.FindStringSubmatch(url); m != nil {
		return "https://drive.google.com/uc?export=download&id=" + m[1]
	}
	return url
}

// firstEmbeddedJPEG scans a PDF for its first DCTDecode (JPEG) stream and
// returns the raw JPEG bytes. This is the only PDF handling the service
// does; vector-only PDFs are rejected upstream.
func firstEmbeddedJPEG(pdf []byte) ([]byte, bool) {
	start := bytes.Index(pdf, jpegMagic)
	if start < 0 {
		return nil, false
	}
	// JPEG ends with the EOI marker FFD9.
	end := bytes.Index(pdf[start:], []byte{0xFF, 0xD9})
	if end < 0 {
		return nil, false
	}
	return pdf[start : start+end+2], true
}

// ContentHash returns the hex MD5 of the raw document bytes. Used for
// duplicate-image detection across document slots.
func ContentHash(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}
