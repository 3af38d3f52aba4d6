package extract

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"strconv"
	"time"

	"github.com/complyflow/complyflow-backend/internal/validation/domain"
)

// PhotoAssessor is the fallback for photo-like slots when the vision
// service is unavailable or rejects the image. It produces no text fields;
// it scores sharpness, brightness and framing from the decoded pixels so
// the clarity rules can still run.
type PhotoAssessor struct{}

// NewPhotoAssessor creates the fallback photo quality assessor.
func NewPhotoAssessor() *PhotoAssessor { return &PhotoAssessor{} }

func (a *PhotoAssessor) Name() string { return "photo-assessor" }

func (a *PhotoAssessor) CanExtract(slot string) bool { return isPhotoSlot(slot) }

const (
	minPhotoDim   = 200
	minBrightness = 50.0
	maxBrightness = 200.0
	minAspect     = 0.7
	maxAspect     = 1.3
)

func (a *PhotoAssessor) Extract(ctx context.Context, data []byte, slot string) (*domain.ExtractionResult, error) {
	start := time.Now()

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("photo: decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w < 3 || h < 3 {
		return nil, fmt.Errorf("photo: image too small to assess (%dx%d)", w, h)
	}

	gray := grayscale(img)
	variance := laplacianVariance(gray, w, h)
	brightness := mean(gray)
	clarity := clarityBand(variance)

	var warnings []string
	if brightness < minBrightness || brightness > maxBrightness {
		warnings = append(warnings, fmt.Sprintf("brightness %.0f outside acceptable range", brightness))
		if clarity > 0.6 {
			clarity = 0.6
		}
	}
	if w < minPhotoDim || h < minPhotoDim {
		warnings = append(warnings, fmt.Sprintf("image resolution %dx%d below minimum %dx%d", w, h, minPhotoDim, minPhotoDim))
	}
	aspect := float64(h) / float64(w)
	if aspect < minAspect || aspect > maxAspect {
		warnings = append(warnings, fmt.Sprintf("aspect ratio %.2f outside portrait range", aspect))
	}

	return &domain.ExtractionResult{
		Slot:         slot,
		Status:       domain.ExtractionOK,
		ClarityScore: clarity,
		Method:       domain.MethodPhotoFallback,
		Fields: map[string]string{
			"width":  strconv.Itoa(w),
			"height": strconv.Itoa(h),
		},
		Warnings:         warnings,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
	}, nil
}

// grayscale flattens the image into a row-major luminance buffer.
func grayscale(img image.Image) []float64 {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	buf := make([]float64, w*h)
	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			// ITU-R BT.601 luma, scaled from 16-bit channels to 0..255.
			buf[i] = (0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)) / 257.0
			i++
		}
	}
	return buf
}

// laplacianVariance measures sharpness: blurry images have a flat
// Laplacian response, crisp edges a high-variance one.
func laplacianVariance(gray []float64, w, h int) float64 {
	n := (w - 2) * (h - 2)
	if n <= 0 {
		return 0
	}

	responses := make([]float64, 0, n)
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			c := gray[y*w+x]
			lap := 4*c - gray[(y-1)*w+x] - gray[(y+1)*w+x] - gray[y*w+x-1] - gray[y*w+x+1]
			responses = append(responses, lap)
		}
	}

	m := 0.0
	for _, v := range responses {
		m += v
	}
	m /= float64(len(responses))

	variance := 0.0
	for _, v := range responses {
		d := v - m
		variance += d * d
	}
	return variance / float64(len(responses))
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	s := 0.0
	for _, v := range vals {
		s += v
	}
	return s / float64(len(vals))
}

// clarityBand maps Laplacian variance onto the 0.1-0.9 clarity scale the
// rules expect from the vision service.
func clarityBand(variance float64) float64 {
	switch {
	case variance >= 500:
		return 0.9
	case variance >= 300:
		return 0.8
	case variance >= 150:
		return 0.7
	case variance >= 80:
		return 0.5
	case variance >= 30:
		return 0.3
	default:
		return 0.1
	}
}
