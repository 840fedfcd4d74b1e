package render

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"sync"

	"github.com/srwiley/oksvg"
	"github.com/srwiley/rasterx"
)

type iconKind int

const (
	iconPoison iconKind = iota
	iconTreasure
	iconGhost
	iconSkull
)

var iconSources = map[iconKind]string{
	iconPoison: `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 24 24">
<path d="M12 2 C9 7 5 11 5 15 C5 19 8 22 12 22 C16 22 19 19 19 15 C19 11 15 7 12 2 Z" style="fill: #6fcf57; stroke: #2f6b23" stroke-width="1.5"/>
</svg>`,
	iconTreasure: `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 24 24">
<circle cx="12" cy="12" r="9.5" style="fill: #f2c94c; stroke: #a8781a" stroke-width="2"/>
<circle cx="12" cy="12" r="5" style="fill: #f7dc7a"/>
</svg>`,
	iconGhost: `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 24 24">
<path d="M5 22 L5 10 C5 5 8 2 12 2 C16 2 19 5 19 10 L19 22 L16 19 L14 22 L12 19 L10 22 L8 19 Z" style="fill: #d9dcf0"/>
<circle cx="9.5" cy="10" r="1.6" style="fill: #1c1f2e"/>
<circle cx="14.5" cy="10" r="1.6" style="fill: #1c1f2e"/>
</svg>`,
	iconSkull: `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 24 24">
<path d="M12 2 C6.5 2 3 6 3 10.5 C3 13.5 4.5 15.5 7 16.5 L7 21 L17 21 L17 16.5 C19.5 15.5 21 13.5 21 10.5 C21 6 17.5 2 12 2 Z" style="fill: #b4b8c8"/>
<circle cx="8.5" cy="11" r="2.2" style="fill: #1c1f2e"/>
<circle cx="15.5" cy="11" r="2.2" style="fill: #1c1f2e"/>
</svg>`,
}

type iconCacheKey struct {
	kind iconKind
	size int
}

var (
	iconCache   = map[iconCacheKey]image.Image{}
	iconCacheMu sync.RWMutex
)

func renderIcon(kind iconKind, size int) (image.Image, error) {
	key := iconCacheKey{kind: kind, size: size}

	iconCacheMu.RLock()
	if img, ok := iconCache[key]; ok {
		iconCacheMu.RUnlock()
		return img, nil
	}
	iconCacheMu.RUnlock()

	src, ok := iconSources[kind]
	if !ok {
		return nil, fmt.Errorf("unknown icon %d", kind)
	}
	icon, err := oksvg.ReadIconStream(bytes.NewReader(sanitizeSVG([]byte(src))))
	if err != nil {
		return nil, fmt.Errorf("parse icon svg: %w", err)
	}
	if icon.ViewBox.W <= 0 {
		icon.ViewBox.W = float64(size)
	}
	if icon.ViewBox.H <= 0 {
		icon.ViewBox.H = float64(size)
	}
	icon.SetTarget(0, 0, float64(size), float64(size))

	img := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Transparent), image.Point{}, draw.Src)

	scanner := rasterx.NewScannerGV(size, size, img, img.Bounds())
	raster := rasterx.NewDasher(size, size, scanner)
	icon.Draw(raster, 1.0)

	iconCacheMu.Lock()
	iconCache[key] = img
	iconCacheMu.Unlock()

	return img, nil
}

// sanitizeSVG normalises inline style declarations oksvg cannot parse.
func sanitizeSVG(svg []byte) []byte {
	fixed := bytes.ReplaceAll(svg, []byte("fill: #"), []byte("fill:#"))
	fixed = bytes.ReplaceAll(fixed, []byte("stroke: #"), []byte("stroke:#"))
	fixed = bytes.ReplaceAll(fixed, []byte("; "), []byte(";"))
	return fixed
}
