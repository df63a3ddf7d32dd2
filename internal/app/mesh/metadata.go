package mesh

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"

	"printforge/internal/app/model"
)

const binaryHeaderSize = 84
const binaryFacetSize = 50

// ExtractMetadata parses an STL model (binary or ASCII) and returns vertex
// and face counts plus the bounding dimensions in millimeters.
func ExtractMetadata(data []byte) (*model.ModelMetadata, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty model data")
	}
	if isASCII(data) {
		return extractASCII(data)
	}
	return extractBinary(data)
}

// EstimatePrintMinutes derives a rough print duration from the bounding
// volume and the chosen layer height. It feeds the job status payload's
// estimated completion; the print service later reports the real figure.
func EstimatePrintMinutes(meta *model.ModelMetadata, layerHeightMM float64) int {
	if meta == nil || layerHeightMM <= 0 {
		return 0
	}
	layers := meta.HeightMM / layerHeightMM
	areaCM2 := (meta.WidthMM * meta.DepthMM) / 100.0
	// ~6 seconds per layer per cm^2 of cross-section at default speeds
	minutes := int(math.Ceil(layers * areaCM2 * 6.0 / 60.0))
	if minutes < 1 {
		minutes = 1
	}
	return minutes
}

func isASCII(data []byte) bool {
	head := data
	if len(head) > 6 {
		head = head[:6]
	}
	if !bytes.HasPrefix(bytes.TrimLeft(head, " \t"), []byte("solid")) {
		return false
	}
	// A binary STL may also start with "solid"; trust the facet math instead.
	if len(data) >= binaryHeaderSize {
		count := binary.LittleEndian.Uint32(data[80:84])
		if int(count)*binaryFacetSize+binaryHeaderSize == len(data) {
			return false
		}
	}
	return true
}

func extractBinary(data []byte) (*model.ModelMetadata, error) {
	if len(data) < binaryHeaderSize {
		return nil, fmt.Errorf("binary STL too short: %d bytes", len(data))
	}
	count := binary.LittleEndian.Uint32(data[80:84])
	expected := binaryHeaderSize + int(count)*binaryFacetSize
	if len(data) < expected {
		return nil, fmt.Errorf("binary STL truncated: expected %d bytes, got %d", expected, len(data))
	}

	bounds := newBoundsTracker()
	vertices := make(map[[3]float32]struct{})

	offset := binaryHeaderSize
	for i := 0; i < int(count); i++ {
		// skip the normal vector, read the three vertices
		v := offset + 12
		for j := 0; j < 3; j++ {
			x := math.Float32frombits(binary.LittleEndian.Uint32(data[v:]))
			y := math.Float32frombits(binary.LittleEndian.Uint32(data[v+4:]))
			z := math.Float32frombits(binary.LittleEndian.Uint32(data[v+8:]))
			vertices[[3]float32{x, y, z}] = struct{}{}
			bounds.add(float64(x), float64(y), float64(z))
			v += 12
		}
		offset += binaryFacetSize
	}

	return buildMetadata(len(vertices), int(count), bounds)
}

func extractASCII(data []byte) (*model.ModelMetadata, error) {
	bounds := newBoundsTracker()
	vertices := make(map[[3]float32]struct{})
	faces := 0

	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "facet") {
			faces++
			continue
		}
		if !strings.HasPrefix(line, "vertex") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 4 {
			return nil, fmt.Errorf("malformed vertex line: %q", line)
		}
		var coords [3]float64
		for i := 0; i < 3; i++ {
			f, err := strconv.ParseFloat(fields[i+1], 64)
			if err != nil {
				return nil, fmt.Errorf("malformed vertex coordinate %q: %w", fields[i+1], err)
			}
			coords[i] = f
		}
		vertices[[3]float32{float32(coords[0]), float32(coords[1]), float32(coords[2])}] = struct{}{}
		bounds.add(coords[0], coords[1], coords[2])
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan ASCII STL: %w", err)
	}

	return buildMetadata(len(vertices), faces, bounds)
}

func buildMetadata(vertexCount, faceCount int, b *boundsTracker) (*model.ModelMetadata, error) {
	if faceCount == 0 {
		return nil, fmt.Errorf("model contains no faces")
	}
	return &model.ModelMetadata{
		VertexCount: vertexCount,
		FaceCount:   faceCount,
		WidthMM:     b.maxX - b.minX,
		DepthMM:     b.maxY - b.minY,
		HeightMM:    b.maxZ - b.minZ,
	}, nil
}

type boundsTracker struct {
	minX, minY, minZ float64
	maxX, maxY, maxZ float64
}

func newBoundsTracker() *boundsTracker {
	inf := math.Inf(1)
	return &boundsTracker{minX: inf, minY: inf, minZ: inf, maxX: -inf, maxY: -inf, maxZ: -inf}
}

func (b *boundsTracker) add(x, y, z float64) {
	b.minX = math.Min(b.minX, x)
	b.minY = math.Min(b.minY, y)
	b.minZ = math.Min(b.minZ, z)
	b.maxX = math.Max(b.maxX, x)
	b.maxY = math.Max(b.maxY, y)
	b.maxZ = math.Max(b.maxZ, z)
}
