package testutil

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// Facet is one STL triangle, three vertices of x/y/z coordinates.
type Facet [3][3]float32

// BinarySTL builds a minimal binary STL document from the given facets.
func BinarySTL(facets []Facet) []byte {
	buf := &bytes.Buffer{}
	buf.Write(make([]byte, 80))
	binary.Write(buf, binary.LittleEndian, uint32(len(facets)))
	for _, f := range facets {
		// zero normal
		buf.Write(make([]byte, 12))
		for _, v := range f {
			for _, coord := range v {
				binary.Write(buf, binary.LittleEndian, math.Float32bits(coord))
			}
		}
		// attribute byte count
		buf.Write([]byte{0, 0})
	}
	return buf.Bytes()
}

// ASCIISTL builds a minimal ASCII STL document from the given facets.
func ASCIISTL(facets []Facet) []byte {
	buf := &bytes.Buffer{}
	fmt.Fprintln(buf, "solid fixture")
	for _, f := range facets {
		fmt.Fprintln(buf, "  facet normal 0 0 0")
		fmt.Fprintln(buf, "    outer loop")
		for _, v := range f {
			fmt.Fprintf(buf, "      vertex %g %g %g\n", v[0], v[1], v[2])
		}
		fmt.Fprintln(buf, "    endloop")
		fmt.Fprintln(buf, "  endfacet")
	}
	fmt.Fprintln(buf, "endsolid fixture")
	return buf.Bytes()
}

// UnitTetrahedron returns four facets spanning a 10x10x10 mm bounding box.
func UnitTetrahedron() []Facet {
	a := [3]float32{0, 0, 0}
	b := [3]float32{10, 0, 0}
	c := [3]float32{0, 10, 0}
	d := [3]float32{0, 0, 10}
	return []Facet{
		{a, b, c},
		{a, b, d},
		{a, c, d},
		{b, c, d},
	}
}
