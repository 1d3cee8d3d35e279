// Package geo holds the GeoJSON-shaped geometry stored with map features
// and the planar containment checks used by bounding-box queries.
package geo

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

const (
	TypePoint      = "Point"
	TypeLineString = "LineString"
	TypePolygon    = "Polygon"
)

// Position is a [longitude, latitude] pair.
type Position [2]float64

func (p Position) Lng() float64 { return p[0] }
func (p Position) Lat() float64 { return p[1] }

// Geometry is a GeoJSON geometry limited to Point, LineString and Polygon.
type Geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// NewPoint builds a Point geometry.
func NewPoint(lng, lat float64) Geometry {
	raw, _ := json.Marshal([]float64{lng, lat})
	return Geometry{Type: TypePoint, Coordinates: raw}
}

// NewLineString builds a LineString geometry.
func NewLineString(positions ...Position) Geometry {
	raw, _ := json.Marshal(positions)
	return Geometry{Type: TypeLineString, Coordinates: raw}
}

// NewPolygon builds a Polygon geometry from its rings.
func NewPolygon(rings ...[]Position) Geometry {
	raw, _ := json.Marshal(rings)
	return Geometry{Type: TypePolygon, Coordinates: raw}
}

// Positions validates the coordinates against the geometry type and
// returns every vertex.
func (g Geometry) Positions() ([]Position, error) {
	if len(g.Coordinates) == 0 {
		return nil, errors.New("geometry coordinates are required")
	}

	var out []Position
	switch g.Type {
	case TypePoint:
		var p []float64
		if err := json.Unmarshal(g.Coordinates, &p); err != nil || len(p) < 2 {
			return nil, errors.New("point coordinates must be [longitude, latitude]")
		}
		out = []Position{{p[0], p[1]}}
	case TypeLineString:
		line, err := decodePositions(g.Coordinates)
		if err != nil {
			return nil, fmt.Errorf("line coordinates: %w", err)
		}
		if len(line) < 2 {
			return nil, errors.New("line must have at least 2 positions")
		}
		out = line
	case TypePolygon:
		var rings []json.RawMessage
		if err := json.Unmarshal(g.Coordinates, &rings); err != nil || len(rings) == 0 {
			return nil, errors.New("polygon coordinates must be an array of rings")
		}
		for i, raw := range rings {
			ring, err := decodePositions(raw)
			if err != nil {
				return nil, fmt.Errorf("polygon ring %d: %w", i, err)
			}
			if len(ring) < 4 {
				return nil, fmt.Errorf("polygon ring %d must have at least 4 positions", i)
			}
			if ring[0] != ring[len(ring)-1] {
				return nil, fmt.Errorf("polygon ring %d must be closed", i)
			}
			out = append(out, ring...)
		}
	default:
		return nil, fmt.Errorf("unsupported geometry type %q", g.Type)
	}

	for _, p := range out {
		if !validPosition(p) {
			return nil, fmt.Errorf("position [%g, %g] is out of range", p[0], p[1])
		}
	}
	return out, nil
}

// Validate reports whether the geometry is well formed.
func (g Geometry) Validate() error {
	_, err := g.Positions()
	return err
}

// Envelope returns the bounding box of the geometry.
func (g Geometry) Envelope() (Envelope, error) {
	positions, err := g.Positions()
	if err != nil {
		return Envelope{}, err
	}
	return EnvelopeOf(positions), nil
}

func decodePositions(raw json.RawMessage) ([]Position, error) {
	var arr [][]float64
	if err := json.Unmarshal(raw, &arr); err != nil {
		return nil, errors.New("expected an array of [longitude, latitude] positions")
	}
	out := make([]Position, 0, len(arr))
	for _, p := range arr {
		if len(p) < 2 {
			return nil, errors.New("each position needs longitude and latitude")
		}
		out = append(out, Position{p[0], p[1]})
	}
	return out, nil
}

func validPosition(p Position) bool {
	return !math.IsNaN(p[0]) && !math.IsNaN(p[1]) &&
		p[0] >= -180 && p[0] <= 180 &&
		p[1] >= -90 && p[1] <= 90
}
