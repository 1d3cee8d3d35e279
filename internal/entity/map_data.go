package entity

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/punjabready/portal-api/internal/geo"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	MapTypePoint   = "point"
	MapTypePolygon = "polygon"
	MapTypeLine    = "line"
)

var (
	MapTypes      = []string{MapTypePoint, MapTypePolygon, MapTypeLine}
	MapCategories = []string{"healthcare", "education", "infrastructure", "agriculture", "transport", "administration", "other"}
)

// GeometryTypeFor returns the GeoJSON geometry type a feature kind must carry.
func GeometryTypeFor(kind string) string {
	switch kind {
	case MapTypePoint:
		return geo.TypePoint
	case MapTypePolygon:
		return geo.TypePolygon
	case MapTypeLine:
		return geo.TypeLineString
	}
	return ""
}

type MapData struct {
	ID          uuid.UUID                        `gorm:"type:uuid;primaryKey" json:"id"`
	Type        string                           `gorm:"size:10;not null;index" json:"type"`
	Title       string                           `gorm:"size:100;not null" json:"title"`
	Description string                           `gorm:"type:text" json:"description,omitempty"`
	Category    string                           `gorm:"size:30;not null;index:idx_map_data_category_district" json:"category"`
	Coordinates datatypes.JSONSlice[float64]     `json:"coordinates,omitempty"`
	Geometry    datatypes.JSONType[geo.Geometry] `gorm:"not null" json:"geometry"`
	Properties  datatypes.JSONMap                `json:"properties,omitempty"`
	District    string                           `gorm:"size:100;index:idx_map_data_category_district" json:"district,omitempty"`
	Tehsil      string                           `gorm:"size:100" json:"tehsil,omitempty"`
	Village     string                           `gorm:"size:100" json:"village,omitempty"`

	// Bounding envelope of Geometry, maintained on every write.
	MinLng float64 `gorm:"index:idx_map_data_envelope" json:"-"`
	MinLat float64 `gorm:"index:idx_map_data_envelope" json:"-"`
	MaxLng float64 `gorm:"index:idx_map_data_envelope" json:"-"`
	MaxLat float64 `gorm:"index:idx_map_data_envelope" json:"-"`

	CreatedByID uuid.UUID `gorm:"type:uuid;not null;index" json:"createdBy"`
	CreatedBy   User      `gorm:"foreignKey:CreatedByID" json:"-"`
	IsActive    bool      `gorm:"not null;index" json:"isActive"`
	CreatedAt   time.Time `gorm:"autoCreateTime;index" json:"createdAt"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (MapData) TableName() string {
	return "map_data"
}

func (m *MapData) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

// BeforeSave refreshes the envelope columns from the geometry.
func (m *MapData) BeforeSave(tx *gorm.DB) error {
	g := m.Geometry.Data()
	if want := GeometryTypeFor(m.Type); want != "" && g.Type != want {
		return fmt.Errorf("geometry type %s does not match feature type %s", g.Type, m.Type)
	}
	env, err := g.Envelope()
	if err != nil {
		return err
	}
	m.MinLng, m.MinLat, m.MaxLng, m.MaxLat = env.MinLng, env.MinLat, env.MaxLng, env.MaxLat
	return nil
}
