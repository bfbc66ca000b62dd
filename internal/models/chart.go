package models

import (
	"encoding/json"
	"fmt"
)

// ChartType is the rendering kind of a dashboard chart.
type ChartType string

const (
	ChartBar     ChartType = "bar"
	ChartLine    ChartType = "line"
	ChartPie     ChartType = "pie"
	ChartScatter ChartType = "scatter"
	ChartArea    ChartType = "area"
	ChartDonut   ChartType = "donut"
)

// Valid reports whether t is a supported chart type.
func (t ChartType) Valid() bool {
	switch t {
	case ChartBar, ChartLine, ChartPie, ChartScatter, ChartArea, ChartDonut:
		return true
	}
	return false
}

// Axis holds one or more column names. A single column encodes as a JSON string,
// several as an array.
type Axis []string

// MarshalJSON implements json.Marshaler.
func (a Axis) MarshalJSON() ([]byte, error) {
	if len(a) == 1 {
		return json.Marshal(a[0])
	}
	if a == nil {
		return []byte(`""`), nil
	}
	return json.Marshal([]string(a))
}

// UnmarshalJSON implements json.Unmarshaler.
func (a *Axis) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single == "" {
			*a = nil
		} else {
			*a = Axis{single}
		}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return fmt.Errorf("axis must be a string or a list of strings: %w", err)
	}
	*a = Axis(many)
	return nil
}

// ChartMeta records where a chart's data came from.
type ChartMeta struct {
	Rows         int    `json:"rows" msgpack:"rows"`
	Columns      int    `json:"columns" msgpack:"columns"`
	SourceFileID string `json:"source_file_id" msgpack:"source_file_id"`
}

// ChartConfig is one chart on the user's dashboard. ID is its identity.
type ChartConfig struct {
	ID          string     `json:"id" msgpack:"id"`
	Type        ChartType  `json:"type" msgpack:"type"`
	Title       string     `json:"title" msgpack:"title"`
	Description string     `json:"description" msgpack:"description"`
	XAxis       string     `json:"xAxis" msgpack:"xAxis"`
	YAxis       Axis       `json:"yAxis" msgpack:"yAxis"`
	Colors      []string   `json:"colors" msgpack:"colors"`
	Data        []Row      `json:"data" msgpack:"data"`
	IsLoading   bool       `json:"isLoading,omitempty" msgpack:"isLoading,omitempty"`
	Error       string     `json:"error,omitempty" msgpack:"error,omitempty"`
	Meta        *ChartMeta `json:"meta,omitempty" msgpack:"meta,omitempty"`
}

// Validate checks the fields every chart must carry.
func (c ChartConfig) Validate() error {
	if c.ID == "" {
		return fmt.Errorf("chart id is required")
	}
	if !c.Type.Valid() {
		return fmt.Errorf("chart %s: unsupported type %q", c.ID, c.Type)
	}
	return nil
}

// ChartPatch is a partial update for a chart. Nil fields are left unchanged.
type ChartPatch struct {
	Type        *ChartType
	Title       *string
	Description *string
	XAxis       *string
	YAxis       *Axis
	Colors      *[]string
	Data        *[]Row
	IsLoading   *bool
	Error       *string
	Meta        *ChartMeta
}

// Apply returns c with every non-nil field of p copied over it.
func (p ChartPatch) Apply(c ChartConfig) ChartConfig {
	if p.Type != nil {
		c.Type = *p.Type
	}
	if p.Title != nil {
		c.Title = *p.Title
	}
	if p.Description != nil {
		c.Description = *p.Description
	}
	if p.XAxis != nil {
		c.XAxis = *p.XAxis
	}
	if p.YAxis != nil {
		c.YAxis = *p.YAxis
	}
	if p.Colors != nil {
		c.Colors = *p.Colors
	}
	if p.Data != nil {
		c.Data = *p.Data
	}
	if p.IsLoading != nil {
		c.IsLoading = *p.IsLoading
	}
	if p.Error != nil {
		c.Error = *p.Error
	}
	if p.Meta != nil {
		m := *p.Meta
		c.Meta = &m
	}
	return c
}

// LayoutItem is a grid position correlated with a chart by ChartID.
// Entries for removed charts may linger and must be ignored by consumers.
type LayoutItem struct {
	ChartID string `json:"i" msgpack:"i"`
	X       int    `json:"x" msgpack:"x"`
	Y       int    `json:"y" msgpack:"y"`
	W       int    `json:"w" msgpack:"w"`
	H       int    `json:"h" msgpack:"h"`
}
