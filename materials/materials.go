// Package materials is the static catalog of recyclable material types.
package materials

// Material describes how one material type is presented and scored.
type Material struct {
	Type   string `json:"type"`
	Name   string `json:"name"`
	Color  string `json:"color"`
	Icon   string `json:"icon"`
	Points int    `json:"points"`
}

var catalog = map[string]Material{
	"paper":   {Type: "paper", Name: "Paper", Color: "#00D1FF", Icon: "📄", Points: 50},
	"glass":   {Type: "glass", Name: "Glass", Color: "#00FF84", Icon: "🍾", Points: 100},
	"metal":   {Type: "metal", Name: "Metal", Color: "#FFD600", Icon: "🥫", Points: 60},
	"plastic": {Type: "plastic", Name: "Plastic", Color: "#FF6B00", Icon: "🥤", Points: 75},
}

// Fallback presentation for unknown types, matching the paper palette.
var defaultMaterial = Material{Name: "Recyclable", Color: "#00D1FF", Icon: "♻️", Points: 50}

// Known reports whether materialType is part of the catalog.
func Known(materialType string) bool {
	_, ok := catalog[materialType]
	return ok
}

// Lookup returns the catalog entry for materialType, or a generic
// fallback entry when the type is unknown.
func Lookup(materialType string) Material {
	if m, ok := catalog[materialType]; ok {
		return m
	}
	m := defaultMaterial
	m.Type = materialType
	return m
}

// Points returns the point value awarded for collecting materialType.
func Points(materialType string) int {
	return Lookup(materialType).Points
}

// Types lists the catalog keys.
func Types() []string {
	return []string{"paper", "glass", "metal", "plastic"}
}
