package materials

import (
	"testing"
)

func TestLookup(t *testing.T) {
	testCases := []struct {
		materialType string
		expectName   string
		expectColor  string
		expectPoints int
	}{
		{"paper", "Paper", "#00D1FF", 50},
		{"glass", "Glass", "#00FF84", 100},
		{"metal", "Metal", "#FFD600", 60},
		{"plastic", "Plastic", "#FF6B00", 75},
	}

	for _, testCase := range testCases {
		m := Lookup(testCase.materialType)
		if m.Name != testCase.expectName {
			t.Errorf("%s: expected name %s, got %s", testCase.materialType, testCase.expectName, m.Name)
		}
		if m.Color != testCase.expectColor {
			t.Errorf("%s: expected color %s, got %s", testCase.materialType, testCase.expectColor, m.Color)
		}
		if m.Points != testCase.expectPoints {
			t.Errorf("%s: expected %d points, got %d", testCase.materialType, testCase.expectPoints, m.Points)
		}
		if !Known(testCase.materialType) {
			t.Errorf("%s: expected Known to be true", testCase.materialType)
		}
	}
}

func TestLookupUnknownType(t *testing.T) {
	if Known("styrofoam") {
		t.Error("expected styrofoam to be unknown")
	}

	m := Lookup("styrofoam")
	if m.Type != "styrofoam" {
		t.Errorf("fallback should keep the requested type, got %s", m.Type)
	}
	if m.Name != "Recyclable" || m.Points != 50 {
		t.Errorf("unexpected fallback entry: %+v", m)
	}
}

func TestTypesCoverCatalog(t *testing.T) {
	for _, typ := range Types() {
		if !Known(typ) {
			t.Errorf("Types lists unknown type %s", typ)
		}
	}
}
