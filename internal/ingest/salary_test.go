package ingest

import "testing"

func TestParseSalary(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantMin float64
		wantMax float64
		hasMin  bool
		hasMax  bool
	}{
		{
			name: "full range with commas",
			text: "$90,000 - $120,000",
			wantMin: 90000, wantMax: 120000, hasMin: true, hasMax: true,
		},
		{
			name: "single bound",
			text: "$75000",
			wantMin: 75000, hasMin: true,
		},
		{
			name: "k suffix range",
			text: "$80K - $120K a year",
			wantMin: 80000, wantMax: 120000, hasMin: true, hasMax: true,
		},
		{
			name: "lowercase k",
			text: "90k-110k",
			wantMin: 90000, wantMax: 110000, hasMin: true, hasMax: true,
		},
		{
			name: "hourly range converts to yearly",
			text: "$30 - $45 an hour",
			wantMin: 30 * 2080, wantMax: 45 * 2080, hasMin: true, hasMax: true,
		},
		{
			name: "hourly single bound",
			text: "$25/hr",
			wantMin: 25 * 2080, hasMin: true,
		},
		{
			name: "decimal amounts",
			text: "$42.50 - $55.75 per hour",
			wantMin: 42.50 * 2080, wantMax: 55.75 * 2080, hasMin: true, hasMax: true,
		},
		{name: "empty"},
		{name: "no digits", text: "Competitive salary"},
		{name: "junk max side", text: "$90,000 - negotiable"},
		{name: "whitespace only", text: "   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotMin, gotMax := ParseSalary(tt.text)

			if tt.hasMin != (gotMin != nil) {
				t.Fatalf("min presence = %v, want %v", gotMin != nil, tt.hasMin)
			}
			if tt.hasMax != (gotMax != nil) {
				t.Fatalf("max presence = %v, want %v", gotMax != nil, tt.hasMax)
			}
			if gotMin != nil && *gotMin != tt.wantMin {
				t.Errorf("min = %v, want %v", *gotMin, tt.wantMin)
			}
			if gotMax != nil && *gotMax != tt.wantMax {
				t.Errorf("max = %v, want %v", *gotMax, tt.wantMax)
			}
		})
	}
}
