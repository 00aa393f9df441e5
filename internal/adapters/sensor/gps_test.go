package sensor

import "testing"

func TestParseGGAValidFix(t *testing.T) {
	line := "$GPGGA,123519,4807.038,N,01131.000,E,1,08,0.9,545.4,M,46.9,M,,*47"

	fix, ok := parseGGA(line)
	if !ok {
		t.Fatalf("expected a fix from %q", line)
	}
	if fix.Latitude != "4807.038 N" {
		t.Errorf("latitude = %q, want %q", fix.Latitude, "4807.038 N")
	}
	if fix.Longitude != "01131.000 E" {
		t.Errorf("longitude = %q, want %q", fix.Longitude, "01131.000 E")
	}
	if fix.Altitude != "545.4 M" {
		t.Errorf("altitude = %q, want %q", fix.Altitude, "545.4 M")
	}
}

func TestParseGGAGNPrefix(t *testing.T) {
	line := "$GNGGA,123519,4807.038,N,01131.000,E,2,08,0.9,545.4,M,46.9,M,,*47"
	if _, ok := parseGGA(line); !ok {
		t.Error("GNGGA sentences should parse like GPGGA")
	}
}

func TestParseGGARejects(t *testing.T) {
	cases := []struct {
		name string
		line string
	}{
		{"wrong sentence", "$GPRMC,123519,A,4807.038,N,01131.000,E,022.4,084.4,230394,003.1,W*6A"},
		{"no fix quality", "$GPGGA,123519,4807.038,N,01131.000,E,0,00,,,M,,M,,*47"},
		{"empty quality", "$GPGGA,123519,4807.038,N,01131.000,E,,00,,,M,,M,,*47"},
		{"empty coordinates", "$GPGGA,123519,,,,,1,08,0.9,545.4,M,46.9,M,,*47"},
		{"truncated", "$GPGGA,123519,4807.038,N"},
		{"garbage", "lkjasdf"},
		{"empty", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if fix, ok := parseGGA(tc.line); ok {
				t.Errorf("parseGGA(%q) = %+v, want no fix", tc.line, fix)
			}
		})
	}
}
