package donations

import "testing"

func TestParseTeamRef(t *testing.T) {
	tests := []struct {
		name string
		note string
		want string
	}{
		{"canonical marker", "teamSlug=team-falcon", "team-falcon"},
		{"case insensitive marker", "TEAMSLUG=team-falcon", "team-falcon"},
		{"value case preserved", "teamslug=Team-Falcon", "Team-Falcon"},
		{"legacy team", "team=alpha", "alpha"},
		{"legacy teamId", "teamId=beta", "beta"},
		{"terminated by space", "teamSlug=falcon thanks!", "falcon"},
		{"terminated by semicolon", "teamSlug=falcon;order=99", "falcon"},
		{"embedded in text", "Donation teamSlug=falcon from kiosk", "falcon"},
		{"no marker", "great cause", ""},
		{"empty value", "teamSlug= ", ""},
		{"empty note", "", ""},
	}
	for _, tt := range tests {
		got := ParseTeamRef(tt.note)
		if tt.want == "" {
			if got != nil {
				t.Fatalf("%s: expected nil, got %q", tt.name, *got)
			}
			continue
		}
		if got == nil || *got != tt.want {
			t.Fatalf("%s: expected %q, got %v", tt.name, tt.want, got)
		}
	}
}
