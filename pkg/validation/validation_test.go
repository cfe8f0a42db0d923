package validation

import "testing"

func TestStrongPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
		want     bool
	}{
		{name: "all classes present", password: "Sup3r-Secret!", want: true},
		{name: "minimum length exactly", password: "Aa1!Aa1!", want: true},
		{name: "too short", password: "Aa1!", want: false},
		{name: "no uppercase", password: "sup3r-secret!", want: false},
		{name: "no lowercase", password: "SUP3R-SECRET!", want: false},
		{name: "no digit", password: "Super-Secret!", want: false},
		{name: "no symbol", password: "Sup3rSecret9", want: false},
		{name: "empty", password: "", want: false},
		{name: "accented letters are not symbols", password: "Pässw0rd", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StrongPassword(tt.password); got != tt.want {
				t.Errorf("StrongPassword(%q) = %v, want %v", tt.password, got, tt.want)
			}
		})
	}
}
