package site

import "testing"

func TestValidateSubdomain(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantErr bool
	}{
		{"simple", "site1", false},
		{"single char", "a", false},
		{"hyphenated", "my-shop", false},
		{"digits", "42", false},
		{"empty", "", true},
		{"leading hyphen", "-shop", true},
		{"trailing hyphen", "shop-", true},
		{"uppercase", "Shop", true},
		{"dot", "a.b", true},
		{"underscore", "my_shop", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateSubdomain(tt.in)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateSubdomain(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
		})
	}
}

func TestValidateCustomDomain(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		wantErr bool
	}{
		{"empty is allowed", "", false},
		{"plain", "example.com", false},
		{"subdomain", "shop.customer.io", false},
		{"hyphenated label", "my-shop.example.co.uk", false},
		{"no tld", "localhost", true},
		{"trailing dot", "example.com.", true},
		{"scheme", "https://example.com", true},
		{"space", "exa mple.com", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateCustomDomain(tt.in)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateCustomDomain(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
		})
	}
}

func TestIsActive(t *testing.T) {
	if (&Site{Status: StatusInactive}).IsActive() {
		t.Error("inactive site reported active")
	}
	if !(&Site{Status: StatusActive}).IsActive() {
		t.Error("active site reported inactive")
	}
	if (&Site{Status: StatusArchived}).IsActive() {
		t.Error("archived site reported active")
	}
}
