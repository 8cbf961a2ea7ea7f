package receipt

import "testing"

func TestParseDraft(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantErr  bool
		amount   float64
		currency string
		category string
	}{
		{
			name:     "plain JSON",
			content:  `{"amount": 42.50, "currency": "usd", "date": "2024-03-01", "description": " Team lunch ", "category": "Meals"}`,
			amount:   42.50,
			currency: "USD",
			category: "Meals",
		},
		{
			name:     "fenced JSON",
			content:  "```json\n{\"amount\": 120, \"currency\": \"EUR\", \"category\": \"travel\"}\n```",
			amount:   120,
			currency: "EUR",
			category: "Travel",
		},
		{
			name:     "bare fence",
			content:  "```\n{\"amount\": 9.99, \"category\": \"Software\"}\n```",
			amount:   9.99,
			category: "Software",
		},
		{
			name:     "unknown category falls back to Other",
			content:  `{"amount": 5, "category": "Groceries"}`,
			amount:   5,
			category: "Other",
		},
		{
			name:     "missing category defaults to Other",
			content:  `{"amount": 5}`,
			amount:   5,
			category: "Other",
		},
		{
			name:    "not JSON",
			content: "I could not read the receipt.",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			draft, err := parseDraft(tt.content)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if draft.Amount != tt.amount {
				t.Errorf("amount = %v, want %v", draft.Amount, tt.amount)
			}
			if tt.currency != "" && draft.Currency != tt.currency {
				t.Errorf("currency = %q, want %q", draft.Currency, tt.currency)
			}
			if draft.Category != tt.category {
				t.Errorf("category = %q, want %q", draft.Category, tt.category)
			}
		})
	}
}

func TestNormalizeCategory(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Meals", "Meals"},
		{"meals", "Meals"},
		{"office supplies", "Office Supplies"},
		{"Category: Transportation", "Transportation"},
		{"", "Other"},
		{"Miscellaneous", "Other"},
	}
	for _, tt := range tests {
		if got := normalizeCategory(tt.in); got != tt.want {
			t.Errorf("normalizeCategory(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
