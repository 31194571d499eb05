package locator

import "testing"

func TestSplitIdentifier(t *testing.T) {
	tests := []struct {
		name string
		want []string
	}{
		{"GetUserById", []string{"get", "user", "by", "id"}},
		{"HTTPServer", []string{"http", "server"}},
		{"snake_case_name", []string{"snake", "case", "name"}},
		{"Models.User", []string{"models", "user"}},
		{"parse2Json", []string{"parse", "2", "json"}},
		{"", nil},
	}

	for _, tt := range tests {
		got := splitIdentifier(tt.name)
		if len(got) != len(tt.want) {
			t.Errorf("splitIdentifier(%q) = %v, want %v", tt.name, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("splitIdentifier(%q)[%d] = %q, want %q", tt.name, i, got[i], tt.want[i])
			}
		}
	}
}

func TestNameSimilarityLayers(t *testing.T) {
	if got := nameSimilarity("Execute", "execute"); got != 1.0 {
		t.Errorf("case-insensitive exact match should score 1.0, got %.2f", got)
	}

	if got := nameSimilarity("Controller.Execute", "App.Controller.Execute"); got != 0.95 {
		t.Errorf("qualified suffix should score 0.95, got %.2f", got)
	}

	wordOverlap := nameSimilarity("getData", "GetDataAsync")
	if wordOverlap < 0.55 || wordOverlap > 0.90 {
		t.Errorf("word overlap should land between fuzzy and exact, got %.2f", wordOverlap)
	}

	fuzzy := nameSimilarity("Recieve", "Receive")
	if fuzzy <= 0 || fuzzy > 0.6 {
		t.Errorf("typo-distance match should use the damped fuzzy band, got %.2f", fuzzy)
	}

	if exact, overlap := nameSimilarity("ValidateRequest", "ValidateRequest"), nameSimilarity("Validate", "ValidateRequest"); exact <= overlap {
		t.Errorf("exact (%.2f) must outrank partial (%.2f)", exact, overlap)
	}

	if nameSimilarity("", "anything") != 0 || nameSimilarity("anything", "") != 0 {
		t.Error("empty input should score zero")
	}
}

func TestNameSimilarityOrdersPlausibly(t *testing.T) {
	query := "UserService"
	better := nameSimilarity(query, "UserServiceImpl")
	worse := nameSimilarity(query, "OrderRepository")
	if better <= worse {
		t.Errorf("%q should rank UserServiceImpl (%.2f) above OrderRepository (%.2f)", query, better, worse)
	}
}
