package classify

import "testing"

func newTestClassifier(t *testing.T) *Classifier {
	t.Helper()
	c, err := NewDefault()
	if err != nil {
		t.Fatalf("NewDefault: %v", err)
	}
	return c
}

func TestClassifyCascade(t *testing.T) {
	c := newTestClassifier(t)
	cases := []struct {
		in         string
		typ        Type
		confidence float64
	}{
		{"hi", Greeting, 0.9},
		{"Good Morning!", Greeting, 0.9},
		{"create invoice", ERP, 0.9},
		{"how do i add a new contact", ERP, 0.9},
		{"please delete the old reports", ERP, 0.85},
		{"help me with a leetcode problem", General, 0.9},
		{"explain python decorators", General, 0.85},
		{"where can I see my sales dashboard", ERP, 0.85},
		{"asdf", Unclear, 0.4},
		{"zz qq", Unclear, 0.4},
		{"tell me something interesting about the ocean", General, 0.6},
	}
	for _, tc := range cases {
		got := c.Classify(tc.in)
		if got.Type != tc.typ || got.Confidence != tc.confidence {
			t.Fatalf("Classify(%q) = {%s %.2f}, want {%s %.2f}",
				tc.in, got.Type, got.Confidence, tc.typ, tc.confidence)
		}
	}
}

func TestClassifyFirstRuleWins(t *testing.T) {
	c := newTestClassifier(t)
	// Contains both a greeting and an ERP phrase; the greeting rule sits
	// higher in the cascade.
	got := c.Classify("hello I need to create invoice now")
	if got.Type != Greeting {
		t.Fatalf("expected greeting to win the cascade, got %s", got.Type)
	}
}

func TestClassifyCustomLists(t *testing.T) {
	c := New(Wordlists{
		Greetings: []string{"ahoy"},
	})
	if got := c.Classify("ahoy"); got.Type != Greeting {
		t.Fatalf("custom greeting list ignored, got %s", got.Type)
	}
	// With empty ERP lists nothing domain-specific can match.
	if got := c.Classify("create invoice"); got.Type != Unclear {
		t.Fatalf("expected unclear with empty lists, got %s", got.Type)
	}
}

func TestHasERPKeyword(t *testing.T) {
	c := newTestClassifier(t)
	if !c.HasERPKeyword("how to manage the sales pipeline") {
		t.Fatal("expected ERP keyword hit")
	}
	if c.HasERPKeyword("the sky is blue") {
		t.Fatal("unexpected ERP keyword hit")
	}
}
