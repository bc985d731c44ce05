package textutil

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Hello, World!", "hello world"},
		{"  How   do I  create an   invoice? ", "how do i create an invoice"},
		{"what's up", "what s up"},
		{"", ""},
		{"...", ""},
		{"CRM/ERP", "crm erp"},
	}
	for _, c := range cases {
		if got := Normalize(c.in); got != c.want {
			t.Fatalf("Normalize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"Hello, World!",
		"hi",
		"HOW can I   edit employee roles???",
		"tabs\tand\nnewlines",
		"already normalized text",
	}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Fatalf("Normalize not idempotent for %q: %q vs %q", in, once, twice)
		}
	}
}

func TestWordCount(t *testing.T) {
	if n := WordCount("create an invoice, please!"); n != 4 {
		t.Fatalf("WordCount = %d, want 4", n)
	}
	if n := WordCount("   "); n != 0 {
		t.Fatalf("WordCount on blank = %d, want 0", n)
	}
}

func TestContainsPhrase(t *testing.T) {
	if !ContainsPhrase("How do I create INVOICE records?", "create invoice") {
		t.Fatal("expected phrase hit")
	}
	if ContainsPhrase("think about it", "hi") {
		t.Fatal("phrase must match whole words only")
	}
	if !ContainsPhrase("hi", "hi") {
		t.Fatal("expected exact single-word hit")
	}
}
