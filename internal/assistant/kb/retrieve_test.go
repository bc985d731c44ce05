package kb

import (
	"strings"
	"testing"

	"github.com/orbitcrm/assist/internal/assistant/classify"
)

func testRetriever(t *testing.T, dir string) *Retriever {
	t.Helper()
	c, err := classify.NewDefault()
	if err != nil {
		t.Fatalf("classify.NewDefault: %v", err)
	}
	return NewRetriever(NewRepository(dir, quietLogger()), c, quietLogger(), nil)
}

func TestRetrieveUnauthenticatedRefusal(t *testing.T) {
	dir := t.TempDir()
	writeAsset(t, dir, RoleCustomer, "Q: hi\nA: Hello!\n")
	rt := testRetriever(t, dir)

	answer, ok := rt.Retrieve("how can I edit employee roles", RoleAdmin, false)
	if !ok || answer != RefusalMessage {
		t.Fatalf("expected fixed refusal, got ok=%v answer=%q", ok, answer)
	}
	// The refusal path must short-circuit before any repository access.
	if rt.repo.entries != nil {
		t.Fatal("repository was loaded during a refusal")
	}
}

func TestRetrieveGeneralSkipsKnowledgeBase(t *testing.T) {
	dir := t.TempDir()
	writeAsset(t, dir, RoleCustomer, "Q: explain python decorators\nA: Never served from the KB.\n")
	rt := testRetriever(t, dir)

	if answer, ok := rt.Retrieve("explain python decorators", RoleCustomer, true); ok {
		t.Fatalf("general queries must defer to providers, got %q", answer)
	}
	if rt.repo.entries != nil {
		t.Fatal("repository was loaded for a general query")
	}
}

func TestRetrieveGreetingHit(t *testing.T) {
	dir := t.TempDir()
	writeAsset(t, dir, RoleCustomer, "Q: hi\nhello\nA: Hello! How can I help?\n")
	rt := testRetriever(t, dir)

	answer, ok := rt.Retrieve("hi", RoleCustomer, true)
	if !ok || answer != "Hello! How can I help?" {
		t.Fatalf("expected greeting entry, got ok=%v answer=%q", ok, answer)
	}
}

func TestRetrieveForcesCustomerRoleWhenUnauthenticated(t *testing.T) {
	dir := t.TempDir()
	writeAsset(t, dir, RoleCustomer, "Q: how do I create an invoice\nA: customer answer\n")
	writeAsset(t, dir, RoleAdmin, "Q: how do I create an invoice\nA: admin answer\n")
	rt := testRetriever(t, dir)

	answer, ok := rt.Retrieve("how do I create an invoice", RoleAdmin, false)
	if !ok || answer != "customer answer" {
		t.Fatalf("unauthenticated caller must see the customer slice, got ok=%v answer=%q", ok, answer)
	}
}

func TestRetrieveMissDefersToProviders(t *testing.T) {
	dir := t.TempDir()
	writeAsset(t, dir, RoleCustomer, "Q: how do I create an invoice\nA: invoice answer\n")
	rt := testRetriever(t, dir)

	if answer, ok := rt.Retrieve("please walk me through configuring the quarterly product catalog sync for every warehouse", RoleCustomer, true); ok {
		t.Fatalf("expected a miss, got %q", answer)
	}
}

func TestIsRestricted(t *testing.T) {
	hits := []string{
		"how can I edit employee roles",
		"show me the payroll",
		"change user management settings",
	}
	for _, q := range hits {
		if !isRestricted(q) {
			t.Fatalf("expected restricted hit for %q", q)
		}
	}
	if isRestricted("how do I create an invoice") {
		t.Fatal("invoice query must not be restricted")
	}
	if !strings.Contains(RefusalMessage, "sign in") {
		t.Fatal("refusal message must point at signing in")
	}
}
