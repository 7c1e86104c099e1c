package db

import (
	"errors"
	"testing"
)

func TestIsUniqueViolation(t *testing.T) {
	postgres := errors.New(`duplicate key value violates unique constraint "ux_holdings_actor_item"`)
	sqlite := errors.New("UNIQUE constraint failed: holdings.actor_id, holdings.item_tag")

	if !IsUniqueViolation(postgres, "ux_holdings_actor_item") {
		t.Fatalf("postgres message must match its constraint name")
	}
	if !IsUniqueViolation(sqlite, "ux_holdings_actor_item") {
		t.Fatalf("sqlite message must match even though it never carries the constraint name")
	}
	if !IsUniqueViolation(postgres, "") || !IsUniqueViolation(sqlite, "") {
		t.Fatalf("generic phrasing must match without a constraint name")
	}
	if IsUniqueViolation(errors.New("connection refused"), "ux_holdings_actor_item") {
		t.Fatalf("unrelated errors must not match")
	}
	if IsUniqueViolation(nil, "") {
		t.Fatalf("nil error must not match")
	}
}
