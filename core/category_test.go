package core

import (
	"net/http"
	"testing"
)

func TestCategory_MethodsAndNames(t *testing.T) {
	cases := []struct {
		category Category
		name     string
		method   string
	}{
		{CategoryBase, "base", ""},
		{CategoryCreate, "create", http.MethodPost},
		{CategoryUpdate, "update", http.MethodPut},
		{CategoryDelete, "delete", http.MethodDelete},
	}
	for _, tc := range cases {
		if tc.category.String() != tc.name {
			t.Fatalf("expected name %q, got %q", tc.name, tc.category.String())
		}
		if tc.category.Method() != tc.method {
			t.Fatalf("expected method %q, got %q", tc.method, tc.category.Method())
		}
		parsed, err := ParseCategory(tc.name)
		if err != nil || parsed != tc.category {
			t.Fatalf("parse %q: got %s, %v", tc.name, parsed, err)
		}
	}
}

func TestParseCategory_Aliases(t *testing.T) {
	for input, want := range map[string]Category{
		"_":        CategoryBase,
		" POST ":   CategoryCreate,
		"change":   CategoryUpdate,
		"Removal":  CategoryDelete,
		"creation": CategoryCreate,
	} {
		got, err := ParseCategory(input)
		if err != nil || got != want {
			t.Fatalf("parse %q: expected %s, got %s (%v)", input, want, got, err)
		}
	}
	if _, err := ParseCategory("archive"); err == nil {
		t.Fatalf("expected unknown category error")
	}
	if Category(9).Valid() {
		t.Fatalf("expected out of range category to be invalid")
	}
}
