package core

import (
	"fmt"
	"net/http"
	"strings"
)

// Category selects which endpoint configuration a notification uses.
type Category int

const (
	CategoryBase Category = iota
	CategoryCreate
	CategoryUpdate
	CategoryDelete
)

const categoryCount = 4

var categoryNames = [categoryCount]string{"base", "create", "update", "delete"}

func Categories() []Category {
	return []Category{CategoryBase, CategoryCreate, CategoryUpdate, CategoryDelete}
}

func (c Category) Valid() bool {
	return c >= CategoryBase && c < categoryCount
}

func (c Category) String() string {
	if !c.Valid() {
		return fmt.Sprintf("category(%d)", int(c))
	}
	return categoryNames[c]
}

// Method is the HTTP verb used for the category. Base has none.
func (c Category) Method() string {
	switch c {
	case CategoryCreate:
		return http.MethodPost
	case CategoryUpdate:
		return http.MethodPut
	case CategoryDelete:
		return http.MethodDelete
	default:
		return ""
	}
}

func (c Category) errorPrefix() string {
	switch c {
	case CategoryCreate:
		return "Flag creation error."
	case CategoryUpdate:
		return "Flag update error."
	case CategoryDelete:
		return "Flag removal error."
	default:
		return "Flag notification error."
	}
}

// ParseCategory accepts the category names plus the HTTP verbs they map to.
func ParseCategory(value string) (Category, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "base", "_", "default":
		return CategoryBase, nil
	case "create", "creation", "post":
		return CategoryCreate, nil
	case "update", "change", "put":
		return CategoryUpdate, nil
	case "delete", "removal", "remove":
		return CategoryDelete, nil
	}
	return CategoryBase, badInputError(fmt.Sprintf("core: unknown endpoint category %q", value))
}
