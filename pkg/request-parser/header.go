package parser

import "strings"

type headerField struct {
	name   string
	values []string
}

// Header is an ordered collection of header fields.
// Lookups are case-insensitive, but the casing of the last written
// occurrence is preserved for forwarding.
type Header struct {
	fields []headerField
}

func (h *Header) index(name string) int {
	for i := range h.fields {
		if strings.EqualFold(h.fields[i].name, name) {
			return i
		}
	}
	return -1
}

// Set replaces any existing field with the same (case-insensitive) name.
// The field keeps its original position in the ordering.
func (h *Header) Set(name string, values ...string) {
	if i := h.index(name); i >= 0 {
		h.fields[i] = headerField{name, values}
		return
	}
	h.fields = append(h.fields, headerField{name, values})
}

// Add appends a value to an existing field, or creates the field if absent.
func (h *Header) Add(name, value string) {
	if i := h.index(name); i >= 0 {
		h.fields[i].values = append(h.fields[i].values, value)
		return
	}
	h.fields = append(h.fields, headerField{name, []string{value}})
}

// Get returns the first value of the named field.
func (h *Header) Get(name string) (string, bool) {
	if i := h.index(name); i >= 0 && len(h.fields[i].values) > 0 {
		return h.fields[i].values[0], true
	}
	return "", false
}

// Values returns all values of the named field, or nil if absent.
func (h *Header) Values(name string) []string {
	if i := h.index(name); i >= 0 {
		return h.fields[i].values
	}
	return nil
}

func (h *Header) Has(name string) bool {
	return h.index(name) >= 0
}

func (h *Header) Del(name string) {
	if i := h.index(name); i >= 0 {
		h.fields = append(h.fields[:i], h.fields[i+1:]...)
	}
}

func (h *Header) Len() int {
	return len(h.fields)
}

// Each calls cb for every field in order.
func (h *Header) Each(cb func(name string, values []string)) {
	for _, f := range h.fields {
		cb(f.name, f.values)
	}
}
