package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedirectFormKeepsFieldOrder(t *testing.T) {
	form := &RedirectForm{}
	form.Add("b", "2")
	form.Add("a", "1")
	form.Add("b", "3")

	assert.Equal(t, []FormField{{"b", "2"}, {"a", "1"}, {"b", "3"}}, form.Fields)

	value, ok := form.Get("b")
	assert.True(t, ok)
	assert.Equal(t, "2", value)

	_, ok = form.Get("c")
	assert.False(t, ok)
}
