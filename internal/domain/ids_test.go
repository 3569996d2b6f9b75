package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormatAndParseID(t *testing.T) {
	assert.Equal(t, "40123456789", FormatID(40123456789))

	id, err := ParseID("40123456789")
	require.NoError(t, err)
	assert.Equal(t, int64(40123456789), id)

	_, err = ParseID("abc")
	assert.Error(t, err)
}

func TestLineByVariantMatchesIDOrKey(t *testing.T) {
	cart := Cart{Items: []LineItem{
		{Key: "11:aaaa", VariantID: 11, Quantity: 1},
		{Key: "12:bbbb", VariantID: 12, Quantity: 2},
	}}

	item, line, ok := cart.LineByVariant("12")
	require.True(t, ok)
	assert.Equal(t, 2, line)
	assert.Equal(t, "12:bbbb", item.Key)

	item, line, ok = cart.LineByVariant("11:aaaa")
	require.True(t, ok)
	assert.Equal(t, 1, line)
	assert.Equal(t, int64(11), item.VariantID)

	_, _, ok = cart.LineByVariant("13")
	assert.False(t, ok)
}
