package cart

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestExtractUnconfirmedIsUntouched(t *testing.T) {
	reply := "Sure! CART_ADD: Milk ₹50 Anything else?"

	ex := Extract(reply, false, "")
	require.Empty(t, ex.Items)
	require.Equal(t, reply, ex.Visible)
	require.False(t, ex.UsedFallback)
}

func TestExtractMultipleCommands(t *testing.T) {
	reply := "Done! CART_ADD: Milk ₹50 and CART_ADD: Bread ₹30 Enjoy!"

	ex := Extract(reply, true, "")
	require.Equal(t, []Item{{Name: "Milk", Price: 50}, {Name: "Bread", Price: 30}}, ex.Items)
	require.False(t, ex.UsedFallback)
	require.NotContains(t, ex.Visible, "CART_ADD")
	require.Contains(t, ex.Visible, "Done!")
	require.Contains(t, ex.Visible, "Enjoy!")
}

func TestExtractMalformedAmountSkipsTokenOnly(t *testing.T) {
	reply := "CART_ADD: Eggs ₹abc CART_ADD: Bread ₹30"

	ex := Extract(reply, true, "")
	require.Equal(t, []Item{{Name: "Bread", Price: 30}}, ex.Items)
}

func TestExtractCommandFollowedByPunctuation(t *testing.T) {
	reply := "Done! CART_ADD: Milk ₹50. Anything else?"

	ex := Extract(reply, true, "")
	require.Equal(t, []Item{{Name: "Milk", Price: 50}}, ex.Items)
	require.False(t, ex.UsedFallback)
	require.NotContains(t, ex.Visible, "CART_ADD")
	require.Contains(t, ex.Visible, "Anything else?")
}

func TestExtractSameTextTwiceSameItems(t *testing.T) {
	reply := "CART_ADD: Milk ₹50"

	first := Extract(reply, true, "")
	second := Extract(reply, true, "")
	require.Equal(t, first.Items, second.Items)
}

func TestExtractFallbackScansPreviousTurn(t *testing.T) {
	prev := "Milk is ₹50 and Bread is ₹30 on Blinkit. Add to cart?"

	ex := Extract("Sure, adding those now!", true, prev)
	require.True(t, ex.UsedFallback)
	require.Len(t, ex.Items, 2)
	require.Equal(t, 50, ex.Items[0].Price)
	require.Equal(t, 30, ex.Items[1].Price)
	require.Equal(t, "Milk", ex.Items[0].Name)
	require.Equal(t, "Bread", ex.Items[1].Name)
}

func TestExtractMalformedOnlyTriggersFallback(t *testing.T) {
	prev := "Paneer is ₹90 per pack. Add it?"

	ex := Extract("CART_ADD: Paneer ₹ninety", true, prev)
	require.True(t, ex.UsedFallback)
	require.Equal(t, []Item{{Name: "Paneer", Price: 90}}, ex.Items)
}

func TestExtractNoItemsAnywhere(t *testing.T) {
	ex := Extract("Happy to help!", true, "What would you like?")
	require.Empty(t, ex.Items)
	require.False(t, ex.UsedFallback)
	require.Equal(t, "Happy to help!", ex.Visible)
}

func TestFallbackSummary(t *testing.T) {
	items := []Item{{Name: "Milk", Price: 50}, {Name: "Bread", Price: 30}}
	s := FallbackSummary(items, 80)
	require.Equal(t, "Added Milk (₹50), Bread (₹30) to your cart. New total: ₹80 🛒", s)

	require.Empty(t, FallbackSummary(nil, 0))
}
