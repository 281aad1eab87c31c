package domain

// AvailableQuantity is the only place the availability formula lives:
// everything ever received minus everything sitting in any cart line,
// whatever the cart's state, floored at zero.
func AvailableQuantity(totalReceived, totalReserved int) int {
	available := totalReceived - totalReserved
	if available < 0 {
		return 0
	}
	return available
}
