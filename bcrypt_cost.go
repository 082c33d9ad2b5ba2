//go:build !race

package signon

func passwordHashCost() int {
	return 14
}
