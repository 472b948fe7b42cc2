package types

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func genHexAddress() gopter.Gen {
	return gen.SliceOfN(40, gen.OneConstOf(
		"0", "1", "2", "3", "4", "5", "6", "7", "8", "9",
		"a", "b", "c", "d", "e", "f",
		"A", "B", "C", "D", "E", "F",
	)).Map(func(digits []string) string {
		return "0x" + strings.Join(digits, "")
	})
}

func TestNormalizeAddressProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("idempotent", prop.ForAll(
		func(address string) bool {
			once := NormalizeAddress(address)
			return NormalizeAddress(once) == once
		},
		genHexAddress(),
	))

	properties.Property("case insensitive", prop.ForAll(
		func(address string) bool {
			return NormalizeAddress(strings.ToUpper(address)) == NormalizeAddress(strings.ToLower(address))
		},
		genHexAddress(),
	))

	properties.Property("normalization preserves address validity", prop.ForAll(
		func(address string) bool {
			return IsWalletAddress(NormalizeAddress(address))
		},
		genHexAddress(),
	))

	properties.Property("output is always lowercase", prop.ForAll(
		func(address string) bool {
			normalized := NormalizeAddress(address)
			return normalized == strings.ToLower(normalized)
		},
		genHexAddress(),
	))

	properties.TestingRun(t)
}
