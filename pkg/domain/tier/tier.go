// Package tier maps a user's subscription tier to feature entitlements.
package tier

import (
	"math"

	"github.com/pedalhub/automator/pkg/types"
)

// FreeRecipeLimit is how many recipes a free user gets evaluated per
// activity. Recipes past the limit in evaluation order are ignored until
// the user upgrades.
const FreeRecipeLimit = 3

// RecipeLimit returns the number of recipes evaluated per activity for the
// user's tier.
func RecipeLimit(u *types.User) int {
	if u.Tier == types.TierPro {
		return math.MaxInt
	}
	return FreeRecipeLimit
}

// CanAutoFtp reports whether automatic FTP recalculation is available to
// the user. The feature still requires the user's opt-in preference.
func CanAutoFtp(u *types.User) bool {
	return u.Tier == types.TierPro
}

// CanBatch reports whether the user may request batch backfills of past
// activities.
func CanBatch(u *types.User) bool {
	return u.Tier == types.TierPro
}
