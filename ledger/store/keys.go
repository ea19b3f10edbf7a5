package store

import (
	"strconv"

	"github.com/superpet-labs/petchain/types"
)

// Activity timestamps are keyed by pet id, not by owner, so they survive
// ownership transfers.
func petKey(account types.Account) string {
	return "PET:" + string(account)
}

func lastFeedKey(id types.PetID) string {
	return "LASTFEED:" + strconv.FormatUint(uint64(id), 10)
}

func lastSleepKey(id types.PetID) string {
	return "LASTSLEEP:" + strconv.FormatUint(uint64(id), 10)
}

func nonceKey(account types.Account) string {
	return "NONCE:" + string(account)
}

const heightKey = "HEIGHT"
