package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// SplitMemberCode splits a composite account into player name and operator
// code at the LAST delimiter, so player names may themselves contain the
// delimiter ("alice_smith_GOP" -> "alice_smith", "GOP").
func SplitMemberCode(accountOp, delimiter string) (playerName, opCode string) {
	idx := strings.LastIndex(accountOp, delimiter)
	if idx < 0 {
		return accountOp, ""
	}
	return accountOp[:idx], accountOp[idx+len(delimiter):]
}

// BuildTraceID assembles the correlation token callers use for one logical
// betting/settlement event:
//
//	{playerAccount}::{VENDOR_CODE}::{ACTION}::{vendorUniqueId}
//
// optionally suffixed with -{millisecondTimestamp}. The format is load
// bearing; downstream systems parse it byte for byte.
func BuildTraceID(playerAccount, vendorCode, action, vendorUniqueID string, withTimestamp bool) string {
	id := fmt.Sprintf("%s::%s::%s::%s",
		playerAccount, strings.ToUpper(vendorCode), strings.ToUpper(action), vendorUniqueID)
	if withTimestamp {
		id = fmt.Sprintf("%s-%d", id, time.Now().UnixMilli())
	}
	return id
}

// VendorUniqueID returns a fresh vendor-side unique id for trace IDs built
// on the platform's behalf.
func VendorUniqueID() string {
	return uuid.NewString()
}

// IPWhitelisted reports whether any comma-separated source address appears
// in the whitelist. Forwarded-for style headers pass multiple addresses.
func IPWhitelisted(src string, whitelist []string) bool {
	src = strings.ReplaceAll(src, " ", "")
	for _, ip := range strings.Split(src, ",") {
		for _, allowed := range whitelist {
			if ip == allowed {
				return true
			}
		}
	}
	return false
}
