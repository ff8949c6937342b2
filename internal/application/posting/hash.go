package posting

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// hashPayload produces the canonical payload hash bound to an idempotency
// key: the SHA-256 of the request's JSON form with the key itself blanked
// out, so the same key carrying the same business payload always replays and
// a different payload always conflicts.
func hashPostPayload(req PostVoucherRequest) string {
	req.IdempotencyKey = ""
	return hashJSON(req)
}

func hashReversePayload(req ReverseVoucherRequest) string {
	req.IdempotencyKey = ""
	return hashJSON(req)
}

func hashJSON(v any) string {
	// struct field order makes the encoding deterministic
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
