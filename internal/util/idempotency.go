package util

import (
	"hash/fnv"
	"math/rand/v2"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	sandboxKeyPrefix = "TEST-payment"
	liveKeyPrefix    = "event-payment"

	maxNonceDigits = 30
	minNonceDigits = 10

	// Square rejects CreatePayment idempotency keys longer than 45 characters
	maxKeyLength = 45

	minMultiplier = 2
	maxMultiplier = 99999
)

// IdempotencyKey identifies one payment/order attempt towards the provider
// The value is fixed at construction: every call on the same key returns the same string,
// so retries of the same attempt are deduplicated by the provider
type IdempotencyKey struct {
	value         string
	transactionID int64
}

// NewIdempotencyKey builds "{prefix}-{nonce}-{transactionID}"
// prefix is "TEST-payment" in sandbox and "event-payment" otherwise
// nonce is UnixNano × rand[2, 99999], truncated to at most 30 digits
// transactionID <= 0 is replaced by FallbackTransactionID()
func NewIdempotencyKey(sandbox bool, transactionID int64) IdempotencyKey {
	multiplier := minMultiplier + rand.IntN(maxMultiplier-minMultiplier+1)
	return newIdempotencyKey(sandbox, transactionID, time.Now(), multiplier)
}

func newIdempotencyKey(sandbox bool, transactionID int64, now time.Time, multiplier int) IdempotencyKey {
	prefix := liveKeyPrefix
	if sandbox {
		prefix = sandboxKeyPrefix
	}
	if transactionID <= 0 {
		transactionID = FallbackTransactionID()
	}
	id := strconv.FormatInt(transactionID, 10)

	// decimal avoids int64 overflow: ~1.7e18 ns × 99999
	product := decimal.NewFromInt(now.UnixNano()).Mul(decimal.NewFromInt(int64(multiplier)))
	nonce := truncateDigits(product.String(), nonceDigits(prefix, id))

	return IdempotencyKey{
		value:         prefix + "-" + nonce + "-" + id,
		transactionID: transactionID,
	}
}

// String returns the key value
func (k IdempotencyKey) String() string {
	return k.value
}

// TransactionID returns the transaction id embedded in the key (after fallback substitution)
func (k IdempotencyKey) TransactionID() int64 {
	return k.transactionID
}

// IsZero returns true for an unset key
func (k IdempotencyKey) IsZero() bool {
	return k.value == ""
}

// FallbackTransactionID returns a process-unique positive id for transactions without a durable id
// FNV-1a 32-bit over a random UUID keeps it numeric and at most 10 digits
func FallbackTransactionID() int64 {
	id := uuid.New()
	h := fnv.New32a()
	h.Write(id[:])
	n := int64(h.Sum32())
	if n == 0 {
		return 1
	}
	return n
}

// nonceDigits returns how many nonce digits fit the provider's key length limit
func nonceDigits(prefix, id string) int {
	budget := maxKeyLength - len(prefix) - len(id) - 2
	if budget > maxNonceDigits {
		return maxNonceDigits
	}
	if budget < minNonceDigits {
		return minNonceDigits
	}
	return budget
}

// truncateDigits keeps the least significant digits, which carry the nanosecond precision
func truncateDigits(digits string, max int) string {
	if len(digits) <= max {
		return digits
	}
	return digits[len(digits)-max:]
}
