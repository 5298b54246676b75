//go:build integration

package testutil

import (
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"
)

func randHex(n int) string {
	b := make([]byte, n)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

func UniqSuffix() string { return randHex(6) }

// UniqAccountID — случайный положительный account id, чтобы тесты не пересекались по данным.
func UniqAccountID() int64 {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return int64(binary.BigEndian.Uint64(b[:])>>34) + 1
}

// PurchaseJSON — тело запроса на покупку; нулевые количества не попадают в tickets.
func PurchaseJSON(accountID int64, adults, children, infants int) []byte {
	var items []string
	for _, line := range []struct {
		kind string
		qty  int
	}{{"ADULT", adults}, {"CHILD", children}, {"INFANT", infants}} {
		if line.qty > 0 {
			items = append(items, fmt.Sprintf(`{"type":%q,"quantity":%d}`, line.kind, line.qty))
		}
	}
	return []byte(fmt.Sprintf(`{"account_id":%d,"tickets":[%s]}`, accountID, strings.Join(items, ",")))
}
