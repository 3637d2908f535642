package ledger

import (
	"cmp"
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var fold = cases.Fold()

// NormalizeReference forma canónica del número de referencia para comparaciones:
// sin espacios en los extremos, NFKC y sin distinción de mayúsculas.
func NormalizeReference(ref string) string {
	return fold.String(norm.NFKC.String(strings.TrimSpace(ref)))
}

// Fingerprint huella SHA-256 (hex) de un lote: tipo | referencia normalizada | líneas
// "producto:cantidad" ordenadas. El orden de escaneo y el actor no la alteran.
func Fingerprint(in BatchInput) string {
	lines := make([]LineItem, len(in.Items))
	copy(lines, in.Items)
	slices.SortFunc(lines, func(a, b LineItem) int {
		if c := cmp.Compare(a.ProductID, b.ProductID); c != 0 {
			return c
		}
		return cmp.Compare(a.Quantity, b.Quantity)
	})

	var b strings.Builder
	b.WriteString(string(in.Type))
	b.WriteByte('|')
	b.WriteString(NormalizeReference(in.ReferenceNumber))
	b.WriteByte('|')
	for i, it := range lines {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.FormatInt(it.ProductID, 10))
		b.WriteByte(':')
		b.WriteString(strconv.FormatInt(it.Quantity, 10))
	}

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
