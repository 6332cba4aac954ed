package domain

import (
	"crypto/rand"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultOrderNumberPrefix = "CBD"

	orderNumberAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	orderNumberSuffix   = 9
)

// OrderNumberGenerator produces numbers shaped <prefix>-<unix millis>-<9 chars>.
// Uniqueness is finally enforced by the store; the generator only keeps
// collisions unlikely.
type OrderNumberGenerator struct {
	prefix string
	now    func() time.Time
	random io.Reader
}

func NewOrderNumberGenerator(prefix string) *OrderNumberGenerator {
	if prefix == "" {
		prefix = DefaultOrderNumberPrefix
	}
	return &OrderNumberGenerator{prefix: prefix, now: time.Now, random: rand.Reader}
}

func (g *OrderNumberGenerator) Next() (string, error) {
	suffix, err := randomSuffix(g.random, orderNumberSuffix)
	if err != nil {
		return "", fmt.Errorf("order number: %w", err)
	}
	return g.prefix + "-" + strconv.FormatInt(g.now().UnixMilli(), 10) + "-" + suffix, nil
}

// randomSuffix draws n characters uniformly from the alphabet, rejecting
// bytes that would bias the modulo.
func randomSuffix(r io.Reader, n int) (string, error) {
	const limit = 256 - 256%len(orderNumberAlphabet)
	var sb strings.Builder
	sb.Grow(n)
	buf := make([]byte, n*2)
	for sb.Len() < n {
		if _, err := io.ReadFull(r, buf); err != nil {
			return "", err
		}
		for _, b := range buf {
			if int(b) >= limit {
				continue
			}
			sb.WriteByte(orderNumberAlphabet[int(b)%len(orderNumberAlphabet)])
			if sb.Len() == n {
				break
			}
		}
	}
	return sb.String(), nil
}
