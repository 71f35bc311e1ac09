package service

import (
	"math/rand"
	"strconv"
	"strings"
	"time"
	"webbank/model"
)

// RandSource is the entropy source behind IBAN generation. It is injectable
// so tests can force digit collisions deterministically.
type RandSource interface {
	Intn(n int) int
}

// IBANGenerator mints candidate IBANs: a country-code prefix derived from the
// currency, a pseudo check-digit pair, a 4-digit bank code and a 14-digit
// account number.
type IBANGenerator struct {
	rng RandSource
}

// NewIBANGenerator creates a generator. A nil source gets a time-seeded one.
func NewIBANGenerator(rng RandSource) *IBANGenerator {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &IBANGenerator{rng: rng}
}

// Generate returns one random IBAN candidate for the currency. Uniqueness is
// the caller's concern.
func (g *IBANGenerator) Generate(currency model.Currency) string {
	return currency.CountryCode() + g.digits(2) + g.digits(4) + g.digits(14)
}

// GenerateFallback returns a candidate whose account number is derived from
// the current timestamp's last 10 digits plus 4 random digits. Used after
// repeated collisions; the residual collision risk is accepted.
func (g *IBANGenerator) GenerateFallback(currency model.Currency) string {
	ts := strconv.FormatInt(time.Now().UnixMilli(), 10)
	if len(ts) > 10 {
		ts = ts[len(ts)-10:]
	}
	return currency.CountryCode() + g.digits(2) + g.digits(4) + ts + g.digits(4)
}

func (g *IBANGenerator) digits(n int) string {
	var b strings.Builder
	b.Grow(n)
	for i := 0; i < n; i++ {
		b.WriteByte(byte('0' + g.rng.Intn(10)))
	}
	return b.String()
}
