package dothttp

import (
	"fmt"
	"math/rand"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// dynamicResolver answers reads for the "dynamic" scope (spec §4.C):
// $uuid, $timestamp, $isoTimestamp, $randomInt, and the parameterized
// $random.* family. Every read is freshly computed — there is no
// memoization, so two reads of $uuid in the same template differ (spec §8,
// property 4).
type dynamicResolver struct{}

func newDynamicResolver() *dynamicResolver { return &dynamicResolver{} }

var (
	reRandomInteger     = regexp.MustCompile(`^\$random\.integer\((-?\d+)\s*,\s*(-?\d+)\)$`)
	reRandomFloat       = regexp.MustCompile(`^\$random\.float\((-?[\d.]+)\s*,\s*(-?[\d.]+)\)$`)
	reRandomAlphabetic  = regexp.MustCompile(`^\$random\.alphabetic\((\d+)\)$`)
	reRandomAlphanum    = regexp.MustCompile(`^\$random\.alphanumeric\((\d+)\)$`)
	reRandomHexadecimal = regexp.MustCompile(`^\$random\.hexadecimal\((\d+)\)$`)
)

const (
	charsetAlphabetic   = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
	charsetAlphanumeric = charsetAlphabetic + "0123456789"
	charsetHex          = "0123456789abcdef"
)

// resolve looks up a dynamic variable name (with its leading "$", and any
// call-style arguments) and reports whether it was recognized.
func (d *dynamicResolver) resolve(name string) (any, bool) {
	if !strings.HasPrefix(name, "$") {
		return nil, false
	}

	switch name {
	case "$uuid", "$random.uuid":
		return uuid.NewString(), true
	case "$timestamp":
		return strconv.FormatInt(time.Now().Unix(), 10), true
	case "$isoTimestamp":
		return time.Now().UTC().Format(time.RFC3339), true
	case "$randomInt", "$random.integer":
		return strconv.Itoa(rand.Intn(1001)), true
	case "$random.float":
		return formatFloat(0 + rand.Float64()*1), true
	case "$random.email":
		return randomEmail(), true
	}

	if m := reRandomInteger.FindStringSubmatch(name); m != nil {
		lo, _ := strconv.Atoi(m[1])
		hi, _ := strconv.Atoi(m[2])
		if lo > hi {
			return nil, false
		}
		return strconv.Itoa(lo + rand.Intn(hi-lo+1)), true
	}
	if m := reRandomFloat.FindStringSubmatch(name); m != nil {
		lo, errLo := strconv.ParseFloat(m[1], 64)
		hi, errHi := strconv.ParseFloat(m[2], 64)
		if errLo != nil || errHi != nil || lo > hi {
			return nil, false
		}
		return formatFloat(lo + rand.Float64()*(hi-lo)), true
	}
	if m := reRandomAlphabetic.FindStringSubmatch(name); m != nil {
		n, _ := strconv.Atoi(m[1])
		return randomFromCharset(n, charsetAlphabetic), true
	}
	if m := reRandomAlphanum.FindStringSubmatch(name); m != nil {
		n, _ := strconv.Atoi(m[1])
		return randomFromCharset(n, charsetAlphanumeric), true
	}
	if m := reRandomHexadecimal.FindStringSubmatch(name); m != nil {
		n, _ := strconv.Atoi(m[1])
		return randomFromCharset(n, charsetHex), true
	}

	return nil, false
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func randomFromCharset(n int, charset string) string {
	if n <= 0 {
		return ""
	}
	b := make([]byte, n)
	for i := range b {
		b[i] = charset[rand.Intn(len(charset))]
	}
	return string(b)
}

var emailDomains = []string{"example.com", "test.org", "mail.dev"}

func randomEmail() string {
	local := randomFromCharset(8, charsetAlphanumeric)
	domain := emailDomains[rand.Intn(len(emailDomains))]
	return fmt.Sprintf("%s@%s", strings.ToLower(local), domain)
}
