package utils

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	applicationIDPattern = regexp.MustCompile(`^VND[0-9]{8}[0-9A-F]{8}$`)
	vendorIDPattern      = regexp.MustCompile(`^V[0-9]{4}[0-9A-Z]{8}$`)
)

func randomSuffix() string {
	return strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:8]
}

// NewApplicationID returns "VND" + YYYYMMDD + 8 uppercase hex characters.
func NewApplicationID(now time.Time) string {
	return fmt.Sprintf("VND%s%s", now.Format("20060102"), randomSuffix())
}

// NewVendorID returns "V" + four-digit year + 8 uppercase characters.
// Uniqueness is the caller's job.
func NewVendorID(now time.Time) string {
	return fmt.Sprintf("V%04d%s", now.Year(), randomSuffix())
}

func IsApplicationID(s string) bool { return applicationIDPattern.MatchString(s) }

func IsVendorID(s string) bool { return vendorIDPattern.MatchString(s) }
