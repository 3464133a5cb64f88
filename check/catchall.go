package check

import (
	"context"
	"fmt"
	"hash/fnv"
	"strconv"
	"strings"
	"time"

	"github.com/optimode/mailprobe/types"
)

// CatchAllDetector probes a mailbox that should not exist to find domains
// that accept every recipient.
type CatchAllDetector struct {
	prober MailboxProber
	now    func() time.Time
}

// NewCatchAllDetector creates a detector that probes through p.
func NewCatchAllDetector(p MailboxProber) *CatchAllDetector {
	return &CatchAllDetector{prober: p, now: time.Now}
}

// IsCatchAll reports whether host accepted a synthetic address at domain.
// Only an explicit acceptance counts; rejections, uncertain replies and
// probe failures all yield false.
func (d *CatchAllDetector) IsCatchAll(ctx context.Context, domain, host string, timeout time.Duration) bool {
	address := SyntheticLocalPart(domain, d.now()) + "@" + domain
	return d.prober.ProbeMailbox(ctx, host, address, timeout).Exists == types.True
}

// SyntheticLocalPart builds "nonexistent" + base-36 nanosecond timestamp +
// a 4 hex digit hash of the domain.
func SyntheticLocalPart(domain string, now time.Time) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(domain)))
	return fmt.Sprintf("nonexistent%s%04x", strconv.FormatInt(now.UnixNano(), 36), h.Sum32()&0xffff)
}
