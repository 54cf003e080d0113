package spacedrep

import "time"

// Bucket is an item's review priority. Lower values are reviewed first.
type Bucket int

const (
	BucketOverdue Bucket = iota // due for longer than OverdueAfter
	BucketDue                   // due, or never scheduled
	BucketNew                   // never attempted
	BucketNotDue                // scheduled in the future
)

func (b Bucket) String() string {
	switch b {
	case BucketOverdue:
		return "overdue"
	case BucketDue:
		return "due"
	case BucketNew:
		return "new"
	case BucketNotDue:
		return "not_due"
	}
	return "unknown"
}

// IsDue reports whether an item scheduled at next is due at now. An unset
// schedule is due.
func IsDue(next *time.Time, now time.Time) bool {
	return next == nil || !now.Before(*next)
}

// OverdueDays returns how many days past due the item is. Returns 0 if not
// yet due or never scheduled.
func OverdueDays(next *time.Time, now time.Time) float64 {
	if next == nil || now.Before(*next) {
		return 0
	}
	return now.Sub(*next).Hours() / 24.0
}

// Classify buckets an item. exists is false for items with no saved state.
func (p Policy) Classify(next *time.Time, exists bool, now time.Time) Bucket {
	switch {
	case !exists:
		return BucketNew
	case next != nil && next.Before(now.Add(-p.OverdueAfter)):
		return BucketOverdue
	case IsDue(next, now):
		return BucketDue
	}
	return BucketNotDue
}
