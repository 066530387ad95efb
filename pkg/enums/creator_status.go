package enums

import "fmt"

// CreatorStatus maps to the creator_status_enum enum in Postgres.
type CreatorStatus string

const (
	CreatorStatusActive    CreatorStatus = "active"
	CreatorStatusSuspended CreatorStatus = "suspended"
)

var validCreatorStatuses = []CreatorStatus{
	CreatorStatusActive,
	CreatorStatusSuspended,
}

// IsValid reports whether the value matches the canonical creator status enum.
func (s CreatorStatus) IsValid() bool {
	for _, candidate := range validCreatorStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseCreatorStatus converts raw input into CreatorStatus.
func ParseCreatorStatus(value string) (CreatorStatus, error) {
	for _, candidate := range validCreatorStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid creator status %q", value)
}
