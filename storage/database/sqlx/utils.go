package sqlxrepos

import "github.com/google/uuid"

// isUUID filters out IDs postgres would reject as invalid uuid input.
func isUUID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
