// AngelaMos | 2026
// entity.go

package material

import (
	"time"
)

type Material struct {
	ID          string
	Title       string
	Description string
	FileURL     string
	VideoURL    string
	TeacherID   string
	CreatedAt   time.Time
}
