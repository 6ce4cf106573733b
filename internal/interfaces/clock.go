package interfaces

import "time"

// Clock supplies message timestamps
type Clock interface {
	Now() time.Time
}
