// README: Driver roster entry; only online drivers are offered for assignment.
package driver

import (
	"errors"
	"time"

	"vtc/internal/types"
)

type Driver struct {
	ID        types.ID
	Name      string
	Phone     string
	IsOnline  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

var (
	ErrNotFound   = errors.New("driver not found")
	ErrBadRequest = errors.New("bad request")
)
