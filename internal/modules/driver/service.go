// README: Driver service manages the roster and online flags.
package driver

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"vtc/internal/types"
)

type Repository interface {
	Create(ctx context.Context, d *Driver) error
	Get(ctx context.Context, id types.ID) (*Driver, error)
	List(ctx context.Context) ([]*Driver, error)
	SetOnline(ctx context.Context, id types.ID, online bool) (bool, error)
}

type Service struct {
	store Repository
	log   *slog.Logger
}

func NewService(store Repository, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{store: store, log: log}
}

type CreateCommand struct {
	Name     string
	Phone    string
	IsOnline bool
}

func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Driver, error) {
	name, phone := strings.TrimSpace(cmd.Name), strings.TrimSpace(cmd.Phone)
	if name == "" || phone == "" {
		return nil, fmt.Errorf("%w: name and phone are required", ErrBadRequest)
	}
	now := time.Now()
	d := &Driver{
		ID:        types.ID(uuid.NewString()),
		Name:      name,
		Phone:     phone,
		IsOnline:  cmd.IsOnline,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Create(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (*Driver, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) List(ctx context.Context) ([]*Driver, error) {
	return s.store.List(ctx)
}

func (s *Service) SetOnline(ctx context.Context, id types.ID, online bool) error {
	ok, err := s.store.SetOnline(ctx, id, online)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	s.log.Info("driver availability changed", "driver_id", id, "online", online)
	return nil
}
