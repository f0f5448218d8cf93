package core

import (
	"context"
	"errors"
	"time"
)

// Setup opens the backing store, prepares the login provider and resolves the
// owner data. Any failure aborts startup.
func (s *Service) Setup(ctx context.Context) (err error) {
	startedAt := time.Now().UTC()
	defer func() {
		s.observeOperation(ctx, startedAt, "setup", err, map[string]any{
			"developer": s.session.DeveloperNickname(),
		})
	}()

	if err := s.store.Connect(ctx); err != nil {
		return NewStageError(StageConnectStore, err)
	}
	if err := s.login.Setup(ctx); err != nil {
		return NewStageError(StageLoginSetup, err)
	}
	if _, err := s.ResolveOwnerData(ctx); err != nil {
		return err
	}
	return nil
}

// Shutdown releases the login provider and then the backing store. Both are
// attempted regardless of earlier failures.
func (s *Service) Shutdown(ctx context.Context) (err error) {
	if s == nil {
		return nil
	}
	startedAt := time.Now().UTC()
	defer func() {
		s.observeOperation(ctx, startedAt, "shutdown", err, nil)
	}()

	var errs []error
	if s.login != nil {
		if cleanErr := s.login.Clean(ctx); cleanErr != nil {
			errs = append(errs, NewStageError(StageLoginClean, cleanErr))
		}
	}
	if s.store != nil && s.store.IsConnected() {
		if disconnectErr := s.store.Disconnect(ctx); disconnectErr != nil {
			errs = append(errs, NewStageError(StageDisconnectStore, disconnectErr))
		}
	}
	return errors.Join(errs...)
}
