package storesync

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/agentstation/storesync/pkg/errors"
	"github.com/agentstation/storesync/pkg/logging"
)

// Compile-time interface check to ensure proper implementation.
var _ AutoSyncer = (*client)(nil)

// AutoSyncer provides controls for running on a fixed interval.
type AutoSyncer interface {
	// AutoSyncOn runs immediately and then on every interval tick
	AutoSyncOn() error

	// AutoSyncOff stops the loop, cancels an in-flight run and waits for it
	AutoSyncOff() error
}

// AutoSyncOn starts the interval loop. A tick that arrives while a run is
// still executing is dropped, so runs never overlap.
func (c *client) AutoSyncOn() error {
	if c.options.autoSyncInterval <= 0 {
		return &errors.ValidationError{
			Field:   "autoSyncInterval",
			Value:   c.options.autoSyncInterval,
			Message: "sync interval must be positive",
		}
	}

	// Stop any existing loop to prevent resource leaks
	if err := c.AutoSyncOff(); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	// Recreate stopCh since it was closed in AutoSyncOff
	c.stopCh = make(chan struct{})
	c.syncTicker = time.NewTicker(c.options.autoSyncInterval)

	ctx, cancel := context.WithCancel(context.Background())
	c.syncCancel = cancel

	ticker, stopCh := c.syncTicker, c.stopCh
	c.syncDone.Add(1)
	go func() {
		defer c.syncDone.Done()

		c.tick(ctx)
		for {
			select {
			case <-ticker.C:
				c.tick(ctx)
			case <-ctx.Done():
				return
			case <-stopCh:
				return
			}
		}
	}()

	logging.Info().Dur("interval", c.options.autoSyncInterval).Msg("Auto sync started")
	return nil
}

// AutoSyncOff stops the interval loop.
func (c *client) AutoSyncOff() error {
	c.mu.Lock()
	if c.syncTicker != nil {
		c.syncTicker.Stop()
		c.syncTicker = nil
	}
	if c.syncCancel != nil {
		c.syncCancel()
		c.syncCancel = nil
	}
	select {
	case <-c.stopCh:
		// Already closed
	default:
		close(c.stopCh)
	}
	c.mu.Unlock()

	c.syncDone.Wait()
	return nil
}

// tick performs one scheduled run and logs its outcome.
func (c *client) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	result, err := c.Run(ctx)
	switch {
	case stderrors.Is(err, errors.ErrRunInProgress):
		logging.Warn().Msg("Previous run still executing, tick skipped")
	case err != nil:
		logging.Error().Err(err).Int("exit_code", result.ExitCode()).Msg("Scheduled run failed")
	default:
		logging.Info().Msg(result.Summary())
	}
}
