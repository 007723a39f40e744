package router

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Huawei drives Huawei home gateways through their web session.
//
// The driver logs in before every action. The web automation itself is
// not implemented; actions are recorded through the logger.
type Huawei struct {
	profile Profile
	logger  Logger

	mu        sync.Mutex
	lastLogin time.Time
}

func newHuawei(p Profile, logger Logger) (Controller, error) {
	if p.Address == "" {
		return nil, errors.New("huawei: router address is required")
	}
	return &Huawei{profile: p, logger: logger}, nil
}

// Login opens a session with the router.
func (h *Huawei) Login(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	h.logger.Info("huawei: logging in", "address", h.profile.Address, "username", h.profile.Username)

	h.mu.Lock()
	h.lastLogin = time.Now()
	h.mu.Unlock()
	return nil
}

// BlockDevice denies network access to mac.
func (h *Huawei) BlockDevice(ctx context.Context, mac string) error {
	if err := h.Login(ctx); err != nil {
		return err
	}
	h.logger.Info("huawei: blocking device", "address", h.profile.Address, "mac", mac)
	return nil
}

// UnblockDevice restores network access for mac.
func (h *Huawei) UnblockDevice(ctx context.Context, mac string) error {
	if err := h.Login(ctx); err != nil {
		return err
	}
	h.logger.Info("huawei: unblocking device", "address", h.profile.Address, "mac", mac)
	return nil
}

// LastLogin returns when the last session was opened.
func (h *Huawei) LastLogin() time.Time {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastLogin
}
