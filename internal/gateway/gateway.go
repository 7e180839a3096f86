// Package gateway hosts beacon plugins: it starts them, fans every beacon
// out to all of them and stops them on shutdown. A failing or panicking
// plugin never affects the others.
package gateway

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"asterix/internal/beacon"
	"asterix/internal/forwarder"
	"asterix/internal/util/logger/sl"
)

type Gateway struct {
	log         *slog.Logger
	plugins     []forwarder.Plugin
	pluginsLock sync.RWMutex
}

func New(log *slog.Logger) *Gateway {
	return &Gateway{
		log: log.With(slog.String("component", "gateway")),
	}
}

// Register adds p. Plugins are started, called and stopped in registration
// order. Names must be unique.
func (g *Gateway) Register(p forwarder.Plugin) error {
	const op = "gateway.Register"
	log := g.log.With(slog.String("op", op))

	g.pluginsLock.Lock()
	defer g.pluginsLock.Unlock()

	name := p.Name()
	for _, existing := range g.plugins {
		if existing.Name() == name {
			return fmt.Errorf("%s: %w: %s", op, ErrDuplicatePlugin, name)
		}
	}
	g.plugins = append(g.plugins, p)

	log.Info("Registered plugin",
		slog.String("plugin", name),
		slog.String("version", p.Version()),
	)
	return nil
}

// Start starts every plugin. Failures are logged, the remaining plugins are
// still started.
func (g *Gateway) Start(ctx context.Context) {
	const op = "gateway.Start"
	log := g.log.With(slog.String("op", op))

	g.pluginsLock.RLock()
	defer g.pluginsLock.RUnlock()

	for _, p := range g.plugins {
		err := g.guard(p, func() error { return p.Start(ctx) })
		if err != nil {
			log.Error("Failed to start plugin",
				slog.String("plugin", p.Name()),
				sl.Err(err))
		} else {
			log.Info("Started plugin",
				slog.String("plugin", p.Name()))
		}
	}
}

// Dispatch hands b and d to every plugin. Each plugin gets its own copy of
// the descriptor.
func (g *Gateway) Dispatch(b beacon.Beacon, d *beacon.Descriptor) {
	const op = "gateway.Dispatch"

	g.pluginsLock.RLock()
	defer g.pluginsLock.RUnlock()

	for _, p := range g.plugins {
		var dc *beacon.Descriptor
		if d != nil {
			cp := *d
			dc = &cp
		}

		err := g.guard(p, func() error {
			p.HandleEvent(b, dc)
			return nil
		})
		if err != nil {
			g.log.Error("Plugin failed to handle beacon",
				slog.String("op", op),
				slog.String("plugin", p.Name()),
				slog.String("address", beacon.FormatAddress(b.Address)),
				sl.Err(err))
		}
	}
}

// Shutdown stops every plugin in reverse registration order.
func (g *Gateway) Shutdown() {
	const op = "gateway.Shutdown"
	log := g.log.With(slog.String("op", op))

	g.pluginsLock.RLock()
	defer g.pluginsLock.RUnlock()

	for i := len(g.plugins) - 1; i >= 0; i-- {
		g.stop(log, g.plugins[i])
	}
}

// Plugins returns the registered plugin names.
func (g *Gateway) Plugins() []string {
	g.pluginsLock.RLock()
	defer g.pluginsLock.RUnlock()

	names := make([]string, 0, len(g.plugins))
	for _, p := range g.plugins {
		names = append(names, p.Name())
	}
	return names
}

func (g *Gateway) stop(log *slog.Logger, p forwarder.Plugin) {
	err := g.guard(p, func() error {
		p.Stop()
		return nil
	})
	if err != nil {
		log.Error("Error stopping plugin",
			slog.String("plugin", p.Name()),
			sl.Err(err))
	}
}

// guard runs fn and turns a panic into ErrPluginPanic.
func (g *Gateway) guard(p forwarder.Plugin, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %s: %v", ErrPluginPanic, p.Name(), r)
		}
	}()
	return fn()
}
