package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/iliyamo/event-ops/internal/client"
	"github.com/iliyamo/event-ops/internal/dashboard"
	"github.com/iliyamo/event-ops/internal/lodging"
	"github.com/iliyamo/event-ops/internal/registration"
)

type env struct {
	c    *client.Client
	cred client.Credential
	opts options
}

func (e env) lodges() *lodging.Manager        { return lodging.New(e.c, e.cred) }
func (e env) sessions() *registration.Manager { return registration.New(e.c, e.cred) }

type command struct {
	synopsis string
	minArgs  int
	maxArgs  int // -1 for no limit
	run      func(ctx context.Context, e env, ids []uint64) (any, error)
}

var commands = map[string]command{
	"stats": {"stats [--remote]", 0, 0, func(ctx context.Context, e env, _ []uint64) (any, error) {
		if e.opts.remote {
			return e.c.Summary(ctx, e.cred)
		}
		v, err := dashboard.New(e.c, e.cred).Refresh(ctx)
		if err != nil {
			return nil, err
		}
		return v.Summary, nil
	}},
	"lodges": {"lodges", 0, 0, func(ctx context.Context, e env, _ []uint64) (any, error) {
		return e.lodges().ListWithOccupation(ctx)
	}},
	"lodge": {"lodge ID", 1, 1, func(ctx context.Context, e env, ids []uint64) (any, error) {
		return e.lodges().GetDetail(ctx, ids[0])
	}},
	"assign": {"assign LODGE PID...", 2, -1, func(ctx context.Context, e env, ids []uint64) (any, error) {
		return e.lodges().AssignParticipants(ctx, ids[0], ids[1:]...)
	}},
	"remove": {"remove LODGE PID", 2, 2, func(ctx context.Context, e env, ids []uint64) (any, error) {
		return e.lodges().RemoveParticipant(ctx, ids[0], ids[1])
	}},
	"key-owner": {"key-owner LODGE PID", 2, 2, func(ctx context.Context, e env, ids []uint64) (any, error) {
		return e.lodges().SetKeyOwner(ctx, ids[0], ids[1])
	}},
	"lectures": {"lectures", 0, 0, func(ctx context.Context, e env, _ []uint64) (any, error) {
		return e.sessions().ListWithOccupation(ctx)
	}},
	"lecture": {"lecture ID", 1, 1, func(ctx context.Context, e env, ids []uint64) (any, error) {
		return e.sessions().GetDetail(ctx, ids[0])
	}},
	"register": {"register LECTURE PID...", 2, -1, func(ctx context.Context, e env, ids []uint64) (any, error) {
		return e.sessions().RegisterMany(ctx, ids[0], ids[1:]...)
	}},
	"unregister": {"unregister LECTURE PID", 2, 2, func(ctx context.Context, e env, ids []uint64) (any, error) {
		return e.sessions().Unregister(ctx, ids[0], ids[1])
	}},
	"check-in": {"check-in PID", 1, 1, func(ctx context.Context, e env, ids []uint64) (any, error) {
		return e.c.CheckIn(ctx, e.cred, ids[0])
	}},
}

func parseIDs(args []string) ([]uint64, error) {
	ids := make([]uint64, 0, len(args))
	for _, a := range args {
		id, err := strconv.ParseUint(a, 10, 64)
		if err != nil || id == 0 {
			return nil, usagef("invalid id %q", a)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// render writes v as indented JSON, or as YAML with the same keys.  The
// YAML path goes through JSON so both formats agree on field names.
func render(w io.Writer, format string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	if format == "json" {
		var buf bytes.Buffer
		if err := json.Indent(&buf, raw, "", "  "); err != nil {
			return fmt.Errorf("encode output: %w", err)
		}
		buf.WriteByte('\n')
		_, err := buf.WriteTo(w)
		return err
	}
	var node yaml.Node
	if err := yaml.Unmarshal(raw, &node); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(&node); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return enc.Close()
}
