package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/vibesync/internal/server"
	"github.com/urfave/cli/v3"
)

// Serve runs the vibe search API until the process is interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	addr := cmd.String("addr")
	if addr == "" {
		addr = fmt.Sprintf("%s:%d", r.config.Server.Host, r.config.Server.Port)
	}

	searcher, err := r.searcher()
	if err != nil {
		return err
	}
	lib, err := r.library()
	if err != nil {
		return err
	}

	router := server.NewAPIRouter(server.NewAPI(searcher, lib, r.logger), r.logger)
	r.writePlain("→ Serving vibe search on http://%s (ctrl+c to stop)\n", addr)
	return server.Serve(ctx, addr, router, r.logger)
}
