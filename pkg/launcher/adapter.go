package launcher

import (
	"context"
	"fmt"

	"github.com/Smithed-MC/UX/pkg/gameengine"
	"github.com/Smithed-MC/UX/pkg/relay"
	"github.com/Smithed-MC/UX/pkg/resolver"
)

// startGame translates a resolved bundle into the engine's launch call. The
// returned process is owned by the caller's task.
func startGame(ctx context.Context, engine gameengine.Engine, res resolver.Resolved, out relay.Output) (gameengine.Process, error) {
	proc, err := engine.Launch(ctx, gameengine.LaunchRequest{
		Ref:     res.Ref,
		User:    res.User,
		Version: res.Version,
		GameDir: res.GameDir,
	}, out)
	if err != nil {
		return nil, fmt.Errorf("launcher: start game: %w", err)
	}
	return proc, nil
}
