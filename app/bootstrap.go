// app/bootstrap.go
package app

import (
	"context"

	"github.com/rs/zerolog"
)

type workerCounter interface {
	CountWorkers(ctx context.Context) (int64, error)
}

// WarnIfNoWorkers reminds the operator to create a worker account. Workers
// are only added offline with lsysctl.
func WarnIfNoWorkers(ctx context.Context, repo workerCounter, log zerolog.Logger) {
	n, err := repo.CountWorkers(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("count worker accounts")
		return
	}
	if n == 0 {
		log.Warn().Msg("no worker account exists; create one with: lsysctl add-worker --name NAME --email EMAIL")
	}
}
