package booking

import (
	"context"
	"errors"
	"fmt"

	"github.com/atinyakov/carebook/internal/catalog"
	"github.com/atinyakov/carebook/internal/models"
)

// StatusCanceled is reported by a widget when the user backed out.
const StatusCanceled = "canceled"

// SandboxWidget completes payments against the sandbox provider after a
// yes/no confirmation. The transaction id is the intent id.
type SandboxWidget struct {
	Ask func(question string) (bool, error)
}

func (w SandboxWidget) Confirm(ctx context.Context, clientSecret string, amount int64) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	intent := IntentIDFromClientSecret(clientSecret)
	if intent == "" {
		return Result{}, errors.New("malformed client secret")
	}
	ok, err := w.Ask(fmt.Sprintf("Pay %d %s?", amount, catalog.Currency))
	if err != nil {
		return Result{}, err
	}
	if !ok {
		return Result{Status: StatusCanceled}, nil
	}
	return Result{Status: models.IntentSucceeded, TransactionID: intent}, nil
}
