// Package manager sequences validation, the transactional write and the
// history bookkeeping of each entity into single operations.  Managers
// return result.Result values; expected failures pass through untouched
// and anything else is logged, alerted and reported as a generic 500.
package manager

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/iliyamo/api-client-manager/internal/model"
	"github.com/iliyamo/api-client-manager/internal/result"
	"github.com/iliyamo/api-client-manager/internal/telemetry"
)

// Alerter receives operational alerts.  Notify must not block the caller.
type Alerter interface {
	Notify(message string)
}

type nopAlerter struct{}

func (nopAlerter) Notify(string) {}

// Settings are the tunables shared by the managers.
type Settings struct {
	PageCeiling    int
	SecretCost     int
	PublicIDLength int
	SecretLength   int
}

// DefaultSettings mirrors the configuration defaults.
func DefaultSettings() Settings {
	return Settings{PageCeiling: 20, SecretCost: 10, PublicIDLength: 15, SecretLength: 25}
}

// known maps a storage sentinel onto the failure it stands for.
type known struct {
	err     error
	failure *result.Failure
}

type base struct {
	entity string
	alerts Alerter
	known  []known
}

func newBase(entity string, alerts Alerter, k ...known) base {
	if alerts == nil {
		alerts = nopAlerter{}
	}
	return base{entity: entity, alerts: alerts, known: k}
}

func (b base) record(op, outcome string) {
	telemetry.OperationsTotal.WithLabelValues(b.entity, op, outcome).Inc()
}

func (b base) ok(op string, r result.Result) result.Result {
	b.record(op, "OK")
	return r
}

// fail converts err into a result.  Failures and storage races that map to
// a known failure are expected; the rest is reported.
func (b base) fail(op string, input any, err error) result.Result {
	var f *result.Failure
	if errors.As(err, &f) {
		b.record(op, string(f.Kind))
		return result.FromFailure(f)
	}
	for _, k := range b.known {
		if errors.Is(err, k.err) {
			b.record(op, string(k.failure.Kind))
			return result.FromFailure(k.failure)
		}
	}

	payload, mErr := json.Marshal(input)
	if mErr != nil {
		payload = []byte(fmt.Sprintf("%+v", input))
	}
	name := b.entity + "." + op
	slog.Error("operation failed", "operation", name, "input", string(payload), "err", err)
	b.alerts.Notify(fmt.Sprintf("An error occurred in %s: %s ==> %v", name, payload, err))
	b.record(op, string(result.KindInternal))
	return result.Internal()
}

func actorID(actor *model.Customer) uint64 {
	if actor == nil {
		return 0
	}
	return actor.ID
}
