// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ferry

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/blinklabs-io/ferry/event"
	"github.com/blinklabs-io/ferry/ledger"
)

// activityFeed writes one structured log line per ledger event
type activityFeed struct {
	eventBus *event.EventBus
	logger   *slog.Logger
	subIds   map[event.EventType]event.EventSubscriberId
	mu       sync.Mutex
}

func newActivityFeed(
	eventBus *event.EventBus,
	logger *slog.Logger,
) *activityFeed {
	return &activityFeed{
		eventBus: eventBus,
		logger:   logger.With("component", "activity"),
		subIds:   make(map[event.EventType]event.EventSubscriberId),
	}
}

func (a *activityFeed) start() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, eventType := range ledger.AllEventTypes {
		if _, ok := a.subIds[eventType]; ok {
			continue
		}
		a.subIds[eventType] = a.eventBus.SubscribeFunc(
			eventType,
			a.handleEvent,
		)
	}
}

func (a *activityFeed) stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	for eventType, subId := range a.subIds {
		a.eventBus.Unsubscribe(eventType, subId)
		delete(a.subIds, eventType)
	}
}

func (a *activityFeed) handleEvent(evt event.Event) {
	attrs := []any{"event", string(evt.Type)}
	switch data := evt.Data.(type) {
	case ledger.MigrationCreatedEvent:
		attrs = append(
			attrs,
			"migration", data.Migration.String(),
			"name", data.Name,
			"admin", data.Admin.String(),
			"authority", data.Authority.String(),
			"source_chain_id", data.SourceChainID,
			"commitment_root", data.CommitmentRoot.String(),
			"total_supply", data.TotalSupply,
		)
	case ledger.MigrationFinalizedEvent:
		attrs = append(
			attrs,
			"migration", data.Migration.String(),
			"migrated_amount", data.MigratedAmount,
			"already_finalized", data.AlreadyFinalized,
		)
	case ledger.MigrationFundedEvent:
		attrs = append(
			attrs,
			"migration", data.Migration.String(),
			"amount", data.Amount,
			"vault_balance", data.VaultBalance,
		)
	case ledger.ClaimEvent:
		attrs = append(
			attrs,
			"migration", data.Migration.String(),
			"claimant", data.Claimant.String(),
			"destination", data.Destination.String(),
			"amount", data.Amount,
			"leaf_index", data.LeafIndex,
			"migrated_amount", data.MigratedAmount,
			"transfer_id", data.TransferID,
		)
	case ledger.ReserveInitializedEvent:
		attrs = append(
			attrs,
			"migration", data.Migration.String(),
			"treasury", data.Treasury.String(),
			"vault", data.Vault.String(),
			"percentage", data.ReservePercentage,
		)
	case ledger.LiquidityContributedEvent:
		attrs = append(
			attrs,
			"migration", data.Migration.String(),
			"contributor", data.Contributor.String(),
			"amount", data.Amount,
			"total_reserved", data.TotalReserved,
			"transfer_id", data.TransferID,
		)
	case ledger.VoteCastEvent:
		attrs = append(
			attrs,
			"migration", data.Migration.String(),
			"voter", data.Voter.String(),
			"choice", data.Choice,
			"weight", data.Weight,
			"total_votes", data.TotalVotes,
		)
	case ledger.SnapshotRegisteredEvent:
		attrs = append(
			attrs,
			"migration", data.Migration.String(),
			"root", data.Root.String(),
			"claims", data.Claims,
		)
	default:
		a.logger.Warn(
			"unknown event data",
			append(attrs, "type", fmt.Sprintf("%T", data))...,
		)
		return
	}
	a.logger.Info("ledger activity", attrs...)
}
